package config

import "time"

// Application constants
const (
	AppName    = "dtindex"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. DTI_SERVER_PORT
	EnvPrefix = "DTI"

	// DefaultDatasetFile is the merged annual-report workbook shipped next to the binary
	DefaultDatasetFile = "两版合并后的年报数据_完整版.xlsx"

	// ExportSuffix is appended to every export file name
	ExportSuffix = "数字化转型指数"
)

// Dataset source kinds
const (
	SourceExcel  = "excel"
	SourceCSV    = "csv"
	SourceSheets = "sheets"
)

// Analysis limits
const (
	MinForecastHorizon      = 1
	MaxForecastHorizon      = 5
	DefaultForecastHorizon  = 3
	MinForecastObservations = 3
)

// File paths (relative to executable)
const (
	DefaultDataDir    = "data"
	DefaultExportsDir = "data/exports"
	DefaultLogsDir    = "logs"
	DefaultLogFile    = "app.log"
)

// Timeouts and periods
const (
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultLoadTimeout   = 2 * time.Minute
	WebSocketWriteWait   = 10 * time.Second
	WebSocketPingPeriod  = 30 * time.Second
	WebSocketPongWait    = 60 * time.Second
	WebSocketMaxMessage  = 64 * 1024
	DefaultSessionBuffer = 16
)
