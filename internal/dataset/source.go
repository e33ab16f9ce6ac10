package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"dtindex/internal/config"
	apperrors "dtindex/internal/errors"
)

// Source yields the raw cell grid of the annual-report table, header first
type Source interface {
	Kind() string
	Location() string
	ReadRows(ctx context.Context) ([][]string, error)
}

// Stamper is implemented by sources that can report a change token cheaply.
// Equal stamps mean the underlying data is unchanged.
type Stamper interface {
	Stamp() string
}

const utf8BOM = "\ufeff"

// fileStamp identifies a file revision by size and modification time
func fileStamp(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "missing"
		}
		return "error:" + err.Error()
	}
	return fmt.Sprintf("%d-%d", info.Size(), info.ModTime().UnixNano())
}

// checkReadable maps a stat failure to the matching load error
func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.NewMissingFileError(path, err)
		}
		return apperrors.NewParseFailureError(path, 0, err)
	}
	if info.IsDir() {
		return apperrors.NewParseFailureError(path, 0, fmt.Errorf("%s is a directory", path))
	}
	return nil
}

// ExcelSource reads one sheet of an .xlsx workbook
type ExcelSource struct {
	Path string
	// Sheet selects a sheet by name; empty means the first sheet
	Sheet string
}

// NewExcelSource creates a source for the first sheet of path
func NewExcelSource(path string) *ExcelSource {
	return &ExcelSource{Path: path}
}

func (s *ExcelSource) Kind() string     { return "excel" }
func (s *ExcelSource) Location() string { return s.Path }
func (s *ExcelSource) Stamp() string    { return fileStamp(s.Path) }

// ReadRows returns raw (unformatted) cell values so numbers keep full precision
func (s *ExcelSource) ReadRows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkReadable(s.Path); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, apperrors.NewParseFailureError(s.Path, 0, err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParseFailureError(s.Path, 0, fmt.Errorf("workbook has no sheets"))
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParseFailureError(s.Path, 0, fmt.Errorf("read sheet %q: %w", sheet, err))
	}
	return rows, nil
}

// CSVSource reads a UTF-8 CSV table, with or without a byte order mark.
// When Reader is set it is consumed instead of Path.
type CSVSource struct {
	Path   string
	Reader io.Reader
}

// NewCSVSource creates a source for the CSV file at path
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Kind() string { return "csv" }

func (s *CSVSource) Location() string {
	if s.Path == "" {
		return "stream"
	}
	return s.Path
}

// Stamp is only meaningful for file-backed sources
func (s *CSVSource) Stamp() string {
	if s.Reader != nil {
		return "stream"
	}
	return fileStamp(s.Path)
}

// ReadRows parses the whole table; ragged rows are allowed
func (s *CSVSource) ReadRows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	var err error
	if s.Reader != nil {
		data, err = io.ReadAll(s.Reader)
	} else {
		if err := checkReadable(s.Path); err != nil {
			return nil, err
		}
		data, err = os.ReadFile(s.Path)
	}
	if err != nil {
		return nil, apperrors.NewParseFailureError(s.Location(), 0, err)
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte(utf8BOM))))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, apperrors.NewParseFailureError(s.Location(), parseErr.Line, err)
		}
		return nil, apperrors.NewParseFailureError(s.Location(), 0, err)
	}
	return rows, nil
}

// SheetsSource reads a Google Sheets values range
type SheetsSource struct {
	SpreadsheetID string
	Range         string
	Options       []option.ClientOption
}

// NewSheetsSource creates a Sheets source; a non-empty credentialsFile is used
// as the service-account key.
func NewSheetsSource(spreadsheetID, readRange, credentialsFile string, opts ...option.ClientOption) *SheetsSource {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return &SheetsSource{SpreadsheetID: spreadsheetID, Range: readRange, Options: opts}
}

func (s *SheetsSource) Kind() string { return "sheets" }

func (s *SheetsSource) Location() string {
	return fmt.Sprintf("sheets://%s/%s", s.SpreadsheetID, s.Range)
}

// ReadRows fetches unformatted values so numbers arrive as numbers
func (s *SheetsSource) ReadRows(ctx context.Context) ([][]string, error) {
	svc, err := sheets.NewService(ctx, s.Options...)
	if err != nil {
		return nil, apperrors.NewParseFailureError(s.Location(), 0, fmt.Errorf("create sheets service: %w", err))
	}

	resp, err := svc.Spreadsheets.Values.Get(s.SpreadsheetID, s.Range).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return nil, apperrors.NewMissingFileError(s.Location(), err)
		}
		return nil, apperrors.NewParseFailureError(s.Location(), 0, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cellString(cell)
		}
		rows[i] = cells
	}
	return rows, nil
}

// cellString renders a decoded JSON cell the way a spreadsheet would show it raw
func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// NewSourceFromConfig builds the source selected by cfg.Dataset.Source
func NewSourceFromConfig(cfg *config.Config, paths *config.Paths) (Source, error) {
	switch cfg.Dataset.Source {
	case config.SourceExcel, "":
		src := NewExcelSource(cfg.DatasetPath(paths))
		src.Sheet = cfg.Dataset.Sheet
		return src, nil
	case config.SourceCSV:
		return NewCSVSource(cfg.DatasetPath(paths)), nil
	case config.SourceSheets:
		if cfg.Dataset.SpreadsheetID == "" {
			return nil, fmt.Errorf("dataset spreadsheet id must be set for source %q", config.SourceSheets)
		}
		return NewSheetsSource(cfg.Dataset.SpreadsheetID, cfg.Dataset.Range, cfg.CredentialsPath(paths)), nil
	default:
		return nil, fmt.Errorf("unsupported dataset source: %q", cfg.Dataset.Source)
	}
}
