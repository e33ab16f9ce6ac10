package contracts

import (
	"fmt"
	"runtime"
)

// Version of dtindex. The API and export layout versions move independently:
// APIVersion covers /api responses and live-session messages, ExportFormat the
// column layout of CSV, XLSX and JSON exports.
const (
	Version      = "1.0.0"
	APIVersion   = "v1"
	ExportFormat = "v1"
)

// Stamped by the mage build through -ldflags -X
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

// VersionInfo is what `dtindex version --json` and the server log at startup
type VersionInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	ExportFormat string `json:"export_format"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GitBranch    string `json:"git_branch"`
	GoVersion    string `json:"go_version"`
	Platform     string `json:"platform"`
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		APIVersion:   APIVersion,
		ExportFormat: ExportFormat,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GitBranch:    GitBranch,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetVersionString is the short form, e.g. "dtindex v1.0.0"
func GetVersionString() string {
	return "dtindex v" + Version
}

// GetFullVersionString adds the build stamp and toolchain
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s (commit %s on %s, built %s, %s %s)",
		GetVersionString(), info.GitCommit, info.GitBranch, info.BuildTime, info.GoVersion, info.Platform)
}
