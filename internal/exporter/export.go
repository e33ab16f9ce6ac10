package exporter

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dtindex/internal/config"
	apperrors "dtindex/internal/errors"
	"dtindex/pkg/contracts/domain"
)

// Write renders view in format to w
func Write(w io.Writer, view *domain.Dataset, format Format) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, view)
	case FormatXLSX:
		return WriteXLSX(w, view)
	case FormatJSON:
		return WriteJSON(w, view)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Export renders view in format and returns the encoded bytes
func Export(view *domain.Dataset, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, view, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var nameReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "\"", "", "\n", " ", "\r", " ")

// Filename builds "<id>_<name>_数字化转型指数.<ext>", dropping characters that
// are unsafe in a file name or Content-Disposition header
func Filename(entityID, entityName string, format Format) string {
	return fmt.Sprintf("%s_%s_%s.%s",
		nameReplacer.Replace(entityID),
		nameReplacer.Replace(entityName),
		config.ExportSuffix,
		format.Extension(),
	)
}

// ViewFilename names an export of view. An empty entityID means the view spans
// every company and the name uses "all".
func ViewFilename(view *domain.Dataset, entityID string, format Format) string {
	if entityID == "" {
		return Filename("all", "全部企业", format)
	}
	name, _ := view.EntityName(entityID)
	return Filename(entityID, name, format)
}

// Writer saves exports under the exports directory
type Writer struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewWriter creates a file writer rooted at paths.ExportsDir
func NewWriter(paths *config.Paths, logger *slog.Logger) *Writer {
	return &Writer{paths: paths, logger: logger}
}

// WriteFile renders view to filename (relative names land in the exports
// directory) and returns the full path
func (w *Writer) WriteFile(view *domain.Dataset, format Format, filename string) (string, error) {
	fullPath := w.paths.GetExportPath(filename)

	data, err := Export(view, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", apperrors.NewStorageError("create directory for", fullPath, err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", apperrors.NewStorageError("write", fullPath, err)
	}

	w.logger.Info("Export written",
		slog.String("format", string(format)),
		slog.String("full_path", fullPath),
		slog.Int("record_count", view.Len()),
		slog.Int("bytes", len(data)))
	return fullPath, nil
}
