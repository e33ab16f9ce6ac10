package dataset

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	apperrors "dtindex/internal/errors"
	"dtindex/pkg/contracts/domain"
)

// headerAliases repairs column names known to be misspelled in the source workbook
var headerAliases = map[string]string{
	"应 用维度": domain.DimensionApplication,
	"技术 维度": domain.DimensionTechnology,
}

// requiredColumns in the order they are reported when missing
var requiredColumns = []string{
	domain.ColumnEntityID,
	domain.ColumnEntityName,
	domain.ColumnYear,
	domain.DimensionIndex,
}

// Load reads src and parses it into a dataset stamped with source details.
// Every failure is a *errors.DataLoadError.
func Load(ctx context.Context, src Source) (*domain.Dataset, error) {
	rows, err := src.ReadRows(ctx)
	if err != nil {
		var loadErr *apperrors.DataLoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, apperrors.NewParseFailureError(src.Location(), 0, err)
	}

	ds, err := Parse(rows, src.Location())
	if err != nil {
		return nil, err
	}

	ds.Source = domain.SourceInfo{
		Kind:     src.Kind(),
		Location: src.Location(),
		Checksum: Checksum(rows),
		LoadedAt: time.Now().UTC(),
	}
	return ds, nil
}

// Parse turns a raw cell grid, header first, into a dataset. location only
// labels errors.
func Parse(rows [][]string, location string) (*domain.Dataset, error) {
	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}

	columns := make(map[string]int, len(header))
	names := make([]string, len(header))
	for i, raw := range header {
		name := NormalizeHeader(raw)
		names[i] = name
		if _, seen := columns[name]; !seen && name != "" {
			columns[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewMissingColumnsError(location, missing)
	}

	idCol := columns[domain.ColumnEntityID]
	nameCol := columns[domain.ColumnEntityName]
	yearCol := columns[domain.ColumnYear]

	// Index first, then every other non-key column in sheet order
	dimCols := map[string]int{domain.DimensionIndex: columns[domain.DimensionIndex]}
	candidates := []string{domain.DimensionIndex}
	for i, name := range names {
		if name == "" || columns[name] != i {
			continue
		}
		switch name {
		case domain.ColumnEntityID, domain.ColumnEntityName, domain.ColumnYear, domain.DimensionIndex:
			continue
		}
		dimCols[name] = i
		candidates = append(candidates, name)
	}

	records := make([]domain.Record, 0, len(rows))
	numeric := make(map[string]bool, len(candidates))

	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}

		year, err := parseYear(cell(row, yearCol))
		if err != nil {
			return nil, apperrors.NewParseFailureError(location, rowNum, err)
		}

		rec := domain.Record{
			EntityID:   NormalizeID(cell(row, idCol)),
			EntityName: strings.TrimSpace(cell(row, nameCol)),
			Year:       year,
			Metrics:    make(map[string]float64, len(candidates)),
		}
		for _, dim := range candidates {
			if v, ok := parseNumber(cell(row, dimCols[dim])); ok {
				rec.Metrics[dim] = v
				numeric[dim] = true
			}
		}
		records = append(records, rec)
	}

	dimensions := []string{domain.DimensionIndex}
	for _, dim := range candidates[1:] {
		if numeric[dim] {
			dimensions = append(dimensions, dim)
		} else {
			for j := range records {
				delete(records[j].Metrics, dim)
			}
		}
	}

	resolveNames(records)

	return &domain.Dataset{
		Dimensions: dimensions,
		Records:    records,
	}, nil
}

// NormalizeHeader trims a header cell and applies known spelling repairs
func NormalizeHeader(raw string) string {
	name := strings.TrimSpace(strings.TrimPrefix(raw, utf8BOM))
	if fixed, ok := headerAliases[name]; ok {
		return fixed
	}
	return name
}

// NormalizeID renders numeric company codes as six-digit zero-padded strings;
// fractional parts are truncated. Non-numeric or blank values pass through unchanged.
func NormalizeID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return raw
	}
	if math.Abs(f) >= 1<<63 {
		// Out of int64 range; already far wider than six digits
		return strconv.FormatFloat(math.Trunc(f), 'f', 0, 64)
	}
	return fmt.Sprintf("%06d", int64(f))
}

// Checksum is the hex BLAKE2b-256 digest of the cell grid
func Checksum(rows [][]string) string {
	h, _ := blake2b.New256(nil)
	for _, row := range rows {
		for j, c := range row {
			if j > 0 {
				h.Write([]byte{0x1f})
			}
			h.Write([]byte(c))
		}
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseYear(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("missing %s", domain.ColumnYear)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s %q", domain.ColumnYear, raw)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s %q is not a whole year", domain.ColumnYear, raw)
	}
	return int(f), nil
}

func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// resolveNames gives every record of a company the company's most frequent
// non-blank name; ties go to the lexicographically smallest spelling.
func resolveNames(records []domain.Record) {
	counts := make(map[string]map[string]int)
	for _, rec := range records {
		if rec.EntityName == "" {
			continue
		}
		byName, ok := counts[rec.EntityID]
		if !ok {
			byName = make(map[string]int)
			counts[rec.EntityID] = byName
		}
		byName[rec.EntityName]++
	}

	resolved := make(map[string]string, len(counts))
	for id, byName := range counts {
		best, bestCount := "", 0
		for name, n := range byName {
			if n > bestCount || (n == bestCount && name < best) {
				best, bestCount = name, n
			}
		}
		resolved[id] = best
	}

	for i := range records {
		records[i].EntityName = resolved[records[i].EntityID]
	}
}
