package analytics

import (
	"fmt"
	"sort"

	"dtindex/pkg/contracts/domain"
)

// Compare aligns dim for up to five companies on the union of their years
// within [yearFrom, yearTo] (0 leaves a side open). Columns keep selection
// order; duplicate ids are collapsed. A company without a value in some year
// has a nil cell there.
func Compare(ds *domain.Dataset, ids []string, dim string, yearFrom, yearTo int) (domain.ComparisonTable, error) {
	selected := dedupe(ids)
	if len(selected) == 0 {
		return domain.ComparisonTable{}, ErrNoEntities
	}
	if len(selected) > MaxCompared {
		return domain.ComparisonTable{}, fmt.Errorf("%w: got %d", ErrTooManyEntities, len(selected))
	}
	if ds == nil || !ds.HasDimension(dim) {
		return domain.ComparisonTable{}, fmt.Errorf("%w: %s", ErrUnknownDimension, dim)
	}

	table := domain.ComparisonTable{
		Dimension: dim,
		Columns:   labelColumns(ds, selected),
	}

	column := make(map[string]int, len(selected))
	for i, id := range selected {
		column[id] = i
	}

	byYear := make(map[int][]*float64)
	for _, rec := range ds.Records {
		col, ok := column[rec.EntityID]
		if !ok {
			continue
		}
		if (yearFrom != 0 && rec.Year < yearFrom) || (yearTo != 0 && rec.Year > yearTo) {
			continue
		}
		v, ok := rec.Value(dim)
		if !ok {
			continue
		}
		row, ok := byYear[rec.Year]
		if !ok {
			row = make([]*float64, len(selected))
			byYear[rec.Year] = row
		}
		value := v
		row[col] = &value
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)

	table.Rows = make([]domain.ComparisonRow, 0, len(years))
	for _, year := range years {
		table.Rows = append(table.Rows, domain.ComparisonRow{Year: year, Values: byYear[year]})
	}
	return table, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// labelColumns names each column after its company, adding the id when two
// selected companies share a name. Unknown ids are labelled with the id.
func labelColumns(ds *domain.Dataset, ids []string) []domain.ComparisonSeries {
	names := make([]string, len(ids))
	counts := make(map[string]int, len(ids))
	for i, id := range ids {
		name, ok := ds.EntityName(id)
		if !ok || name == "" {
			name = id
		}
		names[i] = name
		counts[name]++
	}

	cols := make([]domain.ComparisonSeries, len(ids))
	for i, id := range ids {
		label := names[i]
		if counts[label] > 1 {
			label = fmt.Sprintf("%s (%s)", label, id)
		}
		cols[i] = domain.ComparisonSeries{EntityID: id, Label: label}
	}
	return cols
}
