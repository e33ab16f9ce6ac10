package analytics

import (
	"fmt"
	"sort"

	"dtindex/pkg/contracts/domain"
)

// NoYearsSelected labels an overview whose highlight selection is empty
const NoYearsSelected = "no years selected"

// Summarize builds the overview card of one company's view: index statistics,
// the year series with highlighted years picked out, and a per-year detail
// table rounded for display. ok is false when the view has no index value.
func Summarize(view *domain.Dataset, highlight []int) (domain.Overview, bool) {
	series := make([]domain.SeriesPoint, 0, view.Len())
	for _, p := range yearSeries(view, domain.DimensionIndex) {
		series = append(series, domain.SeriesPoint{Year: int(p.x), Value: p.y})
	}
	if len(series) == 0 {
		return domain.Overview{YearRange: yearRangeLabel(highlight)}, false
	}

	first := view.Records[0]
	overview := domain.Overview{
		EntityID:     first.EntityID,
		EntityName:   first.EntityName,
		YearRange:    yearRangeLabel(highlight),
		Observations: view.Len(),
		Latest:       series[len(series)-1].Value,
		Max:          series[0].Value,
		Min:          series[0].Value,
		Series:       series,
		Highlighted:  make([]domain.SeriesPoint, 0, len(series)),
	}

	selected := make(map[int]struct{}, len(highlight))
	for _, y := range highlight {
		selected[y] = struct{}{}
	}

	sum := 0.0
	for _, p := range series {
		sum += p.Value
		if p.Value > overview.Max {
			overview.Max = p.Value
		}
		if p.Value < overview.Min {
			overview.Min = p.Value
		}
		if _, ok := selected[p.Year]; ok {
			overview.Highlighted = append(overview.Highlighted, p)
		}
	}
	overview.Mean = sum / float64(len(series))

	overview.Direction = domain.DirectionDown
	if overview.Latest > overview.Mean {
		overview.Direction = domain.DirectionUp
	}

	overview.Details = details(view)
	return overview, true
}

func yearRangeLabel(years []int) string {
	if len(years) == 0 {
		return NoYearsSelected
	}
	lo, hi := years[0], years[0]
	for _, y := range years[1:] {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	return fmt.Sprintf("%d - %d", lo, hi)
}

// details renders one row per record with every dimension rounded to 2
// decimals; absent values are NaN.
func details(view *domain.Dataset) []domain.DetailRow {
	rows := make([]domain.DetailRow, 0, view.Len())
	for _, rec := range view.Records {
		row := domain.DetailRow{Year: rec.Year, Values: make(map[string]domain.Number, len(view.Dimensions))}
		for _, dim := range view.Dimensions {
			if v, ok := rec.Value(dim); ok {
				row.Values[dim] = domain.Number(domain.Round2(v))
			} else {
				row.Values[dim] = domain.NaN()
			}
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
	return rows
}

// EntityOptions lists every company as "id - name", sorted by id
func EntityOptions(ds *domain.Dataset) []domain.EntityOption {
	if ds == nil {
		return []domain.EntityOption{}
	}
	ids := ds.EntityIDs()
	opts := make([]domain.EntityOption, 0, len(ids))
	for _, id := range ids {
		name, _ := ds.EntityName(id)
		opts = append(opts, domain.EntityOption{
			ID:    id,
			Name:  name,
			Label: fmt.Sprintf("%s - %s", id, name),
		})
	}
	return opts
}
