package analytics

import (
	"sort"

	"dtindex/pkg/contracts/domain"
)

// Describe summarises each requested dimension of view; no dims means all of
// the view's dimensions. Values are unrounded; use Rounded for display.
func Describe(view *domain.Dataset, dims ...string) []domain.DescriptiveStats {
	if len(dims) == 0 && view != nil {
		dims = view.Dimensions
	}

	out := make([]domain.DescriptiveStats, 0, len(dims))
	for _, dim := range dims {
		out = append(out, describeOne(dim, values(view, dim)))
	}
	return out
}

func describeOne(dim string, vals []float64) domain.DescriptiveStats {
	stats := domain.DescriptiveStats{
		Dimension: dim,
		Count:     len(vals),
		Mean:      domain.NaN(),
		Std:       domain.NaN(),
		Min:       domain.NaN(),
		Q1:        domain.NaN(),
		Median:    domain.NaN(),
		Q3:        domain.NaN(),
		Max:       domain.NaN(),
	}
	if len(vals) == 0 {
		return stats
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	m := mean(vals)
	stats.Mean = domain.Number(m)
	stats.Std = domain.Number(sampleStd(vals, m))
	stats.Min = domain.Number(sorted[0])
	stats.Q1 = domain.Number(quantile(sorted, 0.25))
	stats.Median = domain.Number(quantile(sorted, 0.5))
	stats.Q3 = domain.Number(quantile(sorted, 0.75))
	stats.Max = domain.Number(sorted[len(sorted)-1])
	return stats
}

// Mean is the arithmetic mean of dim over view, NaN when no value is present
func Mean(view *domain.Dataset, dim string) float64 {
	return mean(values(view, dim))
}
