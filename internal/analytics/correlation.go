package analytics

import (
	"math"

	"dtindex/pkg/contracts/domain"
)

// Correlation builds the Pearson matrix of the requested dimensions (all of the
// view's when none are given). Each pair uses the records where both values are
// present. Entries involving a constant series are NaN; the diagonal is exactly
// 1 for every dimension that varies.
func Correlation(view *domain.Dataset, dims ...string) domain.CorrelationMatrix {
	if len(dims) == 0 && view != nil {
		dims = view.Dimensions
	}

	n := len(dims)
	matrix := domain.CorrelationMatrix{
		Dimensions: append([]string(nil), dims...),
		Values:     make([][]domain.Number, n),
	}
	for i := range matrix.Values {
		matrix.Values[i] = make([]domain.Number, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			xs, ys := paired(view, dims[i], dims[j])
			r := pearson(xs, ys)
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			matrix.Values[i][j] = domain.Number(r)
			matrix.Values[j][i] = domain.Number(r)
		}
	}
	return matrix
}

// paired collects values of a and b from records holding both
func paired(view *domain.Dataset, a, b string) ([]float64, []float64) {
	if view == nil {
		return nil, nil
	}
	xs := make([]float64, 0, len(view.Records))
	ys := make([]float64, 0, len(view.Records))
	for _, rec := range view.Records {
		x, okX := rec.Value(a)
		y, okY := rec.Value(b)
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}
