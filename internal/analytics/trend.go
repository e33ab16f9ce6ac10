package analytics

import (
	"math"

	"dtindex/pkg/contracts/domain"
)

// Trend fits value = intercept + slope*year over every observation of dim.
// ok is false below two observations.
//
// A zero year spread yields slope 0 and intercept equal to the mean value.
// R² is 0 whenever either series is constant, and the growth rate is 0 when
// the first value is 0.
func Trend(view *domain.Dataset, dim string) (domain.TrendResult, bool) {
	pts := yearSeries(view, dim)
	if len(pts) < 2 {
		return domain.TrendResult{Dimension: dim, Observations: len(pts)}, false
	}

	slope, intercept, r2 := fit(pts)
	first, last := pts[0], pts[len(pts)-1]

	growth := 0.0
	if first.y != 0 {
		growth = (last.y - first.y) / first.y * 100
	}

	return domain.TrendResult{
		Dimension:    dim,
		Observations: len(pts),
		StartYear:    int(first.x),
		EndYear:      int(last.x),
		StartValue:   first.y,
		EndValue:     last.y,
		GrowthRate:   growth,
		Slope:        slope,
		Intercept:    intercept,
		RSquared:     r2,
	}, true
}

// TrendAll fits every requested dimension that has at least two observations;
// no dims means all of the view's dimensions.
func TrendAll(view *domain.Dataset, dims ...string) []domain.TrendResult {
	if len(dims) == 0 && view != nil {
		dims = view.Dimensions
	}
	out := make([]domain.TrendResult, 0, len(dims))
	for _, dim := range dims {
		if t, ok := Trend(view, dim); ok {
			out = append(out, t)
		}
	}
	return out
}

// fit is closed-form ordinary least squares
func fit(pts []point) (slope, intercept, r2 float64) {
	n := float64(len(pts))
	var sx, sy float64
	for _, p := range pts {
		sx += p.x
		sy += p.y
	}
	mx, my := sx/n, sy/n

	var sxy, sxx, syy float64
	for _, p := range pts {
		dx, dy := p.x-mx, p.y-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}

	if sxx == 0 {
		return 0, my, 0
	}
	slope = sxy / sxx
	intercept = my - slope*mx
	if syy == 0 {
		return slope, intercept, 0
	}
	r := sxy / math.Sqrt(sxx*syy)
	return slope, intercept, r * r
}
