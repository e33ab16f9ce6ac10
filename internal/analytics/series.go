package analytics

import (
	"math"
	"sort"

	"dtindex/pkg/contracts/domain"
)

// point is one (year, value) observation
type point struct {
	x float64
	y float64
}

// values collects the present values of dim in record order
func values(view *domain.Dataset, dim string) []float64 {
	if view == nil {
		return nil
	}
	out := make([]float64, 0, len(view.Records))
	for _, rec := range view.Records {
		if v, ok := rec.Value(dim); ok {
			out = append(out, v)
		}
	}
	return out
}

// yearSeries collects (year, value) pairs of dim ordered by year
func yearSeries(view *domain.Dataset, dim string) []point {
	if view == nil {
		return nil
	}
	pts := make([]point, 0, len(view.Records))
	for _, rec := range view.Records {
		if v, ok := rec.Value(dim); ok {
			pts = append(pts, point{x: float64(rec.Year), y: v})
		}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].x < pts[j].x })
	return pts
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// sampleStd uses the n-1 denominator; NaN below two values
func sampleStd(vals []float64, m float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	ss := 0.0
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

// quantile interpolates linearly between closest ranks of a sorted slice
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}

	pos := q * float64(n-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	weight := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

// pearson returns the correlation of paired samples, NaN when either side is constant
func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return math.NaN()
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	r := sxy / math.Sqrt(sxx*syy)
	return math.Max(-1, math.Min(1, r))
}
