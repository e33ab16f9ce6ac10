package domain

// DescriptiveStats summarises one dimension of a view.
// Std is NaN for fewer than two observations; every field is NaN for none.
type DescriptiveStats struct {
	Dimension string `json:"dimension"`
	Count     int    `json:"count"`
	Mean      Number `json:"mean"`
	Std       Number `json:"std"`
	Min       Number `json:"min"`
	Q1        Number `json:"q1"`
	Median    Number `json:"median"`
	Q3        Number `json:"q3"`
	Max       Number `json:"max"`
}

// Rounded returns a copy with every statistic rounded to two decimals
func (s DescriptiveStats) Rounded() DescriptiveStats {
	r := func(n Number) Number { return Number(Round2(float64(n))) }
	s.Mean, s.Std, s.Min = r(s.Mean), r(s.Std), r(s.Min)
	s.Q1, s.Median, s.Q3, s.Max = r(s.Q1), r(s.Median), r(s.Q3), r(s.Max)
	return s
}

// TrendResult is the least-squares fit of a dimension against year.
// Only produced for two or more observations.
type TrendResult struct {
	Dimension    string  `json:"dimension"`
	Observations int     `json:"observations"`
	StartYear    int     `json:"start_year"`
	EndYear      int     `json:"end_year"`
	StartValue   float64 `json:"start_value"`
	EndValue     float64 `json:"end_value"`
	GrowthRate   float64 `json:"growth_rate"`
	Slope        float64 `json:"slope"`
	Intercept    float64 `json:"intercept"`
	RSquared     float64 `json:"r_squared"`
}

// Predict evaluates the fitted line at year
func (t TrendResult) Predict(year int) float64 {
	return t.Intercept + t.Slope*float64(year)
}

// ForecastPoint is one projected year
type ForecastPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// ForecastResult extrapolates a trend line past the last observed year
type ForecastResult struct {
	Dimension        string          `json:"dimension"`
	Slope            float64         `json:"slope"`
	Intercept        float64         `json:"intercept"`
	LastObservedYear int             `json:"last_observed_year"`
	Points           []ForecastPoint `json:"points"`
}

// CorrelationMatrix holds pairwise Pearson coefficients; Values[i][j]
// pairs Dimensions[i] with Dimensions[j].
type CorrelationMatrix struct {
	Dimensions []string   `json:"dimensions"`
	Values     [][]Number `json:"values"`
}

// At returns the coefficient for the pair (a, b)
func (m CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, dim := range m.Dimensions {
		if dim == a {
			i = k
		}
		if dim == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return float64(m.Values[i][j]), true
}

// ComparisonSeries is one column of a comparison table
type ComparisonSeries struct {
	EntityID string `json:"entity_id"`
	Label    string `json:"label"`
}

// ComparisonRow holds one year across all compared entities; nil marks a gap
type ComparisonRow struct {
	Year   int        `json:"year"`
	Values []*float64 `json:"values"`
}

// ComparisonTable aligns several entities on the union of their years
type ComparisonTable struct {
	Dimension string             `json:"dimension"`
	Columns   []ComparisonSeries `json:"columns"`
	Rows      []ComparisonRow    `json:"rows"`
}

// Direction labels the latest value against the period mean
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// SeriesPoint is a single year/value pair
type SeriesPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// DetailRow is one line of the per-year detail table, values rounded for display
type DetailRow struct {
	Year   int               `json:"year"`
	Values map[string]Number `json:"values"`
}

// Overview is the summary card for one company over a filtered period
type Overview struct {
	EntityID     string        `json:"entity_id"`
	EntityName   string        `json:"entity_name"`
	YearRange    string        `json:"year_range"`
	Observations int           `json:"observations"`
	Latest       float64       `json:"latest"`
	Max          float64       `json:"max"`
	Min          float64       `json:"min"`
	Mean         float64       `json:"mean"`
	Direction    Direction     `json:"direction"`
	Series       []SeriesPoint `json:"series"`
	Highlighted  []SeriesPoint `json:"highlighted"`
	Details      []DetailRow   `json:"details"`
}
