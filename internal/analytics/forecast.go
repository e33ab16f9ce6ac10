package analytics

import (
	"fmt"

	"dtindex/pkg/contracts/domain"
)

// Forecast extends the least-squares line of dim over the whole view for
// horizon years past the last observed year. Callers decide how many
// observations make a forecast worth showing; the fit itself needs two.
func Forecast(view *domain.Dataset, dim string, horizon int) (domain.ForecastResult, error) {
	if horizon < MinHorizon || horizon > MaxHorizon {
		return domain.ForecastResult{}, fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizon)
	}

	trend, ok := Trend(view, dim)
	if !ok {
		return domain.ForecastResult{}, fmt.Errorf("forecast %s: %w", dim, ErrTooFewObservations)
	}

	result := domain.ForecastResult{
		Dimension:        dim,
		Slope:            trend.Slope,
		Intercept:        trend.Intercept,
		LastObservedYear: trend.EndYear,
		Points:           make([]domain.ForecastPoint, 0, horizon),
	}
	for step := 1; step <= horizon; step++ {
		year := trend.EndYear + step
		result.Points = append(result.Points, domain.ForecastPoint{
			Year:  year,
			Value: trend.Predict(year),
		})
	}
	return result, nil
}
