package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is an inclusive value interval
type Range struct {
	Min float64 `json:"min" validate:"ltefield=Max"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the closed interval
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// FilterSpec is a conjunction of constraints over a dataset.
// Zero YearFrom or YearTo leaves that side unbounded.
type FilterSpec struct {
	EntityID string           `json:"entity_id,omitempty" validate:"omitempty,entityid"`
	YearFrom int              `json:"year_from,omitempty" validate:"omitempty,min=1900,max=2200"`
	YearTo   int              `json:"year_to,omitempty" validate:"omitempty,min=1900,max=2200,gtefield=YearFrom"`
	Ranges   map[string]Range `json:"ranges,omitempty" validate:"omitempty,dive"`
}

// IsZero reports whether s constrains nothing
func (s FilterSpec) IsZero() bool {
	return s.EntityID == "" && s.YearFrom == 0 && s.YearTo == 0 && len(s.Ranges) == 0
}

// ParseRange parses "<dim>:<lo>:<hi>"; the dimension itself may contain colons
func ParseRange(raw string) (string, Range, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 {
		return "", Range{}, fmt.Errorf("expected <dimension>:<min>:<max>, got %q", raw)
	}

	n := len(parts)
	dim := strings.TrimSpace(strings.Join(parts[:n-2], ":"))
	if dim == "" {
		return "", Range{}, fmt.Errorf("missing dimension in %q", raw)
	}

	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[n-2]), 64)
	if err != nil {
		return "", Range{}, fmt.Errorf("invalid minimum in %q", raw)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[n-1]), 64)
	if err != nil {
		return "", Range{}, fmt.Errorf("invalid maximum in %q", raw)
	}

	return dim, Range{Min: lo, Max: hi}, nil
}
