package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"dtindex/internal/dataset"
	apierrors "dtindex/internal/errors"
	"dtindex/pkg/contracts/domain"
)

// parseFilter reads entity, from, to and range parameters
func parseFilter(q url.Values) (domain.FilterSpec, error) {
	var spec domain.FilterSpec

	if raw := strings.TrimSpace(q.Get("entity")); raw != "" {
		spec.EntityID = dataset.NormalizeID(raw)
	}

	var err error
	if spec.YearFrom, err = parseOptionalInt(q, "from"); err != nil {
		return spec, err
	}
	if spec.YearTo, err = parseOptionalInt(q, "to"); err != nil {
		return spec, err
	}

	for _, raw := range q["range"] {
		dim, rng, err := domain.ParseRange(raw)
		if err != nil {
			return spec, apierrors.InvalidParameter("range", err)
		}
		if spec.Ranges == nil {
			spec.Ranges = make(map[string]domain.Range)
		}
		spec.Ranges[dim] = rng
	}

	return spec, nil
}

// parseOptionalInt returns 0 for an absent parameter
func parseOptionalInt(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.InvalidParameter(name, fmt.Errorf("%q is not an integer", raw))
	}
	return n, nil
}

// parseBoundedInt returns def for an absent parameter and rejects values
// outside [min, max]
func parseBoundedInt(q url.Values, name string, min, max, def int) (int, error) {
	if strings.TrimSpace(q.Get(name)) == "" {
		return def, nil
	}
	n, err := parseOptionalInt(q, name)
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, apierrors.FieldInvalid(name, fmt.Sprintf("%s must be between %d and %d", name, min, max))
	}
	return n, nil
}

// parseList accepts comma separated and repeated values; blanks are dropped
func parseList(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// parseIntList returns nil when the parameter is absent and an empty slice
// when it is present but empty
func parseIntList(q url.Values, name string) ([]int, error) {
	if _, ok := q[name]; !ok {
		return nil, nil
	}

	items := parseList(q, name)
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, apierrors.InvalidParameter(name, fmt.Errorf("%q is not an integer", item))
		}
		out = append(out, n)
	}
	return out, nil
}

// parseIDs reads the compare selection, normalising each stock code
func parseIDs(q url.Values) []string {
	items := parseList(q, "ids")
	for i, item := range items {
		items[i] = dataset.NormalizeID(item)
	}
	return items
}
