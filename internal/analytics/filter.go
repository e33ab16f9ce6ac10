package analytics

import (
	"sort"

	"dtindex/pkg/contracts/domain"
)

// Filter returns the records of ds matching every constraint of spec, ordered
// by ascending year. Range constraints on dimensions outside the schema are
// ignored; records lacking a constrained value are dropped. ds is not modified.
func Filter(ds *domain.Dataset, spec domain.FilterSpec) *domain.Dataset {
	view := &domain.Dataset{}
	if ds == nil {
		return view
	}
	view.Dimensions = append([]string(nil), ds.Dimensions...)
	view.Source = ds.Source

	ranges := make(map[string]domain.Range, len(spec.Ranges))
	for dim, r := range spec.Ranges {
		if ds.HasDimension(dim) {
			ranges[dim] = r
		}
	}

	records := make([]domain.Record, 0, len(ds.Records))
	if spec.IsZero() {
		records = append(records, ds.Records...)
	} else {
		for _, rec := range ds.Records {
			if matches(rec, spec, ranges) {
				records = append(records, rec)
			}
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Year < records[j].Year
	})
	view.Records = records
	return view
}

func matches(rec domain.Record, spec domain.FilterSpec, ranges map[string]domain.Range) bool {
	if spec.EntityID != "" && rec.EntityID != spec.EntityID {
		return false
	}
	if spec.YearFrom != 0 && rec.Year < spec.YearFrom {
		return false
	}
	if spec.YearTo != 0 && rec.Year > spec.YearTo {
		return false
	}
	for dim, r := range ranges {
		v, ok := rec.Value(dim)
		if !ok || !r.Contains(v) {
			return false
		}
	}
	return true
}
