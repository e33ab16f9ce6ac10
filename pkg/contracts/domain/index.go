package domain

import (
	"sort"
	"time"
)

// Column names of the annual-report workbook
const (
	ColumnEntityID   = "股票代码"
	ColumnEntityName = "企业名称"
	ColumnYear       = "年份"

	DimensionIndex       = "数字化转型指数"
	DimensionApplication = "应用维度"
	DimensionTechnology  = "技术维度"
)

// Record is one company-year observation
type Record struct {
	EntityID   string             `json:"entity_id"`
	EntityName string             `json:"entity_name"`
	Year       int                `json:"year"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Value returns the metric for dim and whether it was present in the source row
func (r Record) Value(dim string) (float64, bool) {
	v, ok := r.Metrics[dim]
	return v, ok
}

// SourceInfo describes where a dataset came from
type SourceInfo struct {
	Kind     string    `json:"kind"`
	Location string    `json:"location"`
	Checksum string    `json:"checksum,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Dataset is an immutable set of records sharing one dimension schema.
// Filtered views are Datasets too.
type Dataset struct {
	Dimensions []string   `json:"dimensions"`
	Records    []Record   `json:"records"`
	Source     SourceInfo `json:"source"`
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// HasDimension reports whether dim is part of the schema
func (d *Dataset) HasDimension(dim string) bool {
	for _, name := range d.Dimensions {
		if name == dim {
			return true
		}
	}
	return false
}

// Years returns the distinct years in ascending order
func (d *Dataset) Years() []int {
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, rec := range d.Records {
		if _, ok := seen[rec.Year]; ok {
			continue
		}
		seen[rec.Year] = struct{}{}
		years = append(years, rec.Year)
	}
	sort.Ints(years)
	return years
}

// EntityIDs returns the distinct entity identifiers in ascending order
func (d *Dataset) EntityIDs() []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, rec := range d.Records {
		if _, ok := seen[rec.EntityID]; ok {
			continue
		}
		seen[rec.EntityID] = struct{}{}
		ids = append(ids, rec.EntityID)
	}
	sort.Strings(ids)
	return ids
}

// EntityName returns the resolved display name for id
func (d *Dataset) EntityName(id string) (string, bool) {
	for _, rec := range d.Records {
		if rec.EntityID == id {
			return rec.EntityName, true
		}
	}
	return "", false
}

// EntityOption is one entry of the company selector
type EntityOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}
