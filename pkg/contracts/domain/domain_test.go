package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() *Dataset {
	return &Dataset{
		Dimensions: []string{DimensionIndex},
		Records: []Record{
			{EntityID: "600519", EntityName: "贵州茅台", Year: 2021, Metrics: map[string]float64{DimensionIndex: 30}},
			{EntityID: "000001", EntityName: "平安银行", Year: 2019, Metrics: map[string]float64{DimensionIndex: 50}},
			{EntityID: "600519", EntityName: "贵州茅台", Year: 2019, Metrics: map[string]float64{}},
		},
	}
}

func TestDataset_Accessors(t *testing.T) {
	ds := sampleDataset()

	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []int{2019, 2021}, ds.Years())
	assert.Equal(t, []string{"000001", "600519"}, ds.EntityIDs())
	assert.True(t, ds.HasDimension(DimensionIndex))
	assert.False(t, ds.HasDimension(DimensionTechnology))

	name, ok := ds.EntityName("600519")
	assert.True(t, ok)
	assert.Equal(t, "贵州茅台", name)

	_, ok = ds.EntityName("999999")
	assert.False(t, ok)

	var empty *Dataset
	assert.Equal(t, 0, empty.Len())
}

func TestRecord_ValueDistinguishesMissing(t *testing.T) {
	ds := sampleDataset()

	_, ok := ds.Records[2].Value(DimensionIndex)
	assert.False(t, ok)

	v, ok := ds.Records[0].Value(DimensionIndex)
	assert.True(t, ok)
	assert.Equal(t, 30.0, v)
}

func TestNumber_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   Number
		want string
	}{
		{"finite", Number(1.25), "1.25"},
		{"nan", NaN(), "null"},
		{"inf", Number(math.Inf(1)), "null"},
		{"integer", Number(3), "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}

	var n Number
	require.NoError(t, json.Unmarshal([]byte("null"), &n))
	assert.True(t, n.IsNaN())
}

func TestDescriptiveStats_Rounded(t *testing.T) {
	s := DescriptiveStats{Mean: 1.23456, Std: NaN(), Max: 9.999}
	r := s.Rounded()

	assert.Equal(t, Number(1.23), r.Mean)
	assert.True(t, r.Std.IsNaN())
	assert.Equal(t, Number(10), r.Max)
}

func TestCorrelationMatrix_At(t *testing.T) {
	m := CorrelationMatrix{
		Dimensions: []string{"a", "b"},
		Values:     [][]Number{{1, 0.5}, {0.5, 1}},
	}

	v, ok := m.At("a", "b")
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)

	_, ok = m.At("a", "c")
	assert.False(t, ok)
}

func TestRange_Contains(t *testing.T) {
	r := Range{Min: 10, Max: 20}
	assert.True(t, r.Contains(10))
	assert.True(t, r.Contains(20))
	assert.False(t, r.Contains(20.01))
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		raw     string
		dim     string
		rng     Range
		wantErr bool
	}{
		{raw: "应用维度:10:20", dim: "应用维度", rng: Range{Min: 10, Max: 20}},
		{raw: " 技术维度 : -1.5 : 2 ", dim: "技术维度", rng: Range{Min: -1.5, Max: 2}},
		{raw: "ratio:a:b:0:1", dim: "ratio:a:b", rng: Range{Min: 0, Max: 1}},
		{raw: "应用维度:10", wantErr: true},
		{raw: ":1:2", wantErr: true},
		{raw: "应用维度:x:2", wantErr: true},
		{raw: "应用维度:1:y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			dim, rng, err := ParseRange(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dim, dim)
			assert.Equal(t, tt.rng, rng)
		})
	}
}
