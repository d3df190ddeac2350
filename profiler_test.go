package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pivolan/dataset_profiler/domain/models"
)

func numericColumn(name string, values []float64, missing []bool) models.Column {
	raw := make([]string, len(values))
	numbers := make([]float64, len(values))
	for i, v := range values {
		if missing != nil && missing[i] {
			raw[i] = ""
			numbers[i] = math.NaN()
			continue
		}
		raw[i] = "x"
		numbers[i] = v
	}
	if missing == nil {
		missing = make([]bool, len(values))
	}
	return models.Column{Name: name, Kind: models.KindNumeric, Raw: raw, Missing: missing, Numbers: numbers}
}

func categoricalColumn(name string, values []string, missing []bool) models.Column {
	if missing == nil {
		missing = make([]bool, len(values))
	}
	return models.Column{Name: name, Kind: models.KindCategorical, Raw: values, Missing: missing}
}

func TestSummarizeNumericKnownValues(t *testing.T) {
	col := numericColumn("v", []float64{1, 3, 3, 3, 5}, nil)
	s := summarizeNumeric(&col)

	assert.Equal(t, int64(5), s.Count)
	assert.InDelta(t, 3.0, float64(s.Mean), 1e-9)
	assert.InDelta(t, math.Sqrt2, float64(s.Std), 1e-9)
	assert.Equal(t, 1.0, float64(s.Min))
	assert.Equal(t, 3.0, float64(s.Q25))
	assert.Equal(t, 3.0, float64(s.Median))
	assert.Equal(t, 3.0, float64(s.Q75))
	assert.Equal(t, 5.0, float64(s.Max))
}

func TestSummarizeNumericSingleValue(t *testing.T) {
	col := numericColumn("v", []float64{42}, nil)
	s := summarizeNumeric(&col)

	assert.Equal(t, int64(1), s.Count)
	assert.Equal(t, 42.0, float64(s.Mean))
	// Выборочное отклонение не определено для одного значения
	assert.True(t, math.IsNaN(float64(s.Std)))
	assert.Equal(t, 42.0, float64(s.Median))
}

func TestSummarizeNumericAllMissing(t *testing.T) {
	col := numericColumn("v", []float64{0, 0}, []bool{true, true})
	s := summarizeNumeric(&col)

	assert.Equal(t, int64(0), s.Count)
	for _, v := range []models.Float{s.Mean, s.Std, s.Min, s.Q25, s.Median, s.Q75, s.Max} {
		assert.True(t, math.IsNaN(float64(v)))
	}
	assert.Equal(t, int64(0), s.Outliers)
}

func TestSummarizeNumericOutliers(t *testing.T) {
	values := []float64{10, 11, 12, 11, 10, 12, 11, 1000}
	col := numericColumn("v", values, nil)
	s := summarizeNumeric(&col)

	assert.Equal(t, int64(1), s.Outliers)
}

func TestSummarizeCategorical(t *testing.T) {
	tests := []struct {
		name       string
		values     []string
		missing    []bool
		wantCount  int64
		wantUnique int64
		wantTop    string
		wantFreq   int64
	}{
		{
			name:       "simple majority",
			values:     []string{"A", "A", "B"},
			wantCount:  3,
			wantUnique: 2,
			wantTop:    "A",
			wantFreq:   2,
		},
		{
			name:       "tie goes to first encountered",
			values:     []string{"a", "b", "b", "a"},
			wantCount:  4,
			wantUnique: 2,
			wantTop:    "a",
			wantFreq:   2,
		},
		{
			name:       "missing values excluded",
			values:     []string{"x", "", "y", "x"},
			missing:    []bool{false, true, false, false},
			wantCount:  3,
			wantUnique: 2,
			wantTop:    "x",
			wantFreq:   2,
		},
		{
			name:       "all missing",
			values:     []string{"", ""},
			missing:    []bool{true, true},
			wantCount:  0,
			wantUnique: 0,
			wantTop:    "",
			wantFreq:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := categoricalColumn("c", tt.values, tt.missing)
			s := summarizeCategorical(&col)
			assert.Equal(t, tt.wantCount, s.Count)
			assert.Equal(t, tt.wantUnique, s.Unique)
			assert.Equal(t, tt.wantTop, s.Top)
			assert.Equal(t, tt.wantFreq, s.Freq)
		})
	}
}

func TestProfileTable(t *testing.T) {
	table := &models.Table{
		Title: "test",
		Columns: []models.Column{
			numericColumn("num", []float64{1, 2, 0}, []bool{false, false, true}),
			categoricalColumn("cat", []string{"x", "y", "x"}, nil),
		},
	}

	summaries, missing := ProfileTable(table)
	require.Len(t, summaries, 2)

	assert.Equal(t, models.KindNumeric, summaries[0].Kind)
	require.NotNil(t, summaries[0].Numeric)
	assert.Nil(t, summaries[0].Categorical)
	assert.Equal(t, int64(2), summaries[0].Numeric.Count)

	assert.Equal(t, models.KindCategorical, summaries[1].Kind)
	require.NotNil(t, summaries[1].Categorical)
	assert.Nil(t, summaries[1].Numeric)

	assert.Equal(t, int64(1), missing.Total)
	assert.Equal(t, int64(1), missing.ByColumn["num"])
	assert.Equal(t, int64(0), missing.ByColumn["cat"])

	// Пропуски и значения вместе покрывают каждую ячейку
	var cells int64
	for _, col := range table.Columns {
		var nonMissing int64
		for _, m := range col.Missing {
			if !m {
				nonMissing++
			}
		}
		cells += nonMissing
	}
	assert.Equal(t, int64(table.RowCount()*len(table.Columns)), cells+missing.Total)
}

func TestProfileTableUnknownKind(t *testing.T) {
	table := &models.Table{
		Columns: []models.Column{
			{Name: "broken", Kind: models.ColumnKind("temporal"), Raw: []string{"a"}, Missing: []bool{false}},
			categoricalColumn("ok", []string{"x"}, nil),
		},
	}

	summaries, _ := ProfileTable(table)
	// Колонка с неизвестным типом выпадает, остальные остаются
	require.Len(t, summaries, 1)
	assert.Equal(t, "ok", summaries[0].Name)
}

func TestCalculateQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, calculateQuantile(sorted, 0.25), 1e-9)
	assert.InDelta(t, 2.5, calculateQuantile(sorted, 0.5), 1e-9)
	assert.InDelta(t, 3.25, calculateQuantile(sorted, 0.75), 1e-9)
	assert.Equal(t, 1.0, calculateQuantile(sorted, 0))
	assert.Equal(t, 4.0, calculateQuantile(sorted, 1))
}

func TestQuantileOrderInvariant(t *testing.T) {
	values := []float64{7, 1, 9, 4, 4, 2, 11, 5}
	col := numericColumn("v", values, nil)
	s := summarizeNumeric(&col)

	assert.LessOrEqual(t, float64(s.Min), float64(s.Q25))
	assert.LessOrEqual(t, float64(s.Q25), float64(s.Median))
	assert.LessOrEqual(t, float64(s.Median), float64(s.Q75))
	assert.LessOrEqual(t, float64(s.Q75), float64(s.Max))
}
