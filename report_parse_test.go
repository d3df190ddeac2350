package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pivolan/dataset_profiler/domain/models"
)

const sampleReadme = `# Automated Data Analysis Report

## Dataset: people

### Dataset Information

- **Rows**: 4

| # | Column | Type | Missing |
| ---| ---| ---| --- |
| 0 | name | categorical | 0 |
| 1 | score | numeric | 1 |

### Summary Statistics

| Column | Type | Count |
| ---| ---| --- |
| name | categorical | 4 |
| score | numeric | 3 |

### Key Findings

- No notable findings

### Narrative

No narrative was generated for this dataset.

### Visualizations

![Chart 1](./missing_values_heatmap.png)

*Missing values*

[Interactive correlation](./correlation_heatmap.html)

![Chart 2](./distribution_score.png)

*Distribution of score*
`

func TestParseReadme(t *testing.T) {
	facts := parseReadme([]byte(sampleReadme))

	assert.Equal(t, "Automated Data Analysis Report", facts.Title)
	assert.Equal(t, "people", facts.DatasetTitle)
	assert.Equal(t, 2, facts.ColumnTableRows)
	assert.Equal(t, 2, facts.SummaryRows)
	assert.Equal(t, []string{"4", "3"}, facts.SummaryCounts)
	// Обычная ссылка на html не считается картинкой
	assert.Equal(t, 2, facts.ChartImages)
	assert.True(t, hasHeading(facts, "Dataset Information"))
	assert.True(t, hasHeading(facts, "Key Findings"))
	assert.False(t, hasHeading(facts, "Missing Section"))
}

func TestParseReadmeGenerated(t *testing.T) {
	report := &models.Report{
		Dataset:     "demo",
		Source:      "demo.csv",
		Rows:        2,
		ColumnCount: 2,
		Columns: []models.ColumnType{
			{Name: "a", Kind: models.KindNumeric},
			{Name: "b", Kind: models.KindCategorical},
		},
		Summaries: []models.ColumnSummary{
			{Name: "a", Kind: models.KindNumeric, Numeric: &models.NumericStats{Count: 2}},
			{Name: "b", Kind: models.KindCategorical, Categorical: &models.CategoricalStats{Count: 2, Unique: 2, Top: "x", Freq: 1}},
		},
		Missing: models.MissingReport{ByColumn: map[string]int64{"a": 0, "b": 0}},
		Charts: []models.ChartRef{
			{Title: "Missing values", File: "missing_values_heatmap.png"},
		},
	}
	facts := parseReadme([]byte(GenerateReadme(report)))

	assert.Equal(t, report.ColumnCount, facts.ColumnTableRows)
	assert.Equal(t, len(report.Summaries), facts.SummaryRows)
	assert.Equal(t, []string{"2", "2"}, facts.SummaryCounts)
	assert.Equal(t, 1, facts.ChartImages)
	assert.Equal(t, "demo", facts.DatasetTitle)
}

func writeReadme(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// sampleSummaries повторяет сводную таблицу из sampleReadme.
func sampleSummaries() []models.ColumnSummary {
	return []models.ColumnSummary{
		{Name: "name", Kind: models.KindCategorical, Categorical: &models.CategoricalStats{Count: 4, Unique: 4, Top: "alice", Freq: 1}},
		{Name: "score", Kind: models.KindNumeric, Numeric: &models.NumericStats{Count: 3}},
	}
}

func TestVerifyReadme(t *testing.T) {
	report := &models.Report{
		ColumnCount: 2,
		Summaries:   sampleSummaries(),
		Charts: []models.ChartRef{
			{Title: "Missing values", File: "missing_values_heatmap.png"},
			{Title: "Interactive correlation", File: "correlation_heatmap.html"},
			{Title: "Distribution of score", File: "distribution_score.png"},
		},
	}
	path := writeReadme(t, sampleReadme)
	assert.NoError(t, verifyReadme(path, report))
}

func TestVerifyReadmeMismatch(t *testing.T) {
	path := writeReadme(t, sampleReadme)

	tests := []struct {
		name   string
		report *models.Report
		want   string
	}{
		{
			name: "column rows",
			report: &models.Report{
				ColumnCount: 5,
				Summaries:   make([]models.ColumnSummary, 2),
			},
			want: "column table",
		},
		{
			name: "summary rows",
			report: &models.Report{
				ColumnCount: 2,
				Summaries:   make([]models.ColumnSummary, 7),
			},
			want: "summary table",
		},
		{
			name: "count cell",
			report: &models.Report{
				ColumnCount: 2,
				Summaries: []models.ColumnSummary{
					{Name: "name", Kind: models.KindCategorical, Categorical: &models.CategoricalStats{Count: 9}},
					{Name: "score", Kind: models.KindNumeric, Numeric: &models.NumericStats{Count: 3}},
				},
			},
			want: "Count for name",
		},
		{
			name: "chart count",
			report: &models.Report{
				ColumnCount: 2,
				Summaries:   sampleSummaries(),
				Charts:      []models.ChartRef{{Title: "one", File: "one.png"}},
			},
			want: "charts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyReadme(path, tt.report)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestVerifyReadmeCountDrift(t *testing.T) {
	report := &models.Report{
		Dataset:     "demo",
		Rows:        4,
		ColumnCount: 2,
		Columns: []models.ColumnType{
			{Name: "score", Kind: models.KindNumeric},
			{Name: "name", Kind: models.KindCategorical},
		},
		Summaries: []models.ColumnSummary{
			{Name: "score", Kind: models.KindNumeric, Numeric: &models.NumericStats{Count: 3}},
			{Name: "name", Kind: models.KindCategorical, Categorical: &models.CategoricalStats{Count: 4, Unique: 2, Top: "x", Freq: 3}},
		},
		Missing: models.MissingReport{Total: 1, ByColumn: map[string]int64{"score": 1, "name": 0}},
	}
	path := writeReadme(t, GenerateReadme(report))
	require.NoError(t, verifyReadme(path, report))

	// README остался прежним, а счетчики в отчете уехали
	report.Summaries[0].Numeric.Count = 999
	err := verifyReadme(path, report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Count for score")

	report.Summaries[0].Numeric.Count = 3
	report.Summaries[1].Categorical.Count = 777
	err = verifyReadme(path, report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Count for name")
}

func TestVerifyReadmeMissingSection(t *testing.T) {
	content := "# Report\n\n### Dataset Information\n\ntext\n"
	path := writeReadme(t, content)
	report := &models.Report{}

	err := verifyReadme(path, report)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "section")
}
