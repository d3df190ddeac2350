package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pivolan/dataset_profiler/domain/models"
)

func TestBuildChartJobsOrder(t *testing.T) {
	table := &models.Table{
		Columns: []models.Column{
			numericColumn("a", []float64{1, 2, 3}, nil),
			numericColumn("b", []float64{3, 2, 1}, nil),
		},
	}
	analysis := models.Analysis{
		Correlation: &models.CorrelationMatrix{
			Columns: []string{"a", "b"},
			Values:  [][]models.Float{{1, 0.5}, {0.5, 1}},
		},
		Histograms: []models.Histogram{
			{Column: "a", Bins: []models.HistogramData{
				{RangeStart: 0, RangeEnd: 1, Count: 2},
				{RangeStart: 1, RangeEnd: 2, Count: 1},
			}},
			// Одна корзина, плотность не строится
			{Column: "b", Bins: []models.HistogramData{{RangeStart: 5, RangeEnd: 5, Count: 3}}},
		},
		PCA:      &models.PCAResult{Explained: []float64{0.7, 0.3}, Scores: [][]float64{{0, 0}}},
		Clusters: &models.ClusterResult{K: 2, Sizes: []int{2, 1}, Labels: []int{0, 0, 1}},
	}
	jobs := buildChartJobs(table, analysis, testConfig(""), true)

	var files []string
	for _, j := range jobs {
		files = append(files, j.file)
	}
	assert.Equal(t, []string{
		"correlation_heatmap.png",
		"missing_values_heatmap.png",
		"distribution_a.png",
		"distribution_b.png",
		"density_a.png",
		"pairplot.png",
		"pca_scatter.png",
		"cluster_sizes.png",
		"correlation_heatmap.html",
	}, files)
}

func TestBuildChartJobsMinimal(t *testing.T) {
	table := &models.Table{
		Columns: []models.Column{categoricalColumn("c", []string{"x", "y"}, nil)},
	}
	jobs := buildChartJobs(table, models.Analysis{}, testConfig(""), false)

	require.Len(t, jobs, 1)
	assert.Equal(t, "missing_values_heatmap.png", jobs[0].file)
}

func TestGenerateCharts(t *testing.T) {
	table := &models.Table{
		Columns: []models.Column{
			numericColumn("a", []float64{1, 2, 3, 4}, nil),
			numericColumn("b", []float64{2, 4, 6, 8}, []bool{false, false, false, true}),
		},
	}
	analysis := AnalyzeTable(table, AnalyzerOptions{HistogramBins: 4})

	dir := t.TempDir()
	refs, err := GenerateCharts(table, analysis, dir, testConfig(""), false)
	require.NoError(t, err)
	require.NotEmpty(t, refs)

	assert.Equal(t, "correlation_heatmap.png", refs[0].File)
	assert.Equal(t, "missing_values_heatmap.png", refs[1].File)
	for _, ref := range refs {
		_, err := os.Stat(filepath.Join(dir, ref.File))
		assert.NoError(t, err, ref.File)
	}
}

func TestGenerateChartsSkipsFailedRender(t *testing.T) {
	table := &models.Table{
		Columns: []models.Column{numericColumn("a", []float64{1, 2, 3}, nil)},
	}
	// Пустая матрица не отрисуется, график выпадает без ошибки прогона
	analysis := models.Analysis{Correlation: &models.CorrelationMatrix{}}

	dir := t.TempDir()
	refs, err := GenerateCharts(table, analysis, dir, testConfig(""), false)
	require.NoError(t, err)

	for _, ref := range refs {
		assert.NotEqual(t, "correlation_heatmap.png", ref.File)
	}
	_, statErr := os.Stat(filepath.Join(dir, "correlation_heatmap.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestMissingMask(t *testing.T) {
	table := &models.Table{
		Columns: []models.Column{
			numericColumn("a", []float64{1, 2}, []bool{true, false}),
			categoricalColumn("b", []string{"x", ""}, []bool{false, true}),
		},
	}
	mask := missingMask(table)

	require.Len(t, mask, 2)
	assert.Equal(t, []bool{true, false}, mask[0])
	assert.Equal(t, []bool{false, true}, mask[1])
}

func TestNumericColumnsForPairplot(t *testing.T) {
	table := &models.Table{
		Columns: []models.Column{
			numericColumn("a", []float64{1}, nil),
			categoricalColumn("c", []string{"x"}, nil),
			numericColumn("b", []float64{2}, nil),
			numericColumn("d", []float64{3}, nil),
		},
	}
	assert.Equal(t, []int{0, 2, 3}, numericColumnsForPairplot(table, 5))
	assert.Equal(t, []int{0, 2}, numericColumnsForPairplot(table, 2))
}
