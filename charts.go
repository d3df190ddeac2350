// charts.go
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/pivolan/dataset_profiler/config"
	"github.com/pivolan/dataset_profiler/domain/models"
	"github.com/pivolan/dataset_profiler/plot"
)

// chartJob описывает один файл графика: что рисовать и куда класть.
type chartJob struct {
	title  string
	file   string
	render func() ([]byte, error)
}

// GenerateCharts рисует все графики по таблице и результатам анализа в dir.
// Ошибка отрисовки не валит прогон, график просто выпадает из списка.
// Ошибка записи на диск фатальна.
func GenerateCharts(t *models.Table, analysis models.Analysis, dir string, cfg config.Config, includeHTML bool) ([]models.ChartRef, error) {
	jobs := buildChartJobs(t, analysis, cfg, includeHTML)
	results := make([]*models.ChartRef, len(jobs))

	g := errgroup.Group{}
	g.SetLimit(4)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			data, err := job.render()
			if err != nil {
				log.Printf("%v", &AnalysisError{Section: job.title, Err: err})
				return nil
			}
			path := filepath.Join(dir, job.file)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return &RenderError{Path: path, Err: err}
			}
			results[i] = &models.ChartRef{Title: job.title, File: job.file}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	refs := make([]models.ChartRef, 0, len(results))
	for _, r := range results {
		if r != nil {
			refs = append(refs, *r)
		}
	}
	return refs, nil
}

func buildChartJobs(t *models.Table, analysis models.Analysis, cfg config.Config, includeHTML bool) []chartJob {
	var jobs []chartJob

	if analysis.Correlation != nil {
		corr := analysis.Correlation
		jobs = append(jobs, chartJob{
			title: "Correlation Matrix",
			file:  "correlation_heatmap.png",
			render: func() ([]byte, error) {
				return plot.DrawCorrelationHeatmap(corr.Columns, correlationValues(corr), "Correlation Matrix")
			},
		})
	}

	jobs = append(jobs, chartJob{
		title: "Missing Values",
		file:  "missing_values_heatmap.png",
		render: func() ([]byte, error) {
			return plot.DrawMissingMatrix(columnNames(t), missingMask(t))
		},
	})

	for i, hist := range analysis.Histograms {
		if i >= cfg.MaxDistCharts {
			break
		}
		hist := hist
		jobs = append(jobs, chartJob{
			title: fmt.Sprintf("Distribution of %s", hist.Column),
			file:  fmt.Sprintf("distribution_%s.png", hist.Column),
			render: func() ([]byte, error) {
				starts, ends, counts := histogramSeries(hist)
				data := plot.NewDataRangeXValuesForGraph(starts, ends, counts, "Frequency", fmt.Sprintf("Distribution of %s", hist.Column))
				return plot.DrawPlotBar(data)
			},
		})
	}
	for i, hist := range analysis.Histograms {
		if i >= cfg.MaxDistCharts {
			break
		}
		// Плотность по одной корзине не построить
		if len(hist.Bins) < 2 {
			continue
		}
		hist := hist
		jobs = append(jobs, chartJob{
			title: fmt.Sprintf("Density of %s", hist.Column),
			file:  fmt.Sprintf("density_%s.png", hist.Column),
			render: func() ([]byte, error) {
				mids, counts := histogramMidpoints(hist)
				return plot.DrawDensityPlot(mids, counts)
			},
		})
	}

	if pairCols := numericColumnsForPairplot(t, cfg.PairplotColumns); len(pairCols) >= 2 {
		jobs = append(jobs, chartJob{
			title: "Pairplot",
			file:  "pairplot.png",
			render: func() ([]byte, error) {
				names, values, missing := pairplotData(t, pairCols)
				return plot.DrawPairplot(names, values, missing)
			},
		})
	}

	if analysis.PCA != nil && len(analysis.PCA.Explained) >= 2 {
		pca := analysis.PCA
		var labels []int
		if analysis.Clusters != nil {
			labels = analysis.Clusters.Labels
		}
		jobs = append(jobs, chartJob{
			title: "PCA Projection",
			file:  "pca_scatter.png",
			render: func() ([]byte, error) {
				nameX := fmt.Sprintf("PC1 (%.1f%%)", pca.Explained[0]*100)
				nameY := fmt.Sprintf("PC2 (%.1f%%)", pca.Explained[1]*100)
				return plot.DrawClusterScatter(pca.Scores, labels, "PCA Projection", nameX, nameY, cfg.ChartWidth, cfg.ChartHeight)
			},
		})
	}

	if analysis.Clusters != nil {
		cl := analysis.Clusters
		jobs = append(jobs, chartJob{
			title: "Cluster Sizes",
			file:  "cluster_sizes.png",
			render: func() ([]byte, error) {
				labels := make([]string, len(cl.Sizes))
				sizes := make([]float64, len(cl.Sizes))
				for i, s := range cl.Sizes {
					labels[i] = fmt.Sprintf("cluster %d", i)
					sizes[i] = float64(s)
				}
				data := plot.NewDataXStringsForGraph(labels, sizes, "Rows", "Cluster Sizes")
				return plot.DrawPlotBar(data)
			},
		})
	}

	if includeHTML && analysis.Correlation != nil {
		corr := analysis.Correlation
		jobs = append(jobs, chartJob{
			title: "Interactive Correlation Matrix",
			file:  "correlation_heatmap.html",
			render: func() ([]byte, error) {
				var buf bytes.Buffer
				if err := plot.RenderCorrelationHTML(&buf, corr.Columns, correlationValues(corr), "Correlation Matrix"); err != nil {
					return nil, err
				}
				return buf.Bytes(), nil
			},
		})
	}

	return jobs
}

func correlationValues(m *models.CorrelationMatrix) [][]float64 {
	out := make([][]float64, len(m.Values))
	for i, row := range m.Values {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = float64(v)
		}
	}
	return out
}

func columnNames(t *models.Table) []string {
	names := make([]string, len(t.Columns))
	for i := range t.Columns {
		names[i] = t.Columns[i].Name
	}
	return names
}

// missingMask разворачивает пропуски в построчную маску для карты пропусков.
func missingMask(t *models.Table) [][]bool {
	rows := t.RowCount()
	mask := make([][]bool, rows)
	for r := 0; r < rows; r++ {
		mask[r] = make([]bool, len(t.Columns))
		for c := range t.Columns {
			col := &t.Columns[c]
			mask[r][c] = r < len(col.Missing) && col.Missing[r]
		}
	}
	return mask
}

func histogramSeries(h models.Histogram) (starts, ends, counts []float64) {
	for _, b := range h.Bins {
		starts = append(starts, b.RangeStart)
		ends = append(ends, b.RangeEnd)
		counts = append(counts, float64(b.Count))
	}
	return starts, ends, counts
}

func histogramMidpoints(h models.Histogram) (mids, counts []float64) {
	for _, b := range h.Bins {
		mids = append(mids, (b.RangeStart+b.RangeEnd)/2)
		counts = append(counts, float64(b.Count))
	}
	return mids, counts
}

func numericColumnsForPairplot(t *models.Table, limit int) []int {
	numeric := t.NumericColumns()
	if limit > 0 && len(numeric) > limit {
		numeric = numeric[:limit]
	}
	return numeric
}

func pairplotData(t *models.Table, cols []int) (names []string, values [][]float64, missing [][]bool) {
	for _, idx := range cols {
		col := &t.Columns[idx]
		names = append(names, col.Name)
		values = append(values, col.Numbers)
		missing = append(missing, col.Missing)
	}
	return names, values, missing
}
