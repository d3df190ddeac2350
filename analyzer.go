package main

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pivolan/dataset_profiler/domain/models"
)

// AnalyzerOptions задают пороги анализа, значения приходят из конфига и флагов.
type AnalyzerOptions struct {
	HistogramBins  int
	CorrThreshold  float64
	OutlierSigma   float64
	KmeansClusters int
}

func (o AnalyzerOptions) withDefaults() AnalyzerOptions {
	if o.HistogramBins <= 0 {
		o.HistogramBins = 30
	}
	if o.CorrThreshold <= 0 {
		o.CorrThreshold = 0.8
	}
	if o.OutlierSigma <= 0 {
		o.OutlierSigma = 3
	}
	if o.KmeansClusters <= 0 {
		o.KmeansClusters = 3
	}
	return o
}

// AnalyzeTable считает числовые секции отчета. Неудавшаяся секция
// логируется и выпадает из отчета, прогон продолжается.
func AnalyzeTable(t *models.Table, opts AnalyzerOptions) models.Analysis {
	opts = opts.withDefaults()
	numeric := t.NumericColumns()

	a := models.Analysis{}
	a.Histograms = buildHistograms(t, numeric, opts.HistogramBins)
	a.Outliers = findOutlierRows(t, numeric, opts.OutlierSigma)

	if len(numeric) < 2 {
		log.Printf("%v", &AnalysisError{
			Section: "correlation",
			Err:     fmt.Errorf("need at least 2 numeric columns, have %d", len(numeric)),
		})
		return a
	}

	a.Correlation = buildCorrelationMatrix(t, numeric)
	a.HighCorrelations = findHighCorrelations(a.Correlation, opts.CorrThreshold)
	a.TTests = runTTests(t, numeric)

	pca, cl, err := projectAndCluster(t, numeric, opts.KmeansClusters)
	if err != nil {
		log.Printf("%v", &AnalysisError{Section: "pca", Err: err})
	} else {
		a.PCA = pca
		a.Clusters = cl
	}
	return a
}

// pairAcc накапливает моменты по строкам, где обе колонки непустые.
type pairAcc struct {
	n                               int
	sumX, sumY, sumXX, sumYY, sumXY float64
}

func (p *pairAcc) add(x, y float64) {
	p.n++
	p.sumX += x
	p.sumY += y
	p.sumXX += x * x
	p.sumYY += y * y
	p.sumXY += x * y
}

func (p *pairAcc) pearson() float64 {
	if p.n < 2 {
		return math.NaN()
	}
	n := float64(p.n)
	cov := p.sumXY - p.sumX*p.sumY/n
	varX := p.sumXX - p.sumX*p.sumX/n
	varY := p.sumYY - p.sumY*p.sumY/n
	if varX <= 0 || varY <= 0 {
		return math.NaN()
	}
	r := cov / math.Sqrt(varX*varY)
	return math.Max(-1, math.Min(1, r))
}

func buildCorrelationMatrix(t *models.Table, numeric []int) *models.CorrelationMatrix {
	k := len(numeric)
	m := &models.CorrelationMatrix{
		Columns: make([]string, k),
		Values:  make([][]models.Float, k),
	}
	for i := range m.Values {
		m.Values[i] = make([]models.Float, k)
	}
	for a := 0; a < k; a++ {
		m.Columns[a] = t.Columns[numeric[a]].Name
		m.Values[a][a] = 1
	}

	rows := t.RowCount()
	for a := 0; a < k; a++ {
		colA := &t.Columns[numeric[a]]
		for b := a + 1; b < k; b++ {
			colB := &t.Columns[numeric[b]]
			acc := pairAcc{}
			for r := 0; r < rows; r++ {
				if colA.Missing[r] || colB.Missing[r] {
					continue
				}
				acc.add(colA.Numbers[r], colB.Numbers[r])
			}
			r := models.Float(acc.pearson())
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m
}

func buildHistograms(t *models.Table, numeric []int, bins int) []models.Histogram {
	var out []models.Histogram
	for _, idx := range numeric {
		col := &t.Columns[idx]
		values := col.NonMissing()
		if len(values) == 0 {
			continue
		}
		out = append(out, models.Histogram{Column: col.Name, Bins: histogramBins(values, bins)})
	}
	return out
}

// histogramBins строит корзины равной ширины; единственное уникальное
// значение дает одну корзину со всеми наблюдениями.
func histogramBins(values []float64, bins int) []models.HistogramData {
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		return []models.HistogramData{{RangeStart: min, RangeEnd: max, Count: len(values)}}
	}
	if bins < 1 {
		bins = 1
	}
	width := (max - min) / float64(bins)
	out := make([]models.HistogramData, bins)
	for i := range out {
		out[i].RangeStart = min + float64(i)*width
		out[i].RangeEnd = min + float64(i+1)*width
	}
	out[bins-1].RangeEnd = max
	for _, v := range values {
		i := int((v - min) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

// findOutlierRows отмечает строки, где хоть одна числовая ячейка дальше
// sigma выборочных отклонений от среднего своей колонки.
func findOutlierRows(t *models.Table, numeric []int, sigma float64) *models.OutlierReport {
	if len(numeric) == 0 {
		return nil
	}
	rows := t.RowCount()
	flagged := make([]bool, rows)
	for _, idx := range numeric {
		col := &t.Columns[idx]
		values := col.NonMissing()
		if len(values) < 2 {
			continue
		}
		mean, _ := stats.Mean(values)
		std, _ := stats.StandardDeviationSample(values)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		for r := 0; r < rows; r++ {
			if col.Missing[r] {
				continue
			}
			if math.Abs(col.Numbers[r]-mean) > sigma*std {
				flagged[r] = true
			}
		}
	}

	report := &models.OutlierReport{Sigma: sigma}
	for r, f := range flagged {
		if f {
			report.Count++
			report.Rows = append(report.Rows, r)
		}
	}
	return report
}

func findHighCorrelations(m *models.CorrelationMatrix, threshold float64) []models.HighCorrelation {
	var out []models.HighCorrelation
	for i := 0; i < m.Size(); i++ {
		for j := i + 1; j < m.Size(); j++ {
			r := m.At(i, j)
			if math.IsNaN(r) || math.Abs(r) <= threshold {
				continue
			}
			out = append(out, models.HighCorrelation{ColumnA: m.Columns[i], ColumnB: m.Columns[j], R: r})
		}
	}
	sort.Slice(out, func(i, j int) bool { return math.Abs(out[i].R) > math.Abs(out[j].R) })
	return out
}

// runTTests выполняет t-тест Уэлча для каждой неупорядоченной пары числовых
// колонок по их непустым значениям.
func runTTests(t *models.Table, numeric []int) []models.TTestResult {
	var out []models.TTestResult
	for a := 0; a < len(numeric); a++ {
		for b := a + 1; b < len(numeric); b++ {
			colA := &t.Columns[numeric[a]]
			colB := &t.Columns[numeric[b]]
			res, err := welchTTest(colA.NonMissing(), colB.NonMissing())
			if err != nil {
				log.Printf("%v", &AnalysisError{
					Section: fmt.Sprintf("t-test %s vs %s", colA.Name, colB.Name),
					Err:     err,
				})
				continue
			}
			res.ColumnA = colA.Name
			res.ColumnB = colB.Name
			out = append(out, res)
		}
	}
	return out
}

func welchTTest(x, y []float64) (models.TTestResult, error) {
	if len(x) < 2 || len(y) < 2 {
		return models.TTestResult{}, fmt.Errorf("need at least 2 observations per sample")
	}
	meanX, _ := stats.Mean(x)
	meanY, _ := stats.Mean(y)
	varX, _ := stats.SampleVariance(x)
	varY, _ := stats.SampleVariance(y)
	nx := float64(len(x))
	ny := float64(len(y))

	se := varX/nx + varY/ny
	if se == 0 {
		// Обе выборки константны
		if meanX == meanY {
			return models.TTestResult{T: 0, DF: models.Float(nx + ny - 2), P: 1}, nil
		}
		return models.TTestResult{}, fmt.Errorf("zero variance in both samples")
	}

	tStat := (meanX - meanY) / math.Sqrt(se)
	df := se * se / ((varX/nx)*(varX/nx)/(nx-1) + (varY/ny)*(varY/ny)/(ny-1))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(tStat))
	return models.TTestResult{T: models.Float(tStat), DF: models.Float(df), P: models.Float(p)}, nil
}

func completeRows(t *models.Table, numeric []int) []int {
	rows := t.RowCount()
	var out []int
	for r := 0; r < rows; r++ {
		ok := true
		for _, idx := range numeric {
			if t.Columns[idx].Missing[r] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}

// standardizeRows возвращает плоскую матрицу z-оценок по полным строкам.
// Колонка с нулевым разбросом превращается в нули.
func standardizeRows(t *models.Table, numeric []int, complete []int) []float64 {
	n := len(complete)
	d := len(numeric)
	data := make([]float64, n*d)
	for j, idx := range numeric {
		col := &t.Columns[idx]
		sample := make([]float64, n)
		for i, r := range complete {
			sample[i] = col.Numbers[r]
		}
		mean, _ := stats.Mean(sample)
		std, _ := stats.StandardDeviationSample(sample)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i := range sample {
			data[i*d+j] = (sample[i] - mean) / std
		}
	}
	return data
}

// projectAndCluster проецирует полные числовые строки на две главные
// компоненты и кластеризует те же строки k-средними.
func projectAndCluster(t *models.Table, numeric []int, k int) (*models.PCAResult, *models.ClusterResult, error) {
	complete := completeRows(t, numeric)
	if len(complete) < 3 {
		return nil, nil, fmt.Errorf("need at least 3 complete rows, have %d", len(complete))
	}

	n := len(complete)
	d := len(numeric)
	data := standardizeRows(t, numeric, complete)
	dense := mat.NewDense(n, d, data)

	var pc stat.PC
	if ok := pc.PrincipalComponents(dense, nil); !ok {
		return nil, nil, fmt.Errorf("principal components did not converge")
	}
	vars := pc.VarsTo(nil)
	total := 0.0
	for _, v := range vars {
		total += v
	}

	ncomp := 2
	if d < ncomp {
		ncomp = d
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	var proj mat.Dense
	proj.Mul(dense, vecs.Slice(0, d, 0, ncomp))

	pca := &models.PCAResult{Rows: complete}
	for _, idx := range numeric {
		pca.Columns = append(pca.Columns, t.Columns[idx].Name)
	}
	for c := 0; c < ncomp; c++ {
		ratio := 0.0
		if total > 0 {
			ratio = vars[c] / total
		}
		pca.Explained = append(pca.Explained, ratio)
	}
	pca.Scores = make([][]float64, n)
	for r := range pca.Scores {
		row := make([]float64, ncomp)
		for c := 0; c < ncomp; c++ {
			row[c] = proj.At(r, c)
		}
		pca.Scores[r] = row
	}

	cl, err := clusterRows(data, n, d, k)
	if err != nil {
		log.Printf("%v", &AnalysisError{Section: "kmeans", Err: err})
		return pca, nil, nil
	}
	return pca, cl, nil
}

// rowObs привязывает наблюдение к номеру строки, чтобы восстановить
// метки кластеров после Partition.
type rowObs struct {
	row    int
	coords clusters.Coordinates
}

func (o rowObs) Coordinates() clusters.Coordinates { return o.coords }

func (o rowObs) Distance(p clusters.Coordinates) float64 { return o.coords.Distance(p) }

func clusterRows(data []float64, n, d, k int) (*models.ClusterResult, error) {
	if n < k {
		return nil, fmt.Errorf("need at least %d complete rows, have %d", k, n)
	}
	obs := make(clusters.Observations, n)
	for i := 0; i < n; i++ {
		obs[i] = rowObs{row: i, coords: clusters.Coordinates(data[i*d : (i+1)*d])}
	}

	km := kmeans.New()
	cls, err := km.Partition(obs, k)
	if err != nil {
		return nil, err
	}

	labels := make([]int, n)
	sizes := make([]int, len(cls))
	for ci, c := range cls {
		sizes[ci] = len(c.Observations)
		for _, o := range c.Observations {
			labels[o.(rowObs).row] = ci
		}
	}
	return &models.ClusterResult{K: k, Sizes: sizes, Labels: labels}, nil
}
