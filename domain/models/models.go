package models

import (
	"math"
	"time"

	json "github.com/goccy/go-json"
)

type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
)

// Float сериализуется в null вместо NaN/Inf, чтобы report.json оставался валидным
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Column хранит колонку как есть: сырые ячейки, маску пропусков и,
// для числовых колонок, распарсенные значения (NaN на месте пропусков).
type Column struct {
	Name    string
	Kind    ColumnKind
	Raw     []string
	Missing []bool
	Numbers []float64
}

// NonMissing возвращает распарсенные значения без пропусков.
func (c *Column) NonMissing() []float64 {
	out := make([]float64, 0, len(c.Numbers))
	for i, v := range c.Numbers {
		if i < len(c.Missing) && c.Missing[i] {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (c *Column) MissingCount() int64 {
	var n int64
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

type Table struct {
	Title   string
	Source  string
	Columns []Column
}

func (t *Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Raw)
}

func (t *Table) ColumnCount() int {
	return len(t.Columns)
}

// NumericColumns возвращает индексы числовых колонок в порядке таблицы.
func (t *Table) NumericColumns() []int {
	var idx []int
	for i := range t.Columns {
		if t.Columns[i].Kind == KindNumeric {
			idx = append(idx, i)
		}
	}
	return idx
}

type NumericStats struct {
	Count    int64 `json:"count"`
	Mean     Float `json:"mean"`
	Std      Float `json:"std"`
	Min      Float `json:"min"`
	Q25      Float `json:"25%"`
	Median   Float `json:"50%"`
	Q75      Float `json:"75%"`
	Max      Float `json:"max"`
	Outliers int64 `json:"outliers"`
}

type CategoricalStats struct {
	Count  int64  `json:"count"`
	Unique int64  `json:"unique"`
	Top    string `json:"top"`
	Freq   int64  `json:"freq"`
}

// ColumnSummary несёт ровно одну группу статистик, по типу колонки.
type ColumnSummary struct {
	Name        string            `json:"name"`
	Kind        ColumnKind        `json:"kind"`
	Numeric     *NumericStats     `json:"numeric,omitempty"`
	Categorical *CategoricalStats `json:"categorical,omitempty"`
}

type MissingReport struct {
	Total    int64            `json:"total"`
	ByColumn map[string]int64 `json:"by_column"`
}

type CorrelationMatrix struct {
	Columns []string  `json:"columns"`
	Values  [][]Float `json:"values"`
}

func (m *CorrelationMatrix) At(i, j int) float64 {
	return float64(m.Values[i][j])
}

func (m *CorrelationMatrix) Size() int {
	return len(m.Columns)
}

type HistogramData struct {
	RangeStart float64 `json:"range_start"`
	RangeEnd   float64 `json:"range_end"`
	Count      int     `json:"count"`
}

type Histogram struct {
	Column string          `json:"column"`
	Bins   []HistogramData `json:"bins"`
}

type OutlierReport struct {
	Sigma float64 `json:"sigma"`
	Count int64   `json:"count"`
	Rows  []int   `json:"rows"`
}

type HighCorrelation struct {
	ColumnA string  `json:"column_a"`
	ColumnB string  `json:"column_b"`
	R       float64 `json:"r"`
}

type TTestResult struct {
	ColumnA string `json:"column_a"`
	ColumnB string `json:"column_b"`
	T       Float  `json:"t"`
	DF      Float  `json:"df"`
	P       Float  `json:"p"`
}

// PCAResult держит проекцию полных числовых строк на две главные компоненты.
// Scores и Rows не попадают в report.json, они нужны только диаграмме рассеяния.
type PCAResult struct {
	Columns   []string    `json:"columns"`
	Explained []float64   `json:"explained_variance_ratio"`
	Scores    [][]float64 `json:"-"`
	Rows      []int       `json:"-"`
}

type ClusterResult struct {
	K      int   `json:"k"`
	Sizes  []int `json:"sizes"`
	Labels []int `json:"-"`
}

type Analysis struct {
	Correlation      *CorrelationMatrix `json:"correlation,omitempty"`
	Histograms       []Histogram        `json:"histograms,omitempty"`
	Outliers         *OutlierReport     `json:"outliers,omitempty"`
	HighCorrelations []HighCorrelation  `json:"high_correlations,omitempty"`
	TTests           []TTestResult      `json:"t_tests,omitempty"`
	PCA              *PCAResult         `json:"pca,omitempty"`
	Clusters         *ClusterResult     `json:"clusters,omitempty"`
}

type ChartRef struct {
	Title string `json:"title"`
	File  string `json:"file"`
}

type ColumnType struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Report собирается один раз за прогон и после рендера не меняется.
type Report struct {
	SchemaVersion int             `json:"schema_version"`
	Dataset       string          `json:"dataset"`
	Source        string          `json:"source"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Rows          int             `json:"rows"`
	ColumnCount   int             `json:"column_count"`
	Columns       []ColumnType    `json:"columns"`
	Summaries     []ColumnSummary `json:"summaries"`
	Missing       MissingReport   `json:"missing"`
	Analysis      Analysis        `json:"analysis"`
	Charts        []ChartRef      `json:"charts"`
}

const ReportSchemaVersion = 1
