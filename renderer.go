// renderer.go
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mozillazg/go-unidecode"
	uuid "github.com/satori/go.uuid"

	"github.com/pivolan/dataset_profiler/config"
	"github.com/pivolan/dataset_profiler/domain/models"
)

// BuildReport собирает итоговую структуру отчета. После рендера она
// больше не меняется.
func BuildReport(t *models.Table, summaries []models.ColumnSummary, missing models.MissingReport, analysis models.Analysis) *models.Report {
	report := &models.Report{
		SchemaVersion: models.ReportSchemaVersion,
		Dataset:       t.Title,
		Source:        t.Source,
		GeneratedAt:   time.Now().UTC(),
		Rows:          t.RowCount(),
		ColumnCount:   len(t.Columns),
		Summaries:     summaries,
		Missing:       missing,
		Analysis:      analysis,
	}
	for i := range t.Columns {
		report.Columns = append(report.Columns, models.ColumnType{
			Name: t.Columns[i].Name,
			Kind: t.Columns[i].Kind,
		})
	}
	return report
}

// RenderReport пишет каталог отчета: графики, report.json и README.md
// уходят во временный каталог рядом с целевым, README сверяется с
// отчетом, и только потом каталог атомарно подменяет старую версию.
// Возвращает путь к готовому каталогу.
func RenderReport(t *models.Table, report *models.Report, cfg config.Config, includeHTML bool) (string, error) {
	parent := cfg.OutputDir
	if parent == "" {
		parent = "."
	}
	name := dirNameForDataset(report.Dataset)
	finalDir := filepath.Join(parent, name)

	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", &RenderError{Path: parent, Err: err}
	}
	staging := filepath.Join(parent, fmt.Sprintf(".%s.tmp-%s", name, uuid.NewV4()))
	if err := os.Mkdir(staging, 0o755); err != nil {
		return "", &RenderError{Path: staging, Err: err}
	}
	cleanup := true
	defer func() {
		if cleanup {
			os.RemoveAll(staging)
		}
	}()

	refs, err := GenerateCharts(t, report.Analysis, staging, cfg, includeHTML)
	if err != nil {
		return "", err
	}
	report.Charts = refs

	if err := writeReportJSON(filepath.Join(staging, "report.json"), report); err != nil {
		return "", err
	}

	readmePath := filepath.Join(staging, "README.md")
	if err := os.WriteFile(readmePath, []byte(GenerateReadme(report)), 0o644); err != nil {
		return "", &RenderError{Path: readmePath, Err: err}
	}
	if err := verifyReadme(readmePath, report); err != nil {
		return "", &RenderError{Path: readmePath, Err: err}
	}

	if err := swapDirs(staging, finalDir); err != nil {
		return "", err
	}
	cleanup = false
	return finalDir, nil
}

// swapDirs подменяет готовый каталог отчета: старая версия сначала
// уезжает в сторону и удаляется только после успешной подмены.
func swapDirs(staging, finalDir string) error {
	parent := filepath.Dir(finalDir)
	base := filepath.Base(finalDir)
	old := filepath.Join(parent, fmt.Sprintf(".%s.old-%s", base, uuid.NewV4()))

	replaced := false
	if _, err := os.Stat(finalDir); err == nil {
		if err := os.Rename(finalDir, old); err != nil {
			return &RenderError{Path: finalDir, Err: err}
		}
		replaced = true
	}
	if err := os.Rename(staging, finalDir); err != nil {
		if replaced {
			// Возвращаем прежнюю версию на место
			os.Rename(old, finalDir)
		}
		return &RenderError{Path: finalDir, Err: err}
	}
	if replaced {
		os.RemoveAll(old)
	}
	return nil
}

func writeReportJSON(path string, report *models.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return &RenderError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &RenderError{Path: path, Err: err}
	}
	return nil
}

// dirNameForDataset превращает название датасета в безопасное имя каталога.
func dirNameForDataset(title string) string {
	cleaned := strings.ToLower(replaceSpecialSymbols(unidecode.Unidecode(title)))
	if cleaned == "" {
		return "dataset"
	}
	return cleaned
}

// GenerateReadme собирает README.md отчета.
func GenerateReadme(report *models.Report) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "# Automated Data Analysis Report\n\n")
	fmt.Fprintf(b, "## Dataset: %s\n\n", report.Dataset)

	numeric := 0
	for _, c := range report.Columns {
		if c.Kind == models.KindNumeric {
			numeric++
		}
	}
	fmt.Fprintf(b, "### Dataset Information\n\n")
	fmt.Fprintf(b, "- **Source**: `%s`\n", report.Source)
	fmt.Fprintf(b, "- **Generated**: %s\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(b, "- **Rows**: %d\n", report.Rows)
	fmt.Fprintf(b, "- **Columns**: %d (%d numeric, %d categorical)\n", report.ColumnCount, numeric, report.ColumnCount-numeric)
	fmt.Fprintf(b, "- **Missing cells**: %d\n\n", report.Missing.Total)
	fmt.Fprintf(b, "%s\n\n", generateColumnTypeTable(report))

	fmt.Fprintf(b, "### Summary Statistics\n\n")
	fmt.Fprintf(b, "%s\n\n", GenerateSummaryTable(report.Summaries))

	fmt.Fprintf(b, "### Key Findings\n\n")
	for _, finding := range keyFindings(report) {
		fmt.Fprintf(b, "- %s\n", finding)
	}
	fmt.Fprintf(b, "\n")

	fmt.Fprintf(b, "### Narrative\n\n")
	fmt.Fprintf(b, "No narrative was generated for this dataset.\n\n")

	fmt.Fprintf(b, "### Visualizations\n\n")
	chartNo := 0
	for _, ref := range report.Charts {
		if strings.HasSuffix(ref.File, ".html") {
			fmt.Fprintf(b, "[%s](./%s)\n\n", ref.Title, ref.File)
			continue
		}
		chartNo++
		fmt.Fprintf(b, "![Chart %d](./%s)\n\n*%s*\n\n", chartNo, ref.File, ref.Title)
	}

	return b.String()
}

func generateColumnTypeTable(report *models.Report) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Column", "Type", "Missing"})
	for i, col := range report.Columns {
		t.AppendRows([]table.Row{
			{i, col.Name, string(col.Kind), report.Missing.ByColumn[col.Name]},
		})
	}
	t.SetStyle(table.StyleDefault)
	return t.RenderMarkdown()
}

// summaryRow задает порядок колонок сводной таблицы. Заголовки берутся
// из имен полей через рефлексию.
type summaryRow struct {
	Column string
	Type   string
	Count  string
	Mean   string
	Std    string
	Min    string
	Q25    string
	Median string
	Q75    string
	Max    string
	Unique string
	Top    string
	Freq   string
}

func summaryHeader() table.Row {
	rType := reflect.TypeOf(summaryRow{})
	row := table.Row{}
	for i := 0; i < rType.NumField(); i++ {
		name := rType.Field(i).Name
		switch name {
		case "Q25":
			name = "25%"
		case "Median":
			name = "50%"
		case "Q75":
			name = "75%"
		}
		row = append(row, name)
	}
	return row
}

func newSummaryRow(s models.ColumnSummary) summaryRow {
	r := summaryRow{
		Column: s.Name,
		Type:   string(s.Kind),
		Count:  "0",
		Mean:   "nan",
		Std:    "nan",
		Min:    "nan",
		Q25:    "nan",
		Median: "nan",
		Q75:    "nan",
		Max:    "nan",
		Unique: "nan",
		Top:    "nan",
		Freq:   "nan",
	}
	if s.Numeric != nil {
		n := s.Numeric
		r.Count = strconv.FormatInt(n.Count, 10)
		r.Mean = formatFloat(n.Mean)
		r.Std = formatFloat(n.Std)
		r.Min = formatFloat(n.Min)
		r.Q25 = formatFloat(n.Q25)
		r.Median = formatFloat(n.Median)
		r.Q75 = formatFloat(n.Q75)
		r.Max = formatFloat(n.Max)
	}
	if s.Categorical != nil {
		c := s.Categorical
		r.Count = strconv.FormatInt(c.Count, 10)
		r.Unique = strconv.FormatInt(c.Unique, 10)
		if c.Count > 0 {
			r.Top = c.Top
			r.Freq = strconv.FormatInt(c.Freq, 10)
		}
	}
	return r
}

func appendSummaryRows(t table.Writer, summaries []models.ColumnSummary) {
	for _, s := range summaries {
		r := newSummaryRow(s)
		t.AppendRows([]table.Row{
			{r.Column, r.Type, r.Count, r.Mean, r.Std, r.Min, r.Q25, r.Median, r.Q75, r.Max, r.Unique, r.Top, r.Freq},
		})
	}
}

// GenerateSummaryTable рендерит сводную таблицу в Markdown для README.
func GenerateSummaryTable(summaries []models.ColumnSummary) string {
	t := table.NewWriter()
	t.AppendHeader(summaryHeader())
	appendSummaryRows(t, summaries)
	t.SetStyle(table.StyleDefault)
	return t.RenderMarkdown()
}

// GenerateSummaryTableAscii рендерит ту же таблицу для консоли.
func GenerateSummaryTableAscii(summaries []models.ColumnSummary) string {
	t := table.NewWriter()
	t.AppendHeader(summaryHeader())
	appendSummaryRows(t, summaries)
	t.SetStyle(table.StyleDefault)
	return t.Render()
}

func formatFloat(f models.Float) string {
	v := float64(f)
	if math.IsNaN(v) {
		return "nan"
	}
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(roundToTwo(v), 'f', -1, 64)
}

func keyFindings(report *models.Report) []string {
	var out []string
	a := report.Analysis

	if report.Missing.Total > 0 {
		affected := 0
		for _, n := range report.Missing.ByColumn {
			if n > 0 {
				affected++
			}
		}
		out = append(out, fmt.Sprintf("%d missing cells, %d of %d columns affected", report.Missing.Total, affected, report.ColumnCount))
	}
	for _, hc := range a.HighCorrelations {
		out = append(out, fmt.Sprintf("Strong correlation between %s and %s (r = %.2f)", hc.ColumnA, hc.ColumnB, hc.R))
	}
	if a.Outliers != nil && a.Outliers.Count > 0 {
		out = append(out, fmt.Sprintf("%d rows contain values beyond %.0f standard deviations", a.Outliers.Count, a.Outliers.Sigma))
	}
	if a.PCA != nil && len(a.PCA.Explained) >= 2 {
		out = append(out, fmt.Sprintf("First two principal components explain %.1f%% of variance", (a.PCA.Explained[0]+a.PCA.Explained[1])*100))
	}
	if a.Clusters != nil {
		out = append(out, fmt.Sprintf("K-means split the rows into %d clusters with sizes %v", a.Clusters.K, a.Clusters.Sizes))
	}
	if len(out) == 0 {
		out = append(out, "No notable findings")
	}
	return out
}
