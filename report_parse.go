// report_parse.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"

	"github.com/pivolan/dataset_profiler/domain/models"
)

// Count идет третьей колонкой сводной таблицы, после Column и Type.
const summaryCountCell = 2

// readmeFacts хранит то, что удалось вычитать обратно из готового README.
type readmeFacts struct {
	Title           string
	DatasetTitle    string
	Headings        []string
	ColumnTableRows int
	SummaryRows     int
	SummaryCounts   []string
	ChartImages     int
}

// parseReadme разбирает Markdown и считает строки таблиц и вставленные
// картинки. Первая таблица в документе описывает колонки, вторая
// содержит сводную статистику, из нее дополнительно забираются значения
// колонки Count.
func parseReadme(data []byte) readmeFacts {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse(data)

	facts := readmeFacts{}
	tableIdx := -1
	inBody := false
	cellIdx := 0
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.Table:
			if entering {
				tableIdx++
			}
		case *ast.TableBody:
			inBody = entering
		case *ast.TableRow:
			if entering {
				cellIdx = 0
				if inBody {
					switch tableIdx {
					case 0:
						facts.ColumnTableRows++
					case 1:
						facts.SummaryRows++
					}
				}
			}
		case *ast.TableCell:
			if entering {
				if inBody && tableIdx == 1 && cellIdx == summaryCountCell {
					facts.SummaryCounts = append(facts.SummaryCounts, strings.TrimSpace(nodeText(n)))
				}
				cellIdx++
			}
		case *ast.Heading:
			if entering {
				text := nodeText(n)
				facts.Headings = append(facts.Headings, text)
				if n.Level == 1 && facts.Title == "" {
					facts.Title = text
				}
				if n.Level == 2 && facts.DatasetTitle == "" {
					facts.DatasetTitle = strings.TrimPrefix(text, "Dataset: ")
				}
			}
		case *ast.Image:
			if entering {
				facts.ChartImages++
			}
		}
		return ast.GoToNext
	})
	return facts
}

func nodeText(n ast.Node) string {
	sb := &strings.Builder{}
	ast.WalkFunc(n, func(node ast.Node, entering bool) ast.WalkStatus {
		if t, ok := node.(*ast.Text); ok && entering {
			sb.Write(t.Literal)
		}
		return ast.GoToNext
	})
	return sb.String()
}

// summaryCount возвращает счетчик непустых значений из заполненной
// группы статистик.
func summaryCount(s models.ColumnSummary) int64 {
	if s.Numeric != nil {
		return s.Numeric.Count
	}
	if s.Categorical != nil {
		return s.Categorical.Count
	}
	return 0
}

func hasHeading(facts readmeFacts, want string) bool {
	for _, h := range facts.Headings {
		if h == want {
			return true
		}
	}
	return false
}

// verifyReadme сверяет готовый README с отчетом: количество строк в
// таблицах и вставленных графиков, а также значения Count в сводной
// таблице должны совпадать с тем, что насчитал профайлер.
func verifyReadme(path string, report *models.Report) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	facts := parseReadme(data)

	if facts.ColumnTableRows != report.ColumnCount {
		return fmt.Errorf("column table has %d rows, expected %d", facts.ColumnTableRows, report.ColumnCount)
	}
	if facts.SummaryRows != len(report.Summaries) {
		return fmt.Errorf("summary table has %d rows, expected %d", facts.SummaryRows, len(report.Summaries))
	}
	if len(facts.SummaryCounts) != len(report.Summaries) {
		return fmt.Errorf("summary table has %d Count cells, expected %d", len(facts.SummaryCounts), len(report.Summaries))
	}
	for i, s := range report.Summaries {
		got, err := strconv.ParseInt(facts.SummaryCounts[i], 10, 64)
		if err != nil {
			return fmt.Errorf("summary table Count for %s reads %q", s.Name, facts.SummaryCounts[i])
		}
		if want := summaryCount(s); got != want {
			return fmt.Errorf("summary table Count for %s is %d, expected %d", s.Name, got, want)
		}
	}
	pngCount := 0
	for _, ref := range report.Charts {
		if strings.HasSuffix(ref.File, ".png") {
			pngCount++
		}
	}
	if facts.ChartImages != pngCount {
		return fmt.Errorf("readme embeds %d charts, expected %d", facts.ChartImages, pngCount)
	}
	for _, section := range []string{"Dataset Information", "Summary Statistics", "Key Findings", "Visualizations"} {
		if !hasHeading(facts, section) {
			return fmt.Errorf("readme is missing the %q section", section)
		}
	}
	return nil
}
