package main

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/pivolan/dataset_profiler/domain/models"
)

// ProfileTable строит ColumnSummary для каждой колонки и отчет о пропусках.
// Колонка с неизвестным типом пропускается, прогон продолжается.
func ProfileTable(t *models.Table) ([]models.ColumnSummary, models.MissingReport) {
	summaries := make([]models.ColumnSummary, 0, len(t.Columns))
	missing := models.MissingReport{ByColumn: make(map[string]int64, len(t.Columns))}

	for i := range t.Columns {
		col := &t.Columns[i]
		mc := col.MissingCount()
		missing.ByColumn[col.Name] = mc
		missing.Total += mc

		summary, err := profileColumn(col)
		if err != nil {
			log.Printf("%v", &ProfileError{Column: col.Name, Err: err})
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, missing
}

func profileColumn(col *models.Column) (models.ColumnSummary, error) {
	switch col.Kind {
	case models.KindNumeric:
		return models.ColumnSummary{Name: col.Name, Kind: col.Kind, Numeric: summarizeNumeric(col)}, nil
	case models.KindCategorical:
		return models.ColumnSummary{Name: col.Name, Kind: col.Kind, Categorical: summarizeCategorical(col)}, nil
	default:
		return models.ColumnSummary{}, fmt.Errorf("unknown column kind %q", col.Kind)
	}
}

func summarizeNumeric(col *models.Column) *models.NumericStats {
	values := col.NonMissing()
	n := len(values)
	if n == 0 {
		nan := models.Float(math.NaN())
		return &models.NumericStats{
			Count: 0, Mean: nan, Std: nan, Min: nan,
			Q25: nan, Median: nan, Q75: nan, Max: nan,
		}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, _ := stats.Mean(values)
	std := math.NaN()
	if n >= 2 {
		std, _ = stats.StandardDeviationSample(values)
	}

	q1 := calculateQuantile(sorted, 0.25)
	q3 := calculateQuantile(sorted, 0.75)

	return &models.NumericStats{
		Count:    int64(n),
		Mean:     models.Float(mean),
		Std:      models.Float(std),
		Min:      models.Float(sorted[0]),
		Q25:      models.Float(q1),
		Median:   models.Float(calculateQuantile(sorted, 0.5)),
		Q75:      models.Float(q3),
		Max:      models.Float(sorted[n-1]),
		Outliers: int64(len(findOutliers(values, q1, q3, q3-q1))),
	}
}

func summarizeCategorical(col *models.Column) *models.CategoricalStats {
	freq := make(map[string]int64, 16)
	var order []string // значения в порядке первого появления
	var count int64
	for i, v := range col.Raw {
		if i < len(col.Missing) && col.Missing[i] {
			continue
		}
		count++
		if _, seen := freq[v]; !seen {
			order = append(order, v)
		}
		freq[v]++
	}

	topValue := ""
	var topCount int64
	// При равенстве частот побеждает значение, встретившееся раньше
	for _, v := range order {
		if freq[v] > topCount {
			topCount = freq[v]
			topValue = v
		}
	}
	return &models.CategoricalStats{
		Count:  count,
		Unique: int64(len(freq)),
		Top:    topValue,
		Freq:   topCount,
	}
}

// calculateQuantile вычисляет квантиль заданного уровня
func calculateQuantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	// Вычисляем позицию квантиля
	pos := p * float64(len(sorted)-1)
	floor := math.Floor(pos)
	ceil := math.Ceil(pos)

	if floor == ceil {
		return sorted[int(pos)]
	}

	// Интерполяция между двумя ближайшими значениями
	lower := sorted[int(floor)]
	upper := sorted[int(ceil)]
	fraction := pos - floor

	return lower + fraction*(upper-lower)
}

// findOutliers находит выбросы на основе межквартильного размаха
func findOutliers(numbers []float64, q1 float64, q3 float64, iqr float64) []float64 {
	outliers := make([]float64, 0)
	lowerBound := q1 - 1.5*iqr
	upperBound := q3 + 1.5*iqr

	for _, num := range numbers {
		if num < lowerBound || num > upperBound {
			outliers = append(outliers, num)
		}
	}
	return outliers
}

// roundToTwo округляет число до двух знаков после запятой
func roundToTwo(num float64) float64 {
	return math.Round(num*100) / 100
}
