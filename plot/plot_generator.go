package plot

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// DrawDensityPlot рисует сглаженное распределение по центрам корзин
// гистограммы. Значения y нормализуются так, чтобы площадь под кривой
// была равна 1.
func DrawDensityPlot(xValues []float64, yValues []float64) ([]byte, error) {
	if len(xValues) < 2 || len(xValues) != len(yValues) {
		return nil, fmt.Errorf("need at least 2 points, have %d", len(xValues))
	}
	binWidth := xValues[1] - xValues[0]
	totalArea := 0.0
	for _, y := range yValues {
		totalArea += y * binWidth
	}
	if totalArea <= 0 {
		return nil, fmt.Errorf("zero area under curve")
	}

	normalizedY := make([]float64, len(yValues))
	for i, y := range yValues {
		normalizedY[i] = y / totalArea
	}

	series := &chart.ContinuousSeries{
		XValues: xValues,
		YValues: normalizedY,
		Style: chart.Style{
			StrokeColor: drawing.ColorBlue,
			StrokeWidth: 2,
			Hidden:      false,
		},
	}

	// Область под кривой
	fillSeries := &chart.ContinuousSeries{
		XValues: xValues,
		YValues: normalizedY,
		Style: chart.Style{
			StrokeColor: drawing.ColorBlue,
			FillColor:   drawing.ColorRed.WithAlpha(100),
			StrokeWidth: 0,
			Hidden:      false,
		},
	}

	graph := chart.Chart{
		Title: "Density Distribution",
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 120,
			},
			FillColor: drawing.ColorWhite,
		},
		Width:  2048,
		Height: 1024,
		XAxis: chart.XAxis{
			Name:  "Values",
			Style: chart.Style{TextRotationDegrees: 88},
			ValueFormatter: func(v interface{}) string {
				if vf, isFloat := v.(float64); isFloat {
					return fmt.Sprintf("%.1f", vf)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name: "Density",
			ValueFormatter: func(v interface{}) string {
				if vf, isFloat := v.(float64); isFloat {
					return fmt.Sprintf("%.6f", vf)
				}
				return ""
			},
		},
		Series: []chart.Series{
			fillSeries, // Сначала рисуем заполнение
			series,     // Потом линию
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	graph.Background.StrokeWidth = 1
	graph.Background.StrokeColor = drawing.ColorFromHex("efefef")

	err := graph.Render(chart.PNG, buffer)
	if err != nil {
		return nil, fmt.Errorf("error rendering chart: %v", err)
	}

	return buffer.Bytes(), nil
}

func calculateGridStep(maxValue float64) float64 {
	// Проверка на корректность входного значения
	if maxValue <= 0 {
		return 0
	}

	// Обработка очень маленьких чисел
	if maxValue < 1e-10 {
		return 1e-10
	}

	// Находим порядок величины максимального значения
	magnitude := math.Pow(10, math.Floor(math.Log10(maxValue)))

	// Нормализуем значение к диапазону [1, 10)
	normalized := maxValue / magnitude

	var step float64
	switch {
	case normalized <= 1:
		step = 0.2
	case normalized <= 2:
		step = 0.5
	case normalized <= 5:
		step = 1.0
	default:
		step = 2.0
	}

	finalStep := step * magnitude

	// Округляем большие шаги до "красивых" чисел
	if finalStep >= 1000 {
		return math.Round(finalStep/100) * 100
	}
	if finalStep >= 100 {
		return math.Round(finalStep/10) * 10
	}

	return finalStep
}

func gridTicks(max float64) []chart.Tick {
	var ticks []chart.Tick
	gridStep := calculateGridStep(max)
	if gridStep <= 0 {
		return ticks
	}
	for i := 0.0; i <= max; i += gridStep {
		ticks = append(ticks, chart.Tick{
			Value: i,
			Label: fmt.Sprintf("%.1f", i),
		})
	}
	return ticks
}

// DrawPlotBar рисует столбчатую диаграмму по подготовленным данным.
func DrawPlotBar(data dataForGraph) ([]byte, error) {
	barValues := data.generateBarValues()
	if len(barValues) == 0 {
		return nil, fmt.Errorf("no bars to draw")
	}
	paddingX := customizePaddingXBottom(barValues)
	width, height := calculateChartDimensions(data, 100)
	bar := chart.BarChart{}
	bar.Title = data.GetNameGraph()
	bar.Background = chart.Style{
		FontSize:    160,
		StrokeColor: chart.ColorBlack,
		Padding: chart.Box{
			Bottom: paddingX,
			Top:    50,
		},
	}
	bar.Height = height + 50
	bar.Width = width + paddingX + 50
	bar.BarWidth = 60
	bar.Bars = barValues
	bar.YAxis = chart.YAxis{
		Name: data.getNameYAxis(),
		Range: &chart.ContinuousRange{
			Min: 0.0,
			Max: findMaxValue(data.getYValues()),
		},
		Style: chart.Style{
			StrokeWidth: 2, // Толщина линии
			StrokeColor: chart.ColorBlack,
			FontSize:    17,
		},
		Ticks: data.generateGrid(),
		GridMinorStyle: chart.Style{
			StrokeColor: chart.ColorBlack,
			StrokeWidth: 1,
			DotWidth:    1,
		},
		GridMajorStyle: chart.Style{
			StrokeColor:     chart.ColorBlack,
			StrokeWidth:     1,
			DotWidth:        1,
			StrokeDashArray: []float64{5.0, 5.0}, // Пунктирная линия
		},
	}
	bar.XAxis = chart.Style{
		StrokeWidth:         2, // Толщина линии
		StrokeColor:         chart.ColorBlack,
		TextRotationDegrees: 88,
		FontSize:            17,
	}
	buffer := bytes.NewBuffer([]byte{})

	err := bar.Render(chart.PNG, buffer)
	if err != nil {
		return nil, fmt.Errorf("error rendering chart: %v", err)
	}

	return buffer.Bytes(), nil
}

var clusterPalette = []drawing.Color{
	drawing.ColorBlue,
	drawing.ColorRed,
	drawing.ColorGreen,
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("8c564b"),
}

// DrawClusterScatter рисует точки на плоскости, окрашивая их по меткам
// кластеров. У точки берутся первые две координаты.
func DrawClusterScatter(points [][]float64, labels []int, nameGraph, nameX, nameY string, width, height int) ([]byte, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no points to draw")
	}

	groups := map[int]*chart.ContinuousSeries{}
	var order []int
	for i, p := range points {
		label := 0
		if i < len(labels) {
			label = labels[i]
		}
		s, ok := groups[label]
		if !ok {
			s = &chart.ContinuousSeries{
				Name: fmt.Sprintf("cluster %d", label),
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    4,
					DotColor:    clusterPalette[label%len(clusterPalette)],
				},
			}
			groups[label] = s
			order = append(order, label)
		}
		s.XValues = append(s.XValues, p[0])
		y := 0.0
		if len(p) > 1 {
			y = p[1]
		}
		s.YValues = append(s.YValues, y)
	}
	sort.Ints(order)

	series := make([]chart.Series, 0, len(order))
	for _, label := range order {
		series = append(series, groups[label])
	}

	graph := chart.Chart{
		Title: nameGraph,
		Background: chart.Style{
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 40},
			FillColor: drawing.ColorWhite,
		},
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name: nameX,
			ValueFormatter: func(v interface{}) string {
				if vf, isFloat := v.(float64); isFloat {
					return fmt.Sprintf("%.1f", vf)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name: nameY,
			ValueFormatter: func(v interface{}) string {
				if vf, isFloat := v.(float64); isFloat {
					return fmt.Sprintf("%.1f", vf)
				}
				return ""
			},
		},
		Series: series,
	}

	buffer := bytes.NewBuffer([]byte{})
	err := graph.Render(chart.PNG, buffer)
	if err != nil {
		return nil, fmt.Errorf("error rendering chart: %v", err)
	}
	return buffer.Bytes(), nil
}

func findMaxValue(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	max := y[0]
	for _, v := range y {
		if v > max {
			max = v
		}
	}
	return max
}

func calculateChartDimensions(data dataForGraph, minBarWidth float64) (width, height int) {
	if len(data.getYValues()) == 0 || data.lenXValues() <= 0 || minBarWidth <= 0 {
		return 0, 0
	}
	x := 1.1
	if data.lenXValues() < 2 {
		x = 10.0
	} else if data.lenXValues() < 10 {
		x = 3.0
	}

	// Константы для отступов и пропорций
	const (
		paddingY     = 100        // отступ для оси Y и подписей
		spacingRatio = 0.2        // соотношение отступа между столбцами к ширине столбца
		aspectRatio  = 9.0 / 16.0 // соотношение сторон по умолчанию
	)

	barSpacing := minBarWidth * spacingRatio
	totalWidth := (minBarWidth+barSpacing)*float64(data.lenXValues()) + paddingY
	width = int(totalWidth*x) + paddingY
	height = int(float64(width) * aspectRatio)
	return width, height
}

func customizePaddingXBottom(values []chart.Value) int {
	count := 0
	for _, v := range values {
		if len(v.Label) > count {
			count = len(v.Label)
		}
	}
	return int(count * 8)
}
