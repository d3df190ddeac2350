package plot

import (
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Столбцы по строковым подписям, например размеры кластеров или топ категорий.
type dataXStringsForGraph struct {
	xValues   []string
	yValues   []float64
	nameYAxis string
	nameGraph string
}

func NewDataXStringsForGraph(xValues []string, y []float64, nameYAxis, nameGraph string) dataXStringsForGraph {
	return dataXStringsForGraph{
		xValues:   xValues,
		yValues:   y,
		nameYAxis: nameYAxis,
		nameGraph: nameGraph,
	}
}

func (d dataXStringsForGraph) GetNameGraph() string {
	return d.nameGraph
}
func (d dataXStringsForGraph) getNameYAxis() string {
	return d.nameYAxis
}
func (d dataXStringsForGraph) getYValues() []float64 {
	return d.yValues
}
func (d dataXStringsForGraph) lenXValues() int {
	return len(d.xValues)
}

func (d dataXStringsForGraph) generateBarValues() []chart.Value {
	var bars []chart.Value
	for i := 0; i < len(d.xValues); i++ {
		bars = append(bars, chart.Value{
			Value: d.yValues[i],
			Label: d.xValues[i],
			Style: chart.Style{
				FillColor: drawing.ColorPurple.WithAlpha(100),
			},
		})
	}
	return bars
}

func (d dataXStringsForGraph) generateGrid() []chart.Tick {
	return gridTicks(findMaxValue(d.yValues))
}
