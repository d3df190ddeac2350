package plot

import (
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Столбцы по интервалам значений, подпись вида "начало-конец".
type dataRangeXValuesForGraph struct {
	xStart, xEnd []float64
	yValues      []float64
	nameYAxis    string
	nameGraph    string
}

func NewDataRangeXValuesForGraph(xStart, xEnd, y []float64, nameYAxis, nameGraph string) dataRangeXValuesForGraph {
	return dataRangeXValuesForGraph{
		xStart:    xStart,
		xEnd:      xEnd,
		yValues:   y,
		nameYAxis: nameYAxis,
		nameGraph: nameGraph,
	}
}

func (d dataRangeXValuesForGraph) GetNameGraph() string {
	return d.nameGraph
}
func (d dataRangeXValuesForGraph) getNameYAxis() string {
	return d.nameYAxis
}
func (d dataRangeXValuesForGraph) getYValues() []float64 {
	return d.yValues
}
func (d dataRangeXValuesForGraph) lenXValues() int {
	return len(d.xStart)
}

func (d dataRangeXValuesForGraph) generateBarValues() []chart.Value {
	var bars []chart.Value
	for i := 0; i < len(d.xStart); i++ {
		bars = append(bars, chart.Value{
			Value: d.yValues[i],
			Label: formatRangeLabel(d.xStart[i], d.xEnd[i]),
			Style: chart.Style{
				FillColor: drawing.ColorPurple.WithAlpha(100),
			},
		})
	}
	return bars
}

func (d dataRangeXValuesForGraph) generateGrid() []chart.Tick {
	return gridTicks(findMaxValue(d.yValues))
}

// Узкие интервалы подписываем с двумя знаками, широкие округляем до целых.
func formatRangeLabel(start, end float64) string {
	if end-start >= 1 {
		return fmt.Sprintf("%.f-%.f", start, end)
	}
	return fmt.Sprintf("%.2f-%.2f", start, end)
}
