package plot

import "github.com/wcharczuk/go-chart/v2"

type dataForGraph interface {
	GetNameGraph() string
	getNameYAxis() string
	getYValues() []float64
	lenXValues() int
	generateBarValues() []chart.Value
	generateGrid() []chart.Tick
}
