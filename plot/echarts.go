package plot

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderCorrelationHTML пишет интерактивную тепловую карту корреляций.
// Неопределенные коэффициенты остаются пустыми ячейками.
func RenderCorrelationHTML(w io.Writer, names []string, values [][]float64, title string) error {
	if len(names) == 0 || len(values) != len(names) {
		return fmt.Errorf("empty correlation matrix")
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "900px",
			Height:    "640px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "category",
			Data:      names,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        -1,
			Max:        1,
			InRange: &opts.VisualMapInRange{
				Color: []string{"#313695", "#ffffff", "#a50026"},
			},
		}),
	)

	var data []opts.HeatMapData
	for i := range values {
		for j := range values[i] {
			v := values[i][j]
			if math.IsNaN(v) {
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{i, j, round(v, 4)}})
		}
	}
	hm.SetXAxis(names).AddSeries("correlation", data)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(hm)
	return page.Render(w)
}

func round(val float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(val)
	}
	scale := math.Pow10(decimals)
	return math.Round(val*scale) / scale
}
