package plot

import (
	"bytes"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Большие датасеты сжимаем по вертикали до этого числа блоков,
// ячейка блока хранит долю пропусков.
const maxHeatmapRows = 400

// matrixGrid подает mat.Dense в HeatMap: колонка матрицы идет по X,
// строка по Y. rowScale растягивает ось Y до номеров исходных строк.
type matrixGrid struct {
	m        *mat.Dense
	rowScale float64
}

func (g matrixGrid) Dims() (c, r int)   { r, c = g.m.Dims(); return c, r }
func (g matrixGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) * g.rowScale }

func nameTicks(names []string) []plot.Tick {
	ticks := make([]plot.Tick, len(names))
	for i, n := range names {
		ticks[i] = plot.Tick{Value: float64(i), Label: n}
	}
	return ticks
}

func plotPNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func matrixHeatmap(g matrixGrid, title string, min, max float64, cm palette.ColorMap) (*plot.Plot, *plotter.HeatMap) {
	cm.SetMin(min)
	cm.SetMax(max)
	h := plotter.NewHeatMap(g, cm.Palette(255))
	h.Min = min
	h.Max = max
	p := plot.New()
	p.Title.Text = title
	p.Add(h)
	return p, h
}

// DrawCorrelationHeatmap рисует матрицу корреляций с дивергентной шкалой
// от -1 до 1. Неопределенные коэффициенты рисуются как 0.
func DrawCorrelationHeatmap(names []string, values [][]float64, title string) ([]byte, error) {
	n := len(names)
	if n == 0 || len(values) != n {
		return nil, fmt.Errorf("empty correlation matrix")
	}
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := values[i][j]
			if math.IsNaN(v) {
				v = 0
			}
			m.Set(i, j, v)
		}
	}

	p, _ := matrixHeatmap(matrixGrid{m: m, rowScale: 1}, title, -1, 1, moreland.SmoothBlueRed())
	p.X.Tick.Marker = plot.ConstantTicks(nameTicks(names))
	p.Y.Tick.Marker = plot.ConstantTicks(nameTicks(names))
	return plotPNG(p, 8*vg.Inch, 7*vg.Inch)
}

// DrawMissingMatrix рисует карту пропусков: колонки по X, строки по Y,
// яркая ячейка означает пропуск. Длинные датасеты агрегируются блоками
// строк, ячейка тогда показывает долю пропусков в блоке.
func DrawMissingMatrix(names []string, missing [][]bool) ([]byte, error) {
	rows := len(missing)
	if rows == 0 || len(names) == 0 {
		return nil, fmt.Errorf("no data to draw")
	}

	block := 1
	if rows > maxHeatmapRows {
		block = (rows + maxHeatmapRows - 1) / maxHeatmapRows
	}
	nblocks := (rows + block - 1) / block

	m := mat.NewDense(nblocks, len(names), nil)
	counts := make([]int, nblocks)
	for r := 0; r < rows; r++ {
		b := r / block
		counts[b]++
		for c := range names {
			if c < len(missing[r]) && missing[r][c] {
				m.Set(b, c, m.At(b, c)+1)
			}
		}
	}
	for b := 0; b < nblocks; b++ {
		for c := range names {
			m.Set(b, c, m.At(b, c)/float64(counts[b]))
		}
	}

	p, _ := matrixHeatmap(matrixGrid{m: m, rowScale: float64(block)}, "Missing Values", 0, 1, moreland.BlackBody())
	p.X.Tick.Marker = plot.ConstantTicks(nameTicks(names))
	p.Y.Label.Text = "row"
	return plotPNG(p, 8*vg.Inch, 6*vg.Inch)
}

func nonMissingValues(values []float64, missing []bool) []float64 {
	out := make([]float64, 0, len(values))
	for i, v := range values {
		if i < len(missing) && missing[i] {
			continue
		}
		out = append(out, v)
	}
	return out
}

func pairXYs(x, y []float64, missX, missY []bool) plotter.XYs {
	var xys plotter.XYs
	for i := range x {
		if i >= len(y) {
			break
		}
		if (i < len(missX) && missX[i]) || (i < len(missY) && missY[i]) {
			continue
		}
		xys = append(xys, plotter.XY{X: x[i], Y: y[i]})
	}
	return xys
}

// DrawPairplot строит сетку k x k: гистограммы на диагонали, парные
// диаграммы рассеяния вне ее. values и missing идут поколоночно.
func DrawPairplot(names []string, values [][]float64, missing [][]bool) ([]byte, error) {
	k := len(names)
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 columns, have %d", k)
	}

	plots := make([][]*plot.Plot, k)
	for i := 0; i < k; i++ {
		plots[i] = make([]*plot.Plot, k)
		for j := 0; j < k; j++ {
			p := plot.New()
			if i == k-1 {
				p.X.Label.Text = names[j]
			}
			if j == 0 {
				p.Y.Label.Text = names[i]
			}
			if i == j {
				vals := nonMissingValues(values[i], missing[i])
				if len(vals) > 0 {
					if h, err := plotter.NewHist(plotter.Values(vals), 16); err == nil {
						p.Add(h)
					}
				}
			} else {
				xys := pairXYs(values[j], values[i], missing[j], missing[i])
				if len(xys) > 0 {
					if s, err := plotter.NewScatter(xys); err == nil {
						s.GlyphStyle.Radius = vg.Points(1.5)
						p.Add(s)
					}
				}
			}
			plots[i][j] = p
		}
	}

	img := vgimg.New(vg.Points(220*float64(k)), vg.Points(220*float64(k)))
	dc := draw.New(img)
	t := draw.Tiles{
		Rows:      k,
		Cols:      k,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}
	canvases := plot.Align(plots, t, dc)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			plots[i][j].Draw(canvases[i][j])
		}
	}

	var buf bytes.Buffer
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
