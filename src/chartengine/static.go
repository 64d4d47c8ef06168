package chartengine

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	png "image/png"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// StaticBackend renders PNG charts with go-chart. It is the fallback
// backend and also serves UI previews, since a canvas can show a PNG
// but not an HTML page.
type StaticBackend struct{}

func (b *StaticBackend) Name() string { return "gochart" }

// Render produces a PNG artifact with the decoded image attached.
func (b *StaticBackend) Render(data *ChartData, cfg Config) (*Artifact, error) {
	var buf bytes.Buffer
	var err error
	switch data.Type {
	case TypeBar:
		err = b.renderBar(&buf, data, cfg)
	case TypePie:
		err = b.renderPie(&buf, data, cfg)
	case TypeLine:
		err = b.renderLine(&buf, data, cfg, false)
	case TypeTimeSeries:
		err = b.renderLine(&buf, data, cfg, true)
	default:
		return nil, fmt.Errorf("gochart: unsupported chart type %q", data.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("gochart: render: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("gochart: decode rendered png: %w", err)
	}
	return &Artifact{Format: FormatPNG, Bytes: buf.Bytes(), Image: img}, nil
}

func (b *StaticBackend) renderBar(buf *bytes.Buffer, data *ChartData, cfg Config) error {
	colors := schemeColors(cfg.Scheme)
	bars := make([]chart.Value, len(data.Y))
	for i, v := range data.Y {
		bars[i] = chart.Value{
			Value: v,
			Label: data.XLabels[i],
			Style: chart.Style{FillColor: colors[i%len(colors)], StrokeWidth: 0},
		}
	}
	bc := chart.BarChart{
		Title:      cfg.Title,
		Width:      cfg.Width,
		Height:     cfg.Height,
		BarWidth:   barWidth(cfg.Width, len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 36, Left: 16, Right: 16, Bottom: 36}},
		Bars:       bars,
		YAxis:      chart.YAxis{Name: cfg.YLabel},
	}
	return bc.Render(chart.PNG, buf)
}

func (b *StaticBackend) renderPie(buf *bytes.Buffer, data *ChartData, cfg Config) error {
	colors := schemeColors(cfg.Scheme)
	vals := make([]chart.Value, len(data.Y))
	for i, v := range data.Y {
		vals[i] = chart.Value{
			Value: v,
			Label: fmt.Sprintf("%s (%.1f%%)", data.XLabels[i], data.Percents[i]),
			Style: chart.Style{FillColor: colors[i%len(colors)], StrokeWidth: 1, StrokeColor: drawing.ColorWhite},
		}
	}
	side := cfg.Height
	if cfg.Width < side {
		side = cfg.Width
	}
	pc := chart.PieChart{
		Title:  cfg.Title,
		Width:  side,
		Height: side,
		Values: vals,
	}
	return pc.Render(chart.PNG, buf)
}

func (b *StaticBackend) renderLine(buf *bytes.Buffer, data *ChartData, cfg Config, timeMode bool) error {
	colors := schemeColors(cfg.Scheme)
	st := chart.Style{StrokeWidth: 2, StrokeColor: colors[0], DotWidth: 3, DotColor: colors[0]}

	minY, maxY := math.MaxFloat64, -math.MaxFloat64
	for _, v := range data.Y {
		if !math.IsNaN(v) {
			if v < minY {
				minY = v
			}
			if v > maxY {
				maxY = v
			}
		}
	}

	var series chart.Series
	var xAxis chart.XAxis
	if timeMode {
		ts, ys := data.XTimes, data.Y
		// go-chart needs a non-zero X span; pad single points
		if len(ts) == 1 {
			ts = append([]time.Time{ts[0]}, ts[0].Add(time.Second))
			ys = append([]float64{ys[0]}, ys[0])
		}
		series = chart.TimeSeries{Name: data.YName, XValues: ts, YValues: ys, Style: st}
		xAxis = chart.XAxis{Name: cfg.XLabel}
	} else {
		n := len(data.Y)
		xs := make([]float64, n)
		ticks := make([]chart.Tick, 0, n+1)
		for i := 0; i < n; i++ {
			xs[i] = float64(i + 1)
			ticks = append(ticks, chart.Tick{Value: xs[i], Label: data.XLabels[i]})
		}
		maxR := float64(n) + 0.5
		ys := data.Y
		if n == 1 {
			maxR = 2.0
			ticks = append(ticks, chart.Tick{Value: 2, Label: ""})
			xs = append(xs, xs[0]+1)
			ys = append([]float64{ys[0]}, ys[0])
		}
		series = chart.ContinuousSeries{Name: data.YName, XValues: xs, YValues: ys, Style: st}
		xAxis = chart.XAxis{Name: cfg.XLabel, Ticks: ticks, Range: &chart.ContinuousRange{Min: 0.5, Max: maxR}}
	}

	var yRange *chart.ContinuousRange
	var yTicks []chart.Tick
	if minY != math.MaxFloat64 && maxY != -math.MaxFloat64 {
		nMin, nMax := niceAxisBounds(minY, maxY)
		yRange = &chart.ContinuousRange{Min: nMin, Max: nMax}
		yTicks = niceTicks(nMin, nMax, 6)
	}

	ch := chart.Chart{
		Title:      cfg.Title,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 36}},
		XAxis:      xAxis,
		YAxis:      chart.YAxis{Name: cfg.YLabel, Range: yRange, Ticks: yTicks},
		Series:     []chart.Series{series},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, buf)
}

// schemeColors converts a palette into go-chart drawing colors.
func schemeColors(s ColorScheme) []drawing.Color {
	hexes := Palette(s)
	out := make([]drawing.Color, len(hexes))
	for i, h := range hexes {
		out[i] = drawing.ColorFromHex(h)
	}
	return out
}

func barWidth(chartWidth, n int) int {
	if n <= 0 {
		return 20
	}
	w := chartWidth / (2 * n)
	if w < 10 {
		w = 10
	}
	if w > 80 {
		w = 80
	}
	return w
}

// niceAxisBounds widens [min,max] by 5% and snaps both ends to the
// span's order of magnitude.
func niceAxisBounds(min, max float64) (float64, float64) {
	if math.IsNaN(min) || math.IsNaN(max) {
		return min, max
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	pad := span * 0.05
	if pad <= 0 {
		pad = 1
	}
	lo, hi := min-pad, max+pad
	mag := math.Pow(10, math.Floor(math.Log10(span)))
	if !math.IsInf(mag, 0) && mag > 0 {
		lo = math.Floor(lo/mag) * mag
		hi = math.Ceil(hi/mag) * mag
	}
	return lo, hi
}

// niceTicks spaces up to n Y-axis ticks across [min, max], choosing
// whichever 1/2/2.5/5/10 step lands closest to n marks.
func niceTicks(min, max float64, n int) []chart.Tick {
	if n < 2 || math.IsNaN(min) || math.IsNaN(max) {
		return nil
	}
	if max <= min {
		max = min + 1
	}
	mag := math.Pow(10, math.Floor(math.Log10((max-min)/float64(n-1))))
	step := mag
	bestDiff := math.MaxFloat64
	for _, mult := range []float64{1, 2, 2.5, 5, 10} {
		cand := mult * mag
		count := math.Ceil((max - min) / cand)
		if count < 2 {
			count = 2
		}
		if diff := math.Abs(count - float64(n)); diff < bestDiff {
			bestDiff = diff
			step = cand
		}
	}
	var ticks []chart.Tick
	for v := math.Floor(min/step) * step; v <= math.Ceil(max/step)*step+step/2; v += step {
		ticks = append(ticks, chart.Tick{Value: v, Label: formatTick(v)})
		if len(ticks) > n+2 {
			break
		}
	}
	return ticks
}

func formatTick(v float64) string {
	if v == 0 {
		return "0"
	}
	av := math.Abs(v)
	switch {
	case av >= 1000:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// subtle dark background matching the UI theme
var blankPixel = color.RGBA{R: 18, G: 18, B: 18, A: 255}

// Blank returns a neutral placeholder image for empty chart panes.
func Blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, blankPixel)
		}
	}
	return img
}
