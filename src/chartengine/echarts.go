package chartengine

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// EChartsBackend renders interactive HTML charts. It is the primary
// backend: the artifact is a self-contained page a browser can open.
type EChartsBackend struct{}

func (b *EChartsBackend) Name() string { return "echarts" }

// Render builds the chart and serializes it to an HTML artifact.
func (b *EChartsBackend) Render(data *ChartData, cfg Config) (*Artifact, error) {
	var buf bytes.Buffer
	var err error
	switch data.Type {
	case TypeBar:
		err = b.renderBar(&buf, data, cfg)
	case TypeLine:
		err = b.renderLine(&buf, data, cfg, data.XLabels)
	case TypeTimeSeries:
		err = b.renderLine(&buf, data, cfg, formatTimes(data.XTimes))
	case TypePie:
		err = b.renderPie(&buf, data, cfg)
	default:
		return nil, fmt.Errorf("echarts: unsupported chart type %q", data.Type)
	}
	if err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("echarts: renderer produced no output")
	}
	return &Artifact{Format: FormatHTML, Bytes: buf.Bytes()}, nil
}

func (b *EChartsBackend) globalOpts(cfg Config) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: cfg.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithColorsOpts(hashPalette(cfg.Scheme)),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: cfg.Title,
			Width:     fmt.Sprintf("%dpx", cfg.Width),
			Height:    fmt.Sprintf("%dpx", cfg.Height),
		}),
	}
}

func (b *EChartsBackend) renderBar(buf *bytes.Buffer, data *ChartData, cfg Config) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(b.globalOpts(cfg),
		charts.WithXAxisOpts(opts.XAxis{Name: cfg.XLabel, Type: "category", AxisLabel: &opts.AxisLabel{Rotate: 30}}),
		charts.WithYAxisOpts(opts.YAxis{Name: cfg.YLabel, Type: "value"}),
	)...)
	vals := make([]opts.BarData, len(data.Y))
	for i, v := range data.Y {
		vals[i] = opts.BarData{Value: v}
	}
	bar.SetXAxis(data.XLabels)
	bar.AddSeries(data.YName, vals, charts.WithBarChartOpts(opts.BarChart{BarGap: "10%"}))
	return bar.Render(buf)
}

func (b *EChartsBackend) renderLine(buf *bytes.Buffer, data *ChartData, cfg Config, xLabels []string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(append(b.globalOpts(cfg),
		charts.WithXAxisOpts(opts.XAxis{Name: cfg.XLabel, Type: "category", AxisLabel: &opts.AxisLabel{Rotate: 30}}),
		charts.WithYAxisOpts(opts.YAxis{Name: cfg.YLabel, Type: "value"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)...)
	vals := make([]opts.LineData, len(data.Y))
	for i, v := range data.Y {
		vals[i] = opts.LineData{Value: v}
	}
	line.SetXAxis(xLabels)
	line.AddSeries(data.YName, vals,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(true)}))
	return line.Render(buf)
}

func (b *EChartsBackend) renderPie(buf *bytes.Buffer, data *ChartData, cfg Config) error {
	pie := charts.NewPie()
	pie.SetGlobalOptions(append(b.globalOpts(cfg),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
	)...)
	vals := make([]opts.PieData, len(data.Y))
	for i, v := range data.Y {
		vals[i] = opts.PieData{Name: data.XLabels[i], Value: v}
	}
	pie.AddSeries(data.YName, vals,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
	)
	return pie.Render(buf)
}

// hashPalette prefixes palette hex values with '#' for echarts.
func hashPalette(s ColorScheme) opts.Colors {
	src := Palette(s)
	out := make([]string, len(src))
	for i, c := range src {
		out[i] = "#" + c
	}
	return opts.Colors(out)
}

func formatTimes(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Format("2006-01-02 15:04:05")
	}
	return out
}
