package chartengine

import (
	"fmt"
	"image"
	"strings"
	"time"
)

// ChartType selects the rendering shape.
type ChartType string

const (
	TypeBar        ChartType = "bar"
	TypeLine       ChartType = "line"
	TypePie        ChartType = "pie"
	TypeTimeSeries ChartType = "timeseries"
)

// ChartTypes lists all supported types in UI order.
func ChartTypes() []ChartType {
	return []ChartType{TypeBar, TypeLine, TypePie, TypeTimeSeries}
}

// ParseChartType maps user-facing names onto a ChartType.
func ParseChartType(s string) (ChartType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bar":
		return TypeBar, nil
	case "line":
		return TypeLine, nil
	case "pie":
		return TypePie, nil
	case "timeseries", "time_series", "time series":
		return TypeTimeSeries, nil
	}
	return "", fmt.Errorf("unknown chart type %q", s)
}

// ColorScheme names an enumerated palette.
type ColorScheme string

const (
	SchemeDefault ColorScheme = "default"
	SchemeViridis ColorScheme = "viridis"
	SchemePlasma  ColorScheme = "plasma"
	SchemeCool    ColorScheme = "cool"
	SchemeWarm    ColorScheme = "warm"
)

// ColorSchemes lists all palettes in UI order.
func ColorSchemes() []ColorScheme {
	return []ColorScheme{SchemeDefault, SchemeViridis, SchemePlasma, SchemeCool, SchemeWarm}
}

// palettes maps each scheme to its hex colors (no leading '#'; both
// backends build their native color values from these).
var palettes = map[ColorScheme][]string{
	SchemeDefault: {"5470c6", "91cc75", "fac858", "ee6666", "73c0de", "3ba272", "fc8452", "9a60b4"},
	SchemeViridis: {"440154", "414487", "2a788e", "22a884", "7ad151", "fde725"},
	SchemePlasma:  {"0d0887", "6a00a8", "b12a90", "e16462", "fca636", "f0f921"},
	SchemeCool:    {"00ffff", "33ccff", "6699ff", "9966ff", "cc33ff", "ff00ff"},
	SchemeWarm:    {"ff0000", "ff4d00", "ff9900", "ffcc00", "ffe680", "ffff00"},
}

// Palette returns the hex colors for a scheme, falling back to default.
func Palette(s ColorScheme) []string {
	if p, ok := palettes[s]; ok {
		return p
	}
	return palettes[SchemeDefault]
}

// Config describes one chart request. Treated as immutable once a
// chart has been rendered: the engine stores its own copy in the
// result, so later edits to a Config never reshape an existing chart.
type Config struct {
	Type   ChartType
	Title  string
	XLabel string
	YLabel string
	Scheme ColorScheme
	// XColumn / YColumn select dataset columns; empty means auto-pick
	// (first string or time column for X, first numeric for Y).
	XColumn string
	YColumn string
	Width   int
	Height  int
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = 960
	}
	if c.Height <= 0 {
		c.Height = 420
	}
	if c.Scheme == "" {
		c.Scheme = SchemeDefault
	}
	return c
}

// ArtifactFormat tags the rendered bytes.
type ArtifactFormat string

const (
	FormatHTML ArtifactFormat = "html"
	FormatPNG  ArtifactFormat = "png"
)

// Ext returns the file extension for the format.
func (f ArtifactFormat) Ext() string { return "." + string(f) }

// Artifact is the rendered chart payload.
type Artifact struct {
	Format ArtifactFormat
	Bytes  []byte
	// Image is set for PNG artifacts so UIs can display them directly.
	Image image.Image
}

// Origin records which backend produced the result.
type Origin string

const (
	OriginPrimary  Origin = "primary"
	OriginFallback Origin = "fallback"
)

// ChartResult is the rendered chart plus provenance.
type ChartResult struct {
	Artifact Artifact
	Origin   Origin
	Duration time.Duration
	// Points is the number of charted points, after rows with a
	// missing X or Y were skipped.
	Points int
	// Config is the frozen copy the chart was rendered with.
	Config Config
}
