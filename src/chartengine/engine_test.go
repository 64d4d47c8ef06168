package chartengine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vizboard/vizboard/src/dataset"
	"github.com/vizboard/vizboard/src/perfmon"
)

type failingBackend struct{ err error }

func (f *failingBackend) Name() string { return "failing" }

func (f *failingBackend) Render(*ChartData, Config) (*Artifact, error) { return nil, f.err }

func TestEngineRenderPrimary(t *testing.T) {
	eng := New()
	res, err := eng.Render(testDataset(), Config{Type: TypeBar, Title: "sales by region"})
	require.NoError(t, err)
	require.Equal(t, OriginPrimary, res.Origin)
	require.Equal(t, FormatHTML, res.Artifact.Format)
	require.NotEmpty(t, res.Artifact.Bytes)
	require.Contains(t, string(res.Artifact.Bytes), "echarts")
}

func TestEngineFallbackOnPrimaryFailure(t *testing.T) {
	eng := NewWithBackends(&failingBackend{err: errors.New("boom")}, &StaticBackend{})
	res, err := eng.Render(testDataset(), Config{Type: TypeBar})
	require.NoError(t, err)
	require.Equal(t, OriginFallback, res.Origin)
	require.Equal(t, FormatPNG, res.Artifact.Format)
	require.NotNil(t, res.Artifact.Image)
}

func TestEngineRenderErrorWrapsBoth(t *testing.T) {
	eng := NewWithBackends(&failingBackend{err: errors.New("first")}, &failingBackend{err: errors.New("second")})
	_, err := eng.Render(testDataset(), Config{Type: TypeLine})
	require.Error(t, err)
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	require.EqualError(t, rerr.Primary, "first")
	require.EqualError(t, rerr.Fallback, "second")
}

func TestEngineConfigFrozen(t *testing.T) {
	eng := New()
	cfg := Config{Type: TypePie, Title: "before"}
	res, err := eng.Render(testDataset(), cfg)
	require.NoError(t, err)
	cfg.Title = "after"
	require.Equal(t, "before", res.Config.Title)
	require.Equal(t, 960, res.Config.Width)
}

func TestEnginePreview(t *testing.T) {
	eng := New()
	img, err := eng.Preview(testDataset(), Config{Type: TypeLine, Width: 320, Height: 200})
	require.NoError(t, err)
	require.NotNil(t, img)
	b := img.Bounds()
	require.Equal(t, 320, b.Dx())
	require.Equal(t, 200, b.Dy())
}

func TestRenderReportsChartedPoints(t *testing.T) {
	ds := testDataset()
	ds.Rows[2]["sales"] = dataset.Missing()
	res, err := New().Render(ds, Config{Type: TypeBar})
	require.NoError(t, err)
	require.Equal(t, 3, res.Points)
}

func TestRenderTenThousandPointsWithinBudget(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]dataset.Row, 10_000)
	for i := range rows {
		rows[i] = dataset.Row{
			"when": dataset.Time_(t0.Add(time.Duration(i) * time.Second)),
			"v":    dataset.Number(float64(i % 97)),
		}
	}
	ds := &dataset.Dataset{
		Columns: []string{"when", "v"},
		Rows:    rows,
		Schema:  dataset.Schema{"when": dataset.TypeTime, "v": dataset.TypeNumber},
	}
	res, err := New().Render(ds, Config{Type: TypeTimeSeries})
	require.NoError(t, err)
	require.Equal(t, OriginPrimary, res.Origin)
	require.Equal(t, 10_000, res.Points)
	require.Less(t, res.Duration, perfmon.Budget(ds.Len()))
	require.Equal(t, perfmon.ClassPass, perfmon.Classify(res.Duration, ds.Len()))
}

func TestStaticBackendAllTypes(t *testing.T) {
	for _, typ := range ChartTypes() {
		cfg := Config{Type: typ}.withDefaults()
		xCol := ""
		ds := testDataset()
		if typ == TypeTimeSeries {
			ds = timeSeriesDataset()
		}
		data, err := Transform(ds, typ, xCol, "")
		require.NoError(t, err, "transform %s", typ)
		art, err := (&StaticBackend{}).Render(data, cfg)
		require.NoError(t, err, "render %s", typ)
		require.NotNil(t, art.Image)
	}
}

func TestAnnotateImage(t *testing.T) {
	img := Blank(200, 100)
	out := AnnotateImage(img, "source.csv (fallback)")
	require.NotNil(t, out)
	require.Equal(t, img.Bounds(), out.Bounds())
}
