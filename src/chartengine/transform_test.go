package chartengine

import (
	"math"
	"testing"
	"time"

	"github.com/vizboard/vizboard/src/dataset"
)

func testDataset() *dataset.Dataset {
	mk := func(region string, sales float64) dataset.Row {
		return dataset.Row{"region": dataset.String(region), "sales": dataset.Number(sales)}
	}
	return &dataset.Dataset{
		Columns: []string{"region", "sales"},
		Rows: []dataset.Row{
			mk("north", 120), mk("south", 80), mk("east", 40), mk("west", 160),
		},
		Schema: dataset.Schema{"region": dataset.TypeString, "sales": dataset.TypeNumber},
	}
}

func timeSeriesDataset() *dataset.Dataset {
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]dataset.Row, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, dataset.Row{
			"when": dataset.Time_(t0.Add(time.Duration(i) * time.Hour)),
			"v":    dataset.Number(float64(i * 10)),
		})
	}
	return &dataset.Dataset{
		Columns: []string{"when", "v"},
		Rows:    rows,
		Schema:  dataset.Schema{"when": dataset.TypeTime, "v": dataset.TypeNumber},
	}
}

func TestTransformAutoColumns(t *testing.T) {
	data, err := Transform(testDataset(), TypeBar, "", "")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if data.XName != "region" || data.YName != "sales" {
		t.Fatalf("auto columns = %q/%q, want region/sales", data.XName, data.YName)
	}
	if data.Points() != 4 {
		t.Fatalf("points = %d, want 4", data.Points())
	}
}

func TestTransformPiePercentsSumTo100(t *testing.T) {
	// Values chosen so naive rounding drifts.
	ds := &dataset.Dataset{
		Columns: []string{"k", "v"},
		Rows: []dataset.Row{
			{"k": dataset.String("a"), "v": dataset.Number(1)},
			{"k": dataset.String("b"), "v": dataset.Number(1)},
			{"k": dataset.String("c"), "v": dataset.Number(1)},
		},
		Schema: dataset.Schema{"k": dataset.TypeString, "v": dataset.TypeNumber},
	}
	data, err := Transform(ds, TypePie, "k", "v")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	sum := 0.0
	for _, p := range data.Percents {
		sum += p
	}
	if math.Abs(sum-100) > 0.01 {
		t.Fatalf("percent sum = %v, want 100 +/- 0.01", sum)
	}
}

func TestTransformPieRejectsNegative(t *testing.T) {
	ds := testDataset()
	ds.Rows[1]["sales"] = dataset.Number(-5)
	if _, err := Transform(ds, TypePie, "region", "sales"); err == nil {
		t.Fatal("expected error for negative pie segment")
	}
}

func TestTransformTimeSeriesSortStable(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	row := func(ts time.Time, v float64) dataset.Row {
		return dataset.Row{"when": dataset.Time_(ts), "v": dataset.Number(v)}
	}
	ds := &dataset.Dataset{
		Columns: []string{"when", "v"},
		Rows: []dataset.Row{
			row(t0.Add(2*time.Hour), 3),
			row(t0, 1),
			// Two rows share a timestamp; input order must survive.
			row(t0.Add(time.Hour), 10),
			row(t0.Add(time.Hour), 20),
		},
		Schema: dataset.Schema{"when": dataset.TypeTime, "v": dataset.TypeNumber},
	}
	data, err := Transform(ds, TypeTimeSeries, "when", "v")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	for i := 1; i < len(data.XTimes); i++ {
		if data.XTimes[i].Before(data.XTimes[i-1]) {
			t.Fatalf("timestamps not ascending at %d", i)
		}
	}
	want := []float64{1, 10, 20, 3}
	for i, v := range want {
		if data.Y[i] != v {
			t.Fatalf("Y[%d] = %v, want %v (stable tie order)", i, data.Y[i], v)
		}
	}
}

func TestTransformTimeSeriesSkipsMissing(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ds := &dataset.Dataset{
		Columns: []string{"when", "v"},
		Rows: []dataset.Row{
			{"when": dataset.Time_(t0), "v": dataset.Number(1)},
			{"when": dataset.Missing(), "v": dataset.Number(2)},
			{"when": dataset.Time_(t0.Add(time.Hour)), "v": dataset.Missing()},
		},
		Schema: dataset.Schema{"when": dataset.TypeTime, "v": dataset.TypeNumber},
	}
	data, err := Transform(ds, TypeTimeSeries, "when", "v")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if data.Points() != 1 || data.Skipped != 2 {
		t.Fatalf("points=%d skipped=%d, want 1/2", data.Points(), data.Skipped)
	}
}

func TestTransformTimeSeriesRequiresTimeColumn(t *testing.T) {
	if _, err := Transform(testDataset(), TypeTimeSeries, "region", "sales"); err == nil {
		t.Fatal("expected error for non-time X column")
	}
}

func TestParseChartType(t *testing.T) {
	cases := []struct {
		in   string
		want ChartType
		ok   bool
	}{
		{"bar", TypeBar, true},
		{"time_series", TypeTimeSeries, true},
		{"time series", TypeTimeSeries, true},
		{"scatter", "", false},
	}
	for _, c := range cases {
		got, err := ParseChartType(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Fatalf("ParseChartType(%q) = %v, %v", c.in, got, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("ParseChartType(%q): expected error", c.in)
		}
	}
}
