package chartengine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vizboard/vizboard/src/dataset"
)

// ChartData is the transform product handed to backends: one X axis
// (labels or timestamps) and one numeric Y series.
type ChartData struct {
	Type    ChartType
	XName   string
	YName   string
	XLabels []string
	XTimes  []time.Time
	Y       []float64
	// Percents is populated for pie charts; it sums to 100 exactly up
	// to float rounding (the last segment absorbs the remainder).
	Percents []float64
	// Skipped counts rows left out because X or Y held a missing sentinel.
	Skipped int
}

// Points returns the number of charted points.
func (d *ChartData) Points() int { return len(d.Y) }

// Transform shapes a validated dataset for the requested chart type.
// xCol/yCol may be empty to auto-pick columns from the schema.
func Transform(ds *dataset.Dataset, typ ChartType, xCol, yCol string) (*ChartData, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("transform: empty dataset")
	}
	var err error
	if yCol == "" {
		if yCol, err = autoNumericColumn(ds); err != nil {
			return nil, err
		}
	}
	if ds.Schema[yCol] != dataset.TypeNumber {
		return nil, fmt.Errorf("transform: Y column %q is %s, need number", yCol, ds.Schema[yCol])
	}
	if xCol == "" {
		if xCol, err = autoXColumn(ds, typ, yCol); err != nil {
			return nil, err
		}
	}
	if _, ok := ds.Schema[xCol]; !ok {
		return nil, fmt.Errorf("transform: no column %q", xCol)
	}

	out := &ChartData{Type: typ, XName: xCol, YName: yCol}
	switch typ {
	case TypeTimeSeries:
		if ds.Schema[xCol] != dataset.TypeTime {
			return nil, fmt.Errorf("transform: time-series X column %q is %s, need time", xCol, ds.Schema[xCol])
		}
		for _, row := range ds.Rows {
			xv, yv := row[xCol], row[yCol]
			if xv.IsMissing() || yv.IsMissing() {
				out.Skipped++
				continue
			}
			out.XTimes = append(out.XTimes, xv.Time)
			out.Y = append(out.Y, yv.Num)
		}
		if len(out.Y) == 0 {
			return nil, fmt.Errorf("transform: no complete points in columns %q/%q", xCol, yCol)
		}
		sortByTime(out)
	case TypePie:
		for _, row := range ds.Rows {
			xv, yv := row[xCol], row[yCol]
			if xv.IsMissing() || yv.IsMissing() {
				out.Skipped++
				continue
			}
			if yv.Num < 0 {
				return nil, fmt.Errorf("transform: pie segment %q has negative value %g", xv.Label(), yv.Num)
			}
			out.XLabels = append(out.XLabels, xv.Label())
			out.Y = append(out.Y, yv.Num)
		}
		if len(out.Y) == 0 {
			return nil, fmt.Errorf("transform: no complete points in columns %q/%q", xCol, yCol)
		}
		if err := fillPercents(out); err != nil {
			return nil, err
		}
	default: // bar, line
		for _, row := range ds.Rows {
			xv, yv := row[xCol], row[yCol]
			if xv.IsMissing() || yv.IsMissing() {
				out.Skipped++
				continue
			}
			out.XLabels = append(out.XLabels, xv.Label())
			out.Y = append(out.Y, yv.Num)
		}
		if len(out.Y) == 0 {
			return nil, fmt.Errorf("transform: no complete points in columns %q/%q", xCol, yCol)
		}
	}
	return out, nil
}

// sortByTime orders points ascending by timestamp. The sort is stable:
// points with equal timestamps keep their input order.
func sortByTime(d *ChartData) {
	idx := make([]int, len(d.XTimes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return d.XTimes[idx[a]].Before(d.XTimes[idx[b]])
	})
	xs := make([]time.Time, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = d.XTimes[j]
		ys[i] = d.Y[j]
	}
	d.XTimes, d.Y = xs, ys
}

// fillPercents computes each segment's share. The last segment takes
// 100 minus the rest so the total is exactly 100 up to float rounding.
func fillPercents(d *ChartData) error {
	total := 0.0
	for _, v := range d.Y {
		total += v
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return fmt.Errorf("transform: pie values sum to %g, need a positive total", total)
	}
	d.Percents = make([]float64, len(d.Y))
	acc := 0.0
	for i, v := range d.Y {
		if i == len(d.Y)-1 {
			d.Percents[i] = 100 - acc
			break
		}
		p := v / total * 100
		d.Percents[i] = p
		acc += p
	}
	return nil
}

func autoNumericColumn(ds *dataset.Dataset) (string, error) {
	// prefer original column order over the sorted schema listing
	for _, col := range ds.Columns {
		if ds.Schema[col] == dataset.TypeNumber {
			return col, nil
		}
	}
	return "", fmt.Errorf("transform: dataset has no numeric column to chart")
}

func autoXColumn(ds *dataset.Dataset, typ ChartType, yCol string) (string, error) {
	if typ == TypeTimeSeries {
		for _, col := range ds.Columns {
			if ds.Schema[col] == dataset.TypeTime {
				return col, nil
			}
		}
		return "", fmt.Errorf("transform: dataset has no timestamp column for a time series")
	}
	for _, col := range ds.Columns {
		if col != yCol && ds.Schema[col] != dataset.TypeNumber {
			return col, nil
		}
	}
	// all-numeric datasets: chart Y against the first other column
	for _, col := range ds.Columns {
		if col != yCol {
			return col, nil
		}
	}
	return "", fmt.Errorf("transform: dataset needs at least two columns")
}
