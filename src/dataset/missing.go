package dataset

import "fmt"

// FillColumnMean replaces missing sentinels in a numeric column with
// the mean of its present values. Complements the parse-time fill
// policy for callers that keep sentinels and impute selectively.
func FillColumnMean(ds *Dataset, col string) error {
	t, ok := ds.Schema[col]
	if !ok {
		return fmt.Errorf("dataset: no column %q", col)
	}
	if t != TypeNumber {
		return fmt.Errorf("dataset: column %q is %s, mean imputation needs a numeric column", col, t)
	}
	sum, n := 0.0, 0
	for _, row := range ds.Rows {
		if v, ok := row[col].Float(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return fmt.Errorf("dataset: column %q has no numeric values to average", col)
	}
	mean := sum / float64(n)
	for _, row := range ds.Rows {
		if row[col].IsMissing() {
			row[col] = Number(mean)
		}
	}
	return nil
}

// CountMissing reports how many sentinel cells remain per column.
func CountMissing(ds *Dataset) map[string]int {
	out := map[string]int{}
	for _, row := range ds.Rows {
		for _, col := range ds.Columns {
			if row[col].IsMissing() {
				out[col]++
			}
		}
	}
	return out
}
