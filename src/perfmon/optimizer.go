package perfmon

import (
	"github.com/vizboard/vizboard/src/dataset"
	"github.com/vizboard/vizboard/src/logging"
)

// SampleDataset thins ds down to at most maxPoints rows by keeping
// every n-th row, always including the first and last. Datasets at or
// under the limit come back unchanged.
func SampleDataset(ds *dataset.Dataset, maxPoints int) *dataset.Dataset {
	if ds == nil || maxPoints <= 0 || ds.Len() <= maxPoints {
		return ds
	}
	n := ds.Len()
	step := float64(n-1) / float64(maxPoints-1)
	rows := make([]dataset.Row, 0, maxPoints)
	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i)*step + 0.5)
		if idx > n-1 {
			idx = n - 1
		}
		rows = append(rows, ds.Rows[idx])
	}
	logging.Infof("sampled dataset from %d to %d rows", n, len(rows))
	out := *ds
	out.Rows = rows
	return &out
}
