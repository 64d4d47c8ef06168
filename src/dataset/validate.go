package dataset

import (
	"fmt"

	"github.com/chrispappas/golang-generics-set/set"
)

// ValidationResult collects what went wrong (or nearly wrong) with a
// dataset, plus suggested fixes for the errors.
type ValidationResult struct {
	IsValid        bool
	Errors         []string
	Warnings       []string
	SuggestedFixes []string
}

// AddError records an error and marks the result invalid.
func (r *ValidationResult) AddError(msg, fix string) {
	r.IsValid = false
	r.Errors = append(r.Errors, msg)
	if fix != "" {
		r.SuggestedFixes = append(r.SuggestedFixes, fix)
	}
}

// AddWarning records a non-fatal observation.
func (r *ValidationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Validate checks the invariants a chartable dataset must hold:
// at least one row and column, every row carrying the same column set,
// and no column mixing value kinds across rows. Missing sentinels are
// ignored by the type check (they are a policy outcome, not a type).
func Validate(ds *Dataset) ValidationResult {
	res := ValidationResult{IsValid: true}
	if ds == nil || len(ds.Columns) == 0 {
		res.AddError("dataset has no columns", "check the header row or record keys")
		return res
	}
	if len(ds.Rows) == 0 {
		res.AddError("dataset has no rows", "load a file with at least one data row")
		return res
	}

	want := set.FromSlice(ds.Columns)
	for i, row := range ds.Rows {
		got := set.FromSlice([]string{})
		for k := range row {
			if !want.Has(k) {
				res.AddError(
					fmt.Sprintf("row %d has unexpected column %q", i+1, k),
					"re-parse the file so every row shares the header's columns",
				)
				return res
			}
			got.Add(k)
		}
		if len(got) != len(want) {
			res.AddError(
				fmt.Sprintf("row %d column set differs from header (%d vs %d columns)", i+1, len(got), len(want)),
				"re-parse with an explicit missing-value policy",
			)
			return res
		}
	}

	for _, col := range ds.Columns {
		kinds := map[Kind]int{}
		for _, row := range ds.Rows {
			v := row[col]
			if v.IsMissing() {
				continue
			}
			kinds[v.Kind]++
		}
		if len(kinds) > 1 {
			res.AddError(
				fmt.Sprintf("column %q mixes value types across rows (%s)", col, kindCounts(kinds)),
				fmt.Sprintf("clean column %q so all values share one type", col),
			)
		}
		if len(kinds) == 0 {
			res.AddWarning(fmt.Sprintf("column %q has no values", col))
		}
	}
	return res
}

func kindCounts(kinds map[Kind]int) string {
	names := map[Kind]string{KindNumber: "number", KindString: "string", KindTime: "time"}
	out := ""
	for _, k := range []Kind{KindNumber, KindString, KindTime} {
		if n, ok := kinds[k]; ok {
			if out != "" {
				out += ", "
			}
			out += fmt.Sprintf("%s=%d", names[k], n)
		}
	}
	return out
}
