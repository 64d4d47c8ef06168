package dataset

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Format tags the source a Dataset was parsed from.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ColumnType is the inferred type of a column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeNumber
	TypeTime
)

func (t ColumnType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeTime:
		return "time"
	default:
		return "string"
	}
}

// Kind discriminates Value variants. KindMissing is the sentinel the
// MissingKeep policy leaves in place of an absent field.
type Kind int

const (
	KindMissing Kind = iota
	KindString
	KindNumber
	KindTime
)

// Value is a single typed cell.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Time time.Time
}

func Missing() Value          { return Value{Kind: KindMissing} }
func Number(v float64) Value  { return Value{Kind: KindNumber, Num: v} }
func String(s string) Value   { return Value{Kind: KindString, Str: s} }
func Time_(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// IsMissing reports whether the cell holds the missing sentinel.
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// Float returns the numeric value and whether the cell is numeric.
func (v Value) Float() (float64, bool) {
	if v.Kind == KindNumber {
		return v.Num, true
	}
	return 0, false
}

// Label renders the cell for axis/category display.
func (v Value) Label() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindTime:
		return v.Time.Format(time.RFC3339)
	case KindString:
		return v.Str
	default:
		return ""
	}
}

// Row maps column name to cell value.
type Row map[string]Value

// Schema records inferred column types.
type Schema map[string]ColumnType

// Dataset is an ordered sequence of rows sharing one column set.
type Dataset struct {
	Columns []string // original order
	Rows    []Row
	Schema  Schema
	Source  Format
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Column extracts one column in row order. Missing cells are included
// as the sentinel value so callers can apply their own policy.
func (d *Dataset) Column(name string) []Value {
	out := make([]Value, 0, len(d.Rows))
	for _, r := range d.Rows {
		v, ok := r[name]
		if !ok {
			v = Missing()
		}
		out = append(out, v)
	}
	return out
}

// NumericColumns returns the names of columns inferred numeric, sorted.
func (d *Dataset) NumericColumns() []string {
	var out []string
	for name, t := range d.Schema {
		if t == TypeNumber {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// TimeColumns returns the names of columns inferred as timestamps, sorted.
func (d *Dataset) TimeColumns() []string {
	var out []string
	for name, t := range d.Schema {
		if t == TypeTime {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// timeLayouts are tried in order when sniffing timestamp cells.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// parseCell converts raw text into the most specific Value it matches:
// number, then timestamp, else string. Empty and NA-like text becomes
// the missing sentinel.
func parseCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if isMissingText(s) {
		return Missing()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	if t, ok := parseTime(s); ok {
		return Time_(t)
	}
	return String(s)
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isMissingText matches the conventional markers for absent values.
func isMissingText(s string) bool {
	switch s {
	case "", "NA", "N/A", "NaN", "nan", "null", "NULL", "None":
		return true
	}
	return false
}

// inferSchema picks a type per column: a column is numeric or time only
// when every present cell agrees; anything mixed degrades to string.
func inferSchema(columns []string, rows []Row) Schema {
	sch := make(Schema, len(columns))
	for _, col := range columns {
		sawNum, sawTime, sawStr, sawAny := false, false, false, false
		for _, r := range rows {
			v, ok := r[col]
			if !ok || v.IsMissing() {
				continue
			}
			sawAny = true
			switch v.Kind {
			case KindNumber:
				sawNum = true
			case KindTime:
				sawTime = true
			default:
				sawStr = true
			}
		}
		switch {
		case !sawAny:
			sch[col] = TypeString
		case sawStr:
			sch[col] = TypeString
		case sawTime && !sawNum:
			sch[col] = TypeTime
		case sawNum && !sawTime:
			sch[col] = TypeNumber
		default:
			sch[col] = TypeString
		}
	}
	return sch
}
