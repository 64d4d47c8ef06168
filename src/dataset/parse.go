package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/vizboard/vizboard/src/logging"
)

// MissingPolicy selects what happens to absent fields during parsing.
// The zero value is invalid: callers must state the policy explicitly.
type MissingPolicy int

const (
	missingUnset MissingPolicy = iota
	// MissingDrop removes any row with at least one absent field.
	MissingDrop
	// MissingFill substitutes the column type's default (0, "", zero time).
	MissingFill
	// MissingKeep leaves the sentinel missing value in place.
	MissingKeep
)

func (p MissingPolicy) String() string {
	switch p {
	case MissingDrop:
		return "drop"
	case MissingFill:
		return "fill"
	case MissingKeep:
		return "keep"
	default:
		return "unset"
	}
}

// ParseOptions controls parsing. Missing is mandatory.
type ParseOptions struct {
	Missing MissingPolicy
	// Delimiter forces a CSV delimiter; 0 means infer from the header line.
	Delimiter rune
}

// Parse reads tabular data from r in the given format.
func Parse(r io.Reader, format Format, opts ParseOptions) (*Dataset, error) {
	if opts.Missing == missingUnset {
		return nil, fmt.Errorf("dataset: missing-value policy must be set explicitly")
	}
	raw, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("dataset: read input: %w", err)
	}
	text, err := decodeText(raw)
	if err != nil {
		return nil, err
	}
	var ds *Dataset
	switch format {
	case FormatCSV:
		ds, err = parseCSV(text, opts)
	case FormatJSON:
		ds, err = parseJSON(text)
	default:
		return nil, fmt.Errorf("dataset: unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}
	dropped := applyMissingPolicy(ds, opts.Missing)
	ds.Schema = inferSchema(ds.Columns, ds.Rows)
	if ds.Len() == 0 && dropped > 0 {
		// The drop policy may legitimately remove every row; charting
		// rejects the empty dataset later if the caller gets that far.
		logging.Warnf("missing-value policy dropped all %d rows", dropped)
		return ds, nil
	}
	if res := Validate(ds); !res.IsValid {
		return nil, &ValidationError{Result: res}
	}
	logging.Debugf("parsed %d rows x %d columns from %s input (missing=%s)",
		len(ds.Rows), len(ds.Columns), format, opts.Missing)
	return ds, nil
}

// ParseFile parses a file on disk, inferring the format from its
// extension unless format is non-empty.
func ParseFile(path string, format Format, opts ParseOptions) (*Dataset, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			format = FormatJSON
		default:
			format = FormatCSV
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, format, opts)
}

// decodeText normalizes the raw bytes into UTF-8 text. Supported:
// UTF-8 (with or without BOM) and UTF-16 LE/BE with BOM. Anything else
// that is not valid UTF-8, or that looks binary, is an EncodingError.
func decodeText(raw []byte) (string, error) {
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		raw = raw[3:]
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		return decodeUTF16(raw[2:], false)
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		return decodeUTF16(raw[2:], true)
	}
	if !utf8.Valid(raw) {
		return "", &EncodingError{Msg: "input is not valid UTF-8 and carries no recognized BOM"}
	}
	if bytes.IndexByte(raw, 0x00) >= 0 {
		return "", &EncodingError{Msg: "input contains NUL bytes; looks like binary, not text"}
	}
	return string(raw), nil
}

func decodeUTF16(b []byte, bigEndian bool) (string, error) {
	if len(b)%2 != 0 {
		return "", &EncodingError{Msg: "UTF-16 input has odd byte length"}
	}
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		if bigEndian {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		} else {
			u = append(u, uint16(b[i+1])<<8|uint16(b[i]))
		}
	}
	return string(utf16.Decode(u)), nil
}

// inferDelimiter picks the separator that splits the header line into
// the most fields. Comma wins ties, per convention.
func inferDelimiter(header string) rune {
	best, bestCount := ',', strings.Count(header, ",")
	for _, cand := range []rune{';', '\t', '|'} {
		if c := strings.Count(header, string(cand)); c > bestCount {
			best, bestCount = cand, c
		}
	}
	return best
}

func parseCSV(text string, opts ParseOptions) (*Dataset, error) {
	firstLine := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		firstLine = text[:i]
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = inferDelimiter(firstLine)
	}
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delim
	reader.FieldsPerRecord = -1 // ragged rows handled below with a better message

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &FormatError{Format: FormatCSV, Msg: "input is empty"}
	}
	if err != nil {
		return nil, &FormatError{Format: FormatCSV, Line: 1, Msg: "cannot read header", Err: err}
	}
	columns := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			return nil, &FormatError{Format: FormatCSV, Line: 1, Field: fmt.Sprintf("column %d", i+1), Msg: "empty column name in header"}
		}
		columns[i] = name
	}

	var rows []Row
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &FormatError{Format: FormatCSV, Line: line, Msg: "malformed record", Err: err}
		}
		if len(rec) != len(columns) {
			return nil, &FormatError{
				Format: FormatCSV, Line: line,
				Msg: fmt.Sprintf("record has %d fields, header has %d", len(rec), len(columns)),
			}
		}
		row := make(Row, len(columns))
		for i, cell := range rec {
			row[columns[i]] = parseCell(cell)
		}
		rows = append(rows, row)
	}
	return &Dataset{Columns: columns, Rows: rows, Source: FormatCSV}, nil
}

func parseJSON(text string) (*Dataset, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var records []map[string]interface{}
	if err := dec.Decode(&records); err != nil {
		return nil, &FormatError{
			Format: FormatJSON,
			Line:   lineOfOffset(text, decodeOffset(err, dec)),
			Field:  fieldOfError(err),
			Msg:    "expected an array of records",
			Err:    err,
		}
	}
	if dec.More() {
		return nil, &FormatError{Format: FormatJSON, Msg: "trailing data after the record array"}
	}

	// Column order: first appearance across records.
	var columns []string
	seen := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	// map iteration order is random; keep the first record's keys in
	// input order where possible, then sort the remainder for stability
	columns = stableColumnOrder(text, columns)

	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		row := make(Row, len(columns))
		for _, col := range columns {
			raw, ok := rec[col]
			if !ok {
				row[col] = Missing()
				continue
			}
			v, err := jsonValue(raw)
			if err != nil {
				return nil, &FormatError{Format: FormatJSON, Line: i + 1, Field: col, Msg: "unsupported value", Err: err}
			}
			row[col] = v
		}
		rows = append(rows, row)
	}
	return &Dataset{Columns: columns, Rows: rows, Source: FormatJSON}, nil
}

// jsonValue maps a decoded JSON scalar onto a cell value.
func jsonValue(raw interface{}) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Missing(), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Missing(), err
		}
		return Number(f), nil
	case string:
		return parseCell(v), nil
	case bool:
		if v {
			return Number(1), nil
		}
		return Number(0), nil
	default:
		return Missing(), fmt.Errorf("nested %T values are not tabular", raw)
	}
}

// decodeOffset digs the byte offset out of a json syntax error.
func decodeOffset(err error, dec *json.Decoder) int64 {
	if se, ok := err.(*json.SyntaxError); ok {
		return se.Offset
	}
	if ute, ok := err.(*json.UnmarshalTypeError); ok {
		return ute.Offset
	}
	return dec.InputOffset()
}

// fieldOfError names the struct field for type errors when available.
func fieldOfError(err error) string {
	if ute, ok := err.(*json.UnmarshalTypeError); ok {
		return ute.Field
	}
	return ""
}

// lineOfOffset converts a byte offset to a 1-based line number.
func lineOfOffset(text string, off int64) int {
	if off <= 0 || off > int64(len(text)) {
		return 0
	}
	return 1 + strings.Count(text[:off], "\n")
}

// stableColumnOrder keeps JSON columns in first-appearance order by
// scanning the first object's key order textually.
func stableColumnOrder(text string, columns []string) []string {
	ranked := make([]string, 0, len(columns))
	rest := make([]string, 0)
	pos := map[string]int{}
	for _, c := range columns {
		quoted := `"` + c + `"`
		if i := strings.Index(text, quoted); i >= 0 {
			pos[c] = i
			ranked = append(ranked, c)
		} else {
			rest = append(rest, c)
		}
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && pos[ranked[j]] < pos[ranked[j-1]]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return append(ranked, rest...)
}

// applyMissingPolicy rewrites rows according to the chosen policy and
// returns how many rows the drop policy removed. Fill defaults depend
// on the column's eventual type, so fill runs a provisional inference
// first.
func applyMissingPolicy(ds *Dataset, policy MissingPolicy) int {
	switch policy {
	case MissingDrop:
		kept := ds.Rows[:0]
		for _, r := range ds.Rows {
			complete := true
			for _, col := range ds.Columns {
				if v, ok := r[col]; !ok || v.IsMissing() {
					complete = false
					break
				}
			}
			if complete {
				kept = append(kept, r)
			}
		}
		dropped := len(ds.Rows) - len(kept)
		if dropped > 0 {
			logging.Infof("dropped %d incomplete rows (policy=drop)", dropped)
		}
		ds.Rows = kept
		return dropped
	case MissingFill:
		sch := inferSchema(ds.Columns, ds.Rows)
		for _, r := range ds.Rows {
			for _, col := range ds.Columns {
				if v, ok := r[col]; ok && !v.IsMissing() {
					continue
				}
				switch sch[col] {
				case TypeNumber:
					r[col] = Number(0)
				case TypeTime:
					r[col] = Time_(time.Time{})
				default:
					r[col] = String("")
				}
			}
		}
	case MissingKeep:
		for _, r := range ds.Rows {
			for _, col := range ds.Columns {
				if _, ok := r[col]; !ok {
					r[col] = Missing()
				}
			}
		}
	}
	return 0
}
