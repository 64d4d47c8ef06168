package dataset

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const salesCSV = `Month,Sales,Profit
Jan,120,24
Feb,150,30
Mar,180,36
Apr,200,40
May,170,34
Jun,220,44
`

func TestParseCSV(t *testing.T) {
	ds, err := Parse(strings.NewReader(salesCSV), FormatCSV, ParseOptions{Missing: MissingDrop})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ds.Len() != 6 {
		t.Fatalf("expected 6 rows got %d", ds.Len())
	}
	if got := ds.Columns; len(got) != 3 || got[0] != "Month" || got[1] != "Sales" || got[2] != "Profit" {
		t.Fatalf("unexpected columns: %v", got)
	}
	if ds.Schema["Month"] != TypeString || ds.Schema["Sales"] != TypeNumber {
		t.Fatalf("schema inference wrong: %v", ds.Schema)
	}
	if v, ok := ds.Rows[1]["Sales"].Float(); !ok || v != 150 {
		t.Fatalf("row 2 Sales = %v ok=%v", v, ok)
	}
}

func TestParseCSVDelimiterInference(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"semicolon", "a;b\n1;2\n"},
		{"tab", "a\tb\n1\t2\n"},
		{"pipe", "a|b\n1|2\n"},
		{"comma", "a,b\n1,2\n"},
	}
	for _, c := range cases {
		ds, err := Parse(strings.NewReader(c.in), FormatCSV, ParseOptions{Missing: MissingDrop})
		if err != nil {
			t.Fatalf("%s: parse: %v", c.name, err)
		}
		if len(ds.Columns) != 2 || ds.Len() != 1 {
			t.Fatalf("%s: got %d columns %d rows", c.name, len(ds.Columns), ds.Len())
		}
	}
}

func TestParseRequiresMissingPolicy(t *testing.T) {
	_, err := Parse(strings.NewReader(salesCSV), FormatCSV, ParseOptions{})
	if err == nil {
		t.Fatalf("expected error when no missing-value policy is set")
	}
}

func TestMissingPolicies(t *testing.T) {
	in := "Cat,Val\nA,1\nB,\nC,3\n"
	// drop: incomplete row removed
	ds, err := Parse(strings.NewReader(in), FormatCSV, ParseOptions{Missing: MissingDrop})
	if err != nil {
		t.Fatalf("drop parse: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("drop: expected 2 rows got %d", ds.Len())
	}
	// fill: default zero substituted
	ds, err = Parse(strings.NewReader(in), FormatCSV, ParseOptions{Missing: MissingFill})
	if err != nil {
		t.Fatalf("fill parse: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("fill: expected 3 rows got %d", ds.Len())
	}
	if v, ok := ds.Rows[1]["Val"].Float(); !ok || v != 0 {
		t.Fatalf("fill: expected 0 got %v ok=%v", v, ok)
	}
	// keep: sentinel survives
	ds, err = Parse(strings.NewReader(in), FormatCSV, ParseOptions{Missing: MissingKeep})
	if err != nil {
		t.Fatalf("keep parse: %v", err)
	}
	if !ds.Rows[1]["Val"].IsMissing() {
		t.Fatalf("keep: expected missing sentinel, got %+v", ds.Rows[1]["Val"])
	}
	if CountMissing(ds)["Val"] != 1 {
		t.Fatalf("keep: CountMissing = %v", CountMissing(ds))
	}
}

func TestDropPolicyMayEmptyDataset(t *testing.T) {
	// Every row has a gap, so drop removes them all. That is still a
	// well-formed parse: row count equals input rows minus dropped.
	in := "a,b\n1,\n,2\n"
	ds, err := Parse(strings.NewReader(in), FormatCSV, ParseOptions{Missing: MissingDrop})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ds.Len() != 0 {
		t.Fatalf("expected 0 rows got %d", ds.Len())
	}
	if len(ds.Columns) != 2 {
		t.Fatalf("columns lost with the rows: %v", ds.Columns)
	}
}

func TestParseJSON(t *testing.T) {
	in := `[
		{"Category":"Desktop","Users":45},
		{"Category":"Mobile","Users":35},
		{"Category":"Tablet","Users":12}
	]`
	ds, err := Parse(strings.NewReader(in), FormatJSON, ParseOptions{Missing: MissingDrop})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("expected 3 rows got %d", ds.Len())
	}
	if ds.Columns[0] != "Category" || ds.Columns[1] != "Users" {
		t.Fatalf("column order not preserved: %v", ds.Columns)
	}
	if ds.Schema["Users"] != TypeNumber {
		t.Fatalf("Users should infer numeric: %v", ds.Schema)
	}
}

func TestParseJSONMalformed(t *testing.T) {
	in := "[\n{\"a\":1},\n{\"a\":}\n]"
	_, err := Parse(strings.NewReader(in), FormatJSON, ParseOptions{Missing: MissingDrop})
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError got %T: %v", err, err)
	}
	if fe.Line != 3 {
		t.Fatalf("expected malformed line 3 named, got line %d (%v)", fe.Line, fe)
	}
}

func TestParseCSVMalformed(t *testing.T) {
	in := "a,b\n1,2\n3\n"
	_, err := Parse(strings.NewReader(in), FormatCSV, ParseOptions{Missing: MissingKeep})
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError got %T: %v", err, err)
	}
	if fe.Line != 3 {
		t.Fatalf("expected line 3 got %d", fe.Line)
	}
}

func TestEncodingDetection(t *testing.T) {
	// UTF-8 BOM is stripped
	bom := "\xEF\xBB\xBFa,b\n1,2\n"
	ds, err := Parse(strings.NewReader(bom), FormatCSV, ParseOptions{Missing: MissingDrop})
	if err != nil {
		t.Fatalf("bom parse: %v", err)
	}
	if ds.Columns[0] != "a" {
		t.Fatalf("BOM not stripped from first column: %q", ds.Columns[0])
	}
	// UTF-16 LE with BOM decodes
	utf16le := "\xFF\xFE" + encodeUTF16LE("a,b\n1,2\n")
	ds, err = Parse(strings.NewReader(utf16le), FormatCSV, ParseOptions{Missing: MissingDrop})
	if err != nil {
		t.Fatalf("utf16 parse: %v", err)
	}
	if ds.Len() != 1 {
		t.Fatalf("utf16: expected 1 row got %d", ds.Len())
	}
	// binary junk is an EncodingError
	_, err = Parse(strings.NewReader("a,b\n\x00\x01\xff\xfe\x00"), FormatCSV, ParseOptions{Missing: MissingDrop})
	var ee *EncodingError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EncodingError got %T: %v", err, err)
	}
}

func encodeUTF16LE(s string) string {
	var b []byte
	for _, r := range s {
		b = append(b, byte(r), byte(r>>8))
	}
	return string(b)
}

func TestTimestampInference(t *testing.T) {
	in := "Date,Temp\n2024-01-02,20.5\n2024-01-01,19.0\n"
	ds, err := Parse(strings.NewReader(in), FormatCSV, ParseOptions{Missing: MissingDrop})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ds.Schema["Date"] != TypeTime {
		t.Fatalf("Date should infer as time: %v", ds.Schema["Date"])
	}
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := ds.Rows[0]["Date"].Time; !got.Equal(want) {
		t.Fatalf("Date value = %v want %v", got, want)
	}
}

func TestValidateMixedTypes(t *testing.T) {
	in := "a,b\n1,x\n2,3\n"
	_, err := Parse(strings.NewReader(in), FormatCSV, ParseOptions{Missing: MissingDrop})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError got %T: %v", err, err)
	}
	if len(ve.Result.SuggestedFixes) == 0 {
		t.Fatalf("expected a suggested fix, got %+v", ve.Result)
	}
}

func TestValidateEmpty(t *testing.T) {
	res := Validate(&Dataset{Columns: []string{"a"}})
	if res.IsValid {
		t.Fatalf("empty dataset should be invalid")
	}
}

func TestFillColumnMean(t *testing.T) {
	in := "Cat,Val\nA,10\nB,\nC,20\n"
	ds, err := Parse(strings.NewReader(in), FormatCSV, ParseOptions{Missing: MissingKeep})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := FillColumnMean(ds, "Val"); err != nil {
		t.Fatalf("impute: %v", err)
	}
	if v, ok := ds.Rows[1]["Val"].Float(); !ok || v != 15 {
		t.Fatalf("expected mean 15 got %v ok=%v", v, ok)
	}
	if err := FillColumnMean(ds, "Cat"); err == nil {
		t.Fatalf("imputing a string column should fail")
	}
}
