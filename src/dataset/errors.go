package dataset

import "fmt"

// FormatError reports structurally malformed CSV/JSON input. Line is
// 1-based when known; Field names the offending column or JSON key.
type FormatError struct {
	Format Format
	Line   int
	Field  string
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	loc := ""
	if e.Line > 0 {
		loc = fmt.Sprintf(" line %d", e.Line)
	}
	if e.Field != "" {
		loc += fmt.Sprintf(" field %q", e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s format error%s: %s: %v", e.Format, loc, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s format error%s: %s", e.Format, loc, e.Msg)
}

func (e *FormatError) Unwrap() error { return e.Err }

// EncodingError reports input whose bytes match no supported text encoding.
type EncodingError struct {
	Msg string
}

func (e *EncodingError) Error() string { return "encoding error: " + e.Msg }

// ValidationError reports a dataset that parsed but fails validation
// (missing required fields, inconsistent types across rows).
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	if len(e.Result.Errors) == 0 {
		return "validation error"
	}
	return "validation error: " + e.Result.Errors[0]
}
