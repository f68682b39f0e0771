package stamp

import (
	"fmt"
)

// MalformedRecordError is returned when a record line's first token is not a valid timestamp.
// Loading aborts on the first such line.
type MalformedRecordError struct {
	Source string
	Line   int
	Text   string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s:%d: malformed record %q: %v", e.Source, e.Line, e.Text, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// DuplicateStampError is returned when duplicates are rejected and a timestamp appears twice.
type DuplicateStampError struct {
	Source    string
	Stamp     float64
	FirstLine int
	Line      int
}

func (e *DuplicateStampError) Error() string {
	return fmt.Sprintf("%s:%d: duplicate timestamp %f (first seen on line %d)", e.Source, e.Line, e.Stamp, e.FirstLine)
}
