package ingest

import (
	"errors"
	"fmt"
)

// ErrMalformedTrace matches every *MalformedTraceError with errors.Is.
var ErrMalformedTrace = errors.New("malformed trace")

// MalformedTraceError reports a structural violation in the trace.
type MalformedTraceError struct {
	Line   int
	Reason string
}

func (e *MalformedTraceError) Error() string {
	return fmt.Sprintf("malformed trace at line %d: %s", e.Line, e.Reason)
}

func (e *MalformedTraceError) Is(target error) bool {
	return target == ErrMalformedTrace
}

func (in *Ingester) malformed(format string, args ...any) error {
	return &MalformedTraceError{Line: in.line, Reason: fmt.Sprintf(format, args...)}
}
