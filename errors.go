package pixeltobin

import (
	"errors"
	"fmt"
)

// Kind is a coarse-grained categorization of pipeline failures. Every
// error surfaced by this package carries exactly one kind.
type Kind string

const (
	KindDiscovery Kind = "discovery" // missing domain root, sample folder or asset
	KindConfig    Kind = "config"    // config.json schema violation
	KindAsset     Kind = "asset"     // unreadable or mismatched image
	KindEncode    Kind = "encode"    // unsupported input shape
	KindDecode    Kind = "decode"    // corrupt or version-mismatched artifact
	KindCanceled  Kind = "canceled"  // run cancelled before the sample was processed
)

// PipelineError wraps an underlying error with the operation, kind and,
// where known, the sample key and file path that produced it. Errors are
// always scoped to a single sample.
type PipelineError struct {
	Op     string
	Kind   Kind
	Sample string
	Path   string
	Err    error
}

func (e *PipelineError) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Sample != "" {
		msg += fmt.Sprintf(" (sample=%s)", e.Sample)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether err (or anything it wraps) is a PipelineError of
// the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// ErrKind extracts the kind attached to err, or "" when err carries none.
func ErrKind(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func errf(op string, kind Kind, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

func wrap(op string, kind Kind, path string, err error) *PipelineError {
	return &PipelineError{Op: op, Kind: kind, Path: path, Err: err}
}
