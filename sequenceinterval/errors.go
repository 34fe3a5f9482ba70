package sequenceinterval

import "github.com/pkg/errors"

// UsageError reports that a caller violated a documented contract (spec
// §7.1), e.g. requesting a non-transient reference with no resolvable
// segment. Callers are expected to fix their input; there is no recovery
// path inside this package.
type UsageError struct {
	cause error
}

func (e *UsageError) Error() string { return "sequenceinterval: usage error: " + e.cause.Error() }
func (e *UsageError) Unwrap() error { return e.cause }

func usageErrorf(format string, args ...any) error {
	return &UsageError{cause: errors.Errorf(format, args...)}
}

// AssertionError reports an internal invariant violation (spec §7.2), e.g.
// a non-transient endpoint reference type carrying neither or both of
// SlideOnRemove/StayOnRemove. Unlike
// UsageError this is fatal: the core cannot safely proceed, and the owning
// collection must decide whether to close the document or discard the op.
type AssertionError struct {
	cause error
}

func (e *AssertionError) Error() string {
	return "sequenceinterval: assertion failed: " + e.cause.Error()
}
func (e *AssertionError) Unwrap() error { return e.cause }

func assertionErrorf(format string, args ...any) error {
	return &AssertionError{cause: errors.Errorf(format, args...)}
}
