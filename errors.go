package gridgo

import (
	"errors"
	"fmt"
)

var (
	// ErrBlocked signals that an event listener vetoed a pending commit.
	// It is not a failure: commit paths treat it as a no-op and callers
	// observe changed=false. It never propagates out of the package API.
	ErrBlocked = errors.New("operation blocked by listener")

	// ErrAxisIndexCeiling is returned when a row or column insertion would
	// exceed the coordinate packing ceiling (see cellset.MaxAxisIndex).
	ErrAxisIndexCeiling = errors.New("axis index exceeds coordinate ceiling")
)

// DeletedElementError indicates an operation on an invalidated element.
type DeletedElementError struct {
	Kind ElementKind
}

func (e *DeletedElementError) Error() string {
	return fmt.Sprintf("%s is deleted", e.Kind)
}

// InvalidParentError indicates an element that does not belong to the
// expected table, such as a foreign row offered to a group.
type InvalidParentError struct {
	Kind ElementKind
}

func (e *InvalidParentError) Error() string {
	return fmt.Sprintf("%s belongs to a different table", e.Kind)
}

// ReadOnlyPropertyError indicates a mutation of a read-only property or a
// value write through a write-protected element.
type ReadOnlyPropertyError struct {
	Kind     ElementKind
	Property Property
}

func (e *ReadOnlyPropertyError) Error() string {
	if e.Property != PropNone {
		return fmt.Sprintf("property %s is read-only on %s", e.Property, e.Kind)
	}
	return fmt.Sprintf("%s is write-protected", e.Kind)
}

// UnimplementedPropertyError indicates a property the element kind does not
// support.
type UnimplementedPropertyError struct {
	Kind     ElementKind
	Property Property
}

func (e *UnimplementedPropertyError) Error() string {
	return fmt.Sprintf("property %s is not implemented by %s", e.Property, e.Kind)
}

// InvalidPropertyKeyError indicates a nil, empty, or otherwise malformed
// property key.
type InvalidPropertyKeyError struct {
	Kind ElementKind
	Key  string
}

func (e *InvalidPropertyKeyError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("empty property key on %s", e.Kind)
	}
	return fmt.Sprintf("invalid property key %q on %s", e.Key, e.Kind)
}

// ConstraintViolationError indicates a validator rejected a proposed cell
// value. The value is not committed.
//
// The validator's underlying error (if any) can be accessed via errors.Unwrap.
type ConstraintViolationError struct {
	Message string
	cause   error
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint violation: %s", e.Message)
}

func (e *ConstraintViolationError) Unwrap() error { return e.cause }

// NullValueError indicates a nil value offered to a cell whose effective
// null-support flag is off.
type NullValueError struct {
	Kind ElementKind
}

func (e *NullValueError) Error() string {
	return fmt.Sprintf("%s does not support null values", e.Kind)
}

// UnsupportedOperationError indicates a structurally disallowed operation,
// such as adding a group to itself.
type UnsupportedOperationError struct {
	Kind   ElementKind
	Reason string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation on %s: %s", e.Kind, e.Reason)
}

// InvalidAccessError indicates an access selector that is not valid for the
// requested lookup, such as a positional selector on a context registry.
type InvalidAccessError struct {
	Kind      ElementKind
	Access    Access
	Inserting bool
}

func (e *InvalidAccessError) Error() string {
	verb := "get"
	if e.Inserting {
		verb = "add"
	}
	return fmt.Sprintf("cannot %s %s by %s", verb, e.Kind, e.Access)
}

func newDeletedError(kind ElementKind) error {
	return &DeletedElementError{Kind: kind}
}

// isBlocked reports whether an error is (or wraps) the listener veto signal.
func isBlocked(err error) bool {
	return errors.Is(err, ErrBlocked)
}
