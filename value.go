package gridgo

import "math"

// ErrorCode classifies the error state a cell value can carry. It is derived
// from the current value on demand, never stored.
type ErrorCode uint8

const (
	NoError ErrorCode = iota
	ErrorNaN
	ErrorInfinity
	ErrorDivideByZero
	ErrorInvalidOperand
	ErrorOperandRequired
	ErrorReferenceRequired
	ErrorSeeMessage
	ErrorUnspecified
)

var errorCodeNames = map[ErrorCode]string{
	NoError:                "NoError",
	ErrorNaN:               "NaN",
	ErrorInfinity:          "Infinity",
	ErrorDivideByZero:      "DivideByZero",
	ErrorInvalidOperand:    "InvalidOperand",
	ErrorOperandRequired:   "OperandRequired",
	ErrorReferenceRequired: "ReferenceRequired",
	ErrorSeeMessage:        "SeeErrorMessage",
	ErrorUnspecified:       "Unspecified",
}

func (c ErrorCode) String() string {
	if s, ok := errorCodeNames[c]; ok {
		return s
	}
	return "Unknown"
}

// ErrorValue is an explicit error-result marker a derivation can post as a
// cell value.
type ErrorValue struct {
	Code    ErrorCode
	Message string
}

func (e ErrorValue) String() string {
	if e.Message != "" {
		return e.Code.String() + ": " + e.Message
	}
	return e.Code.String()
}

// errorCodeOf inspects a value for not-a-number, infinite, or explicit
// error-result markers.
func errorCodeOf(v any) ErrorCode {
	switch x := v.(type) {
	case ErrorValue:
		if x.Code == NoError {
			return ErrorUnspecified
		}
		return x.Code
	case *ErrorValue:
		if x == nil {
			return NoError
		}
		if x.Code == NoError {
			return ErrorUnspecified
		}
		return x.Code
	case float64:
		if math.IsNaN(x) {
			return ErrorNaN
		}
		if math.IsInf(x, 0) {
			return ErrorInfinity
		}
	case float32:
		f := float64(x)
		if math.IsNaN(f) {
			return ErrorNaN
		}
		if math.IsInf(f, 0) {
			return ErrorInfinity
		}
	}
	return NoError
}
