package faults

import (
	"errors"
	"fmt"
)

// Kind classifies which invariant an operation violated. Handlers translate
// kinds into HTTP statuses; services never return untyped errors for guard
// violations.
type Kind string

const (
	KindState       Kind = "state"
	KindValidation  Kind = "validation"
	KindCapacity    Kind = "capacity"
	KindConsistency Kind = "consistency"
	KindNotFound    Kind = "not_found"
	KindForbidden   Kind = "forbidden"
)

type Fault struct {
	Kind    Kind
	Message string
}

func (f *Fault) Error() string {
	return f.Message
}

func New(kind Kind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func State(format string, args ...any) *Fault {
	return New(KindState, format, args...)
}

func Validation(format string, args ...any) *Fault {
	return New(KindValidation, format, args...)
}

func Capacity(format string, args ...any) *Fault {
	return New(KindCapacity, format, args...)
}

func Consistency(format string, args ...any) *Fault {
	return New(KindConsistency, format, args...)
}

func NotFound(format string, args ...any) *Fault {
	return New(KindNotFound, format, args...)
}

func Forbidden(format string, args ...any) *Fault {
	return New(KindForbidden, format, args...)
}

// KindOf returns the fault kind carried by err, or "" for plain errors.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
