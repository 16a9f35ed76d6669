package native

import (
	"sync/atomic"
)

// Exception is a C++ exception crossing the language boundary.
type Exception struct {
	Cause   error
	Type    string
	Message string
}

// Throw creates an exception of the given C++ type.
func Throw(typ, message string) *Exception {
	return &Exception{Type: typ, Message: message}
}

func (e *Exception) Error() string {
	if e.Type == "" {
		return e.Message
	}
	return e.Type + ": " + e.Message
}

// Unwrap returns the host error this exception carries, if any.
func (e *Exception) Unwrap() error {
	return e.Cause
}

// Shared is a shared-ownership control block, the native counterpart of a
// shared_ptr. The creator holds the first strong reference.
type Shared struct {
	value any
	refs  atomic.Int32
}

// NewShared creates a control block with one strong reference.
func NewShared(value any) *Shared {
	s := &Shared{value: value}
	s.refs.Store(1)
	return s
}

// IncRef adds a strong reference.
func (s *Shared) IncRef() {
	s.refs.Add(1)
}

// DecRef removes a strong reference and reports whether it was the last.
func (s *Shared) DecRef() bool {
	return s.refs.Add(-1) == 0
}

// Pointee returns the managed value.
func (s *Shared) Pointee() any {
	return s.value
}

// UseCount returns the number of strong references.
func (s *Shared) UseCount() int {
	return int(s.refs.Load())
}
