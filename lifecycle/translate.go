package lifecycle

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/native"
)

// HostErrorType is the native exception type used to carry a host error
// through native frames.
const HostErrorType = "cxxbind::host_error"

type exceptionClass struct {
	base     string
	category errors.Category
	hostName string
}

// Translator maps native exceptions to host errors and back.
type Translator struct {
	classes map[string]exceptionClass
	mu      sync.RWMutex
}

var standardExceptions = map[string]exceptionClass{
	"std::exception":            {category: errors.CategoryRuntime},
	"std::runtime_error":        {base: "std::exception", category: errors.CategoryRuntime},
	"std::system_error":         {base: "std::runtime_error", category: errors.CategoryRuntime},
	"std::range_error":          {base: "std::runtime_error", category: errors.CategoryOutOfRange},
	"std::overflow_error":       {base: "std::runtime_error", category: errors.CategoryOverflow},
	"std::underflow_error":      {base: "std::runtime_error", category: errors.CategoryOverflow},
	"std::logic_error":          {base: "std::exception", category: errors.CategoryLogic},
	"std::invalid_argument":     {base: "std::logic_error", category: errors.CategoryInvalidArgument},
	"std::domain_error":         {base: "std::logic_error", category: errors.CategoryInvalidArgument},
	"std::length_error":         {base: "std::logic_error", category: errors.CategoryInvalidArgument},
	"std::out_of_range":         {base: "std::logic_error", category: errors.CategoryOutOfRange},
	"std::bad_alloc":            {base: "std::exception", category: errors.CategoryResourceExhausted},
	"std::bad_array_new_length": {base: "std::bad_alloc", category: errors.CategoryResourceExhausted},
	"std::bad_cast":             {base: "std::exception", category: errors.CategoryInvalidArgument},
	"std::bad_optional_access":  {base: "std::exception", category: errors.CategoryLogic},
}

// NewTranslator creates a translator that knows the standard exception
// hierarchy.
func NewTranslator() *Translator {
	t := &Translator{classes: make(map[string]exceptionClass, len(standardExceptions))}
	for name, c := range standardExceptions {
		t.classes[name] = c
	}
	return t
}

// Register declares an exception class. A zero category inherits the
// category of base.
func (t *Translator) Register(cppType, base, hostName string, category errors.Category) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.classes[cppType] = exceptionClass{base: base, category: category, hostName: hostName}
}

// Category returns the category of a native exception type, walking its
// declared bases. Unknown types map to CategoryUnknown.
func (t *Translator) Category(cppType string) errors.Category {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := make(map[string]bool)
	for name := cppType; name != "" && !seen[name]; {
		seen[name] = true
		c, ok := t.classes[name]
		if !ok {
			break
		}
		if c.category != "" {
			return c.category
		}
		name = c.base
	}
	return errors.CategoryUnknown
}

// HostName returns the host-visible name registered for cppType.
func (t *Translator) HostName(cppType string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if c, ok := t.classes[cppType]; ok && c.hostName != "" {
		return c.hostName
	}
	return cppType
}

// FromNative converts an error returned by native code into the error the
// host observes. where names the declaration being called.
func (t *Translator) FromNative(where string, err error) error {
	if err == nil {
		return nil
	}

	var ex *native.Exception
	if stderrors.As(err, &ex) {
		if ex.Cause != nil {
			return ex.Cause
		}
		e := errors.CrossLanguage(t.Category(ex.Type), ex.Type, ex.Message, nil)
		e.Decl = where
		e.HostType = t.HostName(ex.Type)
		return e
	}

	var be *errors.Error
	if stderrors.As(err, &be) {
		return err
	}

	e := errors.CrossLanguage(errors.CategoryRuntime, "", err.Error(), err)
	e.Decl = where
	return e
}

// FromPanic converts a recovered panic from native code. Runtime faults
// such as nil dereferences are reported as fatal runtime errors.
func (t *Translator) FromPanic(where string, r any) error {
	switch v := r.(type) {
	case *native.Exception:
		return t.FromNative(where, v)
	case runtime.Error:
		e := errors.CrossLanguage(errors.CategoryRuntime, "fatal", v.Error(), v)
		e.Decl = where
		return e
	case error:
		return t.FromNative(where, v)
	default:
		e := errors.CrossLanguage(errors.CategoryRuntime, "fatal", fmt.Sprint(v), nil)
		e.Decl = where
		return e
	}
}

// ToNative converts a host error raised inside a host override into the
// exception propagated through native frames. The original error is kept
// as the cause and restored by FromNative.
func (t *Translator) ToNative(err error) *native.Exception {
	var ex *native.Exception
	if stderrors.As(err, &ex) && ex.Cause == nil {
		return ex
	}
	typ := HostErrorType
	var be *errors.Error
	if stderrors.As(err, &be) && be.Kind == errors.KindCrossLanguage && be.CppType != "" {
		typ = be.CppType
	}
	return &native.Exception{Type: typ, Message: err.Error(), Cause: err}
}
