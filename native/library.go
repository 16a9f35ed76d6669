package native

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Func implements a callable declaration. self is nil for free functions
// and constructors.
type Func func(ctx context.Context, self any, args []any) (any, error)

// Getter reads a field.
type Getter func(ctx context.Context, self any) (any, error)

// Setter writes a field.
type Setter func(ctx context.Context, self any, value any) error

// Destructor destroys a native object.
type Destructor func(ctx context.Context, self any) error

// Object is implemented by native values that report their dynamic class.
// Values that do not implement it are treated as instances of their static
// class.
type Object interface {
	NativeClass() string
}

// VirtualCaller routes a native virtual call through the binding's
// trampoline table.
type VirtualCaller interface {
	CallVirtual(ctx context.Context, self any, class, method string, args []any) (any, error)
}

type field struct {
	get Getter
	set Setter
}

// Library holds the native implementations a module is installed against.
type Library struct {
	funcs   map[string]Func
	fields  map[string]field
	dtors   map[string]Destructor
	virtual VirtualCaller
	mu      sync.RWMutex
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		funcs:  make(map[string]Func),
		fields: make(map[string]field),
		dtors:  make(map[string]Destructor),
	}
}

// Define registers the implementation of symbol.
func (l *Library) Define(symbol string, fn Func) *Library {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.funcs[symbol] = fn
	return l
}

// DefineField registers accessors for a qualified field name. set may be
// nil for read-only fields.
func (l *Library) DefineField(qualified string, get Getter, set Setter) *Library {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fields[qualified] = field{get: get, set: set}
	return l
}

// DefineDestructor registers the destructor of class.
func (l *Library) DefineDestructor(class string, fn Destructor) *Library {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dtors[class] = fn
	return l
}

// Func returns the implementation of symbol.
func (l *Library) Func(symbol string) (Func, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn, ok := l.funcs[symbol]
	return fn, ok
}

// Field returns the accessors of a qualified field.
func (l *Library) Field(qualified string) (Getter, Setter, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.fields[qualified]
	return f.get, f.set, ok
}

// Destructor returns the destructor of class.
func (l *Library) Destructor(class string) (Destructor, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn, ok := l.dtors[class]
	return fn, ok
}

// Has reports whether symbol is implemented as a function or a field.
func (l *Library) Has(symbol string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.funcs[symbol]; ok {
		return true
	}
	_, ok := l.fields[symbol]
	return ok
}

// Symbols returns all registered function symbols, sorted.
func (l *Library) Symbols() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.funcs))
	for s := range l.funcs {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SetDispatcher installs the virtual call router. Installing a module
// does this; native code must not perform virtual calls before.
func (l *Library) SetDispatcher(v VirtualCaller) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.virtual = v
}

// CallVirtual performs a virtual call on self as if through a pointer to
// class. method is a method name, or name plus signature when the name is
// overloaded.
func (l *Library) CallVirtual(ctx context.Context, self any, class, method string, args ...any) (any, error) {
	l.mu.RLock()
	v := l.virtual
	l.mu.RUnlock()
	if v == nil {
		return nil, fmt.Errorf("native: virtual call %s::%s before a module was installed", class, method)
	}
	return v.CallVirtual(ctx, self, class, method, args)
}

// ClassOf returns the dynamic class of v, or fallback when v does not
// implement Object.
func ClassOf(v any, fallback string) string {
	if o, ok := v.(Object); ok {
		if c := o.NativeClass(); c != "" {
			return c
		}
	}
	return fallback
}
