package host

import (
	"context"
	"sort"
	"sync"

	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/lifecycle"
)

// Constructor creates an instance of cls, which may be a host subclass of
// the class the constructor was defined on.
type Constructor func(ctx context.Context, cls *Class, args []any) (*Object, error)

// Reducer returns the constructor arguments that recreate an object.
type Reducer func(ctx context.Context, self *Object) ([]any, error)

// Property is a host attribute backed by accessors. Set is nil for
// read-only properties.
type Property struct {
	Get func(ctx context.Context, self *Object) (any, error)
	Set func(ctx context.Context, self *Object, v any) error
}

// Class is a host class.
type Class struct {
	base    *Class
	token   *lifecycle.Token
	ctor    Constructor
	reducer Reducer
	methods map[string]Func
	statics map[string]Func
	props   map[string]*Property
	attrs   map[string]any
	pure    map[string]bool
	name    string
	module  string
	cppName string
	mu      sync.RWMutex
}

// NewClass creates a class bound to the native class cppName and defined
// in module m.
func NewClass(m *Module, name, cppName string, base *Class) *Class {
	return &Class{
		name:    name,
		module:  m.Name(),
		cppName: cppName,
		base:    base,
		token:   m.Token(),
		methods: make(map[string]Func),
		statics: make(map[string]Func),
		props:   make(map[string]*Property),
		attrs:   make(map[string]any),
		pure:    make(map[string]bool),
	}
}

// Subclass creates a host subclass defined in module. methods override or
// implement methods of the base chain.
func (c *Class) Subclass(module, name string, methods map[string]Func) *Class {
	sub := &Class{
		name:    name,
		module:  module,
		base:    c,
		token:   c.token,
		methods: make(map[string]Func, len(methods)),
		statics: make(map[string]Func),
		props:   make(map[string]*Property),
		attrs:   make(map[string]any),
		pure:    make(map[string]bool),
	}
	for n, fn := range methods {
		sub.methods[n] = fn
	}
	return sub
}

// Name returns the host-visible class name.
func (c *Class) Name() string { return c.name }

// Module returns the name of the defining module.
func (c *Class) Module() string { return c.module }

// CppName returns the bound native class, empty for host subclasses.
func (c *Class) CppName() string { return c.cppName }

// Base returns the base class or nil.
func (c *Class) Base() *Class { return c.base }

// HostDefined reports whether the class is a host subclass.
func (c *Class) HostDefined() bool { return c.cppName == "" }

// Bound returns the nearest class in the chain bound to a native class.
func (c *Class) Bound() *Class {
	for k := c; k != nil; k = k.base {
		if !k.HostDefined() {
			return k
		}
	}
	return nil
}

// Lineage returns the native class names of the chain, most derived
// first.
func (c *Class) Lineage() []string {
	var out []string
	for k := c; k != nil; k = k.base {
		if !k.HostDefined() {
			out = append(out, k.cppName)
		}
	}
	return out
}

// IsSubclassOf reports whether other is c or one of its bases.
func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.base {
		if k == other {
			return true
		}
	}
	return false
}

// DefConstructor sets the constructor.
func (c *Class) DefConstructor(fn Constructor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctor = fn
}

// DefMethod binds an instance method.
func (c *Class) DefMethod(name string, fn Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.methods[name] = fn
}

// DefPureVirtual binds a pure virtual method. A class with pure virtual
// methods that no more derived class implements cannot be instantiated.
func (c *Class) DefPureVirtual(name string, fn Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.methods[name] = fn
	c.pure[name] = true
}

// DefStatic binds a static method.
func (c *Class) DefStatic(name string, fn Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statics[name] = fn
}

// DefProperty binds a property.
func (c *Class) DefProperty(name string, p *Property) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.props[name] = p
}

// SetAttr binds a class attribute, such as a legacy enum constant.
func (c *Class) SetAttr(name string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attrs[name] = v
}

// SetReducer sets the serialization reducer.
func (c *Class) SetReducer(fn Reducer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reducer = fn
}

// Attr looks up a class attribute along the chain.
func (c *Class) Attr(name string) (any, bool) {
	for k := c; k != nil; k = k.base {
		k.mu.RLock()
		v, ok := k.attrs[name]
		k.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Method looks up an instance method along the chain and returns the class
// that defines it.
func (c *Class) Method(name string) (Func, *Class, bool) {
	for k := c; k != nil; k = k.base {
		k.mu.RLock()
		fn, ok := k.methods[name]
		k.mu.RUnlock()
		if ok {
			return fn, k, true
		}
	}
	return nil, nil, false
}

// Override returns the host implementation of name defined by a host
// subclass in the chain, if any.
func (c *Class) Override(name string) (Func, bool) {
	for k := c; k != nil && k.HostDefined(); k = k.base {
		k.mu.RLock()
		fn, ok := k.methods[name]
		k.mu.RUnlock()
		if ok {
			return fn, true
		}
	}
	return nil, false
}

func (c *Class) property(name string) (*Property, bool) {
	for k := c; k != nil; k = k.base {
		k.mu.RLock()
		p, ok := k.props[name]
		k.mu.RUnlock()
		if ok {
			return p, true
		}
	}
	return nil, false
}

func (c *Class) constructor() Constructor {
	for k := c; k != nil; k = k.base {
		k.mu.RLock()
		fn := k.ctor
		k.mu.RUnlock()
		if fn != nil {
			return fn
		}
	}
	return nil
}

func (c *Class) reduce() Reducer {
	for k := c; k != nil; k = k.base {
		k.mu.RLock()
		fn := k.reducer
		k.mu.RUnlock()
		if fn != nil {
			return fn
		}
	}
	return nil
}

// Missing returns the pure virtual methods of the chain that no more
// derived class implements, in order of discovery.
func (c *Class) Missing() []string {
	implemented := make(map[string]bool)
	seen := make(map[string]bool)
	var missing []string
	for k := c; k != nil; k = k.base {
		k.mu.RLock()
		var pure []string
		for name := range k.pure {
			pure = append(pure, name)
		}
		for name := range k.methods {
			if !k.pure[name] {
				implemented[name] = true
			}
		}
		k.mu.RUnlock()
		sort.Strings(pure)
		for _, name := range pure {
			if !implemented[name] && !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
		}
	}
	return missing
}

// New instantiates the class. Classes with unimplemented pure virtual
// methods are rejected.
func (c *Class) New(ctx context.Context, args ...any) (*Object, error) {
	if missing := c.Missing(); len(missing) > 0 {
		return nil, errors.Abstract(c.name, missing)
	}
	ctor := c.constructor()
	if ctor == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "constructor", c.name)
	}

	ctx, done, err := c.token.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return ctor(ctx, c, args)
}

// CallStatic invokes a static method.
func (c *Class) CallStatic(ctx context.Context, name string, args ...any) (any, error) {
	var fn Func
	for k := c; k != nil && fn == nil; k = k.base {
		k.mu.RLock()
		fn = k.statics[name]
		k.mu.RUnlock()
	}
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "static method", c.name+"."+name)
	}

	ctx, done, err := c.token.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return fn(ctx, nil, args)
}

// Shape returns the shape of the class object itself.
func (c *Class) Shape() Shape {
	return Shape{Name: "type", Module: c.module}
}
