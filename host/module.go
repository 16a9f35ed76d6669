package host

import (
	"context"
	"sort"
	"sync"

	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/lifecycle"
)

// Func is a host-callable implementation. self is nil for module-level
// functions, static methods and constructors.
type Func func(ctx context.Context, self *Object, args []any) (any, error)

// Module is a host module namespace.
type Module struct {
	token   *lifecycle.Token
	classes map[string]*Class
	funcs   map[string]Func
	attrs   map[string]any
	name    string
	mu      sync.RWMutex
}

// NewModule creates an empty module whose entry points acquire token.
func NewModule(name string, token *lifecycle.Token) *Module {
	return &Module{
		name:    name,
		token:   token,
		classes: make(map[string]*Class),
		funcs:   make(map[string]Func),
		attrs:   make(map[string]any),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Token returns the module's execution token.
func (m *Module) Token() *lifecycle.Token {
	return m.token
}

func (m *Module) taken(name string) bool {
	if _, ok := m.classes[name]; ok {
		return true
	}
	if _, ok := m.funcs[name]; ok {
		return true
	}
	_, ok := m.attrs[name]
	return ok
}

// AddClass binds a class under its host name.
func (m *Module) AddClass(c *Class) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken(c.name) {
		return errors.Duplicate(errors.PhaseInstall, "module attribute", m.name+"."+c.name)
	}
	m.classes[c.name] = c
	return nil
}

// Def binds a module-level function. Redefining a function replaces it.
func (m *Module) Def(name string, fn Func) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funcs[name] = fn
}

// SetAttr binds a module attribute such as an enum type or a constant.
func (m *Module) SetAttr(name string, v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrs[name] = v
}

// Class returns a class bound in this module, including re-exports.
func (m *Module) Class(name string) (*Class, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.classes[name]
	return c, ok
}

// Attr returns a module attribute.
func (m *Module) Attr(name string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.classes[name]; ok {
		return c, true
	}
	v, ok := m.attrs[name]
	return v, ok
}

// Has reports whether name is bound in any namespace of the module.
func (m *Module) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.taken(name)
}

// Names returns every bound name, sorted.
func (m *Module) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.classes)+len(m.funcs)+len(m.attrs))
	for n := range m.classes {
		out = append(out, n)
	}
	for n := range m.funcs {
		out = append(out, n)
	}
	for n := range m.attrs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Call invokes a module-level function.
func (m *Module) Call(ctx context.Context, name string, args ...any) (any, error) {
	m.mu.RLock()
	fn, ok := m.funcs[name]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound(errors.PhaseRuntime, "function", m.name+"."+name)
	}

	ctx, done, err := m.token.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return fn(ctx, nil, args)
}

// Import re-exports names bound in src. Re-exported classes and enums
// keep reporting src as their defining module.
func (m *Module) Import(src *Module, names ...string) error {
	src.mu.RLock()
	type item struct {
		class *Class
		fn    Func
		attr  any
		name  string
	}
	items := make([]item, 0, len(names))
	for _, n := range names {
		it := item{name: n}
		switch {
		case src.classes[n] != nil:
			it.class = src.classes[n]
		case src.funcs[n] != nil:
			it.fn = src.funcs[n]
		default:
			v, ok := src.attrs[n]
			if !ok {
				src.mu.RUnlock()
				return errors.NotFound(errors.PhaseInstall, "attribute", src.name+"."+n)
			}
			it.attr = v
		}
		items = append(items, it)
	}
	src.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		switch {
		case it.class != nil:
			m.classes[it.name] = it.class
		case it.fn != nil:
			m.funcs[it.name] = it.fn
		default:
			m.attrs[it.name] = it.attr
		}
	}
	return nil
}
