package trampoline

import (
	"sort"
	"sync"

	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/typemap"
)

// Method is a virtual method as declared by one class.
type Method struct {
	Result *typemap.Mapping
	// Key identifies the method across the hierarchy: the name, or name
	// plus signature for overloaded virtuals.
	Key       string
	Name      string // host-visible name
	Class     string // declaring class
	Symbol    string // native implementation; empty for pure virtuals
	Params    []*typemap.Mapping
	Order     int
	Pure      bool
	Protected bool
}

type classNode struct {
	methods map[string]*Method
	name    string
	bases   []string
}

// Hierarchy is the virtual method layout of the bound classes.
type Hierarchy struct {
	classes map[string]*classNode
	mu      sync.RWMutex
}

// NewHierarchy creates an empty hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{classes: make(map[string]*classNode)}
}

// AddClass records a class and its direct bases.
func (h *Hierarchy) AddClass(name string, bases []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.classes[name]
	if !ok {
		n = &classNode{name: name, methods: make(map[string]*Method)}
		h.classes[name] = n
	}
	n.bases = append([]string(nil), bases...)
}

// AddVirtual records a virtual method declared or overridden by its class.
func (h *Hierarchy) AddVirtual(m *Method) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.classes[m.Class]
	if !ok {
		return errors.NotFound(errors.PhaseGenerate, "class", m.Class)
	}
	if _, dup := n.methods[m.Key]; dup {
		return errors.Duplicate(errors.PhaseGenerate, "virtual method", m.Class+"::"+m.Key)
	}
	n.methods[m.Key] = m
	return nil
}

// lineage returns class followed by its bases, depth first, each once.
func (h *Hierarchy) lineage(class string) []*classNode {
	var out []*classNode
	seen := make(map[string]bool)
	var walk func(string)
	walk = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		n, ok := h.classes[name]
		if !ok {
			return
		}
		out = append(out, n)
		for _, b := range n.bases {
			walk(b)
		}
	}
	walk(class)
	return out
}

// Polymorphic reports whether class declares or inherits a virtual method.
func (h *Hierarchy) Polymorphic(class string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, n := range h.lineage(class) {
		if len(n.methods) > 0 {
			return true
		}
	}
	return false
}

// Resolve returns the most derived native implementation of key visible
// from class. It fails with a pure virtual error when only pure
// declarations exist.
func (h *Hierarchy) Resolve(class, key string) (*Method, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var pure *Method
	for _, n := range h.lineage(class) {
		m, ok := n.methods[key]
		if !ok {
			continue
		}
		if !m.Pure {
			return m, nil
		}
		if pure == nil {
			pure = m
		}
	}
	if pure != nil {
		return nil, errors.PureVirtual(class, key)
	}
	return nil, errors.NotFound(errors.PhaseDispatch, "virtual method", class+"::"+key)
}

// Declaration returns the most derived declaration of key visible from
// class, pure or not.
func (h *Hierarchy) Declaration(class, key string) (*Method, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, n := range h.lineage(class) {
		if m, ok := n.methods[key]; ok {
			return m, true
		}
	}
	return nil, false
}

// VTable returns, for every virtual method visible from class, its most
// derived declaration, in declaration order.
func (h *Hierarchy) VTable(class string) []*Method {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]bool)
	var out []*Method
	for _, n := range h.lineage(class) {
		keys := make([]string, 0, len(n.methods))
		for k := range n.methods {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, h.implementation(class, k, n.methods[k]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// implementation returns the native implementation of key if any class in
// the lineage provides one, else the given declaration.
func (h *Hierarchy) implementation(class, key string, decl *Method) *Method {
	for _, n := range h.lineage(class) {
		if m, ok := n.methods[key]; ok && !m.Pure {
			return m
		}
	}
	return decl
}

// Abstract returns the keys of methods that are pure virtual in class.
func (h *Hierarchy) Abstract(class string) []string {
	var out []string
	for _, m := range h.VTable(class) {
		if m.Pure {
			out = append(out, m.Key)
		}
	}
	return out
}
