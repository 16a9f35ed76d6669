package trampoline

import (
	"sync"

	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/host"
)

// Direction distinguishes overrides of implemented methods from host
// implementations of pure virtuals.
type Direction uint8

const (
	HostOverride Direction = iota
	HostImplements
)

func (d Direction) String() string {
	if d == HostImplements {
		return "implements"
	}
	return "override"
}

// State is the lifecycle state of one object's bindings.
type State uint8

const (
	Unbound State = iota
	Bound
	Destroying
	Released
)

var stateNames = [...]string{
	Unbound:    "unbound",
	Bound:      "bound",
	Destroying: "destroying",
	Released:   "released",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Binding connects a virtual method to a host override slot.
type Binding struct {
	Method    *Method
	Override  host.Func
	Direction Direction
}

// Slot holds the bindings of one host subclass instance.
type Slot struct {
	object   *host.Object
	bindings map[string]*Binding
	state    State
	mu       sync.Mutex
}

// State returns the current state.
func (s *Slot) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Object returns the host instance the slot belongs to.
func (s *Slot) Object() *host.Object {
	return s.object
}

// Bindings returns the number of bound methods.
func (s *Slot) Bindings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bindings)
}

// Table maps native object identity to the bindings of its host instance.
type Table struct {
	slots map[any]*Slot
	mu    sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{slots: make(map[any]*Slot)}
}

// Overrides collects the bindings of a host subclass against the virtual
// methods visible from its bound native class.
func Overrides(h *Hierarchy, cls *host.Class) []*Binding {
	bound := cls.Bound()
	if bound == nil || !cls.HostDefined() {
		return nil
	}
	var out []*Binding
	for _, m := range h.VTable(bound.CppName()) {
		fn, ok := cls.Override(m.Name)
		if !ok {
			continue
		}
		dir := HostOverride
		if m.Pure {
			dir = HostImplements
		}
		out = append(out, &Binding{Method: m, Override: fn, Direction: dir})
	}
	return out
}

// Bind attaches bindings to the native object self. self must be
// comparable and not already bound.
func (t *Table) Bind(self any, obj *host.Object, bindings []*Binding) (*Slot, error) {
	s := &Slot{object: obj, bindings: make(map[string]*Binding, len(bindings)), state: Bound}
	for _, b := range bindings {
		s.bindings[b.Method.Key] = b
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.slots[self]; ok {
		return nil, errors.New(errors.PhaseDispatch, errors.KindDuplicate).
			Decl(obj.Class().Name()).
			Detail("native object already bound").
			Build()
	}
	t.slots[self] = s
	return s, nil
}

// Lookup returns the binding of key for self. Only Bound objects dispatch
// to the host.
func (t *Table) Lookup(self any, key string) (*Binding, *host.Object, bool) {
	t.mu.RLock()
	s, ok := t.slots[self]
	t.mu.RUnlock()
	if !ok {
		return nil, nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Bound {
		return nil, nil, false
	}
	b, ok := s.bindings[key]
	if !ok {
		return nil, nil, false
	}
	return b, s.object, true
}

// BeginDestroy moves self to Destroying before its native destructor runs.
func (t *Table) BeginDestroy(self any) {
	t.mu.RLock()
	s, ok := t.slots[self]
	t.mu.RUnlock()
	if !ok {
		return
	}
	s.mu.Lock()
	if s.state == Bound {
		s.state = Destroying
	}
	s.mu.Unlock()
}

// Unbind releases the bindings of self after its native destructor ran.
func (t *Table) Unbind(self any) {
	t.mu.Lock()
	s, ok := t.slots[self]
	delete(t.slots, self)
	t.mu.Unlock()
	if !ok {
		return
	}
	s.mu.Lock()
	s.state = Released
	s.bindings = nil
	s.mu.Unlock()
}

// State returns the state of self.
func (t *Table) State(self any) State {
	t.mu.RLock()
	s, ok := t.slots[self]
	t.mu.RUnlock()
	if !ok {
		return Unbound
	}
	return s.State()
}

// Len returns the number of bound objects.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.slots)
}
