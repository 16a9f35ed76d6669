package enumbridge

import (
	"fmt"
	"math"
	"sync"

	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/host"
)

// Mode selects how an enum is exposed.
type Mode uint8

const (
	ModeLegacy Mode = iota
	ModeTyped
)

func (m Mode) String() string {
	if m == ModeTyped {
		return "typed"
	}
	return "legacy"
}

// ParseMode parses "legacy" or "typed".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "legacy":
		return ModeLegacy, nil
	case "typed":
		return ModeTyped, nil
	}
	return 0, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown enum mode %q", s))
}

// Descriptor describes one enumeration as bound.
type Descriptor struct {
	Name       string // qualified C++ name
	HostName   string
	Module     string
	Scope      string // host name of the enclosing class, if any
	Underlying string
	Entries    []decl.EnumEntry
	Mode       Mode
	Scoped     bool
}

// Constant is a legacy-mode integer constant.
type Constant struct {
	Name  string
	Value int64
}

// Validate checks entry names and that every value fits the underlying
// type.
func (d *Descriptor) Validate() error {
	sc, ok := decl.LookupScalar(d.underlying())
	if !ok || !sc.Integer() {
		return errors.New(errors.PhaseGenerate, errors.KindUnsupported).
			Decl(d.Name).
			CppType(d.Underlying).
			Detail("enum underlying type must be an integer type").
			Build()
	}
	seen := make(map[string]bool, len(d.Entries))
	for _, e := range d.Entries {
		if seen[e.Name] {
			return errors.Duplicate(errors.PhaseGenerate, "enum entry", d.Name+"::"+e.Name)
		}
		seen[e.Name] = true
		if err := sc.FitInt(e.Value); err != nil {
			return errors.Overflow(errors.PhaseGenerate, []string{d.Name, e.Name}, e.Value, d.underlying())
		}
	}
	return nil
}

func (d *Descriptor) underlying() string {
	if d.Underlying == "" {
		return "int"
	}
	return decl.Canonical(d.Underlying)
}

// Constants returns the legacy-mode constants in declaration order.
func (d *Descriptor) Constants() []Constant {
	out := make([]Constant, len(d.Entries))
	for i, e := range d.Entries {
		out[i] = Constant{Name: e.Name, Value: e.Value}
	}
	return out
}

// Check validates a raw value crossing into native code for a legacy
// enum: it must fit the underlying type.
func (d *Descriptor) Check(path []string, v int64) error {
	sc, _ := decl.LookupScalar(d.underlying())
	if err := sc.FitInt(v); err != nil {
		return errors.InvalidEnum(errors.PhaseConvert, path, v, d.Name)
	}
	return nil
}

// Type is a typed-mode enum exposed as a host type.
type Type struct {
	byValue  map[int64]*Member
	wide     map[uint64]*Member // unsigned values above math.MaxInt64
	byName   map[string]*Member
	scalar   decl.Scalar
	declared []*Member
	desc     Descriptor
	mu       sync.Mutex
}

// NewType builds the host type for d.
func NewType(d Descriptor) (*Type, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	sc, _ := decl.LookupScalar(d.underlying())
	t := &Type{
		desc:    d,
		scalar:  sc,
		byValue: make(map[int64]*Member, len(d.Entries)),
		byName:  make(map[string]*Member, len(d.Entries)),
	}
	for _, e := range d.Entries {
		m, ok := t.byValue[e.Value]
		if !ok {
			m = &Member{typ: t, name: e.Name, value: e.Value, declared: true}
			t.byValue[e.Value] = m
			t.declared = append(t.declared, m)
		}
		// aliases resolve to the first entry with the same value
		t.byName[e.Name] = m
	}
	return t, nil
}

// Name returns the host type name.
func (t *Type) Name() string { return t.desc.HostName }

// CppName returns the qualified C++ name.
func (t *Type) CppName() string { return t.desc.Name }

// Module returns the defining module.
func (t *Type) Module() string { return t.desc.Module }

// Underlying returns the canonical underlying integer type.
func (t *Type) Underlying() string { return t.desc.underlying() }

// Descriptor returns the enum's descriptor.
func (t *Type) Descriptor() Descriptor { return t.desc }

// Of returns the interned member for v. It always succeeds: values without
// a declared entry get an unnamed member that is interned as well.
func (t *Type) Of(v int64) *Member {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.byValue[v]; ok {
		return m
	}
	m := &Member{typ: t, value: v}
	t.byValue[v] = m
	return m
}

// OfUint is Of for unsigned values, which may exceed math.MaxInt64.
func (t *Type) OfUint(u uint64) *Member {
	if u <= math.MaxInt64 {
		return t.Of(int64(u))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.wide[u]; ok {
		return m
	}
	if t.wide == nil {
		t.wide = make(map[uint64]*Member)
	}
	m := &Member{typ: t, value: int64(u), wide: true}
	t.wide[u] = m
	return m
}

// OfValue returns the member for a Go integer of any width. ok is false
// when v is not an integer.
func (t *Type) OfValue(v any) (m *Member, ok bool) {
	if i, ok := host.AsInt(v); ok {
		return t.Of(i), true
	}
	if u, ok := host.AsUint(v); ok {
		return t.OfUint(u), true
	}
	return nil, false
}

// ByName returns the declared member called name.
func (t *Type) ByName(name string) (*Member, bool) {
	m, ok := t.byName[name]
	return m, ok
}

// Members returns the declared members in declaration order, aliases
// excluded.
func (t *Type) Members() []*Member {
	out := make([]*Member, len(t.declared))
	copy(out, t.declared)
	return out
}

// Convert turns a host value into a member: a member of this type, or a
// host integer that fits the underlying type.
func (t *Type) Convert(path []string, v any) (*Member, error) {
	if m, ok := v.(*Member); ok {
		if m.typ != t {
			return nil, errors.TypeMismatch(errors.PhaseConvert, path, m.typ.Name(), t.desc.Name)
		}
		return m, nil
	}
	i, ok := host.AsInt(v)
	if !ok {
		if u, isUint := host.AsUint(v); isUint {
			if err := t.scalar.FitUint(u); err != nil {
				return nil, errors.InvalidEnum(errors.PhaseConvert, path, v, t.desc.Name)
			}
			return t.OfUint(u), nil
		}
		return nil, errors.TypeMismatch(errors.PhaseConvert, path, host.ShapeOf(v).Name, t.desc.Name)
	}
	if err := t.scalar.FitInt(i); err != nil {
		return nil, errors.InvalidEnum(errors.PhaseConvert, path, v, t.desc.Name)
	}
	return t.Of(i), nil
}

// Shape implements host.Shaped for the type object.
func (t *Type) Shape() host.Shape {
	return host.Shape{Name: "type", Module: t.desc.Module}
}

// Member is one interned value of a typed enum.
type Member struct {
	typ      *Type
	name     string
	value    int64
	declared bool
	wide     bool // value holds the bits of a uint64 above math.MaxInt64
}

// Type returns the member's enum type.
func (m *Member) Type() *Type { return m.typ }

// Name returns the entry name, or "" for undeclared values.
func (m *Member) Name() string { return m.name }

// Value returns the underlying integer. Unsigned values above
// math.MaxInt64 are returned as their two's complement bits; use Native.
func (m *Member) Value() int64 { return m.value }

// Native returns the value passed to native code: an int64, or a uint64
// for unsigned values above math.MaxInt64.
func (m *Member) Native() any {
	if m.wide {
		return uint64(m.value)
	}
	return m.value
}

// Declared reports whether an entry declares the value.
func (m *Member) Declared() bool { return m.declared }

// Module returns the module the enum type was declared in.
func (m *Member) Module() string { return m.typ.desc.Module }

func (m *Member) String() string {
	if m.name == "" {
		return fmt.Sprintf("%s(%d)", m.typ.desc.HostName, m.Native())
	}
	return m.typ.desc.HostName + "." + m.name
}

// Equal reports host equality: only the identical member of the same
// type is equal. Raw integers never are.
func (m *Member) Equal(other any) bool {
	o, ok := other.(*Member)
	return ok && o == m
}

// Reduce returns what host serialization stores for the member. OfValue
// restores it.
func (m *Member) Reduce() (*Type, any) {
	return m.typ, m.Native()
}

// Shape implements host.Shaped.
func (m *Member) Shape() host.Shape {
	return host.Shape{
		Name:    m.typ.desc.HostName,
		Module:  m.typ.desc.Module,
		Classes: []string{m.typ.desc.Name},
	}
}
