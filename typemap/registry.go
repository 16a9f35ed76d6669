package typemap

import (
	"sync"

	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/enumbridge"
	"github.com/wippyai/cxxbind/errors"
)

// ClassInfo describes a bound C++ class.
type ClassInfo struct {
	Name     string // qualified C++ name
	HostName string
	Module   string
	Bases    []string
	Abstract bool
}

// TemplateRule synthesizes the mapping of a template instantiation from
// the mappings of its type arguments.
type TemplateRule func(t *decl.Type, args []*Mapping) (*Mapping, error)

type enumInfo struct {
	typ  *enumbridge.Type
	desc enumbridge.Descriptor
	repr *Repr
}

// Registry is the type mapping symbol table of one generation session.
type Registry struct {
	cache     sync.Map // canonical spelling -> *Mapping
	classes   map[string]*ClassInfo
	classRepr map[string]*Repr
	enums     map[string]*enumInfo
	aliases   map[string]string
	implicit  map[string][]string
	templates map[string]TemplateRule
	mu        sync.RWMutex
	closed    bool
}

// NewRegistry creates a registry with the builtin and standard library
// template rules.
func NewRegistry() *Registry {
	r := &Registry{
		classes:   make(map[string]*ClassInfo),
		classRepr: make(map[string]*Repr),
		enums:     make(map[string]*enumInfo),
		aliases:   make(map[string]string),
		implicit:  make(map[string][]string),
		templates: make(map[string]TemplateRule),
	}
	for _, name := range []string{"std::vector", "std::list", "std::deque", "std::set", "std::unordered_set", "std::array"} {
		r.templates[name] = ListRule
	}
	for _, name := range []string{"std::map", "std::unordered_map"} {
		r.templates[name] = DictRule
	}
	r.templates["std::pair"] = TupleRule
	r.templates["std::tuple"] = TupleRule
	r.templates["std::optional"] = OptionalRule
	r.templates["std::unique_ptr"] = SmartRule
	r.templates["std::shared_ptr"] = SmartRule
	r.templates["std::weak_ptr"] = SmartRule
	return r
}

// RegisterClass adds a class to the symbol table.
func (r *Registry) RegisterClass(info ClassInfo) error {
	info.Name = decl.Canonical(info.Name)
	bases := make([]string, len(info.Bases))
	for i, b := range info.Bases {
		bases[i] = decl.Canonical(b)
	}
	info.Bases = bases

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classes[info.Name]; ok {
		return errors.Duplicate(errors.PhaseResolve, "class", info.Name)
	}
	if info.HostName == "" {
		info.HostName = info.Name
	}
	r.classes[info.Name] = &info
	r.classRepr[info.Name] = &Repr{Name: info.HostName, Module: info.Module, Kind: KindClass}
	return nil
}

// RegisterEnum adds an enum. Typed enums get their host type built here;
// the returned type is nil for legacy enums.
func (r *Registry) RegisterEnum(desc enumbridge.Descriptor) (*enumbridge.Type, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	info := &enumInfo{desc: desc}
	if desc.Mode == enumbridge.ModeTyped {
		t, err := enumbridge.NewType(desc)
		if err != nil {
			return nil, err
		}
		info.typ = t
		info.repr = &Repr{Name: desc.HostName, Module: desc.Module, Kind: KindEnum}
	} else {
		info.repr = ReprLegacyEnum
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := decl.Canonical(desc.Name)
	if _, ok := r.enums[key]; ok {
		return nil, errors.Duplicate(errors.PhaseResolve, "enum", desc.Name)
	}
	r.enums[key] = info
	return info.typ, nil
}

// RegisterAlias makes name resolve like target.
func (r *Registry) RegisterAlias(name, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[name] = target
}

// RegisterImplicit records an implicit conversion from the C++ type from
// into class, through a converting constructor.
func (r *Registry) RegisterImplicit(from, class string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	class = decl.Canonical(class)
	r.implicit[class] = append(r.implicit[class], from)
}

// RegisterTemplate adds or replaces the rule for a template name.
func (r *Registry) RegisterTemplate(name string, rule TemplateRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[name] = rule
}

// Class returns a registered class.
func (r *Registry) Class(name string) (*ClassInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[decl.Canonical(name)]
	return c, ok
}

// Classes returns the number of registered classes.
func (r *Registry) Classes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// EnumType returns the host type of a typed enum.
func (r *Registry) EnumType(name string) (*enumbridge.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.enums[decl.Canonical(name)]
	if !ok || e.typ == nil {
		return nil, false
	}
	return e.typ, true
}

// IsSubclass reports whether class derives from base, directly or not.
func (r *Registry) IsSubclass(class, base string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isSubclass(decl.Canonical(class), decl.Canonical(base), make(map[string]bool))
}

func (r *Registry) isSubclass(class, base string, seen map[string]bool) bool {
	if class == base {
		return true
	}
	if seen[class] {
		return false
	}
	seen[class] = true
	c, ok := r.classes[class]
	if !ok {
		return false
	}
	for _, b := range c.Bases {
		if r.isSubclass(b, base, seen) {
			return true
		}
	}
	return false
}

// Resolve returns the mapping of a C++ type spelling.
func (r *Registry) Resolve(cppType string) (*Mapping, error) {
	t, err := decl.ParseType(cppType)
	if err != nil {
		return nil, errors.New(errors.PhaseResolve, errors.KindUnresolvedType).
			CppType(cppType).
			Cause(err).
			Detail("malformed type").
			Build()
	}
	return r.ResolveType(t)
}

// ResolveType returns the mapping of a parsed type. Repeated resolution of
// the same canonical spelling returns the identical mapping.
func (r *Registry) ResolveType(t *decl.Type) (*Mapping, error) {
	key := t.String()
	if m, ok := r.cache.Load(key); ok {
		return m.(*Mapping), nil
	}

	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, errors.New(errors.PhaseResolve, errors.KindInvalidInput).
			CppType(key).
			Detail("registry is closed").
			Build()
	}

	m, err := r.build(t, make(map[string]bool))
	if err != nil {
		return nil, err
	}
	actual, _ := r.cache.LoadOrStore(key, m)
	return actual.(*Mapping), nil
}

// Len returns the number of cached mappings.
func (r *Registry) Len() int {
	n := 0
	r.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close discards the cache. Later resolutions fail.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cache.Range(func(k, _ any) bool {
		r.cache.Delete(k)
		return true
	})
}

func (r *Registry) build(t *decl.Type, resolving map[string]bool) (*Mapping, error) {
	key := t.String()
	if resolving[key] {
		return nil, errors.New(errors.PhaseResolve, errors.KindUnresolvedType).
			CppType(key).
			Detail("recursive alias").
			Build()
	}
	resolving[key] = true

	r.mu.RLock()
	target, aliased := r.aliases[t.Name]
	r.mu.RUnlock()
	if aliased {
		at, err := decl.ParseType(target)
		if err != nil {
			return nil, errors.UnresolvedType(key, "")
		}
		merged := *at
		merged.Pointers = append(append([]bool(nil), at.Pointers...), t.Pointers...)
		merged.Const = at.Const || t.Const
		if t.Ref != decl.RefNone {
			merged.Ref = t.Ref
		}
		if m, ok := r.cache.Load(merged.String()); ok {
			return m.(*Mapping), nil
		}
		return r.build(&merged, resolving)
	}

	base, err := r.buildBase(t)
	if err != nil {
		return nil, err
	}
	return r.qualify(base, t), nil
}

// qualify copies a base mapping for one qualified spelling. The
// representation stays shared.
func (r *Registry) qualify(base *Mapping, t *decl.Type) *Mapping {
	m := *base
	m.Type = t
	m.CppType = t.String()
	if t.PointerDepth() > 0 {
		m.Nullable = true
		m.Default = nil
	}
	return &m
}

func (r *Registry) buildBase(t *decl.Type) (*Mapping, error) {
	key := t.String()

	if t.Name == "void" {
		if t.PointerDepth() > 0 {
			return nil, errors.UnresolvedType(key, "")
		}
		return &Mapping{Repr: ReprNone}, nil
	}
	if t.Name == "char" && t.PointerDepth() == 1 {
		return &Mapping{Repr: ReprStr, Scalar: decl.Scalar{Name: "const char*", Kind: decl.ScalarString}}, nil
	}

	if sc, ok := decl.LookupScalar(t.Name); ok {
		return scalarMapping(sc), nil
	}

	// class template instantiations are registered with their arguments
	name := t.Base().String()
	r.mu.RLock()
	_, isClass := r.classes[name]
	repr := r.classRepr[name]
	enum := r.enums[name]
	from := append([]string(nil), r.implicit[name]...)
	r.mu.RUnlock()

	switch {
	case isClass:
		m := &Mapping{Repr: repr, Class: name}
		for _, f := range from {
			fm, err := r.implicitSource(f)
			if err != nil {
				return nil, err
			}
			if fm.IsClass() && fm.Class == name {
				continue
			}
			m.Implicit = append(m.Implicit, fm)
		}
		return m, nil
	case enum != nil && enum.typ != nil:
		return &Mapping{Repr: enum.repr, Enum: enum.typ}, nil
	case enum != nil:
		desc := enum.desc
		return &Mapping{Repr: enum.repr, Legacy: &desc, Default: int64(0)}, nil
	}
	if t.IsTemplate() {
		r.mu.RLock()
		rule, ok := r.templates[t.Name]
		r.mu.RUnlock()
		if !ok {
			return nil, errors.UnresolvedType(key, "")
		}
		args := make([]*Mapping, 0, len(t.Args))
		for _, a := range t.Args {
			if a.Literal {
				continue
			}
			am, err := r.ResolveType(a)
			if err != nil {
				return nil, err
			}
			args = append(args, am)
		}
		return rule(t, args)
	}

	return nil, errors.UnresolvedType(key, "")
}

// implicitSource resolves the source type of an implicit conversion.
// Class sources do not carry their own implicit conversions: at most one
// user-defined conversion applies to an argument.
func (r *Registry) implicitSource(spelling string) (*Mapping, error) {
	ft, err := decl.ParseType(spelling)
	if err != nil {
		return nil, errors.UnresolvedType(spelling, "")
	}
	name := ft.Base().String()
	r.mu.RLock()
	repr, isClass := r.classRepr[name]
	r.mu.RUnlock()
	if isClass {
		return &Mapping{Repr: repr, Class: name, Type: ft, CppType: ft.String()}, nil
	}
	return r.ResolveType(ft)
}

func scalarMapping(sc decl.Scalar) *Mapping {
	switch sc.Kind {
	case decl.ScalarBool:
		return &Mapping{Repr: ReprBool, Scalar: sc, Default: false}
	case decl.ScalarFloat:
		return &Mapping{Repr: ReprFloat, Scalar: sc, Default: 0.0}
	case decl.ScalarString:
		return &Mapping{Repr: ReprStr, Scalar: sc, Default: ""}
	default:
		return &Mapping{Repr: ReprInt, Scalar: sc, Default: int64(0)}
	}
}
