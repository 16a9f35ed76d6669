package generator

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/wippyai/cxxbind/config"
	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/enumbridge"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/lifecycle"
	"github.com/wippyai/cxxbind/overload"
	"github.com/wippyai/cxxbind/ownership"
	"github.com/wippyai/cxxbind/trampoline"
	"github.com/wippyai/cxxbind/typemap"
)

// Session is one generation run. It owns the type registry, the virtual
// method hierarchy and the exception translator handed to the plan.
type Session struct {
	cfg        *config.Config
	registry   *typemap.Registry
	hierarchy  *trampoline.Hierarchy
	translator *lifecycle.Translator
	log        *zap.Logger
	used       bool
}

// NewSession creates a session. A nil config uses config.Default.
func NewSession(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		cfg:        cfg,
		registry:   typemap.NewRegistry(),
		hierarchy:  trampoline.NewHierarchy(),
		translator: lifecycle.NewTranslator(),
		log:        Logger().With(zap.String("module", cfg.Module)),
	}
	for name, kind := range cfg.Templates {
		rule, _ := typemap.RuleFor(kind)
		s.registry.RegisterTemplate(name, rule)
	}
	return s, nil
}

// Registry returns the session's type registry.
func (s *Session) Registry() *typemap.Registry { return s.registry }

// Close discards the registry cache.
func (s *Session) Close() {
	s.registry.Close()
}

// Generate turns a declaration list into a plan. A session generates once.
// Any error aborts the run and no plan is returned.
func (s *Session) Generate(list *decl.List) (*Plan, error) {
	if s.used {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "session already generated a plan")
	}
	s.used = true
	if s.cfg.Module == "" {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "module name is empty")
	}

	b := &builder{
		Session: s,
		plan: &Plan{
			Registry:   s.registry,
			Hierarchy:  s.hierarchy,
			Translator: s.translator,
			Entries:    make(map[string]*Entry),
			Module:     s.cfg.Module,
			Aliases:    make(map[string]string),
		},
		classes:   make(map[string]*Class),
		methods:   make(map[string]*groups),
		statics:   make(map[string]*groups),
		functions: &groups{byName: make(map[string][]*Callable)},
	}

	phases := []struct {
		name string
		run  func([]*decl.Declaration) error
	}{
		{"register", b.register},
		{"annotate", b.annotate},
		{"synthesize", b.synthesize},
		{"wrap", b.wrap},
	}
	for _, p := range phases {
		if err := p.run(list.All()); err != nil {
			s.log.Error("generation failed", zap.String("phase", p.name), zap.Error(err))
			return nil, err
		}
		s.log.Debug("phase complete", zap.String("phase", p.name))
	}

	s.log.Info("plan generated",
		zap.Int("classes", len(b.plan.Classes)),
		zap.Int("functions", len(b.plan.Functions)),
		zap.Int("enums", len(b.plan.Enums)),
		zap.Int("exceptions", len(b.plan.Exceptions)),
		zap.Int("mappings", s.registry.Len()))
	return b.plan, nil
}

// groups collects callables by host name, in first-declaration order.
type groups struct {
	byName map[string][]*Callable
	cpp    map[string]string
	names  []string
}

func (g *groups) add(name, cpp string, c *Callable) {
	if g.byName == nil {
		g.byName = make(map[string][]*Callable)
	}
	if g.cpp == nil {
		g.cpp = make(map[string]string)
	}
	if _, ok := g.byName[name]; !ok {
		g.names = append(g.names, name)
		g.cpp[name] = cpp
	}
	g.byName[name] = append(g.byName[name], c)
}

type builder struct {
	*Session
	plan      *Plan
	classes   map[string]*Class
	methods   map[string]*groups // class -> methods
	statics   map[string]*groups
	ctors     map[string][]*Callable
	functions *groups
	// protocol marks names synthesized from operators.
	protocol     map[string]bool
	virtualSigs  map[string]map[string]bool
	callables    map[*decl.Declaration]*Callable
	fields       map[*decl.Declaration]*Field
	enumsByClass map[string][]*Enum
}

func (b *builder) moduleOf(d *decl.Declaration) string {
	if d.Module != "" {
		return d.Module
	}
	return b.plan.Module
}

func (b *builder) isClass(name string) bool {
	_, ok := b.classes[decl.Canonical(name)]
	return ok
}

// member reports whether d binds an implicit object parameter. Operators
// scoped to a namespace are free operators.
func (b *builder) member(d *decl.Declaration) bool {
	if d.Kind == decl.KindOperator {
		return d.Member() && b.isClass(scopeOf(d))
	}
	return d.Member()
}

// scopeOf returns the canonical spelling of the enclosing scope, matching
// the keys of class template instantiations.
func scopeOf(d *decl.Declaration) string {
	return decl.Canonical(d.Scope)
}

// hostClassName spells template instantiations as Name_Arg1_Arg2.
func hostClassName(d *decl.Declaration) string {
	if len(d.TemplateArgs) == 0 {
		return d.Name
	}
	parts := []string{d.Name}
	for _, a := range d.TemplateArgs {
		parts = append(parts, sanitize(decl.Canonical(a)))
	}
	return strings.Join(parts, "_")
}

func sanitize(s string) string {
	var sb strings.Builder
	under := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			under = false
			continue
		}
		if !under && sb.Len() > 0 {
			sb.WriteByte('_')
			under = true
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}

func withDecl(err error, symbol string) error {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Decl == "" {
		c := *e
		c.Decl = symbol
		return &c
	}
	return err
}

// register fills the symbol table: classes, aliases, enums, exceptions
// and implicit conversions.
func (b *builder) register(decls []*decl.Declaration) error {
	for _, d := range decls {
		if d.Kind != decl.KindClass {
			continue
		}
		q := decl.Canonical(d.QualifiedName())
		cls := &Class{
			Decl:     d,
			Name:     hostClassName(d),
			Cpp:      q,
			Module:   b.moduleOf(d),
			Abstract: d.Abstract,
			Reduce:   d.Reduce,
		}
		info := typemap.ClassInfo{Name: q, HostName: cls.Name, Module: cls.Module, Bases: d.Bases, Abstract: d.Abstract}
		if err := b.registry.RegisterClass(info); err != nil {
			return withDecl(err, q)
		}
		bases := make([]string, len(d.Bases))
		for i, base := range d.Bases {
			bases[i] = decl.Canonical(base)
		}
		b.hierarchy.AddClass(q, bases)
		b.classes[q] = cls
		b.plan.Classes = append(b.plan.Classes, cls)
	}
	for _, cls := range b.plan.Classes {
		for _, base := range cls.Decl.Bases {
			if b.isClass(base) {
				cls.Base = decl.Canonical(base)
				break
			}
		}
	}

	b.enumsByClass = make(map[string][]*Enum)
	for _, d := range decls {
		q := d.QualifiedName()
		switch d.Kind {
		case decl.KindAlias:
			if d.Target == "" {
				return errors.InvalidInput(errors.PhaseResolve, "alias "+q+" has no target")
			}
			b.registry.RegisterAlias(q, d.Target)
			b.plan.Aliases[q] = d.Target

		case decl.KindEnum:
			if err := b.registerEnum(d); err != nil {
				return withDecl(err, q)
			}

		case decl.KindException:
			if err := b.registerException(d); err != nil {
				return err
			}

		case decl.KindConstructor:
			if d.Implicit && d.RequiredArity() <= 1 && len(d.Params) >= 1 && d.Access == decl.Public {
				b.registry.RegisterImplicit(d.Params[0].Type, scopeOf(d))
			}
		}
	}
	return nil
}

func (b *builder) registerEnum(d *decl.Declaration) error {
	q := d.QualifiedName()
	mode, err := b.cfg.EnumMode(q, d.Enum.Mode)
	if err != nil {
		return err
	}
	e := &Enum{Decl: d}
	var scope string
	if cls, ok := b.classes[scopeOf(d)]; ok {
		e.Class = cls.Cpp
		scope = cls.Name
	}
	e.Descriptor = enumbridge.Descriptor{
		Name:       q,
		HostName:   d.Name,
		Module:     b.moduleOf(d),
		Scope:      scope,
		Underlying: d.Enum.Underlying,
		Entries:    d.Enum.Entries,
		Mode:       mode,
		Scoped:     d.Enum.Scoped,
	}
	t, err := b.registry.RegisterEnum(e.Descriptor)
	if err != nil {
		return err
	}
	e.Type = t
	b.plan.Enums = append(b.plan.Enums, e)
	if e.Class != "" {
		b.enumsByClass[e.Class] = append(b.enumsByClass[e.Class], e)
	}
	return nil
}

func (b *builder) registerException(d *decl.Declaration) error {
	q := d.QualifiedName()
	base := "std::exception"
	var category errors.Category
	if d.Exception != nil {
		if d.Exception.Base != "" {
			base = d.Exception.Base
		}
		category = errors.Category(d.Exception.Category)
	}
	switch category {
	case "", errors.CategoryRuntime, errors.CategoryInvalidArgument, errors.CategoryOutOfRange,
		errors.CategoryResourceExhausted, errors.CategoryOverflow, errors.CategoryLogic,
		errors.CategoryHost, errors.CategoryUnknown:
	default:
		return errors.New(errors.PhaseGenerate, errors.KindInvalidInput).
			Decl(q).
			Detail("unknown exception category %q", category).
			Build()
	}
	b.translator.Register(q, base, d.Name, category)
	b.plan.Exceptions = append(b.plan.Exceptions, &Exception{
		Decl:     d,
		Name:     d.Name,
		Cpp:      q,
		Base:     base,
		Module:   b.moduleOf(d),
		Category: b.translator.Category(q),
	})
	return nil
}

// annotate resolves every parameter, result and field type and derives
// its ownership.
func (b *builder) annotate(decls []*decl.Declaration) error {
	b.callables = make(map[*decl.Declaration]*Callable)
	b.fields = make(map[*decl.Declaration]*Field)
	b.virtualSigs = make(map[string]map[string]bool)

	for _, d := range decls {
		switch {
		case d.Kind == decl.KindField:
			if d.Access != decl.Public {
				continue
			}
			f, err := b.annotateField(d)
			if err != nil {
				return err
			}
			b.fields[d] = f

		case d.Callable():
			if d.Access != decl.Public && !d.Virtual && !d.PureVirtual {
				continue
			}
			c, err := b.annotateCallable(d)
			if err != nil {
				return err
			}
			b.callables[d] = c
			if d.Virtual || d.PureVirtual {
				sigs := b.virtualSigs[d.Name]
				if sigs == nil {
					sigs = make(map[string]bool)
					b.virtualSigs[d.Name] = sigs
				}
				sigs[d.Signature()] = true
			}
		}
	}
	return nil
}

func (b *builder) resolve(cppType, symbol string) (*typemap.Mapping, error) {
	m, err := b.registry.Resolve(cppType)
	if err != nil {
		return nil, withDecl(err, symbol)
	}
	return m, nil
}

func (b *builder) annotateField(d *decl.Declaration) (*Field, error) {
	symbol := d.Symbol()
	if d.Static {
		return nil, errors.New(errors.PhaseGenerate, errors.KindUnsupported).
			Decl(symbol).
			Detail("static data members are not bound").
			Build()
	}
	m, err := b.resolve(d.Result, symbol)
	if err != nil {
		return nil, err
	}
	ann := ownership.Annotation{Kind: ownership.Value}
	if m.IsClass() && m.Smart == decl.SmartNone {
		ann = ownership.Annotation{Kind: ownership.Borrowed, Internal: true, ReadOnly: d.Readonly || m.Type.Const}
	}
	return &Field{
		Decl:     d,
		Mapping:  m,
		Return:   ownership.PlanReturn(ann, m.IsClass(), false),
		Name:     d.Name,
		Symbol:   symbol,
		Readonly: d.Readonly || m.Type.Const,
	}, nil
}

func (b *builder) annotateCallable(d *decl.Declaration) (*Callable, error) {
	symbol := d.Symbol()
	c := &Callable{
		Decl:    d,
		Symbol:  symbol,
		Pure:    d.PureVirtual,
		Release: d.ReleaseToken || b.cfg.Releases(symbol, d.QualifiedName()),
	}
	if b.member(d) {
		c.Receiver = ReceiverImplicit
	}

	for i, p := range d.Params {
		name := p.Name
		if name == "" {
			name = "arg" + strconv.Itoa(i)
		}
		m, err := b.resolve(p.Type, symbol)
		if err != nil {
			return nil, err
		}
		ann, err := ownership.Derive(ownership.Site{
			Type:  m.Type,
			Decl:  symbol,
			Path:  []string{"param", name},
			Class: m.IsClass(),
		})
		if err != nil {
			return nil, err
		}
		c.Params = append(c.Params, overload.Param{
			Mapping:    m,
			Name:       name,
			Annotation: ann,
			Passing:    ownership.PlanParam(ann, m.IsClass()),
		})
	}

	if d.Kind == decl.KindConstructor {
		if !b.isClass(scopeOf(d)) {
			return nil, errors.NotFound(errors.PhaseGenerate, "class of constructor", symbol)
		}
		m, err := b.resolve(scopeOf(d), symbol)
		if err != nil {
			return nil, err
		}
		c.Result = m
		c.Return = ownership.PlanReturn(ownership.Annotation{Kind: ownership.OwnedUnique}, true, false)
		return c, nil
	}

	result := d.Result
	if result == "" {
		result = "void"
	}
	m, err := b.resolve(result, symbol)
	if err != nil {
		return nil, err
	}
	c.Result = m
	if m.Kind() == typemap.KindNone {
		c.Return = ownership.PlanReturn(ownership.Annotation{}, false, true)
		return c, nil
	}

	policy := d.Policy
	if p, ok := b.cfg.Policy(symbol, d.QualifiedName()); ok {
		policy = p
	}
	ann, err := ownership.Derive(ownership.Site{
		Type:   m.Type,
		Decl:   symbol,
		Path:   []string{"return"},
		Policy: policy,
		Class:  m.IsClass(),
		Return: true,
		Member: b.member(d),
	})
	if err != nil {
		return nil, err
	}
	c.Return = ownership.PlanReturn(ann, m.IsClass(), false)
	return c, nil
}

func (b *builder) virtualKey(d *decl.Declaration) string {
	if len(b.virtualSigs[d.Name]) > 1 {
		return d.Name + d.Signature()
	}
	return d.Name
}

// synthesize builds overload sets, operator protocol methods, the virtual
// method hierarchy and the class layouts.
func (b *builder) synthesize(decls []*decl.Declaration) error {
	b.ctors = make(map[string][]*Callable)
	b.protocol = make(map[string]bool)

	for _, d := range decls {
		switch d.Kind {
		case decl.KindField:
			f, ok := b.fields[d]
			if !ok {
				continue
			}
			cls, ok := b.classes[scopeOf(d)]
			if !ok {
				return errors.NotFound(errors.PhaseGenerate, "class of field", d.Symbol())
			}
			cls.Fields = append(cls.Fields, f)
			continue
		}

		c, ok := b.callables[d]
		if !ok {
			continue
		}
		if err := b.place(d, c); err != nil {
			return err
		}
	}

	for _, cls := range b.plan.Classes {
		q := cls.Cpp
		if ctors := b.ctors[q]; len(ctors) > 0 {
			f, err := b.function("__init__", q+"::"+cls.Decl.Name, cls.Module, ctors, false)
			if err != nil {
				return err
			}
			cls.Constructors = f
		}
		if g := b.methods[q]; g != nil {
			for _, name := range g.names {
				f, err := b.function(name, g.cpp[name], cls.Module, g.byName[name], false)
				if err != nil {
					return err
				}
				f.Protocol = b.protocol[q+"."+name]
				cls.Methods = append(cls.Methods, f)
			}
		}
		if g := b.statics[q]; g != nil {
			for _, name := range g.names {
				f, err := b.function(name, g.cpp[name], cls.Module, g.byName[name], true)
				if err != nil {
					return err
				}
				cls.Statics = append(cls.Statics, f)
			}
		}
		cls.Enums = b.enumsByClass[q]
	}

	for _, name := range b.functions.names {
		cs := b.functions.byName[name]
		f, err := b.function(name, b.functions.cpp[name], b.moduleOf(cs[0].Decl), cs, false)
		if err != nil {
			return err
		}
		b.plan.Functions = append(b.plan.Functions, f)
	}

	for _, cls := range b.plan.Classes {
		cls.Polymorphic = b.hierarchy.Polymorphic(cls.Cpp)
		if len(b.hierarchy.Abstract(cls.Cpp)) > 0 {
			cls.Abstract = true
		}
		for _, name := range cls.Reduce {
			if !cls.hasProperty(name) {
				return errors.New(errors.PhaseGenerate, errors.KindNotFound).
					Decl(cls.Cpp).
					Detail("reduction refers to unknown field %q", name).
					Build()
			}
		}
	}
	return nil
}

func (c *Class) hasProperty(name string) bool {
	for _, f := range c.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// place files an annotated callable under its class or module.
func (b *builder) place(d *decl.Declaration, c *Callable) error {
	q := d.QualifiedName()
	switch d.Kind {
	case decl.KindConstructor:
		if d.Access == decl.Public {
			b.ctors[scopeOf(d)] = append(b.ctors[scopeOf(d)], c)
		}
		return nil

	case decl.KindMethod:
		if !b.isClass(scopeOf(d)) {
			return errors.NotFound(errors.PhaseGenerate, "class of method", d.Symbol())
		}
		if d.Virtual || d.PureVirtual {
			if err := b.addVirtual(d, c); err != nil {
				return err
			}
		}
		if d.Access != decl.Public {
			return nil
		}
		if d.Static {
			groupFor(b.statics, scopeOf(d)).add(d.Name, q, c)
		} else {
			groupFor(b.methods, scopeOf(d)).add(d.Name, q, c)
		}
		return nil

	case decl.KindFunction:
		if b.isClass(scopeOf(d)) {
			if d.Access == decl.Public {
				groupFor(b.statics, scopeOf(d)).add(d.Name, q, c)
			}
			return nil
		}
		b.functions.add(d.Name, q, c)
		return nil

	case decl.KindOperator:
		return b.placeOperator(d, c)
	}
	return nil
}

func groupFor(m map[string]*groups, class string) *groups {
	g, ok := m[class]
	if !ok {
		g = &groups{}
		m[class] = g
	}
	return g
}

func (b *builder) addVirtual(d *decl.Declaration, c *Callable) error {
	c.VirtualKey = b.virtualKey(d)
	params := make([]*typemap.Mapping, len(c.Params))
	for i, p := range c.Params {
		params[i] = p.Mapping
	}
	m := &trampoline.Method{
		Result:    c.Result,
		Key:       c.VirtualKey,
		Name:      d.Name,
		Class:     scopeOf(d),
		Params:    params,
		Order:     d.Order,
		Pure:      d.PureVirtual,
		Protected: d.Access != decl.Public,
	}
	if !d.PureVirtual {
		m.Symbol = c.Symbol
	}
	if err := b.hierarchy.AddVirtual(m); err != nil {
		return withDecl(err, d.Symbol())
	}
	cls := b.classes[scopeOf(d)]
	cls.Virtuals = append(cls.Virtuals, m)
	return nil
}

func (b *builder) placeOperator(d *decl.Declaration, c *Callable) error {
	symbol := d.Symbol()
	unsupported := func(detail string) error {
		return errors.New(errors.PhaseGenerate, errors.KindUnsupported).
			Decl(symbol).
			Detail("%s", detail).
			Build()
	}
	if d.Access != decl.Public {
		return nil
	}

	if b.member(d) {
		name, ok := ProtocolName(d.Name, len(d.Params))
		if !ok {
			return unsupported("operator has no host protocol")
		}
		groupFor(b.methods, scopeOf(d)).add(name, d.QualifiedName(), c)
		b.protocol[scopeOf(d)+"."+name] = true
		return nil
	}

	if len(d.Params) == 0 || len(d.Params) > 2 {
		return unsupported(fmt.Sprintf("free operator with %d operands", len(d.Params)))
	}
	name, ok := ProtocolName(d.Name, len(d.Params)-1)
	if !ok {
		return unsupported("operator has no host protocol")
	}

	left := c.Params[0]
	if left.Mapping.IsClass() {
		c.Receiver = ReceiverFirst
		c.ReceiverParam = &left
		c.Params = c.Params[1:]
		groupFor(b.methods, left.Mapping.Class).add(name, d.QualifiedName(), c)
		b.protocol[left.Mapping.Class+"."+name] = true
		return nil
	}
	if len(c.Params) == 2 && c.Params[1].Mapping.IsClass() {
		rname, ok := ReflectedName(name)
		if !ok {
			return unsupported("operator has no reflected host protocol")
		}
		right := c.Params[1]
		c.Receiver = ReceiverSecond
		c.ReceiverParam = &right
		c.Params = c.Params[:1]
		groupFor(b.methods, right.Mapping.Class).add(rname, d.QualifiedName(), c)
		b.protocol[right.Mapping.Class+"."+rname] = true
		return nil
	}
	return unsupported("free operator without a class operand")
}

func (b *builder) function(name, cpp, module string, cs []*Callable, static bool) (*Function, error) {
	f := &Function{
		Callables: make(map[*decl.Declaration]*Callable, len(cs)),
		Name:      name,
		Cpp:       cpp,
		Module:    module,
		Static:    static,
	}
	overloads := make([]overload.Overload, len(cs))
	for i, c := range cs {
		overloads[i] = overload.Overload{Decl: c.Decl, Params: c.Params}
		f.Callables[c.Decl] = c
	}
	set, err := overload.Build(name, overloads, b.cfg.ExpandDefaults)
	if err != nil {
		return nil, withDecl(err, cpp)
	}
	f.Set = set
	return f, nil
}

// wrap records the boundary metadata of every declaration.
func (b *builder) wrap(decls []*decl.Declaration) error {
	for _, d := range decls {
		e := &Entry{
			Decl:   d.QualifiedName(),
			Kind:   d.Kind.String(),
			Module: b.moduleOf(d),
			Tags:   make(map[string]string),
		}
		switch d.Kind {
		case decl.KindClass:
			cls := b.classes[decl.Canonical(d.QualifiedName())]
			e.HostName = cls.Name
			e.Tags["abstract"] = strconv.FormatBool(cls.Abstract)
			e.Tags["polymorphic"] = strconv.FormatBool(cls.Polymorphic)
			if cls.Base != "" {
				e.Tags["base"] = cls.Base
			}

		case decl.KindEnum:
			for _, en := range b.plan.Enums {
				if en.Decl == d {
					e.HostName = en.Descriptor.HostName
					e.Tags["enum.mode"] = en.Descriptor.Mode.String()
					e.Tags["enum.underlying"] = decl.Canonical(orDefault(en.Descriptor.Underlying, "int"))
				}
			}

		case decl.KindException:
			e.HostName = d.Name
			e.Tags["category"] = string(b.translator.Category(d.QualifiedName()))

		case decl.KindAlias:
			e.Tags["target"] = d.Target

		case decl.KindField:
			f, ok := b.fields[d]
			if !ok {
				continue
			}
			e.HostName = f.Name
			e.Tags["ownership"] = f.Return.Annotation.String()
			e.Tags["wrapper"] = f.Return.Wrapper.String()
			e.Tags["readonly"] = strconv.FormatBool(f.Readonly)

		default:
			c, ok := b.callables[d]
			if !ok {
				continue
			}
			e.HostName = d.Name
			if d.Kind == decl.KindConstructor {
				e.HostName = "__init__"
			}
			for _, p := range c.Params {
				e.Tags["ownership.param."+p.Name] = p.Annotation.String()
			}
			if c.ReceiverParam != nil {
				e.Tags["receiver"] = c.ReceiverParam.Name
			}
			if c.Return.Wrapper != ownership.WrapNone {
				e.Tags["ownership.return"] = c.Return.Annotation.String()
				e.Tags["wrapper"] = c.Return.Wrapper.String()
				e.Tags["validity"] = c.Return.Validity
			}
			if c.Release {
				e.Tags["release_token"] = "true"
			}
			if c.VirtualKey != "" {
				e.Tags["virtual"] = c.VirtualKey
			}
			if c.Pure {
				e.Tags["pure"] = "true"
			}
		}
		b.plan.Entries[d.Symbol()] = e
	}

	for _, cls := range b.plan.Classes {
		for _, f := range cls.Methods {
			if !f.Protocol {
				continue
			}
			for d := range f.Callables {
				if e, ok := b.plan.Entries[d.Symbol()]; ok {
					e.HostName = f.Name
					e.Tags["protocol"] = f.Name
					e.Tags["protocol.class"] = cls.Cpp
				}
			}
		}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
