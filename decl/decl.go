package decl

import (
	"strings"
)

// Kind identifies the C++ entity a declaration describes.
type Kind uint8

const (
	KindClass Kind = iota
	KindFunction
	KindMethod
	KindConstructor
	KindField
	KindEnum
	KindOperator
	KindException
	KindAlias
)

var kindNames = [...]string{
	KindClass:       "class",
	KindFunction:    "function",
	KindMethod:      "method",
	KindConstructor: "constructor",
	KindField:       "field",
	KindEnum:        "enum",
	KindOperator:    "operator",
	KindException:   "exception",
	KindAlias:       "alias",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind maps a manifest spelling to a Kind.
func ParseKind(s string) (Kind, bool) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// Access is the C++ access specifier of a member.
type Access uint8

const (
	Public Access = iota
	Protected
	Private
)

func (a Access) String() string {
	switch a {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

// Param is one parameter of a callable declaration.
type Param struct {
	Default    any
	Name       string
	Type       string
	HasDefault bool
}

// EnumEntry is a (value, name) pair of an enumeration.
type EnumEntry struct {
	Name  string
	Value int64
}

// EnumSpec carries enumeration metadata.
type EnumSpec struct {
	Underlying string
	Mode       string // "legacy", "typed", or "" for the configured default
	Entries    []EnumEntry
	Scoped     bool // enum class
}

// ExceptionSpec carries metadata for an exception class.
type ExceptionSpec struct {
	Base     string // base exception type, e.g. std::runtime_error
	Category string // explicit host category; inherited from Base when empty
}

// Declaration is a C++ entity produced by the front-end. It is immutable
// after the List that owns it is built.
type Declaration struct {
	Exception    *ExceptionSpec
	Enum         *EnumSpec
	Name         string
	Scope        string
	Result       string
	Policy       string
	Module       string
	Target       string // aliased type for KindAlias
	Params       []Param
	Bases        []string
	TemplateArgs []string
	Reduce       []string
	Order        int
	Kind         Kind
	Access       Access
	Virtual      bool
	PureVirtual  bool
	Static       bool
	Const        bool
	Abstract     bool
	Readonly     bool
	Implicit     bool
	ReleaseToken bool
}

// QualifiedName returns Scope::Name, or Name when unscoped. Class template
// instantiations include their arguments.
func (d *Declaration) QualifiedName() string {
	name := d.Name
	if len(d.TemplateArgs) > 0 {
		name += "<" + strings.Join(d.TemplateArgs, ", ") + ">"
	}
	if d.Scope == "" {
		return name
	}
	return d.Scope + "::" + name
}

// Signature returns the parameter list spelling, e.g. "(int, const Pet&) const".
func (d *Declaration) Signature() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range d.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Canonical(p.Type))
	}
	b.WriteByte(')')
	if d.Const {
		b.WriteString(" const")
	}
	return b.String()
}

// Symbol is the key a native library uses to provide the implementation
// of a callable declaration.
func (d *Declaration) Symbol() string {
	switch d.Kind {
	case KindClass, KindEnum, KindException, KindAlias, KindField:
		return d.QualifiedName()
	default:
		return d.QualifiedName() + d.Signature()
	}
}

// Callable reports whether the declaration is invoked through a call boundary.
func (d *Declaration) Callable() bool {
	switch d.Kind {
	case KindFunction, KindMethod, KindConstructor, KindOperator:
		return true
	}
	return false
}

// Member reports whether the declaration binds an implicit object parameter.
func (d *Declaration) Member() bool {
	return (d.Kind == KindMethod || d.Kind == KindOperator) && d.Scope != "" && !d.Static
}

// Arity returns the number of explicit parameters.
func (d *Declaration) Arity() int {
	return len(d.Params)
}

// RequiredArity returns the number of parameters without default values.
func (d *Declaration) RequiredArity() int {
	n := 0
	for _, p := range d.Params {
		if p.HasDefault {
			break
		}
		n++
	}
	return n
}
