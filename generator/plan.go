package generator

import (
	"sort"

	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/enumbridge"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/lifecycle"
	"github.com/wippyai/cxxbind/overload"
	"github.com/wippyai/cxxbind/ownership"
	"github.com/wippyai/cxxbind/trampoline"
	"github.com/wippyai/cxxbind/typemap"
)

// Receiver says where a callable gets its receiver from.
type Receiver uint8

const (
	// ReceiverNone is a free function, static method or constructor.
	ReceiverNone Receiver = iota
	// ReceiverImplicit is the implicit object parameter of a member.
	ReceiverImplicit
	// ReceiverFirst binds the first declared parameter, as for a free
	// operator used as a method of its left operand.
	ReceiverFirst
	// ReceiverSecond binds the second declared parameter, as for a
	// reflected free operator.
	ReceiverSecond
)

// Callable is one annotated callable declaration.
type Callable struct {
	Decl   *decl.Declaration
	Result *typemap.Mapping
	Params []overload.Param
	// Receiver is the mapping of the bound operand for ReceiverFirst and
	// ReceiverSecond.
	ReceiverParam *overload.Param
	Return        ownership.ReturnPlan
	// VirtualKey is set for virtual methods, which dispatch on the dynamic
	// class.
	VirtualKey string
	Symbol     string
	Receiver   Receiver
	Release    bool
	Pure       bool
}

// Function is a host-visible name bound to an overload set.
type Function struct {
	Set       *overload.Set
	Callables map[*decl.Declaration]*Callable
	Name      string // host name
	Cpp       string // qualified C++ name
	Module    string
	Static    bool
	Protocol  bool
}

// Callable returns the annotated declaration of a candidate.
func (f *Function) Callable(c *overload.Candidate) *Callable {
	return f.Callables[c.Decl]
}

// Pure reports whether every candidate is pure virtual.
func (f *Function) Pure() bool {
	for _, c := range f.Callables {
		if !c.Pure {
			return false
		}
	}
	return len(f.Callables) > 0
}

// Field is a data member exposed as a property.
type Field struct {
	Decl    *decl.Declaration
	Mapping *typemap.Mapping
	Return  ownership.ReturnPlan
	Name    string
	Symbol  string
	// Readonly fields have no setter.
	Readonly bool
}

// Class is the plan of one bound class.
type Class struct {
	Decl         *decl.Declaration
	Constructors *Function
	Name         string
	Cpp          string
	Module       string
	// Base is the primary bound base, or empty.
	Base     string
	Methods  []*Function
	Statics  []*Function
	Fields   []*Field
	Virtuals []*trampoline.Method
	Enums    []*Enum
	// Reduce lists the properties whose values reconstruct an instance.
	Reduce      []string
	Abstract    bool
	Polymorphic bool
}

// Method returns the method set with the given host name.
func (c *Class) Method(name string) (*Function, bool) {
	for _, f := range c.Methods {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Enum is the plan of one enumeration.
type Enum struct {
	Decl       *decl.Declaration
	Type       *enumbridge.Type // typed mode only
	Descriptor enumbridge.Descriptor
	// Class is the qualified class the enum is nested in, or empty.
	Class string
}

// Exception is the plan of one exception class.
type Exception struct {
	Decl     *decl.Declaration
	Name     string
	Cpp      string
	Base     string
	Module   string
	Category errors.Category
}

// Entry is the metadata recorded for one declaration.
type Entry struct {
	Tags     map[string]string `msgpack:"tags"`
	Decl     string            `msgpack:"decl"`
	Kind     string            `msgpack:"kind"`
	Module   string            `msgpack:"module"`
	HostName string            `msgpack:"host_name"`
}

// Plan is the output of a generation session: everything a backend needs
// to emit or install the bindings. It is read-only once returned.
type Plan struct {
	Registry   *typemap.Registry
	Hierarchy  *trampoline.Hierarchy
	Translator *lifecycle.Translator
	// Entries maps each declaration's symbol to its metadata.
	Entries    map[string]*Entry
	Module     string
	Classes    []*Class
	Functions  []*Function
	Enums      []*Enum
	Exceptions []*Exception
	Aliases    map[string]string
}

// Class returns the plan of a class by qualified name.
func (p *Plan) Class(cpp string) (*Class, bool) {
	for _, c := range p.Classes {
		if c.Cpp == cpp {
			return c, true
		}
	}
	return nil, false
}

// Function returns a module-level function by host name.
func (p *Plan) Function(name string) (*Function, bool) {
	for _, f := range p.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Symbols returns the native symbols the plan requires, as
// "scope#symbol" keys, sorted.
func (p *Plan) Symbols() []string {
	seen := make(map[string]bool)
	add := func(scope, symbol string) {
		seen[scope+"#"+symbol] = true
	}
	addFunc := func(scope string, f *Function) {
		for _, c := range f.Callables {
			if !c.Pure {
				add(scope, c.Symbol)
			}
		}
	}
	for _, f := range p.Functions {
		addFunc(f.Module, f)
	}
	for _, c := range p.Classes {
		if c.Constructors != nil {
			addFunc(c.Cpp, c.Constructors)
		}
		for _, f := range c.Methods {
			addFunc(c.Cpp, f)
		}
		for _, f := range c.Statics {
			addFunc(c.Cpp, f)
		}
		for _, f := range c.Fields {
			add(c.Cpp, f.Symbol)
		}
		for _, v := range c.Virtuals {
			if !v.Pure && v.Symbol != "" {
				add(c.Cpp, v.Symbol)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
