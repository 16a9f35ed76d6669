package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/wippyai/cxxbind/enumbridge"
	"github.com/wippyai/cxxbind/generator"
	"github.com/wippyai/cxxbind/native"
)

// Embedded emits declarative builder chains, one chain per class and one
// definition per module-level name.
type Embedded struct{}

var _ Backend = Embedded{}

// Style implements Backend.
func (Embedded) Style() Style { return StyleEmbedded }

// Emit implements Backend.
func (Embedded) Emit(plan *generator.Plan) (*Output, error) {
	return emit(StyleEmbedded, plan, embeddedWriter{}), nil
}

// Install implements Backend.
func (Embedded) Install(ctx context.Context, plan *generator.Plan, lib *native.Library) (*Installation, error) {
	return install(ctx, StyleEmbedded, plan, lib)
}

type embeddedWriter struct{}

func (embeddedWriter) prologue(plan *generator.Plan) string {
	return fmt.Sprintf("CXXBIND_MODULE(%s, m);", plan.Module)
}

func (embeddedWriter) exception(e *generator.Exception) string {
	return fmt.Sprintf("    bind::exception<%s>(m, \"%s\").base<%s>().category(\"%s\");",
		e.Cpp, e.Name, e.Base, e.Category)
}

func (embeddedWriter) enum(e *generator.Enum) string {
	d := e.Descriptor
	scope := "m"
	if e.Class != "" {
		scope = "cls_" + ident(e.Class)
	}
	var b strings.Builder
	if d.Mode == enumbridge.ModeLegacy {
		for _, c := range d.Constants() {
			fmt.Fprintf(&b, "    %s.attr(\"%s\") = static_cast<%s>(%s::%s);\n",
				scope, c.Name, orInt(d.Underlying), d.Name, c.Name)
		}
		return strings.TrimSuffix(b.String(), "\n")
	}
	fmt.Fprintf(&b, "    bind::enum_<%s>(%s, \"%s\")", d.Name, scope, d.HostName)
	for _, en := range d.Entries {
		fmt.Fprintf(&b, "\n        .value(\"%s\", %s::%s)", en.Name, d.Name, en.Name)
	}
	if !d.Scoped {
		b.WriteString("\n        .export_values()")
	}
	b.WriteString(";")
	return b.String()
}

func (w embeddedWriter) class(c *generator.Class) string {
	var b strings.Builder
	params := []string{c.Cpp}
	if c.Base != "" {
		params = append(params, c.Base)
	}
	if c.Polymorphic {
		params = append(params, "bind::trampoline<"+c.Cpp+">")
	}
	fmt.Fprintf(&b, "    auto cls_%s = bind::class_<%s>(m, \"%s\")", ident(c.Cpp), strings.Join(params, ", "), c.Name)
	if c.Constructors != nil {
		for _, cl := range candidates(c.Constructors) {
			fmt.Fprintf(&b, "\n        .def(bind::init<%s>()%s)", paramTypes(cl), embeddedPolicy(cl))
		}
	}
	for _, f := range c.Methods {
		for _, cl := range candidates(f) {
			call := "def"
			if cl.Pure {
				call = "def_pure_virtual"
			}
			fmt.Fprintf(&b, "\n        .%s(\"%s\", bind::overload<%s>(&%s)%s)",
				call, f.Name, paramTypes(cl), cl.Decl.QualifiedName(), embeddedPolicy(cl))
		}
	}
	for _, f := range c.Statics {
		for _, cl := range candidates(f) {
			fmt.Fprintf(&b, "\n        .def_static(\"%s\", bind::overload<%s>(&%s)%s)",
				f.Name, paramTypes(cl), cl.Decl.QualifiedName(), embeddedPolicy(cl))
		}
	}
	for _, f := range c.Fields {
		call := "def_readwrite"
		if f.Readonly {
			call = "def_readonly"
		}
		fmt.Fprintf(&b, "\n        .%s(\"%s\", &%s, bind::policy::%s)", call, f.Name, f.Symbol, f.Return.Wrapper)
	}
	if len(c.Reduce) > 0 {
		fmt.Fprintf(&b, "\n        .def_reduce(\"%s\")", strings.Join(c.Reduce, "\", \""))
	}
	b.WriteString(";")
	for _, e := range c.Enums {
		b.WriteByte('\n')
		b.WriteString(w.enum(e))
	}
	return b.String()
}

func (embeddedWriter) function(f *generator.Function) string {
	var b strings.Builder
	for i, cl := range candidates(f) {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "    m.def(\"%s\", bind::overload<%s>(&%s)%s);",
			f.Name, paramTypes(cl), cl.Decl.QualifiedName(), embeddedPolicy(cl))
	}
	return b.String()
}

func embeddedPolicy(c *generator.Callable) string {
	var opts []string
	if w := c.Return.Wrapper.String(); w != "none" {
		opts = append(opts, "bind::policy::"+w)
	}
	if c.Release {
		opts = append(opts, "bind::release_token()")
	}
	for _, p := range c.Decl.Params {
		if p.HasDefault {
			opts = append(opts, fmt.Sprintf("bind::arg(\"%s\") = %v", p.Name, p.Default))
		}
	}
	if len(opts) == 0 {
		return ""
	}
	return ", " + strings.Join(opts, ", ")
}
