package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/wippyai/cxxbind/enumbridge"
	"github.com/wippyai/cxxbind/generator"
	"github.com/wippyai/cxxbind/native"
	"github.com/wippyai/cxxbind/ownership"
)

// Legacy emits direct host API calls: static method and property tables
// registered against explicitly created type objects.
type Legacy struct{}

var _ Backend = Legacy{}

// Style implements Backend.
func (Legacy) Style() Style { return StyleLegacy }

// Emit implements Backend.
func (Legacy) Emit(plan *generator.Plan) (*Output, error) {
	return emit(StyleLegacy, plan, legacyWriter{}), nil
}

// Install implements Backend.
func (Legacy) Install(ctx context.Context, plan *generator.Plan, lib *native.Library) (*Installation, error) {
	return install(ctx, StyleLegacy, plan, lib)
}

type legacyWriter struct{}

func (legacyWriter) prologue(plan *generator.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "static cxx_module *%s_module;\n", ident(plan.Module))
	fmt.Fprintf(&b, "static cxx_token %s_token;\n", ident(plan.Module))
	fmt.Fprintf(&b, "%s_module = cxx_module_new(\"%s\", &%s_token);", ident(plan.Module), plan.Module, ident(plan.Module))
	return b.String()
}

func (legacyWriter) exception(e *generator.Exception) string {
	return fmt.Sprintf("cxx_register_exception(%s_module, \"%s\", \"%s\", \"%s\", CXX_CATEGORY(\"%s\"));",
		ident(e.Module), e.Name, e.Cpp, e.Base, e.Category)
}

func (legacyWriter) enum(e *generator.Enum) string {
	var b strings.Builder
	d := e.Descriptor
	scope := ident(d.Module) + "_module"
	if e.Class != "" {
		scope = ident(e.Class) + "_type"
	}
	if d.Mode == enumbridge.ModeLegacy {
		for _, c := range d.Constants() {
			fmt.Fprintf(&b, "cxx_set_int(%s, \"%s\", %d);\n", scope, c.Name, c.Value)
		}
		return strings.TrimSuffix(b.String(), "\n")
	}
	fmt.Fprintf(&b, "static cxx_enum_entry %s_entries[] = {\n", ident(d.Name))
	for _, en := range d.Entries {
		fmt.Fprintf(&b, "    {\"%s\", %d},\n", en.Name, en.Value)
	}
	b.WriteString("    {NULL, 0},\n};\n")
	fmt.Fprintf(&b, "cxx_register_enum(%s, \"%s\", \"%s\", \"%s\", %s_entries);",
		scope, d.HostName, d.Name, orInt(d.Underlying), ident(d.Name))
	return b.String()
}

func (w legacyWriter) class(c *generator.Class) string {
	var b strings.Builder
	id := ident(c.Cpp)
	base := "NULL"
	if c.Base != "" {
		base = ident(c.Base) + "_type"
	}
	fmt.Fprintf(&b, "static cxx_type *%s_type = cxx_type_new(%s_module, \"%s\", \"%s\", %s);\n",
		id, ident(c.Module), c.Name, c.Cpp, base)
	if c.Polymorphic {
		fmt.Fprintf(&b, "cxx_type_set_flags(%s_type, CXX_POLYMORPHIC);\n", id)
	}

	if c.Constructors != nil {
		fmt.Fprintf(&b, "static cxx_ctor %s_ctors[] = {\n", id)
		for _, cl := range candidates(c.Constructors) {
			fmt.Fprintf(&b, "    {\"%s\", %s},\n", cl.Symbol, legacyFlags(cl))
		}
		b.WriteString("    {NULL},\n};\n")
	}

	fmt.Fprintf(&b, "static cxx_method %s_methods[] = {\n", id)
	for _, f := range c.Methods {
		for _, cl := range candidates(f) {
			fmt.Fprintf(&b, "    {\"%s\", \"%s\", %s},\n", f.Name, cl.Symbol, legacyFlags(cl))
		}
	}
	for _, f := range c.Statics {
		for _, cl := range candidates(f) {
			fmt.Fprintf(&b, "    {\"%s\", \"%s\", CXX_STATIC | %s},\n", f.Name, cl.Symbol, legacyFlags(cl))
		}
	}
	b.WriteString("    {NULL},\n};\n")

	if len(c.Fields) > 0 {
		fmt.Fprintf(&b, "static cxx_property %s_properties[] = {\n", id)
		for _, f := range c.Fields {
			flags := "CXX_" + strings.ToUpper(f.Return.Wrapper.String())
			if f.Readonly {
				flags += " | CXX_READONLY"
			}
			fmt.Fprintf(&b, "    {\"%s\", \"%s\", %s},\n", f.Name, f.Symbol, flags)
		}
		b.WriteString("    {NULL},\n};\n")
	}

	for _, e := range c.Enums {
		b.WriteString(w.enum(e))
		b.WriteByte('\n')
	}

	ctors, props := "NULL", "NULL"
	if c.Constructors != nil {
		ctors = id + "_ctors"
	}
	if len(c.Fields) > 0 {
		props = id + "_properties"
	}
	fmt.Fprintf(&b, "cxx_type_ready(%s_type, %s, %s_methods, %s);", id, ctors, id, props)
	if len(c.Reduce) > 0 {
		fmt.Fprintf(&b, "\ncxx_type_set_reduce(%s_type, \"%s\");", id, strings.Join(c.Reduce, ","))
	}
	return b.String()
}

func (legacyWriter) function(f *generator.Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "static cxx_overload %s_overloads[] = {\n", ident(f.Cpp))
	for _, cl := range candidates(f) {
		fmt.Fprintf(&b, "    {\"%s\", %s},\n", cl.Symbol, legacyFlags(cl))
	}
	b.WriteString("    {NULL},\n};\n")
	fmt.Fprintf(&b, "cxx_def(%s_module, \"%s\", %s_overloads);", ident(f.Module), f.Name, ident(f.Cpp))
	return b.String()
}

func legacyFlags(c *generator.Callable) string {
	flags := []string{"CXX_" + strings.ToUpper(c.Return.Wrapper.String())}
	if c.VirtualKey != "" {
		flags = append(flags, "CXX_VIRTUAL")
	}
	if c.Pure {
		flags = append(flags, "CXX_PURE")
	}
	if c.Release {
		flags = append(flags, "CXX_RELEASE_TOKEN")
	}
	for _, p := range c.Params {
		if p.Passing == ownership.PassMove {
			flags = append(flags, "CXX_MOVES_ARGS")
			break
		}
	}
	return strings.Join(flags, " | ")
}

func orInt(s string) string {
	if s == "" {
		return "int"
	}
	return s
}
