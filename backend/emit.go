package backend

import (
	"strings"

	"github.com/wippyai/cxxbind/generator"
)

// writer renders the declarations of one style.
type writer interface {
	prologue(plan *generator.Plan) string
	exception(e *generator.Exception) string
	enum(e *generator.Enum) string
	class(c *generator.Class) string
	function(f *generator.Function) string
}

// emit walks the plan in a fixed order: exceptions, module-level enums,
// classes with their nested enums, free functions.
func emit(style Style, plan *generator.Plan, w writer) *Output {
	out := &Output{Style: style, Module: plan.Module}
	add := func(decl, module, code string) {
		tags := map[string]string{"style": string(style)}
		for _, e := range plan.Entries {
			if e.Decl == decl && e.HostName != "" {
				for k, v := range e.Tags {
					tags[k] = v
				}
				break
			}
		}
		out.Fragments = append(out.Fragments, Fragment{Decl: decl, Module: module, Code: code, Tags: tags})
	}

	add(plan.Module, plan.Module, w.prologue(plan))
	for _, e := range plan.Exceptions {
		add(e.Cpp, e.Module, w.exception(e))
	}
	for _, e := range plan.Enums {
		if e.Class == "" {
			add(e.Descriptor.Name, e.Descriptor.Module, w.enum(e))
		}
	}
	for _, c := range plan.Classes {
		add(c.Cpp, c.Module, w.class(c))
	}
	for _, f := range plan.Functions {
		add(f.Cpp, f.Module, w.function(f))
	}
	return out
}

// ident turns a C++ name into an identifier.
func ident(name string) string {
	r := strings.NewReplacer("::", "_", "<", "_", ">", "", ",", "_", " ", "", "*", "p", "&", "r")
	return r.Replace(name)
}

// candidates returns the callables of a function in resolution order.
func candidates(f *generator.Function) []*generator.Callable {
	var out []*generator.Callable
	seen := make(map[*generator.Callable]bool)
	for _, c := range f.Set.Candidates() {
		cl := f.Callable(c)
		if cl == nil || seen[cl] {
			continue
		}
		seen[cl] = true
		out = append(out, cl)
	}
	return out
}

func paramTypes(c *generator.Callable) string {
	parts := make([]string, 0, len(c.Decl.Params))
	for _, p := range c.Decl.Params {
		parts = append(parts, p.Type)
	}
	return strings.Join(parts, ", ")
}
