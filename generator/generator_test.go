package generator

import (
	stderrors "errors"
	"slices"
	"testing"

	"github.com/wippyai/cxxbind/config"
	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/ownership"
)

const zooManifest = `
module = "zoo"

[[decl]]
kind = "class"
name = "Pet"
scope = "zoo"
reduce = ["name"]

[[decl]]
kind = "constructor"
name = "Pet"
scope = "zoo::Pet"
params = [{name = "name", type = "const std::string&"}]

[[decl]]
kind = "method"
name = "speak"
scope = "zoo::Pet"
result = "std::string"
virtual = true
const = true

[[decl]]
kind = "method"
name = "feed"
scope = "zoo::Pet"
result = "void"
params = [{name = "amount", type = "int"}, {name = "times", type = "int", default = 1}]

[[decl]]
kind = "operator"
name = "operator=="
scope = "zoo::Pet"
result = "bool"
const = true
params = [{name = "other", type = "const zoo::Pet&"}]

[[decl]]
kind = "field"
name = "name"
scope = "zoo::Pet"
result = "std::string"

[[decl]]
kind = "enum"
name = "Kind"
scope = "zoo::Pet"
enum = {underlying = "uint8_t", scoped = true, entries = [{name = "Cat", value = 0}, {name = "Dog", value = 1}]}

[[decl]]
kind = "class"
name = "Dog"
scope = "zoo"
bases = ["zoo::Pet"]

[[decl]]
kind = "constructor"
name = "Dog"
scope = "zoo::Dog"

[[decl]]
kind = "method"
name = "speak"
scope = "zoo::Dog"
result = "std::string"
virtual = true
const = true

[[decl]]
kind = "class"
name = "Shape"
scope = "zoo"

[[decl]]
kind = "method"
name = "area"
scope = "zoo::Shape"
result = "double"
pure_virtual = true
const = true

[[decl]]
kind = "class"
name = "Vec"
scope = "zoo"

[[decl]]
kind = "field"
name = "x"
scope = "zoo::Vec"
result = "double"

[[decl]]
kind = "operator"
name = "operator+"
scope = "zoo"
result = "zoo::Vec"
params = [{name = "a", type = "const zoo::Vec&"}, {name = "b", type = "const zoo::Vec&"}]

[[decl]]
kind = "operator"
name = "operator*"
scope = "zoo"
result = "zoo::Vec"
params = [{name = "k", type = "double"}, {name = "v", type = "const zoo::Vec&"}]

[[decl]]
kind = "class"
name = "Box"
scope = "zoo"
template_args = ["int"]

[[decl]]
kind = "method"
name = "get"
scope = "zoo::Box<int>"
result = "int"
const = true

[[decl]]
kind = "enum"
name = "Color"
scope = "zoo"
enum = {entries = [{name = "Red", value = 0}, {name = "Green", value = 1}]}

[[decl]]
kind = "exception"
name = "ZooError"
scope = "zoo"
exception = {base = "std::out_of_range"}

[[decl]]
kind = "function"
name = "adopt"
scope = "zoo"
result = "std::unique_ptr<zoo::Pet>"
params = [{name = "name", type = "const std::string&"}]

[[decl]]
kind = "function"
name = "add"
scope = "zoo"
result = "int"
params = [{name = "a", type = "int"}, {name = "b", type = "int"}]

[[decl]]
kind = "function"
name = "add"
scope = "zoo"
result = "double"
params = [{name = "a", type = "double"}, {name = "b", type = "double"}]
`

func generate(t *testing.T, manifest string, cfg *config.Config) (*Plan, error) {
	t.Helper()
	list, module, err := decl.DecodeManifest(manifest)
	if err != nil {
		t.Fatalf("DecodeManifest: %v", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.Module = module
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(s.Close)
	return s.Generate(list)
}

func zooPlan(t *testing.T) *Plan {
	t.Helper()
	p, err := generate(t, zooManifest, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return p
}

func mustClass(t *testing.T, p *Plan, cpp string) *Class {
	t.Helper()
	c, ok := p.Class(cpp)
	if !ok {
		t.Fatalf("class %s not in plan", cpp)
	}
	return c
}

func mustMethod(t *testing.T, c *Class, name string) *Function {
	t.Helper()
	f, ok := c.Method(name)
	if !ok {
		t.Fatalf("%s has no method %s", c.Cpp, name)
	}
	return f
}

func entryOf(p *Plan, qualified string) *Entry {
	for _, e := range p.Entries {
		if e.Decl == qualified {
			return e
		}
	}
	return nil
}

func TestGenerate_Classes(t *testing.T) {
	p := zooPlan(t)

	pet := mustClass(t, p, "zoo::Pet")
	if !pet.Polymorphic {
		t.Error("Pet is not polymorphic")
	}
	if pet.Abstract {
		t.Error("Pet is abstract")
	}
	if pet.Constructors == nil || pet.Constructors.Name != "__init__" {
		t.Fatalf("Pet constructors = %+v", pet.Constructors)
	}
	if len(pet.Fields) != 1 || pet.Fields[0].Name != "name" {
		t.Errorf("Pet fields = %+v", pet.Fields)
	}
	if len(pet.Enums) != 1 || pet.Enums[0].Descriptor.Scope != "Pet" {
		t.Errorf("Pet enums = %+v", pet.Enums)
	}

	dog := mustClass(t, p, "zoo::Dog")
	if dog.Base != "zoo::Pet" {
		t.Errorf("Dog base = %q", dog.Base)
	}

	shape := mustClass(t, p, "zoo::Shape")
	if !shape.Abstract {
		t.Error("Shape with a pure virtual method is not abstract")
	}
	if !mustMethod(t, shape, "area").Pure() {
		t.Error("area is not pure")
	}
}

func TestGenerate_Overloads(t *testing.T) {
	p := zooPlan(t)

	add, ok := p.Function("add")
	if !ok {
		t.Fatal("add not in plan")
	}
	if add.Set.Len() != 2 {
		t.Errorf("add has %d candidates", add.Set.Len())
	}
	c, err := add.Set.Resolve([]any{1.5, 2.5})
	if err != nil {
		t.Fatal(err)
	}
	if c.Decl.Result != "double" {
		t.Errorf("float arguments picked %s", c.Signature())
	}

	feed := mustMethod(t, mustClass(t, p, "zoo::Pet"), "feed")
	if feed.Set.Len() != 2 {
		t.Errorf("feed has %d candidates, want the expanded default", feed.Set.Len())
	}
}

func TestGenerate_NoDefaultExpansion(t *testing.T) {
	cfg := config.Default()
	cfg.ExpandDefaults = false
	p, err := generate(t, zooManifest, cfg)
	if err != nil {
		t.Fatal(err)
	}
	feed := mustMethod(t, mustClass(t, p, "zoo::Pet"), "feed")
	if feed.Set.Len() != 1 {
		t.Errorf("feed has %d candidates", feed.Set.Len())
	}
}

func TestGenerate_Ownership(t *testing.T) {
	p := zooPlan(t)

	adopt, ok := p.Function("adopt")
	if !ok {
		t.Fatal("adopt not in plan")
	}
	for _, c := range adopt.Callables {
		if c.Return.Wrapper != ownership.WrapOwning {
			t.Errorf("adopt returns %s", c.Return.Wrapper)
		}
	}

	pet := mustClass(t, p, "zoo::Pet")
	for _, c := range pet.Constructors.Callables {
		if c.Return.Annotation.Kind != ownership.OwnedUnique {
			t.Errorf("constructor returns %s", c.Return.Annotation)
		}
	}

	vec := mustClass(t, p, "zoo::Vec")
	if vec.Fields[0].Return.Wrapper != ownership.WrapCopy {
		t.Errorf("scalar field wrapper = %s", vec.Fields[0].Return.Wrapper)
	}

	e := entryOf(p, "zoo::adopt")
	if e == nil {
		t.Fatal("no entry for adopt")
	}
	if e.Tags["wrapper"] != "owning" || e.Tags["ownership.return"] != "owned_unique" {
		t.Errorf("adopt tags = %v", e.Tags)
	}
	if e.Tags["ownership.param.name"] != "value" {
		t.Errorf("adopt parameter ownership = %q", e.Tags["ownership.param.name"])
	}
}

func TestGenerate_Operators(t *testing.T) {
	p := zooPlan(t)

	eq := mustMethod(t, mustClass(t, p, "zoo::Pet"), "__eq__")
	if !eq.Protocol {
		t.Error("__eq__ not marked as protocol")
	}

	vec := mustClass(t, p, "zoo::Vec")
	tests := []struct {
		name     string
		receiver Receiver
		params   int
	}{
		{"__add__", ReceiverFirst, 1},
		{"__rmul__", ReceiverSecond, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustMethod(t, vec, tt.name)
			for _, c := range f.Callables {
				if c.Receiver != tt.receiver {
					t.Errorf("receiver = %d, want %d", c.Receiver, tt.receiver)
				}
				if len(c.Params) != tt.params {
					t.Errorf("%d explicit params", len(c.Params))
				}
				if c.ReceiverParam == nil {
					t.Error("no receiver parameter")
				}
			}
		})
	}

	e := entryOf(p, "zoo::operator*")
	if e == nil || e.Tags["protocol"] != "__rmul__" || e.Tags["protocol.class"] != "zoo::Vec" {
		t.Errorf("operator* entry = %+v", e)
	}
}

func TestGenerate_Virtuals(t *testing.T) {
	p := zooPlan(t)

	m, err := p.Hierarchy.Resolve("zoo::Dog", "speak")
	if err != nil {
		t.Fatal(err)
	}
	if m.Class != "zoo::Dog" {
		t.Errorf("Dog::speak resolved to %s", m.Class)
	}
	if _, err := p.Hierarchy.Resolve("zoo::Shape", "area"); err == nil {
		t.Error("pure virtual resolved to an implementation")
	}

	syms := p.Symbols()
	if !slices.Contains(syms, "zoo::Pet#zoo::Pet::speak() const") {
		t.Errorf("symbols missing Pet::speak: %v", syms)
	}
	for _, s := range syms {
		if s == "zoo::Shape#zoo::Shape::area() const" {
			t.Error("pure virtual requires a native symbol")
		}
	}
}

func TestGenerate_TemplateInstantiation(t *testing.T) {
	p := zooPlan(t)
	box := mustClass(t, p, "zoo::Box<int>")
	if box.Name != "Box_int" {
		t.Errorf("host name = %q", box.Name)
	}
	mustMethod(t, box, "get")
}

func TestGenerate_Enums(t *testing.T) {
	p := zooPlan(t)
	for _, en := range p.Enums {
		if en.Type == nil {
			t.Errorf("%s is not typed", en.Descriptor.Name)
		}
	}
	e := entryOf(p, "zoo::Pet::Kind")
	if e == nil || e.Tags["enum.mode"] != "typed" {
		t.Errorf("Kind entry = %+v", e)
	}

	cfg := config.Default()
	cfg.Enums.Overrides = map[string]string{"zoo::Color": "legacy"}
	p, err := generate(t, zooManifest, cfg)
	if err != nil {
		t.Fatal(err)
	}
	e = entryOf(p, "zoo::Color")
	if e == nil || e.Tags["enum.mode"] != "legacy" || e.Tags["enum.underlying"] != "int" {
		t.Errorf("Color entry = %+v", e)
	}
}

func TestGenerate_Exceptions(t *testing.T) {
	p := zooPlan(t)
	if len(p.Exceptions) != 1 {
		t.Fatalf("exceptions = %+v", p.Exceptions)
	}
	if got := p.Exceptions[0].Category; got != errors.CategoryOutOfRange {
		t.Errorf("category = %s, want inherited out_of_range", got)
	}
}

func TestGenerate_Aborts(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		want     error
	}{
		{
			name: "unresolved parameter type",
			manifest: `
module = "m"
[[decl]]
kind = "function"
name = "f"
scope = "m"
params = [{name = "x", type = "m::Unknown"}]
`,
			want: errors.New(errors.PhaseResolve, errors.KindUnresolvedType).Build(),
		},
		{
			name: "ambiguous ownership",
			manifest: `
module = "m"
[[decl]]
kind = "class"
name = "T"
scope = "m"
[[decl]]
kind = "function"
name = "f"
scope = "m"
params = [{name = "p", type = "std::unique_ptr<m::T>&"}]
`,
			want: errors.New(errors.PhaseOwnership, errors.KindAmbiguousOwnership).Build(),
		},
		{
			name: "unknown exception category",
			manifest: `
module = "m"
[[decl]]
kind = "exception"
name = "E"
scope = "m"
exception = {category = "weird"}
`,
			want: errors.New(errors.PhaseGenerate, errors.KindInvalidInput).Build(),
		},
		{
			name: "reduction of unknown field",
			manifest: `
module = "m"
[[decl]]
kind = "class"
name = "T"
scope = "m"
reduce = ["missing"]
`,
			want: errors.New(errors.PhaseGenerate, errors.KindNotFound).Build(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := generate(t, tt.manifest, nil)
			if err == nil {
				t.Fatal("generation succeeded")
			}
			if p != nil {
				t.Error("plan returned alongside an error")
			}
			if !stderrors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSession_GeneratesOnce(t *testing.T) {
	list, module, err := decl.DecodeManifest(zooManifest)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Module = module
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Generate(list); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Generate(list); err == nil {
		t.Error("second Generate succeeded")
	}
}

func TestProtocolName(t *testing.T) {
	tests := []struct {
		name     string
		operands int
		want     string
		ok       bool
	}{
		{"operator+", 1, "__add__", true},
		{"operator-", 0, "__neg__", true},
		{"operator==", 1, "__eq__", true},
		{"operator[]", 1, "__getitem__", true},
		{"operator()", 3, "__call__", true},
		{"operator bool", 0, "__bool__", true},
		{"operator~", 1, "", false},
		{"operator,", 1, "", false},
		{"plus", 1, "", false},
	}
	for _, tt := range tests {
		got, ok := ProtocolName(tt.name, tt.operands)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ProtocolName(%q, %d) = %q, %v", tt.name, tt.operands, got, ok)
		}
	}

	if r, _ := ReflectedName("__lt__"); r != "__gt__" {
		t.Errorf("reflected __lt__ = %q", r)
	}
}
