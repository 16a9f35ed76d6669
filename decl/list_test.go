package decl

import (
	"errors"
	"testing"

	cxxerrors "github.com/wippyai/cxxbind/errors"
)

func TestNewList_OrderAndLookup(t *testing.T) {
	l, err := NewList([]*Declaration{
		{Kind: KindClass, Name: "Pet"},
		{Kind: KindMethod, Scope: "Pet", Name: "set", Params: []Param{{Type: "int"}}},
		{Kind: KindMethod, Scope: "Pet", Name: "set", Params: []Param{{Type: "std::string"}}},
	})
	if err != nil {
		t.Fatalf("NewList: %v", err)
	}
	if l.Len() != 3 {
		t.Fatalf("Len = %d", l.Len())
	}
	sets := l.Lookup("Pet::set")
	if len(sets) != 2 || sets[0].Order != 1 || sets[1].Order != 2 {
		t.Fatalf("Lookup order wrong: %+v", sets)
	}
	if len(l.Members("Pet")) != 2 {
		t.Errorf("Members = %d", len(l.Members("Pet")))
	}
	if len(l.Of(KindClass)) != 1 {
		t.Errorf("Of(class) = %d", len(l.Of(KindClass)))
	}
}

func TestNewList_Duplicate(t *testing.T) {
	_, err := NewList([]*Declaration{
		{Kind: KindClass, Name: "Pet"},
		{Kind: KindClass, Name: "Pet"},
	})
	if !errors.Is(err, &cxxerrors.Error{Phase: cxxerrors.PhaseLoad, Kind: cxxerrors.KindDuplicate}) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestDeclaration_Symbol(t *testing.T) {
	d := &Declaration{Kind: KindMethod, Scope: "geo::Shape", Name: "scale", Const: true,
		Params: []Param{{Type: "double"}, {Type: "Pet const &"}}}
	if got := d.Symbol(); got != "geo::Shape::scale(double, const Pet&) const" {
		t.Errorf("Symbol = %q", got)
	}
	if !d.Member() {
		t.Error("method should bind an object parameter")
	}

	tpl := &Declaration{Kind: KindClass, Name: "Vector2", TemplateArgs: []string{"float"}}
	if got := tpl.QualifiedName(); got != "Vector2<float>" {
		t.Errorf("QualifiedName = %q", got)
	}
}

func TestDeclaration_RequiredArity(t *testing.T) {
	d := &Declaration{Kind: KindFunction, Name: "f", Params: []Param{
		{Type: "int"}, {Type: "int", HasDefault: true, Default: int64(1)}, {Type: "int", HasDefault: true, Default: int64(2)},
	}}
	if d.Arity() != 3 || d.RequiredArity() != 1 {
		t.Errorf("Arity=%d RequiredArity=%d", d.Arity(), d.RequiredArity())
	}
}

func TestDecodeManifest(t *testing.T) {
	const src = `
module = "zoo"

[[decl]]
kind = "class"
name = "Pet"
reduce = ["name"]

[[decl]]
kind = "constructor"
scope = "Pet"
name = "Pet"
params = [{ name = "name", type = "std::string" }]

[[decl]]
kind = "method"
scope = "Pet"
name = "feed"
result = "void"
params = [{ name = "amount", type = "int", default = 1 }]

[[decl]]
kind = "enum"
name = "Kind"
enum = { underlying = "int", mode = "typed", scoped = true, entries = [{ name = "Dog", value = 1 }, { name = "Cat", value = 5 }] }

[[decl]]
kind = "exception"
name = "ZooError"
exception = { base = "std::runtime_error" }
`
	l, module, err := DecodeManifest(src)
	if err != nil {
		t.Fatalf("DecodeManifest: %v", err)
	}
	if module != "zoo" {
		t.Errorf("module = %q", module)
	}
	if l.Len() != 5 {
		t.Fatalf("Len = %d", l.Len())
	}
	feed := l.Lookup("Pet::feed")[0]
	if !feed.Params[0].HasDefault || feed.Params[0].Default != int64(1) {
		t.Errorf("default not decoded: %+v", feed.Params[0])
	}
	if feed.Module != "zoo" {
		t.Errorf("module attribution = %q", feed.Module)
	}
	kind := l.Lookup("Kind")[0]
	if kind.Enum == nil || len(kind.Enum.Entries) != 2 || kind.Enum.Entries[1].Value != 5 {
		t.Errorf("enum not decoded: %+v", kind.Enum)
	}
	exc := l.Lookup("ZooError")[0]
	if exc.Exception == nil || exc.Exception.Base != "std::runtime_error" {
		t.Errorf("exception not decoded: %+v", exc.Exception)
	}
}

func TestDecodeManifest_UnknownKind(t *testing.T) {
	_, _, err := DecodeManifest("[[decl]]\nkind = \"namespace\"\nname = \"x\"\n")
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
