package backend

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/wippyai/cxxbind/config"
	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/enumbridge"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/generator"
	"github.com/wippyai/cxxbind/host"
	"github.com/wippyai/cxxbind/native"
)

const labManifest = `
module = "lab"

[[decl]]
kind = "class"
name = "Counter"
scope = "lab"

[[decl]]
kind = "constructor"
name = "Counter"
scope = "lab::Counter"
params = [{name = "start", type = "int"}]

[[decl]]
kind = "method"
name = "describe"
scope = "lab::Counter"
result = "std::string"
params = [{name = "v", type = "int"}]

[[decl]]
kind = "method"
name = "describe"
scope = "lab::Counter"
result = "std::string"
params = [{name = "v", type = "double"}]

[[decl]]
kind = "method"
name = "describe"
scope = "lab::Counter"
result = "std::string"
params = [{name = "v", type = "const std::string&"}]

[[decl]]
kind = "method"
name = "value"
scope = "lab::Counter"
result = "int"
const = true

[[decl]]
kind = "class"
name = "Meters"
scope = "lab"

[[decl]]
kind = "constructor"
name = "Meters"
scope = "lab::Meters"
implicit = true
params = [{name = "c", type = "const lab::Counter&"}]

[[decl]]
kind = "constructor"
name = "Meters"
scope = "lab::Meters"
implicit = true
params = [{name = "n", type = "int"}]

[[decl]]
kind = "function"
name = "length"
scope = "lab"
result = "int"
params = [{name = "m", type = "const lab::Meters&"}]

[[decl]]
kind = "class"
name = "Widget"
scope = "lab"

[[decl]]
kind = "function"
name = "make_widget"
scope = "lab"
result = "std::unique_ptr<lab::Widget>"
params = [{name = "name", type = "const std::string&"}]

[[decl]]
kind = "function"
name = "consume"
scope = "lab"
result = "void"
params = [{name = "w", type = "std::unique_ptr<lab::Widget>"}]

[[decl]]
kind = "class"
name = "Inner"
scope = "lab"

[[decl]]
kind = "field"
name = "v"
scope = "lab::Inner"
result = "int"

[[decl]]
kind = "class"
name = "Holder"
scope = "lab"

[[decl]]
kind = "constructor"
name = "Holder"
scope = "lab::Holder"

[[decl]]
kind = "field"
name = "inner"
scope = "lab::Holder"
result = "lab::Inner"

[[decl]]
kind = "class"
name = "Base"
scope = "lab"

[[decl]]
kind = "constructor"
name = "Base"
scope = "lab::Base"

[[decl]]
kind = "method"
name = "set_c"
scope = "lab::Base"
result = "void"
virtual = true
params = [{name = "c", type = "int"}]

[[decl]]
kind = "method"
name = "get_c"
scope = "lab::Base"
result = "int"
virtual = true
const = true

[[decl]]
kind = "function"
name = "apply"
scope = "lab"
result = "void"
params = [{name = "b", type = "lab::Base&"}, {name = "c", type = "int"}]

[[decl]]
kind = "enum"
name = "Mode"
scope = "lab"
module = "lab_enums"
enum = {underlying = "uint8_t", entries = [{name = "Off", value = 0}, {name = "On", value = 1}]}

[[decl]]
kind = "enum"
name = "Level"
scope = "lab"
enum = {mode = "legacy", entries = [{name = "Low", value = 0}, {name = "High", value = 5}]}

[[decl]]
kind = "function"
name = "mode_of"
scope = "lab"
result = "lab::Mode"
params = [{name = "v", type = "int"}]

[[decl]]
kind = "exception"
name = "LabError"
scope = "lab"
exception = {base = "std::invalid_argument"}

[[decl]]
kind = "function"
name = "fail"
scope = "lab"
result = "void"
`

type counter struct{ n int64 }

type widget struct{ name string }

type meters struct{ n int64 }

type inner struct{ v int64 }

type holder struct{ in inner }

type base struct{ c int64 }

// lab is a native library implementing labManifest that records what the bindings do to it.
type lab struct {
	lib      *native.Library
	inst     *Installation
	consumed []*widget
	// destroyed records widget destructor runs and whether the token was
	// held at the time.
	destroyed []bool
	// onDestroy, when set, runs inside the widget destructor.
	onDestroy func(ctx context.Context) error
}

func labPlan(t *testing.T) *generator.Plan {
	t.Helper()
	list, module, err := decl.DecodeManifest(labManifest)
	if err != nil {
		t.Fatalf("DecodeManifest: %v", err)
	}
	cfg := config.Default()
	cfg.Module = module
	s, err := generator.NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(s.Close)
	plan, err := s.Generate(list)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return plan
}

func newLab(t *testing.T, b Backend) *lab {
	t.Helper()
	l := &lab{lib: native.NewLibrary()}
	lib := l.lib

	lib.Define("lab::Counter::Counter(int)", func(_ context.Context, _ any, args []any) (any, error) {
		return &counter{n: args[0].(int64)}, nil
	})
	for _, kind := range []struct{ sig, name string }{
		{"(int)", "int"},
		{"(double)", "double"},
		{"(const std::string&)", "string"},
	} {
		name := kind.name
		lib.Define("lab::Counter::describe"+kind.sig, func(context.Context, any, []any) (any, error) {
			return name, nil
		})
	}
	lib.Define("lab::Counter::value() const", func(_ context.Context, self any, _ []any) (any, error) {
		return self.(*counter).n, nil
	})

	lib.Define("lab::Meters::Meters(const lab::Counter&)", func(_ context.Context, _ any, args []any) (any, error) {
		return &meters{n: args[0].(*counter).n * 100}, nil
	})
	lib.Define("lab::Meters::Meters(int)", func(_ context.Context, _ any, args []any) (any, error) {
		return &meters{n: args[0].(int64)}, nil
	})
	lib.Define("lab::length(const lab::Meters&)", func(_ context.Context, _ any, args []any) (any, error) {
		return args[0].(*meters).n, nil
	})

	lib.Define("lab::make_widget(const std::string&)", func(_ context.Context, _ any, args []any) (any, error) {
		return &widget{name: args[0].(string)}, nil
	})
	lib.Define("lab::consume(std::unique_ptr<lab::Widget>)", func(_ context.Context, _ any, args []any) (any, error) {
		l.consumed = append(l.consumed, args[0].(*widget))
		return nil, nil
	})
	lib.DefineDestructor("lab::Widget", func(ctx context.Context, _ any) error {
		l.destroyed = append(l.destroyed, l.inst.Module().Token().Held(ctx))
		if l.onDestroy != nil {
			return l.onDestroy(ctx)
		}
		return nil
	})

	lib.DefineField("lab::Inner::v",
		func(_ context.Context, self any) (any, error) { return self.(*inner).v, nil },
		func(_ context.Context, self any, v any) error {
			self.(*inner).v = v.(int64) % 1000
			return nil
		})
	lib.Define("lab::Holder::Holder()", func(context.Context, any, []any) (any, error) {
		return &holder{}, nil
	})
	lib.DefineField("lab::Holder::inner",
		func(_ context.Context, self any) (any, error) { return &self.(*holder).in, nil },
		nil)

	lib.Define("lab::Base::Base()", func(context.Context, any, []any) (any, error) {
		return &base{}, nil
	})
	lib.Define("lab::Base::set_c(int)", func(_ context.Context, self any, args []any) (any, error) {
		self.(*base).c = args[0].(int64)
		return nil, nil
	})
	lib.Define("lab::Base::get_c() const", func(_ context.Context, self any, _ []any) (any, error) {
		return self.(*base).c, nil
	})
	lib.Define("lab::apply(lab::Base&, int)", func(ctx context.Context, _ any, args []any) (any, error) {
		return lib.CallVirtual(ctx, args[0], "lab::Base", "set_c", args[1])
	})

	lib.Define("lab::mode_of(int)", func(_ context.Context, _ any, args []any) (any, error) {
		return args[0], nil
	})
	lib.Define("lab::fail()", func(context.Context, any, []any) (any, error) {
		return nil, native.Throw("lab::LabError", "boom")
	})

	inst, err := b.Install(context.Background(), labPlan(t), lib)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	l.inst = inst
	t.Cleanup(func() { _ = inst.Close(context.Background()) })
	return l
}

func (l *lab) class(t *testing.T, name string) *host.Class {
	t.Helper()
	c, ok := l.inst.Module().Class(name)
	if !ok {
		t.Fatalf("class %s not bound", name)
	}
	return c
}

func object(t *testing.T, v any, err error) *host.Object {
	t.Helper()
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	o, ok := v.(*host.Object)
	if !ok {
		t.Fatalf("got %T, want *host.Object", v)
	}
	return o
}

var backends = []Backend{Legacy{}, Embedded{}}

func TestInstall_OverloadResolution(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends {
		t.Run(string(b.Style()), func(t *testing.T) {
			l := newLab(t, b)
			c, err := l.class(t, "Counter").New(ctx, 7)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			tests := []struct {
				arg  any
				want string
			}{
				{3, "int"},
				{2.5, "double"},
				{"x", "string"},
				{true, "int"},
			}
			for _, tt := range tests {
				for range 3 {
					got, err := c.Call(ctx, "describe", tt.arg)
					if err != nil {
						t.Fatalf("describe(%v): %v", tt.arg, err)
					}
					if got != tt.want {
						t.Errorf("describe(%v) = %v, want %s", tt.arg, got, tt.want)
					}
				}
			}

			_, err = c.Call(ctx, "describe", nil)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseOverload, Kind: errors.KindNoMatchingOverload}) {
				t.Fatalf("describe(None) error = %v, want no matching overload", err)
			}
			if !strings.Contains(err.Error(), "describe(double)") {
				t.Errorf("error does not list candidates: %v", err)
			}

			if v, err := c.Call(ctx, "value"); err != nil || v != int64(7) {
				t.Errorf("value() = %v, %v", v, err)
			}
		})
	}
}

func TestInstall_ImplicitConversion(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends {
		t.Run(string(b.Style()), func(t *testing.T) {
			l := newLab(t, b)
			mod := l.inst.Module()

			c, err := l.class(t, "Counter").New(ctx, 3)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			m, err := l.class(t, "Meters").New(ctx, 7)
			if err != nil {
				t.Fatalf("New Meters: %v", err)
			}
			v, err := mod.Call(ctx, "make_widget", "w")
			w := object(t, v, err)

			tests := []struct {
				name string
				arg  any
				want int64
			}{
				{"bound object", m, 7},
				{"from int", 5, 5},
				{"from another class", c, 300},
			}
			for _, tt := range tests {
				got, err := mod.Call(ctx, "length", tt.arg)
				if err != nil || got != tt.want {
					t.Errorf("%s: length = %v, %v, want %d", tt.name, got, err, tt.want)
				}
			}

			_, err = mod.Call(ctx, "length", w)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseOverload, Kind: errors.KindNoMatchingOverload}) {
				t.Errorf("length(Widget) = %v, want no matching overload", err)
			}
		})
	}
}

func TestInstall_OwnedUniqueDestroyedOnce(t *testing.T) {
	ctx := context.Background()
	l := newLab(t, Legacy{})
	mod := l.inst.Module()

	v, err := mod.Call(ctx, "make_widget", "a")
	w := object(t, v, err)
	dup, err := w.Dup()
	if err != nil {
		t.Fatalf("Dup: %v", err)
	}
	if !dup.Is(w) {
		t.Fatal("Dup does not share identity")
	}

	if err := w.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if len(l.destroyed) != 0 {
		t.Fatalf("destroyed %d times with a live duplicate", len(l.destroyed))
	}
	if err := dup.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := dup.Release(ctx); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if len(l.destroyed) != 1 {
		t.Fatalf("destroyed %d times, want 1", len(l.destroyed))
	}
}

func TestInstall_DestructorRunsWithoutToken(t *testing.T) {
	ctx := context.Background()
	l := newLab(t, Embedded{})
	v, err := l.inst.Module().Call(ctx, "make_widget", "a")
	w := object(t, v, err)
	if err := w.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if len(l.destroyed) != 1 {
		t.Fatalf("destroyed %d times, want 1", len(l.destroyed))
	}
	if l.destroyed[0] {
		t.Error("native destructor ran while the token was held")
	}
}

func TestInstall_DestructorJoinsTokenThread(t *testing.T) {
	for _, b := range backends {
		t.Run(string(b.Style()), func(t *testing.T) {
			ctx := context.Background()
			l := newLab(t, b)
			token := l.inst.Module().Token()
			entered := false
			l.onDestroy = func(context.Context) error {
				// Another thread needs the token; the destructor waits for it.
				wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				errc := make(chan error, 1)
				go func() {
					_, done, err := token.Enter(wctx)
					if err == nil {
						entered = true
						done()
					}
					errc <- err
				}()
				return <-errc
			}

			v, err := l.inst.Module().Call(ctx, "make_widget", "a")
			w := object(t, v, err)
			if err := w.Release(ctx); err != nil {
				t.Fatalf("Release: %v", err)
			}
			if !entered {
				t.Error("thread spawned by the destructor never acquired the token")
			}
			if _, err := l.inst.Module().Call(ctx, "make_widget", "b"); err != nil {
				t.Errorf("call after destructor: %v", err)
			}
		})
	}
}

func TestInstall_MoveToNative(t *testing.T) {
	ctx := context.Background()
	l := newLab(t, Legacy{})
	mod := l.inst.Module()

	v, err := mod.Call(ctx, "make_widget", "a")
	w := object(t, v, err)
	if _, err := mod.Call(ctx, "consume", w); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if len(l.consumed) != 1 || l.consumed[0].name != "a" {
		t.Fatalf("consumed = %v", l.consumed)
	}

	_, err = w.Native()
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindMoved}) {
		t.Fatalf("Native after move = %v, want moved", err)
	}
	if _, err := mod.Call(ctx, "consume", w); !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindMoved}) {
		t.Fatalf("second consume = %v, want moved", err)
	}
	if err := w.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if len(l.destroyed) != 0 {
		t.Error("host destroyed an object it no longer owns")
	}
}

func TestInstall_TypedEnum(t *testing.T) {
	ctx := context.Background()
	l := newLab(t, Embedded{})
	mod := l.inst.Module()

	attr, ok := mod.Attr("Mode")
	if !ok {
		t.Fatal("Mode not re-exported by the main module")
	}
	mode := attr.(*enumbridge.Type)
	if mode.Module() != "lab_enums" {
		t.Errorf("Mode.Module() = %q, want lab_enums", mode.Module())
	}
	if mode.Of(1) != mode.Of(1) || mode.Of(42) != mode.Of(42) {
		t.Error("Of is not interned")
	}

	on, _ := mode.ByName("On")
	got, err := mod.Call(ctx, "mode_of", 1)
	if err != nil {
		t.Fatalf("mode_of: %v", err)
	}
	if got != on {
		t.Errorf("mode_of(1) = %v, want %v", got, on)
	}

	got, err = mod.Call(ctx, "mode_of", 42)
	if err != nil {
		t.Fatalf("mode_of: %v", err)
	}
	m := got.(*enumbridge.Member)
	if m.Declared() || m != mode.Of(42) {
		t.Errorf("mode_of(42) = %v, want undeclared interned member", m)
	}
	if m.Equal(int64(42)) {
		t.Error("member compares equal to a raw int")
	}

	if v, ok := mod.Attr("High"); !ok || v != int64(5) {
		t.Errorf("legacy constant High = %v, %v", v, ok)
	}
}

func TestInstall_FieldViewNeverStale(t *testing.T) {
	ctx := context.Background()
	l := newLab(t, Legacy{})

	h, err := l.class(t, "Holder").New(ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v, err := h.Get(ctx, "inner")
	in := object(t, v, err)
	if err := in.Set(ctx, "v", 1234); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, err := in.Get(ctx, "v"); err != nil || v != int64(234) {
		t.Fatalf("v = %v, %v, want 234", v, err)
	}

	v, err = h.Get(ctx, "inner")
	again := object(t, v, err)
	if v, _ := again.Get(ctx, "v"); v != int64(234) {
		t.Errorf("fresh view reads %v", v)
	}

	if err := h.Set(ctx, "inner", again); err == nil {
		t.Error("field without a native setter accepted a write")
	}

	// The view keeps its owner alive.
	if err := h.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if v, err := in.Get(ctx, "v"); err != nil || v != int64(234) {
		t.Errorf("view after owner release = %v, %v", v, err)
	}
}

func TestInstall_HostOverrideThroughNativeBase(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends {
		t.Run(string(b.Style()), func(t *testing.T) {
			l := newLab(t, b)
			mod := l.inst.Module()
			baseCls := l.class(t, "Base")

			doubler := baseCls.Subclass("tests", "Doubler", map[string]host.Func{
				"set_c": func(ctx context.Context, self *host.Object, args []any) (any, error) {
					return self.CallFrom(ctx, baseCls, "set_c", args[0].(int64)*2)
				},
			})

			tests := []struct {
				cls  *host.Class
				want int64
			}{
				{baseCls, 21},
				{doubler, 42},
			}
			for _, tt := range tests {
				obj, err := tt.cls.New(ctx)
				if err != nil {
					t.Fatalf("%s.New: %v", tt.cls.Name(), err)
				}
				if _, err := mod.Call(ctx, "apply", obj, 21); err != nil {
					t.Fatalf("apply: %v", err)
				}
				got, err := obj.Call(ctx, "get_c")
				if err != nil {
					t.Fatalf("get_c: %v", err)
				}
				if got != tt.want {
					t.Errorf("%s: get_c() = %v, want %d", tt.cls.Name(), got, tt.want)
				}
				if err := obj.Release(ctx); err != nil {
					t.Fatalf("Release: %v", err)
				}
			}
			if n := l.inst.Dispatcher().Table().Len(); n != 0 {
				t.Errorf("%d bindings left after destruction", n)
			}
		})
	}
}

func TestInstall_Exceptions(t *testing.T) {
	ctx := context.Background()
	l := newLab(t, Legacy{})
	mod := l.inst.Module()

	_, err := mod.Call(ctx, "fail")
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindCrossLanguage {
		t.Fatalf("fail() = %v, want cross-language error", err)
	}
	if e.Category != errors.CategoryInvalidArgument {
		t.Errorf("category = %s, want %s", e.Category, errors.CategoryInvalidArgument)
	}
	attr, ok := mod.Attr("LabError")
	if !ok {
		t.Fatal("LabError not bound")
	}
	if !attr.(*ExceptionType).Match(err) {
		t.Error("LabError does not match the translated error")
	}
}

func TestInstall_MissingSymbols(t *testing.T) {
	_, err := Legacy{}.Install(context.Background(), labPlan(t), native.NewLibrary())
	var missing *errors.MissingSymbolsError
	if !stderrors.As(err, &missing) {
		t.Fatalf("Install = %v, want missing symbols", err)
	}
	found := false
	for _, s := range missing.Symbols {
		if s.Scope == "lab::Counter" && s.Symbol == "lab::Counter::value() const" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing symbols do not name Counter::value: %v", missing.Symbols)
	}
}

// transcript runs the same host program against an installation.
func transcript(t *testing.T, b Backend) []string {
	t.Helper()
	ctx := context.Background()
	l := newLab(t, b)
	mod := l.inst.Module()

	var out []string
	record := func(v any, err error) {
		if err != nil {
			var e *errors.Error
			if stderrors.As(err, &e) {
				out = append(out, "error:"+string(e.Kind))
				return
			}
			out = append(out, "error")
			return
		}
		out = append(out, host.ShapeOf(v).Name+":"+toString(v))
	}

	c, err := l.class(t, "Counter").New(ctx, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, arg := range []any{1, 1.5, "s", false, nil, []any{}} {
		record(c.Call(ctx, "describe", arg))
	}
	for _, v := range []any{0, 1, 200, 300, -1} {
		record(mod.Call(ctx, "mode_of", v))
	}
	record(mod.Call(ctx, "fail"))
	return out
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case *enumbridge.Member:
		return x.String()
	case nil:
		return "None"
	}
	return host.ShapeOf(v).Name
}

func TestInstall_BackendsAgree(t *testing.T) {
	legacy := transcript(t, Legacy{})
	embedded := transcript(t, Embedded{})
	if !slices.Equal(legacy, embedded) {
		t.Fatalf("backends disagree:\nlegacy:   %v\nembedded: %v", legacy, embedded)
	}
	if len(legacy) == 0 {
		t.Fatal("empty transcript")
	}
}

func TestEmit_Styles(t *testing.T) {
	plan := labPlan(t)
	tests := []struct {
		backend Backend
		decl    string
		want    []string
	}{
		{Legacy{}, "lab::Counter", []string{"cxx_type_new(lab_module, \"Counter\", \"lab::Counter\", NULL)", "\"describe\""}},
		{Legacy{}, "lab::Base", []string{"CXX_POLYMORPHIC", "CXX_VIRTUAL"}},
		{Legacy{}, "lab::Level", []string{"cxx_set_int(lab_module, \"High\", 5);"}},
		{Embedded{}, "lab::Counter", []string{"bind::class_<lab::Counter>(m, \"Counter\")", ".def(bind::init<int>()"}},
		{Embedded{}, "lab::Base", []string{"bind::trampoline<lab::Base>"}},
		{Embedded{}, "lab::Mode", []string{"bind::enum_<lab::Mode>(m, \"Mode\")", ".export_values()"}},
		{Embedded{}, "lab::make_widget", []string{"bind::policy::owning"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend.Style())+"/"+tt.decl, func(t *testing.T) {
			out, err := tt.backend.Emit(plan)
			if err != nil {
				t.Fatalf("Emit: %v", err)
			}
			f, ok := out.Fragment(tt.decl)
			if !ok {
				t.Fatalf("no fragment for %s", tt.decl)
			}
			for _, w := range tt.want {
				if !strings.Contains(f.Code, w) {
					t.Errorf("fragment lacks %q:\n%s", w, f.Code)
				}
			}
			if f.Tags["style"] != string(tt.backend.Style()) {
				t.Errorf("style tag = %q", f.Tags["style"])
			}
		})
	}
}

func TestEmit_ModuleAttribution(t *testing.T) {
	out, err := Embedded{}.Emit(labPlan(t))
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	f, ok := out.Fragment("lab::Mode")
	if !ok {
		t.Fatal("no fragment for lab::Mode")
	}
	if f.Module != "lab_enums" {
		t.Errorf("Mode fragment module = %q, want lab_enums", f.Module)
	}
	if f.Tags["enum.mode"] != "typed" {
		t.Errorf("enum.mode tag = %q", f.Tags["enum.mode"])
	}
}

func TestBundle(t *testing.T) {
	ctx := context.Background()
	plan := labPlan(t)
	cfg := config.Default()
	bs, err := ForConfig(cfg)
	if err != nil {
		t.Fatalf("ForConfig: %v", err)
	}
	outs, err := EmitAll(ctx, plan, bs)
	if err != nil {
		t.Fatalf("EmitAll: %v", err)
	}
	bundle := NewBundle(plan, outs)

	path := filepath.Join(t.TempDir(), "out", "bindings.msgpack")
	if err := bundle.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got, err := DecodeBundle(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeBundle: %v", err)
	}

	if got.Module != "lab" || len(got.Outputs) != 2 {
		t.Fatalf("bundle = %s with %d outputs", got.Module, len(got.Outputs))
	}
	for _, style := range []Style{StyleLegacy, StyleEmbedded} {
		want, _ := bundle.Output(style)
		o, ok := got.Output(style)
		if !ok {
			t.Fatalf("no %s output", style)
		}
		if o.Code() != want.Code() {
			t.Errorf("%s code changed across encoding", style)
		}
	}
	if !slices.Equal(got.Symbols, plan.Symbols()) {
		t.Error("symbols changed across encoding")
	}
	if e := got.Entries["lab::Counter"]; e == nil || e.HostName != "Counter" {
		t.Errorf("Counter entry = %+v", e)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New("pybind"); !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput}) {
		t.Fatalf("New(pybind) = %v", err)
	}
}
