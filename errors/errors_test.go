package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseConvert,
				Kind:     KindTypeMismatch,
				Decl:     "Pet::set",
				Path:     []string{"arg0"},
				HostType: "str",
				CppType:  "int",
				Detail:   "cannot convert",
			},
			contains: []string{"[convert]", "type_mismatch", "in Pet::set", "arg0", "str", "int", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseOverload,
				Kind:  KindNoMatchingOverload,
			},
			contains: []string{"[overload]", "no_matching_overload"},
		},
		{
			name: "error with category and cause",
			err: &Error{
				Phase:    PhaseRuntime,
				Kind:     KindCrossLanguage,
				Category: CategoryInvalidArgument,
				Detail:   "negative size",
				Cause:    errors.New("underlying error"),
			},
			contains: []string{"[runtime]", "cross_language(invalid_argument)", "negative size", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseRuntime,
		Kind:  KindCrossLanguage,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find cause through chain")
	}
}

func TestError_Is(t *testing.T) {
	err := UnresolvedType("Widget<int>", "make_widget")

	if !err.Is(&Error{Phase: PhaseResolve, Kind: KindUnresolvedType}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseGenerate, Kind: KindUnresolvedType}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseResolve, Kind: KindAmbiguousOwnership}) {
		t.Error("Is should not match different kind")
	}

	var target *Error
	if !errors.As(error(err), &target) || target.CppType != "Widget<int>" {
		t.Error("errors.As should expose the structured error")
	}
}

func TestError_Fatal(t *testing.T) {
	if !UnresolvedType("X", "f").Fatal() {
		t.Error("unresolved type must be fatal")
	}
	if !AmbiguousOwnership("f", nil, "X**", "pointer to pointer").Fatal() {
		t.Error("ambiguous ownership must be fatal")
	}
	if NoMatchingOverload("f", []string{"int"}, nil).Fatal() {
		t.Error("no matching overload is recoverable")
	}
	if CrossLanguage(CategoryRuntime, "std::runtime_error", "boom", nil).Fatal() {
		t.Error("cross-language exceptions are recoverable")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseConvert, KindTypeMismatch).
		Path("Pet", "name").
		HostType("int").
		CppType("std::string").
		Decl("Pet::rename").
		Category(CategoryInvalidArgument).
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "str", "int").
		Build()

	if err.Phase != PhaseConvert {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseConvert)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "Pet" || err.Path[1] != "name" {
		t.Errorf("Path = %v, want [Pet name]", err.Path)
	}
	if err.HostType != "int" || err.CppType != "std::string" {
		t.Errorf("HostType=%v CppType=%v", err.HostType, err.CppType)
	}
	if err.Decl != "Pet::rename" {
		t.Errorf("Decl = %v", err.Decl)
	}
	if err.Category != CategoryInvalidArgument {
		t.Errorf("Category = %v", err.Category)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected str, got int" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestNoMatchingOverload(t *testing.T) {
	err := NoMatchingOverload("Pet.set", []string{"str", "float"}, []string{"set(int)", "set(std::string)"})
	msg := err.Error()
	for _, s := range []string{"Pet.set", "(str, float)", "set(int) | set(std::string)"} {
		if !strings.Contains(msg, s) {
			t.Errorf("message %q should contain %q", msg, s)
		}
	}
	if len(err.Shapes) != 2 {
		t.Errorf("Shapes = %v", err.Shapes)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseConvert, []string{"arg0"}, 300, "uint8_t")
		if err.Kind != KindOverflow || err.Value != 300 {
			t.Errorf("unexpected %+v", err)
		}
	})

	t.Run("InvalidEnum", func(t *testing.T) {
		err := InvalidEnum(PhaseConvert, nil, "Red", "Color")
		if err.Kind != KindInvalidEnum {
			t.Errorf("Kind = %v", err.Kind)
		}
	})

	t.Run("Abstract", func(t *testing.T) {
		err := Abstract("Shape", []string{"area"})
		if err.Kind != KindAbstract || !strings.Contains(err.Detail, "area") {
			t.Errorf("unexpected %+v", err)
		}
	})

	t.Run("PureVirtual", func(t *testing.T) {
		err := PureVirtual("Shape", "area")
		if err.Category != CategoryRuntime || err.Decl != "Shape::area" {
			t.Errorf("unexpected %+v", err)
		}
	})

	t.Run("Moved", func(t *testing.T) {
		if Moved("Pet").Kind != KindMoved {
			t.Error("wrong kind")
		}
	})
}

func TestMissingSymbolsError(t *testing.T) {
	t.Run("grouped by scope", func(t *testing.T) {
		err := NewMissingSymbolsError([]string{
			"geo::Shape#area() const",
			"#make_shape(int)",
			"geo::Shape#name() const",
		})
		if len(err.Symbols) != 3 {
			t.Fatalf("expected 3 symbols, got %d", len(err.Symbols))
		}
		msg := err.Error()
		for _, s := range []string{"missing 3", "geo::Shape:", "<global>:", "area() const"} {
			if !strings.Contains(msg, s) {
				t.Errorf("message %q should contain %q", msg, s)
			}
		}
	})

	t.Run("mangled names", func(t *testing.T) {
		msg := NewMissingSymbolsError([]string{"geo#_ZN3geo5scaleEid"}).Error()
		if !strings.Contains(msg, "geo::scale(int, double)") {
			t.Errorf("message %q should show the demangled symbol", msg)
		}
	})

	t.Run("empty", func(t *testing.T) {
		msg := NewMissingSymbolsError(nil).Error()
		if !strings.Contains(msg, "no symbols specified") {
			t.Errorf("unexpected message %q", msg)
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := NewMissingSymbolsError([]string{"ns#fn"})
		if !errors.Is(err, &MissingSymbolsError{}) {
			t.Error("errors.Is should match MissingSymbolsError")
		}
	})
}

func TestDemangle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"area", "area"},
		{"geo::Shape::area() const", "geo::Shape::area() const"},
		{"_Z3foov", "foo()"},
		{"_ZN3geo5Shape4areaEv", "geo::Shape::area()"},
		{"_ZNK3geo5Shape4nameEv", "geo::Shape::name() const"},
		{"_ZN3geo5scaleEid", "geo::scale(int, double)"},
		{"_ZN", "_ZN"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Demangle(tt.input); got != tt.expected {
				t.Errorf("Demangle(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
