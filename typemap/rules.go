package typemap

import (
	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/errors"
)

func arity(t *decl.Type, args []*Mapping, want int) error {
	if len(args) < want {
		return errors.New(errors.PhaseResolve, errors.KindUnresolvedType).
			CppType(t.String()).
			Detail("%s needs %d type arguments, got %d", t.Name, want, len(args)).
			Build()
	}
	return nil
}

// ListRule maps sequence containers to a host list of the element type.
func ListRule(t *decl.Type, args []*Mapping) (*Mapping, error) {
	if err := arity(t, args, 1); err != nil {
		return nil, err
	}
	return &Mapping{Repr: ReprList, Args: args[:1]}, nil
}

// DictRule maps associative containers to a host dict.
func DictRule(t *decl.Type, args []*Mapping) (*Mapping, error) {
	if err := arity(t, args, 2); err != nil {
		return nil, err
	}
	return &Mapping{Repr: ReprDict, Args: args[:2]}, nil
}

// TupleRule maps pair and tuple to a host tuple.
func TupleRule(_ *decl.Type, args []*Mapping) (*Mapping, error) {
	return &Mapping{Repr: ReprTuple, Args: args}, nil
}

// OptionalRule maps std::optional<T> to a nullable T.
func OptionalRule(t *decl.Type, args []*Mapping) (*Mapping, error) {
	if err := arity(t, args, 1); err != nil {
		return nil, err
	}
	m := *args[0]
	m.Nullable = true
	m.Default = nil
	return &m, nil
}

// SmartRule maps smart pointers to their pointee class with the smart
// flag set. Smart pointers to non-class types are not supported.
func SmartRule(t *decl.Type, args []*Mapping) (*Mapping, error) {
	if err := arity(t, args, 1); err != nil {
		return nil, err
	}
	inner := args[0]
	if !inner.IsClass() || inner.Type.PointerDepth() > 0 || inner.Type.IsReference() {
		return nil, errors.New(errors.PhaseResolve, errors.KindUnresolvedType).
			CppType(t.String()).
			Detail("smart pointer to non-class type").
			Build()
	}
	m := *inner
	m.Smart = t.Smart()
	m.Nullable = true
	return &m, nil
}

// RuleFor returns the builtin rule for a configured template kind:
// "list", "dict", "tuple", "optional" or "smart".
func RuleFor(kind string) (TemplateRule, bool) {
	switch kind {
	case "list":
		return ListRule, true
	case "dict":
		return DictRule, true
	case "tuple":
		return TupleRule, true
	case "optional":
		return OptionalRule, true
	case "smart":
		return SmartRule, true
	}
	return nil, false
}
