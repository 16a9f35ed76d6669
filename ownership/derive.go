package ownership

import (
	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/errors"
)

// Site is one occurrence of a type in a declaration.
type Site struct {
	Type   *decl.Type
	Decl   string   // declaration symbol, for errors
	Path   []string // e.g. ["param", "owner"] or ["return"]
	Policy string
	// Class reports whether the referent is a bound class.
	Class bool
	// Return marks result occurrences.
	Return bool
	// Member marks results of member functions and field accessors.
	Member bool
}

func (s Site) ambiguous(detail string) error {
	return errors.AmbiguousOwnership(s.Decl, s.Path, s.Type.String(), detail)
}

// Derive computes the annotation of a site.
func Derive(s Site) (Annotation, error) {
	ann, err := qualifiers(s)
	if err != nil {
		return Annotation{}, err
	}
	return applyPolicy(s, ann)
}

func qualifiers(s Site) (Annotation, error) {
	t := s.Type
	depth := t.PointerDepth()

	switch {
	case depth >= 2:
		return Annotation{}, s.ambiguous("pointer to pointer")
	case depth == 1 && t.Ref != decl.RefNone:
		return Annotation{}, s.ambiguous("reference to pointer")
	}

	if smart := t.Smart(); smart != decl.SmartNone {
		if depth > 0 {
			return Annotation{}, s.ambiguous("pointer to smart pointer")
		}
		return smartPointer(s, smart)
	}

	if !s.Class {
		return nonClass(s)
	}

	switch {
	case depth == 1:
		return Annotation{Kind: Borrowed, ReadOnly: t.Const}, nil
	case t.Ref == decl.RefLValue:
		return Annotation{Kind: Borrowed, ReadOnly: t.Const}, nil
	case t.Ref == decl.RefRValue:
		return Annotation{Kind: OwnedUnique}, nil
	default:
		return Annotation{Kind: Value}, nil
	}
}

func smartPointer(s Site, smart decl.SmartKind) (Annotation, error) {
	t := s.Type
	switch smart {
	case decl.SmartUnique:
		switch {
		case t.Ref == decl.RefLValue && t.Const:
			return Annotation{Kind: Borrowed, ReadOnly: true}, nil
		case t.Ref == decl.RefLValue:
			return Annotation{}, s.ambiguous("non-const lvalue reference to unique_ptr")
		default:
			return Annotation{Kind: OwnedUnique}, nil
		}
	case decl.SmartShared:
		if t.Ref == decl.RefLValue && !t.Const {
			return Annotation{}, s.ambiguous("non-const lvalue reference to shared_ptr")
		}
		return Annotation{Kind: OwnedShared}, nil
	default:
		if t.Ref != decl.RefNone {
			return Annotation{}, s.ambiguous("reference to weak_ptr")
		}
		return Annotation{Kind: Borrowed}, nil
	}
}

func nonClass(s Site) (Annotation, error) {
	t := s.Type
	if t.PointerDepth() == 1 {
		if t.Name == "char" && t.Const {
			return Annotation{Kind: Value}, nil
		}
		if !t.Const {
			return Annotation{}, s.ambiguous("non-const pointer to a non-class value")
		}
		return Annotation{Kind: Value}, nil
	}
	if t.Ref == decl.RefLValue && !t.Const {
		return Annotation{}, s.ambiguous("non-const reference to a non-class value")
	}
	return Annotation{Kind: Value}, nil
}

func applyPolicy(s Site, ann Annotation) (Annotation, error) {
	t := s.Type
	indirect := t.PointerDepth() > 0 || t.Ref == decl.RefLValue
	smart := t.Smart() != decl.SmartNone

	switch s.Policy {
	case PolicyAutomatic:
		if s.Return && s.Member && s.Class && ann.Kind == Borrowed && !smart {
			ann.Internal = true
		}
		return ann, nil

	case PolicyCopy:
		if smart {
			return Annotation{}, s.ambiguous("copy policy on a smart pointer")
		}
		return Annotation{Kind: Value}, nil

	case PolicyMove:
		switch {
		case t.Smart() == decl.SmartShared || t.Smart() == decl.SmartWeak:
			return Annotation{}, s.ambiguous("move policy on a shared occurrence")
		case indirect && t.Const:
			return Annotation{}, s.ambiguous("move policy on a const occurrence")
		case ann.Kind == OwnedUnique, indirect && s.Class:
			return Annotation{Kind: OwnedUnique}, nil
		}
		return Annotation{Kind: Value}, nil

	case PolicyTakeOwnership:
		switch {
		case t.Smart() == decl.SmartShared:
			return Annotation{}, s.ambiguous("take_ownership policy on shared_ptr")
		case t.Ref == decl.RefLValue && t.Const:
			return Annotation{}, s.ambiguous("take_ownership policy on a const reference")
		case ann.Kind == OwnedUnique:
			return ann, nil
		case t.PointerDepth() == 1 && s.Class:
			return Annotation{Kind: OwnedUnique}, nil
		default:
			return Annotation{}, s.ambiguous("take_ownership policy on a non-pointer")
		}

	case PolicyReference, PolicyReferenceInternal:
		if !s.Return && s.Policy == PolicyReferenceInternal {
			return Annotation{}, s.ambiguous("reference_internal policy on a parameter")
		}
		if !indirect || smart || !s.Class {
			return Annotation{}, s.ambiguous(s.Policy + " policy on a by-value occurrence")
		}
		ann = Annotation{Kind: Borrowed, ReadOnly: t.Const}
		if s.Policy == PolicyReferenceInternal {
			if !s.Member {
				return Annotation{}, s.ambiguous("reference_internal policy on a free function")
			}
			ann.Internal = true
		}
		return ann, nil
	}

	return Annotation{}, errors.New(errors.PhaseOwnership, errors.KindInvalidInput).
		Decl(s.Decl).
		Path(s.Path...).
		Detail("unknown return value policy %q", s.Policy).
		Build()
}
