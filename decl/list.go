package decl

import (
	"github.com/wippyai/cxxbind/errors"
)

// List is the ordered declaration list consumed by a generation session.
// Order fields are assigned from the list position.
type List struct {
	byName map[string][]*Declaration
	decls  []*Declaration
}

// NewList takes ownership of decls, assigns declaration order and indexes
// them by qualified name. Duplicate non-callable declarations are rejected.
func NewList(decls []*Declaration) (*List, error) {
	l := &List{
		decls:  make([]*Declaration, 0, len(decls)),
		byName: make(map[string][]*Declaration, len(decls)),
	}
	for i, d := range decls {
		if d == nil {
			return nil, errors.InvalidInput(errors.PhaseLoad, "nil declaration")
		}
		if d.Name == "" {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
				Detail("declaration %d has no name", i).
				Build()
		}
		if d.Kind == KindEnum && d.Enum == nil {
			d.Enum = &EnumSpec{}
		}
		q := d.QualifiedName()
		if !d.Callable() && d.Kind != KindField {
			for _, prev := range l.byName[q] {
				if !prev.Callable() && prev.Kind != KindField {
					return nil, errors.Duplicate(errors.PhaseLoad, d.Kind.String(), q)
				}
			}
		}
		d.Order = i
		l.decls = append(l.decls, d)
		l.byName[q] = append(l.byName[q], d)
	}
	return l, nil
}

// All returns the declarations in input order.
func (l *List) All() []*Declaration {
	return l.decls
}

// Len returns the number of declarations.
func (l *List) Len() int {
	return len(l.decls)
}

// Lookup returns all declarations with the given qualified name, in order.
func (l *List) Lookup(qualified string) []*Declaration {
	return l.byName[qualified]
}

// Of returns the declarations of the given kind, in order.
func (l *List) Of(kind Kind) []*Declaration {
	var out []*Declaration
	for _, d := range l.decls {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Members returns the declarations scoped to the given class, in order.
func (l *List) Members(class string) []*Declaration {
	var out []*Declaration
	for _, d := range l.decls {
		if d.Scope == class && d.Kind != KindClass {
			out = append(out, d)
		}
	}
	return out
}
