package overload

import (
	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/host"
	"github.com/wippyai/cxxbind/ownership"
	"github.com/wippyai/cxxbind/typemap"
)

// Param is a resolved parameter of a candidate.
type Param struct {
	Mapping    *typemap.Mapping
	Name       string
	Annotation ownership.Annotation
	Passing    ownership.Passing
}

// Overload is one declaration of a name with its resolved parameters.
type Overload struct {
	Decl   *decl.Declaration
	Params []Param
}

// Candidate is an entry of a Set. Synthetic candidates come from default
// argument expansion and share the source declaration.
type Candidate struct {
	Decl *decl.Declaration
	// Params are the parameters supplied by the caller.
	Params []Param
	// All are every parameter of the declaration.
	All []Param
	// Defaults complete a call to the declaration's full arity.
	Defaults  []any
	Order     int
	Synthetic bool
}

// Signature returns the C++ spelling of the supplied parameters.
func (c *Candidate) Signature() string {
	s := "("
	for i, p := range c.Params {
		if i > 0 {
			s += ", "
		}
		s += p.Mapping.CppType
	}
	return s + ")"
}

// HostSignature returns the host spelling, e.g. "(int, Optional[Pet])".
func (c *Candidate) HostSignature() string {
	s := "("
	for i, p := range c.Params {
		if i > 0 {
			s += ", "
		}
		s += p.Mapping.Display()
	}
	return s + ")"
}

// Complete appends the declared defaults to args.
func (c *Candidate) Complete(args []any) []any {
	if len(c.Defaults) == 0 {
		return args
	}
	out := make([]any, 0, len(args)+len(c.Defaults))
	out = append(out, args...)
	return append(out, c.Defaults...)
}

// Set is the ordered overload set of one host-visible name.
type Set struct {
	name       string
	candidates []*Candidate
	signatures []string
	byArity    map[int][]*Candidate
}

// Build creates the set of name from its declarations. Overloads must be
// given in declaration order. When expand is set, trailing default
// arguments produce synthetic candidates directly after their source.
// An overload may omit its first declared parameter when it binds the
// receiver, as free operators do.
func Build(name string, overloads []Overload, expand bool) (*Set, error) {
	if len(overloads) == 0 {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "empty overload set "+name)
	}
	s := &Set{
		name:    name,
		byArity: make(map[int][]*Candidate),
	}
	for _, o := range overloads {
		if o.Decl == nil {
			return nil, errors.InvalidInput(errors.PhaseGenerate, "overload of "+name+" without declaration")
		}
		skip := len(o.Decl.Params) - len(o.Params)
		if skip < 0 || skip > 1 {
			return nil, errors.New(errors.PhaseGenerate, errors.KindInvalidInput).
				Decl(name).
				Detail("overload parameters do not match its declaration").
				Build()
		}
		s.signatures = append(s.signatures, name+o.Decl.Signature())

		lowest := len(o.Params)
		if expand {
			lowest = max(o.Decl.RequiredArity()-skip, 0)
		}
		for n := len(o.Params); n >= lowest; n-- {
			c := &Candidate{
				Decl:      o.Decl,
				Params:    o.Params[:n],
				All:       o.Params,
				Synthetic: n != len(o.Params),
				Order:     len(s.candidates),
			}
			for _, p := range o.Decl.Params[skip+n:] {
				c.Defaults = append(c.Defaults, p.Default)
			}
			s.candidates = append(s.candidates, c)
			s.byArity[n] = append(s.byArity[n], c)
		}
	}
	return s, nil
}

// Name returns the host-visible name.
func (s *Set) Name() string { return s.name }

// Candidates returns the candidates in resolution order.
func (s *Set) Candidates() []*Candidate { return s.candidates }

// Signatures returns the declared signatures in declaration order.
func (s *Set) Signatures() []string { return s.signatures }

// Len returns the number of candidates including synthetic ones.
func (s *Set) Len() int { return len(s.candidates) }

// Resolve selects the candidate for args.
func (s *Set) Resolve(args []any) (*Candidate, error) {
	var viable *Candidate
	for _, c := range s.byArity[len(args)] {
		switch rankOf(c, args) {
		case typemap.RankExact:
			return c, nil
		case typemap.RankConvertible:
			if viable == nil {
				viable = c
			}
		}
	}
	if viable != nil {
		return viable, nil
	}
	return nil, errors.NoMatchingOverload(s.name, host.ShapeNames(args), s.signatures)
}

// Score is the outcome of ranking one candidate.
type Score struct {
	Candidate *Candidate
	Rank      typemap.Rank
	// Failed is the index of the first rejected argument, or -1.
	Failed int
}

// Explain ranks every candidate against args, in resolution order.
func (s *Set) Explain(args []any) []Score {
	out := make([]Score, 0, len(s.candidates))
	for _, c := range s.candidates {
		sc := Score{Candidate: c, Failed: -1}
		if len(c.Params) != len(args) {
			sc.Failed = min(len(c.Params), len(args))
		} else {
			sc.Rank = typemap.RankExact
			for i, p := range c.Params {
				r := p.Mapping.Rank(args[i])
				if r == typemap.RankNone {
					sc.Rank = typemap.RankNone
					sc.Failed = i
					break
				}
				if r < sc.Rank {
					sc.Rank = r
				}
			}
		}
		out = append(out, sc)
	}
	return out
}

func rankOf(c *Candidate, args []any) typemap.Rank {
	r := typemap.RankExact
	for i, p := range c.Params {
		pr := p.Mapping.Rank(args[i])
		if pr == typemap.RankNone {
			return typemap.RankNone
		}
		if pr < r {
			r = pr
		}
	}
	return r
}
