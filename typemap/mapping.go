package typemap

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/enumbridge"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/host"
)

// Context wraps and unwraps class values during conversion. Backends
// provide it per call.
type Context interface {
	// Unwrap returns the native value a host object passes for m.
	Unwrap(path []string, m *Mapping, obj *host.Object) (any, error)
	// Wrap returns the host value for a native class value returned as m.
	Wrap(m *Mapping, value any) (any, error)
	// Construct converts v to the class of m through an implicit
	// converting constructor accepting from.
	Construct(path []string, m *Mapping, from *Mapping, v any) (any, error)
}

// Mapping is the resolved host representation of one C++ type spelling.
type Mapping struct {
	Default  any
	Repr     *Repr
	Type     *decl.Type
	Enum     *enumbridge.Type
	Legacy   *enumbridge.Descriptor
	CppType  string
	Class    string // qualified class for KindClass
	Args     []*Mapping
	Implicit []*Mapping // source types of implicit conversions into Class
	Scalar   decl.Scalar
	Smart    decl.SmartKind
	Nullable bool
}

// Kind returns the representation kind.
func (m *Mapping) Kind() Kind {
	return m.Repr.Kind
}

// Display returns the host-facing spelling, e.g. "list[int]" or
// "Optional[Pet]".
func (m *Mapping) Display() string {
	var s string
	switch m.Repr.Kind {
	case KindList, KindTuple, KindDict:
		parts := make([]string, len(m.Args))
		for i, a := range m.Args {
			parts[i] = a.Display()
		}
		s = m.Repr.Name + "[" + strings.Join(parts, ", ") + "]"
	default:
		s = m.Repr.Name
	}
	if m.Nullable && m.Repr.Kind != KindNone {
		return "Optional[" + s + "]"
	}
	return s
}

// IsClass reports whether values are wrapped native objects.
func (m *Mapping) IsClass() bool {
	return m.Repr.Kind == KindClass
}

// Rank scores v against the mapping. It only inspects the value's shape
// and, for containers, its elements.
func (m *Mapping) Rank(v any) Rank {
	if v == nil {
		if m.Nullable || m.Repr.Kind == KindNone {
			return RankExact
		}
		return RankNone
	}

	switch m.Repr.Kind {
	case KindBool:
		if _, ok := v.(bool); ok {
			return RankExact
		}
	case KindInt, KindLegacyEnum:
		if host.IsInt(v) {
			return RankExact
		}
		if _, ok := v.(bool); ok && m.Repr.Kind == KindInt {
			return RankConvertible
		}
	case KindFloat:
		switch {
		case isFloat(v):
			return RankExact
		case host.IsInt(v):
			return RankConvertible
		}
	case KindStr:
		if _, ok := v.(string); ok {
			return RankExact
		}
	case KindList:
		switch x := v.(type) {
		case []any:
			return m.Args[0].rankAll(RankExact, x)
		case host.Tuple:
			return m.Args[0].rankAll(RankConvertible, x)
		}
	case KindTuple:
		switch x := v.(type) {
		case host.Tuple:
			return m.rankTuple(RankExact, x)
		case []any:
			return m.rankTuple(RankConvertible, x)
		}
	case KindDict:
		if d, ok := v.(host.Dict); ok {
			r := RankExact
			for k, val := range d {
				r = minRank(r, minRank(m.Args[0].Rank(k), m.Args[1].Rank(val)))
				if r == RankNone {
					break
				}
			}
			return r
		}
	case KindClass:
		if r := m.classRank(v); r != RankNone {
			return r
		}
		for _, from := range m.Implicit {
			if from.directRank(v) != RankNone {
				return RankConvertible
			}
		}
	case KindEnum:
		if mem, ok := v.(*enumbridge.Member); ok && mem.Type() == m.Enum {
			return RankExact
		}
	}
	return RankNone
}

// classRank ranks a bound object against a class mapping by lineage.
func (m *Mapping) classRank(v any) Rank {
	o, ok := v.(*host.Object)
	if !ok {
		return RankNone
	}
	s := o.Shape()
	switch {
	case len(s.Classes) > 0 && s.Classes[0] == m.Class:
		return RankExact
	case s.Is(m.Class):
		return RankConvertible
	}
	return RankNone
}

// directRank is Rank without implicit conversions. At most one
// user-defined conversion applies to an argument.
func (m *Mapping) directRank(v any) Rank {
	if m.IsClass() {
		return m.classRank(v)
	}
	return m.Rank(v)
}

func (m *Mapping) rankAll(start Rank, items []any) Rank {
	r := start
	for _, it := range items {
		r = minRank(r, m.Rank(it))
		if r == RankNone {
			break
		}
	}
	return r
}

func (m *Mapping) rankTuple(start Rank, items []any) Rank {
	if len(items) != len(m.Args) {
		return RankNone
	}
	r := start
	for i, it := range items {
		r = minRank(r, m.Args[i].Rank(it))
	}
	return r
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

func (m *Mapping) mismatch(path []string, v any) error {
	return errors.TypeMismatch(errors.PhaseConvert, path, host.ShapeOf(v).Name, m.CppType)
}

func elemPath(path []string, i any) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, fmt.Sprintf("[%v]", i))
}

// In converts a host value into the native value passed for the type.
func (m *Mapping) In(ctx Context, path []string, v any) (any, error) {
	if v == nil {
		if m.Nullable || m.Repr.Kind == KindNone {
			return nil, nil
		}
		if m.Repr.Kind == KindClass {
			return nil, errors.NilPointer(errors.PhaseConvert, path, m.CppType)
		}
		return nil, m.mismatch(path, v)
	}

	switch m.Repr.Kind {
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindInt:
		if b, ok := v.(bool); ok {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
		return m.intIn(path, v)
	case KindLegacyEnum:
		if i, ok := host.AsInt(v); ok {
			if err := m.Legacy.Check(path, i); err != nil {
				return nil, err
			}
			return i, nil
		}
	case KindFloat:
		f, ok := toFloat(v)
		if !ok {
			break
		}
		if err := m.Scalar.FitFloat(f); err != nil {
			return nil, errors.Overflow(errors.PhaseConvert, path, v, m.CppType)
		}
		if m.Scalar.Bits == 32 {
			return float64(float32(f)), nil
		}
		return f, nil
	case KindStr:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindList:
		var items []any
		switch x := v.(type) {
		case []any:
			items = x
		case host.Tuple:
			items = x
		default:
			return nil, m.mismatch(path, v)
		}
		out := make([]any, len(items))
		for i, it := range items {
			c, err := m.Args[0].In(ctx, elemPath(path, i), it)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case KindTuple:
		var items []any
		switch x := v.(type) {
		case host.Tuple:
			items = x
		case []any:
			items = x
		default:
			return nil, m.mismatch(path, v)
		}
		if len(items) != len(m.Args) {
			return nil, errors.New(errors.PhaseConvert, errors.KindTypeMismatch).
				Path(path...).
				CppType(m.CppType).
				Detail("expected %d elements, got %d", len(m.Args), len(items)).
				Build()
		}
		out := make([]any, len(items))
		for i, it := range items {
			c, err := m.Args[i].In(ctx, elemPath(path, i), it)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case KindDict:
		d, ok := v.(host.Dict)
		if !ok {
			break
		}
		out := make(map[any]any, len(d))
		for k, val := range d {
			nk, err := m.Args[0].In(ctx, elemPath(path, k), k)
			if err != nil {
				return nil, err
			}
			nv, err := m.Args[1].In(ctx, elemPath(path, k), val)
			if err != nil {
				return nil, err
			}
			out[nk] = nv
		}
		return out, nil
	case KindClass:
		if o, ok := v.(*host.Object); ok && o.Shape().Is(m.Class) {
			return ctx.Unwrap(path, m, o)
		}
		for _, from := range m.Implicit {
			if from.directRank(v) == RankNone {
				continue
			}
			arg, err := from.In(ctx, path, v)
			if err != nil {
				return nil, err
			}
			return ctx.Construct(path, m, from, arg)
		}
	case KindEnum:
		if mem, ok := v.(*enumbridge.Member); ok {
			got, err := m.Enum.Convert(path, mem)
			if err != nil {
				return nil, err
			}
			return got.Native(), nil
		}
	}
	return nil, m.mismatch(path, v)
}

func (m *Mapping) intIn(path []string, v any) (any, error) {
	if i, ok := host.AsInt(v); ok {
		if err := m.Scalar.FitInt(i); err != nil {
			return nil, errors.Overflow(errors.PhaseConvert, path, v, m.CppType)
		}
		return i, nil
	}
	if u, ok := host.AsUint(v); ok {
		if err := m.Scalar.FitUint(u); err != nil {
			return nil, errors.Overflow(errors.PhaseConvert, path, v, m.CppType)
		}
		return u, nil
	}
	return nil, m.mismatch(path, v)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	if i, ok := host.AsInt(v); ok {
		return float64(i), true
	}
	if u, ok := host.AsUint(v); ok {
		return float64(u), true
	}
	return 0, false
}

// Out converts a native value of the type into a host value.
func (m *Mapping) Out(ctx Context, v any) (any, error) {
	if isNil(v) {
		if m.Nullable || m.Repr.Kind == KindNone {
			return nil, nil
		}
		return nil, errors.NilPointer(errors.PhaseConvert, nil, m.CppType)
	}

	switch m.Repr.Kind {
	case KindNone:
		return nil, nil
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindInt, KindLegacyEnum:
		if i, ok := host.AsInt(v); ok {
			return i, nil
		}
		if u, ok := host.AsUint(v); ok {
			return u, nil
		}
	case KindFloat:
		if f, ok := toFloat(v); ok {
			return f, nil
		}
	case KindStr:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		}
	case KindList, KindTuple:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			break
		}
		out := make([]any, rv.Len())
		for i := range out {
			elem := m.Args[0]
			if m.Repr.Kind == KindTuple {
				if i >= len(m.Args) {
					return nil, errors.InvalidData(errors.PhaseConvert, nil, "tuple longer than "+m.CppType)
				}
				elem = m.Args[i]
			}
			c, err := elem.Out(ctx, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		if m.Repr.Kind == KindTuple {
			return host.Tuple(out), nil
		}
		return out, nil
	case KindDict:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map {
			break
		}
		out := make(host.Dict, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := m.Args[0].Out(ctx, iter.Key().Interface())
			if err != nil {
				return nil, err
			}
			val, err := m.Args[1].Out(ctx, iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	case KindClass:
		return ctx.Wrap(m, v)
	case KindEnum:
		if mem, ok := v.(*enumbridge.Member); ok && mem.Type() == m.Enum {
			return mem, nil
		}
		if mem, ok := m.Enum.OfValue(v); ok {
			return mem, nil
		}
	}
	return nil, errors.New(errors.PhaseConvert, errors.KindTypeMismatch).
		CppType(m.CppType).
		Detail("native value of type %T", v).
		Build()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
