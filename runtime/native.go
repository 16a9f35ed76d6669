package runtime

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/generator"
	"github.com/wippyai/cxxbind/native"
)

// Class is implemented by Go types registered as native classes.
// Exported methods (except Scope and Register) become members of the
// class: GetValue binds the declaration named get_value.
type Class interface {
	// Scope returns the qualified C++ class name (e.g. "geo::Shape").
	Scope() string
}

// ExplicitRegistrar lets a class name its members exactly, by symbol
// relative to its scope ("area() const", "scale(double)") or by member
// name when it is not overloaded. Handlers take the receiver first.
type ExplicitRegistrar interface {
	Register() map[string]any
}

// NativeRegistry collects Go implementations of declared symbols and
// binds them into a native.Library.
type NativeRegistry struct {
	// funcs is keyed by full symbol, e.g. "geo::Shape::area() const".
	funcs map[string]*NativeFunc
	// byName is keyed by qualified member name, e.g. "geo::Shape::area".
	byName map[string]*NativeFunc
	fields map[string]*nativeField
	dtors  map[string]native.Destructor
	mu     sync.RWMutex
}

// NativeFunc is one registered implementation.
type NativeFunc struct {
	Handler any
	// Method handlers take the receiver as first parameter.
	Method bool
}

type nativeField struct {
	get native.Getter
	set native.Setter
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

func NewNativeRegistry() *NativeRegistry {
	return &NativeRegistry{
		funcs:  make(map[string]*NativeFunc),
		byName: make(map[string]*NativeFunc),
		fields: make(map[string]*nativeField),
		dtors:  make(map[string]native.Destructor),
	}
}

// RegisterClass registers the methods of c as members of c.Scope().
func (r *NativeRegistry) RegisterClass(c Class) error {
	scope := c.Scope()
	if scope == "" {
		return errors.InvalidInput(errors.PhaseInstall, "class scope cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if er, ok := c.(ExplicitRegistrar); ok {
		for member, handler := range er.Register() {
			if err := checkHandler(handler); err != nil {
				return err
			}
			nf := &NativeFunc{Handler: handler, Method: true}
			if strings.Contains(member, "(") {
				r.funcs[scope+"::"+member] = nf
			} else {
				r.byName[scope+"::"+member] = nf
			}
		}
		return nil
	}

	rt := reflect.TypeOf(c)
	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)
		if !method.IsExported() || method.Name == "Scope" || method.Name == "Register" {
			continue
		}
		// method.Func takes the receiver as first parameter.
		r.byName[scope+"::"+toSnakeCase(method.Name)] = &NativeFunc{
			Handler: method.Func.Interface(),
			Method:  true,
		}
	}
	return nil
}

// RegisterFunc registers a free function, static member or constructor by
// full symbol, e.g. "geo::Circle::Circle(double)".
func (r *NativeRegistry) RegisterFunc(symbol string, fn any) error {
	return r.register(symbol, fn, false)
}

// RegisterMethod registers a member function by full symbol. fn takes the
// receiver as first parameter.
func (r *NativeRegistry) RegisterMethod(symbol string, fn any) error {
	return r.register(symbol, fn, true)
}

func (r *NativeRegistry) register(symbol string, fn any, method bool) error {
	if symbol == "" {
		return errors.InvalidInput(errors.PhaseInstall, "symbol cannot be empty")
	}
	if err := checkHandler(fn); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[symbol] = &NativeFunc{Handler: fn, Method: method}
	return nil
}

// RegisterField registers the accessors of a data member. get has the
// form func(*T) V; set, which may be nil, func(*T, V).
func (r *NativeRegistry) RegisterField(qualified string, get, set any) error {
	g, err := adapt(get, true)
	if err != nil {
		return err
	}
	f := &nativeField{get: func(ctx context.Context, self any) (any, error) {
		return g(ctx, self, nil)
	}}
	if set != nil {
		s, err := adapt(set, true)
		if err != nil {
			return err
		}
		f.set = func(ctx context.Context, self any, v any) error {
			_, err := s(ctx, self, []any{v})
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields[qualified] = f
	return nil
}

// RegisterDestructor registers the destructor of a class. fn has the form
// func(*T) or func(*T) error.
func (r *NativeRegistry) RegisterDestructor(class string, fn any) error {
	d, err := adapt(fn, true)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dtors[class] = func(ctx context.Context, self any) error {
		_, err := d(ctx, self, nil)
		return err
	}
	return nil
}

// Bind defines every symbol the plan requires that the library lacks.
// Symbols without a registered implementation are left for Install to
// report.
func (r *NativeRegistry) Bind(lib *native.Library, plan *generator.Plan) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for class, d := range r.dtors {
		lib.DefineDestructor(class, d)
	}
	for _, key := range plan.Symbols() {
		_, symbol, _ := strings.Cut(key, "#")
		if lib.Has(symbol) {
			continue
		}
		if f, ok := r.fields[symbol]; ok {
			lib.DefineField(symbol, f.get, f.set)
			continue
		}
		nf, ok := r.funcs[symbol]
		if !ok {
			qualified, _, _ := strings.Cut(symbol, "(")
			if nf, ok = r.byName[qualified]; !ok {
				continue
			}
		}
		fn, err := adapt(nf.Handler, nf.Method)
		if err != nil {
			return errors.Wrap(errors.PhaseInstall, errors.KindInvalidInput, err, "bind "+symbol)
		}
		lib.Define(symbol, fn)
	}
	return nil
}

func checkHandler(fn any) error {
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return errors.New(errors.PhaseInstall, errors.KindTypeMismatch).
			Detail("handler must be a function, got %T", fn).
			Build()
	}
	return nil
}

// adapt wraps a typed Go function as a native.Func. An optional leading
// context.Context receives the call context; method handlers take the
// receiver next. Results may be (), (V), (error) or (V, error).
func adapt(fn any, method bool) (native.Func, error) {
	if err := checkHandler(fn); err != nil {
		return nil, err
	}
	fv := reflect.ValueOf(fn)
	ft := fv.Type()

	in := 0
	withCtx := ft.NumIn() > 0 && ft.In(0) == contextType
	if withCtx {
		in++
	}
	if method {
		if ft.NumIn() <= in {
			return nil, errors.InvalidInput(errors.PhaseInstall, "method handler "+ft.String()+" takes no receiver")
		}
		in++
	}
	if ft.IsVariadic() {
		return nil, errors.InvalidInput(errors.PhaseInstall, "variadic handler "+ft.String())
	}
	switch ft.NumOut() {
	case 0, 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, errors.InvalidInput(errors.PhaseInstall, "second result of "+ft.String()+" must be error")
		}
	default:
		return nil, errors.InvalidInput(errors.PhaseInstall, "handler "+ft.String()+" returns too many values")
	}
	nparams := ft.NumIn() - in

	return func(ctx context.Context, self any, args []any) (any, error) {
		if len(args) != nparams {
			return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
				Detail("%s called with %d arguments, takes %d", ft, len(args), nparams).
				Build()
		}
		call := make([]reflect.Value, 0, ft.NumIn())
		if withCtx {
			call = append(call, reflect.ValueOf(ctx))
		}
		if method {
			rv, err := coerce(self, ft.In(len(call)))
			if err != nil {
				return nil, err
			}
			call = append(call, rv)
		}
		for _, a := range args {
			rv, err := coerce(a, ft.In(len(call)))
			if err != nil {
				return nil, err
			}
			call = append(call, rv)
		}

		out := fv.Call(call)
		switch len(out) {
		case 0:
			return nil, nil
		case 1:
			if ft.Out(0) == errorType {
				err, _ := out[0].Interface().(error)
				return nil, err
			}
			return out[0].Interface(), nil
		}
		err, _ := out[1].Interface().(error)
		return out[0].Interface(), err
	}, nil
}

// coerce converts a native argument to the parameter type t. Integers are
// range checked.
func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, mismatch(v, t)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	switch {
	case isInt(rv.Kind()) && isInt(t.Kind()):
		out := reflect.New(t).Elem()
		if rv.CanInt() {
			i := rv.Int()
			if isUint(t.Kind()) {
				if i < 0 || out.OverflowUint(uint64(i)) {
					return reflect.Value{}, mismatch(v, t)
				}
				out.SetUint(uint64(i))
				return out, nil
			}
			if out.OverflowInt(i) {
				return reflect.Value{}, mismatch(v, t)
			}
			out.SetInt(i)
			return out, nil
		}
		u := rv.Uint()
		if isUint(t.Kind()) {
			if out.OverflowUint(u) {
				return reflect.Value{}, mismatch(v, t)
			}
			out.SetUint(u)
			return out, nil
		}
		if u > 1<<63-1 || out.OverflowInt(int64(u)) {
			return reflect.Value{}, mismatch(v, t)
		}
		out.SetInt(int64(u))
		return out, nil

	case (isInt(rv.Kind()) || isFloat(rv.Kind())) && isFloat(t.Kind()):
		return rv.Convert(t), nil

	case rv.Kind() == reflect.String && t.Kind() == reflect.String:
		return rv.Convert(t), nil

	case rv.Kind() == reflect.Slice && t.Kind() == reflect.Slice:
		out := reflect.MakeSlice(t, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			e, err := coerce(rv.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(e)
		}
		return out, nil
	}
	return reflect.Value{}, mismatch(v, t)
}

func mismatch(v any, t reflect.Type) error {
	return errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
		Detail("cannot pass %T as %s", v, t).
		Build()
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Uintptr
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// toSnakeCase converts PascalCase to snake_case.
// Handles acronyms: GetHTTPURL -> get_http_url
func toSnakeCase(s string) string {
	if len(s) == 0 {
		return ""
	}

	runes := []rune(s)
	var result strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if unicode.IsUpper(r) {
			acronymEnd := i + 1
			for acronymEnd < len(runes) && unicode.IsUpper(runes[acronymEnd]) {
				acronymEnd++
			}

			if acronymEnd > i+1 {
				// Last uppercase before lowercase starts next word, not part of acronym
				if acronymEnd < len(runes) && unicode.IsLower(runes[acronymEnd]) {
					acronymEnd--
				}
			}

			if i > 0 {
				result.WriteByte('_')
			}

			for j := i; j < acronymEnd; j++ {
				result.WriteRune(unicode.ToLower(runes[j]))
			}
			i = acronymEnd - 1
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
