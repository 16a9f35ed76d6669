package backend

import (
	"context"

	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/generator"
	"github.com/wippyai/cxxbind/host"
	"github.com/wippyai/cxxbind/lifecycle"
	"github.com/wippyai/cxxbind/native"
	"github.com/wippyai/cxxbind/overload"
	"github.com/wippyai/cxxbind/ownership"
	"github.com/wippyai/cxxbind/resource"
	"github.com/wippyai/cxxbind/trampoline"
)

// function returns the host implementation of an overload set. pc is the
// class of methods and statics, nil for module-level functions.
func (rt *runtime) function(f *generator.Function, pc *generator.Class) host.Func {
	return func(ctx context.Context, self *host.Object, args []any) (any, error) {
		cand, err := f.Set.Resolve(args)
		if err != nil {
			return nil, err
		}
		c := f.Callable(cand)
		return rt.coord.Call(ctx, c.Symbol, func(ctx context.Context, frame *lifecycle.Frame) (any, error) {
			return rt.call(ctx, frame, pc, c, cand, self, args)
		})
	}
}

// convert turns host arguments into native ones, declared defaults
// included.
func (rt *runtime) convert(vals *values, c *generator.Callable, cand *overload.Candidate, args []any) ([]any, error) {
	full := cand.Complete(args)
	out := make([]any, len(full))
	for i, a := range full {
		p := cand.All[i]
		x, err := p.Mapping.In(vals, []string{c.Decl.Name, p.Name}, a)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

func (rt *runtime) call(ctx context.Context, frame *lifecycle.Frame, pc *generator.Class, c *generator.Callable,
	cand *overload.Candidate, self *host.Object, args []any) (any, error) {
	vals := rt.callValues(ctx, frame, self)
	vals.ret = c.Return
	defer vals.drop(ctx)

	nargs, err := rt.convert(vals, c, cand, args)
	if err != nil {
		return nil, err
	}

	var receiver any
	if c.Receiver != generator.ReceiverNone {
		if self == nil {
			return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
				Decl(c.Symbol).
				Detail("method called without a receiver").
				Build()
		}
		switch c.Receiver {
		case generator.ReceiverImplicit:
			if receiver, err = self.Native(); err != nil {
				return nil, err
			}
		case generator.ReceiverFirst, generator.ReceiverSecond:
			p := c.ReceiverParam
			r, err := p.Mapping.In(vals, []string{c.Decl.Name, p.Name}, self)
			if err != nil {
				return nil, err
			}
			if c.Receiver == generator.ReceiverFirst {
				nargs = append([]any{r}, nargs...)
			} else {
				nargs = append(nargs, r)
			}
		}
	}
	if err := vals.commit(); err != nil {
		return nil, err
	}

	result, err := rt.coord.Native(ctx, c.Symbol, c.Release, func(ctx context.Context) (any, error) {
		if c.VirtualKey != "" && receiver != nil && pc != nil {
			return rt.disp.Native(ctx, receiver, pc.Cpp, c.VirtualKey, nargs)
		}
		fn, ok := rt.lib.Func(c.Symbol)
		if !ok {
			return nil, errors.New(errors.PhaseRuntime, errors.KindMissingSymbol).
				Decl(c.Symbol).
				Detail("no native implementation").
				Build()
		}
		return fn(ctx, receiver, nargs)
	})
	if err != nil {
		return nil, err
	}
	if c.Return.Wrapper == ownership.WrapNone {
		return nil, nil
	}
	return c.Result.Out(vals, result)
}

// constructor returns the host constructor of a class. Instances of host
// subclasses get their overrides bound to the new native object.
func (rt *runtime) constructor(pc *generator.Class) host.Constructor {
	f := pc.Constructors
	return func(ctx context.Context, cls *host.Class, args []any) (*host.Object, error) {
		cand, err := f.Set.Resolve(args)
		if err != nil {
			return nil, err
		}
		c := f.Callable(cand)
		out, err := rt.coord.Call(ctx, c.Symbol, func(ctx context.Context, frame *lifecycle.Frame) (any, error) {
			vals := rt.callValues(ctx, frame, nil)
			defer vals.drop(ctx)

			nargs, err := rt.convert(vals, c, cand, args)
			if err != nil {
				return nil, err
			}
			if err := vals.commit(); err != nil {
				return nil, err
			}
			value, err := rt.coord.Native(ctx, c.Symbol, c.Release, func(ctx context.Context) (any, error) {
				fn, ok := rt.lib.Func(c.Symbol)
				if !ok {
					return nil, errors.NotFound(errors.PhaseRuntime, "constructor", c.Symbol)
				}
				return fn(ctx, nil, nargs)
			})
			if err != nil {
				return nil, err
			}

			h, err := rt.arena.Own(pc.Cpp, value, rt.destructor(pc.Cpp))
			if err != nil {
				return nil, err
			}
			obj := host.NewObject(cls, rt.arena, h)
			frame.OnError(func(ctx context.Context) { _ = obj.Release(ctx) })

			if cls.HostDefined() {
				if err := rt.bindOverrides(cls, obj, value); err != nil {
					return nil, err
				}
			}
			rt.remember(value, obj)
			return obj, nil
		})
		if err != nil {
			return nil, err
		}
		return out.(*host.Object), nil
	}
}

func (rt *runtime) bindOverrides(cls *host.Class, obj *host.Object, value any) error {
	bindings := trampoline.Overrides(rt.plan.Hierarchy, cls)
	if len(bindings) == 0 {
		return nil
	}
	key, ok := identity(value)
	if !ok {
		return errors.New(errors.PhaseDispatch, errors.KindUnsupported).
			Decl(cls.Name()).
			Detail("native object of %T has no identity to bind overrides to", value).
			Build()
	}
	_, err := rt.table.Bind(key, obj, bindings)
	return err
}

// property returns the accessors of a field. Class fields are returned as
// views that re-read the field on every access.
func (rt *runtime) property(pc *generator.Class, f *generator.Field) *host.Property {
	get, set, _ := rt.lib.Field(f.Symbol)
	ret := f.Return
	switch f.Mapping.Smart {
	case decl.SmartNone:
	case decl.SmartUnique:
		// The field keeps ownership.
		ret.Wrapper = ownership.WrapReference
	default:
		ret.Wrapper = ownership.WrapShared
	}

	p := &host.Property{
		Get: func(ctx context.Context, self *host.Object) (any, error) {
			return rt.coord.Call(ctx, f.Symbol, func(ctx context.Context, frame *lifecycle.Frame) (any, error) {
				owner, err := self.Native()
				if err != nil {
					return nil, err
				}
				value, err := rt.coord.Native(ctx, f.Symbol, false, func(ctx context.Context) (any, error) {
					return get(ctx, owner)
				})
				if err != nil {
					return nil, err
				}
				vals := rt.callValues(ctx, frame, self)
				vals.ret = ret
				if ret.Wrapper == ownership.WrapView {
					vals.resolve = fieldResolver(get)
				}
				return f.Mapping.Out(vals, value)
			})
		},
	}
	if f.Readonly || set == nil {
		return p
	}
	p.Set = func(ctx context.Context, self *host.Object, v any) error {
		_, err := rt.coord.Call(ctx, f.Symbol, func(ctx context.Context, frame *lifecycle.Frame) (any, error) {
			owner, err := self.Native()
			if err != nil {
				return nil, err
			}
			vals := rt.callValues(ctx, frame, self)
			defer vals.drop(ctx)
			x, err := f.Mapping.In(vals, []string{pc.Name, f.Name}, v)
			if err != nil {
				return nil, err
			}
			if err := vals.commit(); err != nil {
				return nil, err
			}
			return rt.coord.Native(ctx, f.Symbol, false, func(ctx context.Context) (any, error) {
				return nil, set(ctx, owner, x)
			})
		})
		return err
	}
	return p
}

// fieldResolver re-reads a field from the owner's current value.
func fieldResolver(get native.Getter) resource.Resolver {
	return func(owner any) (any, error) {
		return get(context.Background(), owner)
	}
}
