package backend

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/host"
	"github.com/wippyai/cxxbind/lifecycle"
	"github.com/wippyai/cxxbind/native"
	"github.com/wippyai/cxxbind/overload"
	"github.com/wippyai/cxxbind/ownership"
	"github.com/wippyai/cxxbind/resource"
	"github.com/wippyai/cxxbind/typemap"
)

// values is the conversion context of one call. It implements
// typemap.Context.
type values struct {
	rt    *runtime
	ctx   context.Context
	frame *lifecycle.Frame
	// owner is the receiver borrowed views keep alive.
	owner *host.Object
	// resolve re-reads a field view from its owner.
	resolve resource.Resolver
	ret     ownership.ReturnPlan
	moves   []resource.Handle
	temps   []*host.Object
}

var _ typemap.Context = (*values)(nil)

// callValues returns the context of one call. Without a frame, as for
// arguments handed to host overrides, moves take effect immediately and
// temporaries are not tracked.
func (rt *runtime) callValues(ctx context.Context, frame *lifecycle.Frame, owner *host.Object) *values {
	return &values{rt: rt, ctx: ctx, frame: frame, owner: owner}
}

func (v *values) mismatch(path []string, m *typemap.Mapping, obj *host.Object, detail string) error {
	return errors.New(errors.PhaseConvert, errors.KindTypeMismatch).
		Path(path...).
		HostType(obj.Class().Name()).
		CppType(m.CppType).
		Detail("%s", detail).
		Build()
}

// Unwrap implements typemap.Context.
func (v *values) Unwrap(path []string, m *typemap.Mapping, obj *host.Object) (any, error) {
	if obj.Arena() != v.rt.arena {
		return nil, v.mismatch(path, m, obj, "object belongs to another module")
	}

	switch {
	case (m.Smart == decl.SmartUnique && m.Type.Ref != decl.RefLValue) ||
		(m.Smart == decl.SmartNone && m.Type.Ref == decl.RefRValue):
		mode, ok := v.rt.arena.Mode(obj.Handle())
		if !ok || obj.Released() {
			return nil, errors.Released(obj.Class().Name())
		}
		switch mode {
		case resource.ModeMoved:
			return nil, errors.Moved(obj.Class().Name())
		case resource.ModeOwned:
		default:
			return nil, v.mismatch(path, m, obj, "only objects owned by the host can be moved")
		}
		if v.frame == nil {
			value, err := v.rt.arena.Move(obj.Handle())
			if err != nil {
				return nil, v.mismatch(path, m, obj, err.Error())
			}
			return value, nil
		}
		v.moves = append(v.moves, obj.Handle())
		return obj.Native()

	case m.Smart == decl.SmartShared || m.Smart == decl.SmartWeak:
		if obj.Released() {
			return nil, errors.Released(obj.Class().Name())
		}
		block, ok := v.rt.sharedBlock(obj.Handle())
		if !ok {
			return nil, v.mismatch(path, m, obj, "object is not held by shared ownership")
		}
		// The block is lent for the call. A callee keeping it takes its
		// own reference.
		return block, nil
	}
	return obj.Native()
}

// commit moves the arguments passed to OwnedUnique parameters. Wrappers
// are left moved-out only once conversion of every argument succeeded.
func (v *values) commit() error {
	for _, h := range v.moves {
		if _, err := v.rt.arena.Move(h); err != nil {
			class, _ := v.rt.arena.Class(h)
			if stderrors.Is(err, resource.ErrMoved) {
				return errors.Moved(class)
			}
			return errors.New(errors.PhaseConvert, errors.KindTypeMismatch).
				CppType(class).
				Detail("cannot transfer ownership: %v", err).
				Build()
		}
	}
	v.moves = nil
	return nil
}

// drop destroys the temporaries created by implicit conversions.
func (v *values) drop(ctx context.Context) {
	for i := len(v.temps) - 1; i >= 0; i-- {
		if err := v.temps[i].Release(ctx); err != nil {
			v.rt.log.Warn("temporary release failed", zap.Error(err))
		}
	}
	v.temps = nil
}

// wrapper returns how a class value is wrapped: the planned wrapper of the
// result, else the default implied by the type.
func (v *values) wrapper(m *typemap.Mapping) ownership.Wrapper {
	switch v.ret.Wrapper {
	case ownership.WrapNone, ownership.WrapCopy:
	default:
		return v.ret.Wrapper
	}
	switch {
	case m.Smart == decl.SmartUnique:
		return ownership.WrapOwning
	case m.Smart == decl.SmartShared || m.Smart == decl.SmartWeak:
		return ownership.WrapShared
	case m.Type.IsPointer() || m.Type.Ref == decl.RefLValue:
		return ownership.WrapReference
	}
	return ownership.WrapOwning
}

// Wrap implements typemap.Context.
func (v *values) Wrap(m *typemap.Mapping, value any) (any, error) {
	rt := v.rt
	static := m.Class

	var (
		h   resource.Handle
		err error
		cls *host.Class
	)
	switch w := v.wrapper(m); w {
	case ownership.WrapShared:
		block, ok := value.(*native.Shared)
		if !ok {
			block = native.NewShared(value)
		}
		cls = rt.hostClass(static, block.Pointee())
		if h, err = rt.arena.Share(static, block, rt.destructor(static)); err != nil {
			return nil, err
		}
		// The arena holds its own reference now; drop the one returned.
		block.DecRef()
		rt.mu.Lock()
		rt.blocks[h] = block
		rt.mu.Unlock()
		value = block.Pointee()

	case ownership.WrapView:
		if v.owner == nil {
			return v.reference(static, value)
		}
		resolve := v.resolve
		if resolve == nil {
			resolve = func(any) (any, error) { return value, nil }
		}
		cls = rt.hostClass(static, value)
		if h, err = rt.arena.View(static, v.owner.Handle(), resolve); err != nil {
			return nil, errors.Released(v.owner.Class().Name())
		}
		obj := host.NewObject(cls, rt.arena, h)
		v.undo(obj)
		return obj, nil

	case ownership.WrapReference:
		return v.reference(static, value)

	default:
		cls = rt.hostClass(static, value)
		if h, err = rt.arena.Own(static, value, rt.destructor(static)); err != nil {
			return nil, err
		}
	}

	if cls == nil {
		return nil, errors.NotFound(errors.PhaseConvert, "class", static)
	}
	obj := host.NewObject(cls, rt.arena, h)
	rt.remember(value, obj)
	v.undo(obj)
	return obj, nil
}

// reference wraps a value owned elsewhere, reusing the host identity of an
// object that is already wrapped.
func (v *values) reference(static string, value any) (any, error) {
	rt := v.rt
	if block, ok := value.(*native.Shared); ok {
		value = block.Pointee()
	}
	if obj, ok := rt.existing(value); ok {
		v.undo(obj)
		return obj, nil
	}
	cls := rt.hostClass(static, value)
	if cls == nil {
		return nil, errors.NotFound(errors.PhaseConvert, "class", static)
	}
	h, err := rt.arena.Reference(static, value)
	if err != nil {
		return nil, err
	}
	obj := host.NewObject(cls, rt.arena, h)
	rt.remember(value, obj)
	v.undo(obj)
	return obj, nil
}

func (v *values) undo(obj *host.Object) {
	if v.frame == nil {
		return
	}
	v.frame.OnError(func(ctx context.Context) {
		_ = obj.Release(ctx)
	})
}

// Construct implements typemap.Context. It runs the converting
// constructor of m's class whose single parameter accepts from.
func (v *values) Construct(path []string, m *typemap.Mapping, from *typemap.Mapping, arg any) (any, error) {
	rt := v.rt
	pc, ok := rt.plans[m.Class]
	if !ok || pc.Constructors == nil {
		return nil, errors.NotFound(errors.PhaseConvert, "converting constructor", m.Class)
	}

	var chosen *overload.Candidate
	for _, cand := range pc.Constructors.Set.Candidates() {
		if len(cand.Params) != 1 {
			continue
		}
		if cand.Params[0].Mapping.Repr == from.Repr {
			chosen = cand
			break
		}
		if chosen == nil && cand.Params[0].Mapping.Rank(arg) != typemap.RankNone {
			chosen = cand
		}
	}
	if chosen == nil {
		return nil, errors.New(errors.PhaseConvert, errors.KindTypeMismatch).
			Path(path...).
			CppType(m.CppType).
			Detail("no converting constructor from %s", from.CppType).
			Build()
	}
	c := pc.Constructors.Callable(chosen)
	fn, ok := rt.lib.Func(c.Symbol)
	if !ok {
		return nil, errors.NewMissingSymbolsError([]string{pc.Cpp + "#" + c.Symbol})
	}

	args := []any{arg}
	for i, d := range chosen.Defaults {
		p := chosen.All[1+i]
		x, err := p.Mapping.In(v, append(append([]string(nil), path...), p.Name), d)
		if err != nil {
			return nil, err
		}
		args = append(args, x)
	}
	value, err := rt.coord.Native(v.ctx, c.Symbol, false, func(ctx context.Context) (any, error) {
		return fn(ctx, nil, args)
	})
	if err != nil {
		return nil, err
	}
	if v.frame == nil {
		return value, nil
	}
	h, err := rt.arena.Own(pc.Cpp, value, rt.destructor(pc.Cpp))
	if err != nil {
		return nil, err
	}
	v.temps = append(v.temps, host.NewObject(rt.classes[pc.Cpp], rt.arena, h))
	return value, nil
}
