package trampoline

import (
	"context"

	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/host"
	"github.com/wippyai/cxxbind/lifecycle"
	"github.com/wippyai/cxxbind/native"
	"github.com/wippyai/cxxbind/typemap"
)

// Dispatcher routes virtual calls made by native code. It implements
// native.VirtualCaller.
type Dispatcher struct {
	hierarchy *Hierarchy
	table     *Table
	lib       *native.Library
	coord     *lifecycle.Coordinator
	values    typemap.Context
}

var _ native.VirtualCaller = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher. values wraps native arguments handed
// to host overrides and unwraps their results.
func NewDispatcher(h *Hierarchy, t *Table, lib *native.Library, coord *lifecycle.Coordinator, values typemap.Context) *Dispatcher {
	return &Dispatcher{hierarchy: h, table: t, lib: lib, coord: coord, values: values}
}

// Hierarchy returns the virtual method layout.
func (d *Dispatcher) Hierarchy() *Hierarchy { return d.hierarchy }

// Table returns the binding table.
func (d *Dispatcher) Table() *Table { return d.table }

// CallVirtual dispatches a virtual call on self through a pointer to
// class: to the bound host override, else the most derived native
// implementation.
func (d *Dispatcher) CallVirtual(ctx context.Context, self any, class, key string, args []any) (any, error) {
	if b, obj, ok := d.table.Lookup(self, key); ok {
		return d.invokeHost(ctx, b, obj, args)
	}
	return d.Native(ctx, self, class, key, args)
}

// Native calls the most derived native implementation of key for the
// dynamic class of self, skipping host overrides.
func (d *Dispatcher) Native(ctx context.Context, self any, class, key string, args []any) (any, error) {
	dynamic := native.ClassOf(self, class)
	m, err := d.hierarchy.Resolve(dynamic, key)
	if err != nil {
		return nil, err
	}
	fn, ok := d.lib.Func(m.Symbol)
	if !ok {
		return nil, errors.New(errors.PhaseDispatch, errors.KindMissingSymbol).
			Decl(m.Symbol).
			Detail("no native implementation").
			Build()
	}
	return fn(ctx, self, args)
}

func (d *Dispatcher) invokeHost(ctx context.Context, b *Binding, obj *host.Object, args []any) (any, error) {
	m := b.Method
	where := m.Class + "::" + m.Key
	return d.coord.Reenter(ctx, where, func(ctx context.Context) (any, error) {
		if len(args) != len(m.Params) {
			return nil, errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
				Decl(where).
				Detail("virtual call with %d arguments, declared %d", len(args), len(m.Params)).
				Build()
		}
		hostArgs := make([]any, len(args))
		for i, a := range args {
			v, err := m.Params[i].Out(d.values, a)
			if err != nil {
				return nil, err
			}
			hostArgs[i] = v
		}

		result, err := b.Override(ctx, obj, hostArgs)
		if err != nil {
			return nil, err
		}
		if m.Result == nil {
			return nil, nil
		}
		return m.Result.In(d.values, []string{m.Name, "return"}, result)
	})
}
