package runtime

import (
	"context"
	"strings"

	"github.com/wippyai/cxxbind/backend"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/host"
	"github.com/wippyai/cxxbind/native"
)

type Instance struct {
	module *Module
	inst   *backend.Installation
	lib    *native.Library
}

// Call invokes a module function, or a static method named "Class.name".
func (i *Instance) Call(ctx context.Context, name string, args ...any) (any, error) {
	if i.inst == nil {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "instance not installed")
	}
	mod := i.inst.Module()
	class, method, ok := strings.Cut(name, ".")
	if !ok {
		return mod.Call(ctx, name, args...)
	}
	c, found := mod.Class(class)
	if !found {
		return nil, errors.NotFound(errors.PhaseRuntime, "class", class)
	}
	return c.CallStatic(ctx, method, args...)
}

// New constructs an instance of a bound class.
func (i *Instance) New(ctx context.Context, class string, args ...any) (*host.Object, error) {
	if i.inst == nil {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "instance not installed")
	}
	c, ok := i.inst.Module().Class(class)
	if !ok {
		return nil, errors.NotFound(errors.PhaseRuntime, "class", class)
	}
	return c.New(ctx, args...)
}

// Module returns the host module.
func (i *Instance) Module() *host.Module {
	return i.inst.Module()
}

func (i *Instance) Installation() *backend.Installation {
	return i.inst
}

// Library returns the native library the instance is bound to.
func (i *Instance) Library() *native.Library {
	return i.lib
}

// Close destroys every native object the host still owns.
func (i *Instance) Close(ctx context.Context) error {
	return i.inst.Close(ctx)
}
