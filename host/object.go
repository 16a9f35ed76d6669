package host

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/resource"
)

type identity struct {
	class  *Class
	arena  *resource.Arena
	attrs  map[string]any
	handle resource.Handle
	mu     sync.RWMutex
}

// Object is one host reference to a wrapped native object.
type Object struct {
	id       *identity
	released atomic.Bool
}

// NewObject wraps the arena slot h as an instance of cls. The caller's
// slot reference is transferred to the object.
func NewObject(cls *Class, arena *resource.Arena, h resource.Handle) *Object {
	return &Object{id: &identity{
		class:  cls,
		arena:  arena,
		handle: h,
		attrs:  make(map[string]any),
	}}
}

// Class returns the object's class.
func (o *Object) Class() *Class { return o.id.class }

// Handle returns the arena slot.
func (o *Object) Handle() resource.Handle { return o.id.handle }

// Arena returns the arena holding the slot.
func (o *Object) Arena() *resource.Arena { return o.id.arena }

// Is reports whether o and other share one host identity.
func (o *Object) Is(other *Object) bool {
	return other != nil && o.id == other.id
}

// Released reports whether this reference was released.
func (o *Object) Released() bool {
	return o.released.Load()
}

// Native returns the current native value. Borrowed views re-resolve the
// value from their owner on every call.
func (o *Object) Native() (any, error) {
	if o.released.Load() {
		return nil, errors.Released(o.id.class.name)
	}
	v, err := o.id.arena.Get(o.id.handle)
	switch {
	case err == nil:
		return v, nil
	case stderrors.Is(err, resource.ErrMoved):
		return nil, errors.Moved(o.id.class.name)
	default:
		return nil, errors.Released(o.id.class.name)
	}
}

// Dup creates another host reference to the same object.
func (o *Object) Dup() (*Object, error) {
	if o.released.Load() {
		return nil, errors.Released(o.id.class.name)
	}
	if err := o.id.arena.Retain(o.id.handle); err != nil {
		return nil, errors.Released(o.id.class.name)
	}
	return &Object{id: o.id}, nil
}

// Reacquire creates another reference to the object's identity. Unlike
// Dup it succeeds after o itself was released, as long as another
// reference keeps the slot alive.
func (o *Object) Reacquire() (*Object, error) {
	if err := o.id.arena.Retain(o.id.handle); err != nil {
		return nil, errors.Released(o.id.class.name)
	}
	return &Object{id: o.id}, nil
}

// Release drops this reference. The native object is destroyed when it was
// the last reference to an owning slot. Releasing twice is a no-op.
func (o *Object) Release(ctx context.Context) error {
	if !o.released.CompareAndSwap(false, true) {
		return nil
	}
	ctx, done, err := o.id.class.token.Enter(ctx)
	if err != nil {
		return err
	}
	defer done()

	_, err = o.id.arena.Release(ctx, o.id.handle)
	if stderrors.Is(err, resource.ErrInvalidHandle) {
		return nil
	}
	return err
}

// Call invokes a method. Host overrides take precedence over the bound
// native implementation.
func (o *Object) Call(ctx context.Context, name string, args ...any) (any, error) {
	fn, _, ok := o.id.class.Method(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseRuntime, "method", o.id.class.name+"."+name)
	}
	return o.invoke(ctx, fn, args)
}

// CallFrom invokes name as defined on from or its bases, skipping more
// derived overrides. Host subclasses use it to call the base
// implementation.
func (o *Object) CallFrom(ctx context.Context, from *Class, name string, args ...any) (any, error) {
	fn, _, ok := from.Method(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseRuntime, "method", from.name+"."+name)
	}
	return o.invoke(ctx, fn, args)
}

func (o *Object) invoke(ctx context.Context, fn Func, args []any) (any, error) {
	if o.released.Load() {
		return nil, errors.Released(o.id.class.name)
	}
	ctx, done, err := o.id.class.token.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return fn(ctx, o, args)
}

// Get reads an attribute: a property, an instance attribute or a class
// attribute.
func (o *Object) Get(ctx context.Context, name string) (any, error) {
	if p, ok := o.id.class.property(name); ok {
		if o.released.Load() {
			return nil, errors.Released(o.id.class.name)
		}
		ctx, done, err := o.id.class.token.Enter(ctx)
		if err != nil {
			return nil, err
		}
		defer done()
		return p.Get(ctx, o)
	}

	o.id.mu.RLock()
	v, ok := o.id.attrs[name]
	o.id.mu.RUnlock()
	if ok {
		return v, nil
	}
	if v, ok := o.id.class.Attr(name); ok {
		return v, nil
	}
	return nil, errors.NotFound(errors.PhaseRuntime, "attribute", o.id.class.name+"."+name)
}

// Set writes an attribute. Properties without a setter are read-only.
func (o *Object) Set(ctx context.Context, name string, v any) error {
	if p, ok := o.id.class.property(name); ok {
		if p.Set == nil {
			return errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
				Decl(o.id.class.name).
				Detail("attribute %s is read-only", name).
				Build()
		}
		if o.released.Load() {
			return errors.Released(o.id.class.name)
		}
		ctx, done, err := o.id.class.token.Enter(ctx)
		if err != nil {
			return err
		}
		defer done()
		return p.Set(ctx, o, v)
	}

	o.id.mu.Lock()
	o.id.attrs[name] = v
	o.id.mu.Unlock()
	return nil
}

// Reduce returns the class and constructor arguments that recreate the
// object, for host serialization.
func (o *Object) Reduce(ctx context.Context) (*Class, []any, error) {
	fn := o.id.class.reduce()
	if fn == nil {
		return nil, nil, errors.Unsupported(errors.PhaseRuntime, "serialization of "+o.id.class.name)
	}
	if o.released.Load() {
		return nil, nil, errors.Released(o.id.class.name)
	}
	ctx, done, err := o.id.class.token.Enter(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer done()

	args, err := fn(ctx, o)
	if err != nil {
		return nil, nil, err
	}
	return o.id.class, args, nil
}

// Shape implements Shaped.
func (o *Object) Shape() Shape {
	return Shape{
		Name:    o.id.class.name,
		Module:  o.id.class.module,
		Classes: o.id.class.Lineage(),
	}
}
