package lifecycle

import (
	"context"

	"go.uber.org/zap"
)

// Frame collects undo actions for one host call. When the call fails they
// run in reverse registration order, so partially created wrappers and
// native objects are released before the error reaches the host.
type Frame struct {
	undo []func(ctx context.Context)
}

// OnError registers fn to run if the call fails.
func (f *Frame) OnError(fn func(ctx context.Context)) {
	f.undo = append(f.undo, fn)
}

func (f *Frame) unwind(ctx context.Context) {
	for i := len(f.undo) - 1; i >= 0; i-- {
		f.undo[i](ctx)
	}
	f.undo = nil
}

// Coordinator owns the execution token and exception translator of an
// installed module.
type Coordinator struct {
	token      *Token
	translator *Translator
}

// NewCoordinator creates a coordinator. A nil translator uses the
// standard exception hierarchy only.
func NewCoordinator(token *Token, tr *Translator) *Coordinator {
	if tr == nil {
		tr = NewTranslator()
	}
	return &Coordinator{token: token, translator: tr}
}

// Token returns the execution token.
func (c *Coordinator) Token() *Token {
	return c.token
}

// Translator returns the exception translator.
func (c *Coordinator) Translator() *Translator {
	return c.translator
}

// Call runs one host-to-native call. fn converts arguments, invokes native
// code through Native and wraps the result; undo actions registered on the
// frame run if it fails.
func (c *Coordinator) Call(ctx context.Context, where string, fn func(ctx context.Context, f *Frame) (any, error)) (result any, err error) {
	f := &Frame{}
	defer func() {
		if r := recover(); r != nil {
			err = c.translator.FromPanic(where, r)
			result = nil
		}
		if err != nil {
			f.unwind(ctx)
		}
	}()
	return fn(ctx, f)
}

// Native invokes native code. With release set, the caller's token hold is
// suspended for the duration. Native errors and panics are translated.
func (c *Coordinator) Native(ctx context.Context, where string, release bool, fn func(ctx context.Context) (any, error)) (result any, err error) {
	if release {
		resume := c.token.Suspend(ctx)
		defer resume()
	}
	defer func() {
		if r := recover(); r != nil {
			err = c.translator.FromPanic(where, r)
			result = nil
		}
	}()

	result, err = fn(ctx)
	if err != nil {
		return nil, c.translator.FromNative(where, err)
	}
	return result, nil
}

// Reenter runs a host override invoked from native code. The token is
// reacquired if native code had released it, and a host error is turned
// into a native exception carrying it.
func (c *Coordinator) Reenter(ctx context.Context, where string, fn func(ctx context.Context) (any, error)) (any, error) {
	ctx, done, err := c.token.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	result, err := fn(ctx)
	if err != nil {
		return nil, c.translator.ToNative(err)
	}
	return result, nil
}

// Destroy runs a native destructor for an object released by the host.
// The caller's token hold is released first, then dtor runs, the hold is
// restored, and finally unbind releases the object's trampoline bindings.
func (c *Coordinator) Destroy(ctx context.Context, class string, dtor func(ctx context.Context) error, unbind func()) error {
	Logger().Debug("destroying native object",
		zap.String("class", class),
		zap.String("token", c.token.Name()))

	resume := c.token.Suspend(ctx)
	_, err := c.Native(ctx, "~"+class, false, func(ctx context.Context) (any, error) {
		if dtor == nil {
			return nil, nil
		}
		return nil, dtor(ctx)
	})
	resume()

	if unbind != nil {
		unbind()
	}
	if err != nil {
		Logger().Warn("native destructor failed", zap.String("class", class), zap.Error(err))
	}
	return err
}
