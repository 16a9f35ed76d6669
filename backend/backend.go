package backend

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/cxxbind/config"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/generator"
	"github.com/wippyai/cxxbind/native"
)

// Style names a code generation style.
type Style string

const (
	StyleLegacy   Style = config.BackendLegacy
	StyleEmbedded Style = config.BackendEmbedded
)

// Backend emits binding code for a plan and installs the plan into a
// runnable host module.
type Backend interface {
	Style() Style
	// Emit renders one fragment per top-level declaration.
	Emit(plan *generator.Plan) (*Output, error)
	// Install binds the plan against lib.
	Install(ctx context.Context, plan *generator.Plan, lib *native.Library) (*Installation, error)
}

// New returns the backend for a configured name.
func New(name string) (Backend, error) {
	switch Style(name) {
	case StyleLegacy:
		return Legacy{}, nil
	case StyleEmbedded:
		return Embedded{}, nil
	}
	return nil, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown backend %q", name))
}

// ForConfig returns the backends selected by cfg, in configured order.
func ForConfig(cfg *config.Config) ([]Backend, error) {
	out := make([]Backend, 0, len(cfg.Backends))
	for _, name := range cfg.Backends {
		b, err := New(name)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Fragment is the emitted code of one declaration.
type Fragment struct {
	Tags   map[string]string `msgpack:"tags"`
	Decl   string            `msgpack:"decl"`
	Code   string            `msgpack:"code"`
	Module string            `msgpack:"module"`
}

// Output is the emission of one backend.
type Output struct {
	Style     Style      `msgpack:"style"`
	Module    string     `msgpack:"module"`
	Fragments []Fragment `msgpack:"fragments"`
}

// Fragment returns the fragment of a qualified declaration.
func (o *Output) Fragment(decl string) (*Fragment, bool) {
	for i := range o.Fragments {
		if o.Fragments[i].Decl == decl {
			return &o.Fragments[i], true
		}
	}
	return nil, false
}

// Code concatenates every fragment in emission order.
func (o *Output) Code() string {
	var n int
	for _, f := range o.Fragments {
		n += len(f.Code) + 1
	}
	b := make([]byte, 0, n)
	for _, f := range o.Fragments {
		b = append(b, f.Code...)
		b = append(b, '\n')
	}
	return string(b)
}

// EmitAll runs every backend over the plan concurrently. The plan is only
// read.
func EmitAll(ctx context.Context, plan *generator.Plan, backends []Backend) ([]*Output, error) {
	outs := make([]*Output, len(backends))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range backends {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			out, err := b.Emit(plan)
			if err != nil {
				return err
			}
			outs[i] = out
			Logger().Debug("backend emitted",
				zap.String("style", string(b.Style())),
				zap.Int("fragments", len(out.Fragments)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outs, nil
}

// Bundle is the file written by the generate command.
type Bundle struct {
	Entries map[string]*generator.Entry `msgpack:"entries"`
	Module  string                      `msgpack:"module"`
	Symbols []string                    `msgpack:"symbols"`
	Outputs []*Output                   `msgpack:"outputs"`
}

// NewBundle collects a plan's metadata and backend outputs.
func NewBundle(plan *generator.Plan, outs []*Output) *Bundle {
	sorted := append([]*Output(nil), outs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Style < sorted[j].Style })
	return &Bundle{
		Entries: plan.Entries,
		Module:  plan.Module,
		Symbols: plan.Symbols(),
		Outputs: sorted,
	}
}

// Output returns the output of one style.
func (b *Bundle) Output(style Style) (*Output, bool) {
	for _, o := range b.Outputs {
		if o.Style == style {
			return o, true
		}
	}
	return nil, false
}

// Encode writes the bundle as msgpack.
func (b *Bundle) Encode(w io.Writer) error {
	if err := msgpack.NewEncoder(w).Encode(b); err != nil {
		return errors.Wrap(errors.PhaseEmit, errors.KindInvalidData, err, "encode bundle")
	}
	return nil
}

// DecodeBundle reads a bundle written by Encode.
func DecodeBundle(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := msgpack.NewDecoder(r).Decode(&b); err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "decode bundle")
	}
	return &b, nil
}

// WriteFile writes the bundle to path, replacing it atomically.
func (b *Bundle) WriteFile(path string) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.PhaseEmit, errors.KindInvalidInput, err, "create "+dir)
	}
	f, err := os.CreateTemp(dir, ".cxxbind-*")
	if err != nil {
		return errors.Wrap(errors.PhaseEmit, errors.KindInvalidInput, err, "create temporary file")
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if err := b.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.PhaseEmit, errors.KindInvalidInput, err, "close "+f.Name())
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return errors.Wrap(errors.PhaseEmit, errors.KindInvalidInput, err, "write "+path)
	}
	return nil
}
