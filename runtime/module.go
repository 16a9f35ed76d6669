package runtime

import (
	"context"
	"sort"

	"github.com/wippyai/cxxbind/backend"
	"github.com/wippyai/cxxbind/config"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/generator"
	"github.com/wippyai/cxxbind/native"
)

type Module struct {
	runtime *Runtime
	session *generator.Session
	plan    *generator.Plan
	cfg     *config.Config
}

// Plan returns the generated plan. It is read-only.
func (m *Module) Plan() *generator.Plan {
	return m.plan
}

// Name returns the host module name.
func (m *Module) Name() string {
	return m.plan.Module
}

type Export struct {
	Name string
	Kind string // "class", "function", "enum" or "exception"
}

// Exports lists the names the main module binds, sorted.
func (m *Module) Exports() []Export {
	var out []Export
	for _, c := range m.plan.Classes {
		out = append(out, Export{Name: c.Name, Kind: "class"})
	}
	for _, f := range m.plan.Functions {
		out = append(out, Export{Name: f.Name, Kind: "function"})
	}
	for _, e := range m.plan.Enums {
		if e.Class == "" {
			out = append(out, Export{Name: e.Descriptor.HostName, Kind: "enum"})
		}
	}
	for _, e := range m.plan.Exceptions {
		out = append(out, Export{Name: e.Name, Kind: "exception"})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Emit runs the configured backends and collects their output.
func (m *Module) Emit(ctx context.Context) (*backend.Bundle, error) {
	backends, err := backend.ForConfig(m.cfg)
	if err != nil {
		return nil, err
	}
	outs, err := backend.EmitAll(ctx, m.plan, backends)
	if err != nil {
		return nil, err
	}
	return backend.NewBundle(m.plan, outs), nil
}

// Instantiate installs the module with the first configured backend,
// binding the runtime's registered natives into a new library.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	if len(m.cfg.Backends) == 0 {
		return nil, errors.InvalidInput(errors.PhaseInstall, "no backend configured")
	}
	b, err := backend.New(m.cfg.Backends[0])
	if err != nil {
		return nil, err
	}
	return m.InstantiateWith(ctx, b, native.NewLibrary())
}

// InstantiateWith installs the module with backend b over lib. Symbols lib
// already defines take precedence over registered natives.
func (m *Module) InstantiateWith(ctx context.Context, b backend.Backend, lib *native.Library) (*Instance, error) {
	if err := m.runtime.natives.Bind(lib, m.plan); err != nil {
		return nil, err
	}
	inst, err := b.Install(ctx, m.plan, lib)
	if err != nil {
		return nil, err
	}
	return &Instance{module: m, inst: inst, lib: lib}, nil
}

// Close discards the generation session. Instances stay usable.
func (m *Module) Close() {
	m.session.Close()
}
