package runtime

import (
	"github.com/wippyai/cxxbind/config"
	"github.com/wippyai/cxxbind/decl"
	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/generator"
)

type Runtime struct {
	cfg     *config.Config
	natives *NativeRegistry
}

// New creates a runtime. A nil config uses config.Default.
func New(cfg *config.Config) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runtime{
		cfg:     cfg,
		natives: NewNativeRegistry(),
	}, nil
}

// Config returns the runtime's configuration.
func (r *Runtime) Config() *config.Config {
	return r.cfg
}

// RegisterClass registers the exported methods of c as native members.
// Must be called BEFORE instantiating modules that declare the class.
func (r *Runtime) RegisterClass(c Class) error {
	return r.natives.RegisterClass(c)
}

func (r *Runtime) RegisterFunc(symbol string, fn any) error {
	return r.natives.RegisterFunc(symbol, fn)
}

func (r *Runtime) RegisterMethod(symbol string, fn any) error {
	return r.natives.RegisterMethod(symbol, fn)
}

func (r *Runtime) RegisterField(qualified string, get, set any) error {
	return r.natives.RegisterField(qualified, get, set)
}

func (r *Runtime) RegisterDestructor(class string, fn any) error {
	return r.natives.RegisterDestructor(class, fn)
}

func (r *Runtime) Natives() *NativeRegistry {
	return r.natives
}

// LoadManifest reads a TOML declaration manifest and generates its plan.
func (r *Runtime) LoadManifest(path string) (*Module, error) {
	list, module, err := decl.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return r.LoadDecls(module, list)
}

// Load generates the plan of a manifest held in memory.
func (r *Runtime) Load(manifest string) (*Module, error) {
	list, module, err := decl.DecodeManifest(manifest)
	if err != nil {
		return nil, err
	}
	return r.LoadDecls(module, list)
}

// LoadDecls generates the plan of a declaration list. module names the
// host module unless the configuration names one.
func (r *Runtime) LoadDecls(module string, list *decl.List) (*Module, error) {
	if list == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "nil declaration list")
	}
	cfg := *r.cfg
	if cfg.Module == "" {
		cfg.Module = module
	}
	s, err := generator.NewSession(&cfg)
	if err != nil {
		return nil, err
	}
	plan, err := s.Generate(list)
	if err != nil {
		s.Close()
		return nil, err
	}
	return &Module{
		runtime: r,
		session: s,
		plan:    plan,
		cfg:     &cfg,
	}, nil
}
