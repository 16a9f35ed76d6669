package backend

import (
	"context"
	stderrors "errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/cxxbind/errors"
	"github.com/wippyai/cxxbind/generator"
	"github.com/wippyai/cxxbind/host"
	"github.com/wippyai/cxxbind/lifecycle"
	"github.com/wippyai/cxxbind/native"
	"github.com/wippyai/cxxbind/resource"
	"github.com/wippyai/cxxbind/trampoline"
)

// ExceptionType is the module attribute bound for an exception class.
type ExceptionType struct {
	Name     string
	Cpp      string
	Module   string
	Category errors.Category
}

// Match reports whether err is a translated exception of this type.
func (t *ExceptionType) Match(err error) bool {
	var e *errors.Error
	return stderrors.As(err, &e) && e.Kind == errors.KindCrossLanguage && e.CppType == t.Cpp
}

// Installation is a plan bound against a native library.
type Installation struct {
	rt *runtime
}

// Module returns the host module.
func (i *Installation) Module() *host.Module { return i.rt.module }

// Arena returns the arena holding every wrapped native object.
func (i *Installation) Arena() *resource.Arena { return i.rt.arena }

// Dispatcher returns the virtual call router installed into the library.
func (i *Installation) Dispatcher() *trampoline.Dispatcher { return i.rt.disp }

// Style returns the backend style that installed the module.
func (i *Installation) Style() Style { return i.rt.style }

// Close destroys every native object still owned by the host.
func (i *Installation) Close(ctx context.Context) error {
	ctx, done, err := i.rt.module.Token().Enter(ctx)
	if err != nil {
		return err
	}
	defer done()
	return i.rt.arena.Close(ctx)
}

// runtime is the state shared by every binding of one installation.
type runtime struct {
	plan    *generator.Plan
	lib     *native.Library
	module  *host.Module
	coord   *lifecycle.Coordinator
	arena   *resource.Arena
	table   *trampoline.Table
	disp    *trampoline.Dispatcher
	log     *zap.Logger
	modules map[string]*host.Module
	classes map[string]*host.Class
	plans   map[string]*generator.Class
	live    map[any]*host.Object
	blocks  map[resource.Handle]*native.Shared
	style   Style
	mu      sync.Mutex
}

// install is shared by both styles: conversion, ownership, overload
// resolution and lifecycle behave identically whichever code style was
// emitted.
func install(ctx context.Context, style Style, plan *generator.Plan, lib *native.Library) (*Installation, error) {
	if plan == nil || lib == nil {
		return nil, errors.InvalidInput(errors.PhaseInstall, "nil plan or library")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if missing := missingSymbols(plan, lib); len(missing) > 0 {
		return nil, errors.NewMissingSymbolsError(missing)
	}

	token := lifecycle.NewToken(plan.Module)
	rt := &runtime{
		plan:    plan,
		lib:     lib,
		module:  host.NewModule(plan.Module, token),
		coord:   lifecycle.NewCoordinator(token, plan.Translator),
		arena:   resource.NewArena(),
		table:   trampoline.NewTable(),
		log:     Logger().With(zap.String("module", plan.Module), zap.String("style", string(style))),
		modules: make(map[string]*host.Module),
		classes: make(map[string]*host.Class),
		plans:   make(map[string]*generator.Class),
		live:    make(map[any]*host.Object),
		blocks:  make(map[resource.Handle]*native.Shared),
		style:   style,
	}
	rt.modules[plan.Module] = rt.module
	rt.arena.Subscribe(rt)
	rt.arena.Subscribe(resource.NewLogObserver(rt.log))
	rt.disp = trampoline.NewDispatcher(plan.Hierarchy, rt.table, lib, rt.coord, rt.callValues(context.Background(), nil, nil))

	for _, c := range plan.Classes {
		rt.plans[c.Cpp] = c
	}
	for _, e := range plan.Exceptions {
		rt.moduleFor(e.Module).SetAttr(e.Name, &ExceptionType{Name: e.Name, Cpp: e.Cpp, Module: e.Module, Category: e.Category})
	}
	for _, c := range plan.Classes {
		if _, err := rt.bindClass(c.Cpp, make(map[string]bool)); err != nil {
			return nil, err
		}
	}
	for _, e := range plan.Enums {
		if e.Class == "" {
			rt.bindEnum(e, rt.moduleFor(e.Descriptor.Module))
		}
	}
	for _, f := range plan.Functions {
		rt.moduleFor(f.Module).Def(f.Name, rt.function(f, nil))
	}

	// Names of submodules are re-exported by the main module. Classes and
	// enums keep reporting the submodule as their defining module.
	subs := make([]string, 0, len(rt.modules))
	for name := range rt.modules {
		if name != plan.Module {
			subs = append(subs, name)
		}
	}
	sort.Strings(subs)
	for _, name := range subs {
		m := rt.modules[name]
		if err := rt.module.Import(m, m.Names()...); err != nil {
			return nil, err
		}
	}

	lib.SetDispatcher(rt.disp)
	rt.log.Info("module installed",
		zap.Int("classes", len(rt.classes)),
		zap.Int("functions", len(plan.Functions)))
	return &Installation{rt: rt}, nil
}

func missingSymbols(plan *generator.Plan, lib *native.Library) []string {
	var missing []string
	for _, key := range plan.Symbols() {
		_, symbol, _ := strings.Cut(key, "#")
		if !lib.Has(symbol) {
			missing = append(missing, key)
		}
	}
	return missing
}

func (rt *runtime) moduleFor(name string) *host.Module {
	if name == "" {
		return rt.module
	}
	m, ok := rt.modules[name]
	if !ok {
		m = host.NewModule(name, rt.module.Token())
		rt.modules[name] = m
	}
	return m
}

// bindClass creates the host class of cpp after its base.
func (rt *runtime) bindClass(cpp string, visiting map[string]bool) (*host.Class, error) {
	if c, ok := rt.classes[cpp]; ok {
		return c, nil
	}
	pc, ok := rt.plans[cpp]
	if !ok {
		return nil, errors.NotFound(errors.PhaseInstall, "class", cpp)
	}
	if visiting[cpp] {
		return nil, errors.New(errors.PhaseInstall, errors.KindInvalidInput).
			Decl(cpp).
			Detail("class derives from itself").
			Build()
	}
	visiting[cpp] = true

	var base *host.Class
	if pc.Base != "" {
		b, err := rt.bindClass(pc.Base, visiting)
		if err != nil {
			return nil, err
		}
		base = b
	}

	m := rt.moduleFor(pc.Module)
	cls := host.NewClass(m, pc.Name, pc.Cpp, base)
	rt.classes[cpp] = cls

	if pc.Constructors != nil {
		cls.DefConstructor(rt.constructor(pc))
	}
	for _, f := range pc.Methods {
		fn := rt.function(f, pc)
		if f.Pure() {
			cls.DefPureVirtual(f.Name, fn)
		} else {
			cls.DefMethod(f.Name, fn)
		}
	}
	for _, f := range pc.Statics {
		cls.DefStatic(f.Name, rt.function(f, pc))
	}
	for _, f := range pc.Fields {
		cls.DefProperty(f.Name, rt.property(pc, f))
	}
	for _, e := range pc.Enums {
		rt.bindEnum(e, cls)
	}
	if len(pc.Reduce) > 0 {
		cls.SetReducer(reducer(pc.Reduce))
	}

	if err := m.AddClass(cls); err != nil {
		return nil, err
	}
	return cls, nil
}

type attrSetter interface {
	SetAttr(name string, v any)
}

// bindEnum binds a typed enum as a host type, or a legacy enum as plain
// integer constants, in scope.
func (rt *runtime) bindEnum(e *generator.Enum, scope attrSetter) {
	d := e.Descriptor
	if e.Type == nil {
		for _, c := range d.Constants() {
			scope.SetAttr(c.Name, c.Value)
		}
		return
	}
	scope.SetAttr(d.HostName, e.Type)
	if !d.Scoped {
		for _, m := range e.Type.Members() {
			scope.SetAttr(m.Name(), m)
		}
	}
}

// reducer returns the properties listed by the class as constructor
// arguments.
func reducer(names []string) host.Reducer {
	return func(ctx context.Context, self *host.Object) ([]any, error) {
		args := make([]any, len(names))
		for i, name := range names {
			v, err := self.Get(ctx, name)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return args, nil
	}
}

// identity returns the key native objects are tracked by. Only pointers
// have a stable identity.
func identity(v any) (any, bool) {
	if v == nil || reflect.ValueOf(v).Kind() != reflect.Pointer {
		return nil, false
	}
	return v, true
}

// hostClass returns the host class to wrap value with: its dynamic class
// when bound and derived from static, else static.
func (rt *runtime) hostClass(static string, value any) *host.Class {
	dyn := native.ClassOf(value, static)
	if dyn != static && rt.plan.Registry.IsSubclass(dyn, static) {
		if c, ok := rt.classes[dyn]; ok {
			return c
		}
	}
	return rt.classes[static]
}

func (rt *runtime) remember(value any, obj *host.Object) {
	key, ok := identity(value)
	if !ok {
		return
	}
	rt.mu.Lock()
	rt.live[key] = obj
	rt.mu.Unlock()
}

func (rt *runtime) forget(value any) {
	key, ok := identity(value)
	if !ok {
		return
	}
	rt.mu.Lock()
	delete(rt.live, key)
	rt.mu.Unlock()
}

// existing returns a new reference to the host object already wrapping
// value.
func (rt *runtime) existing(value any) (*host.Object, bool) {
	key, ok := identity(value)
	if !ok {
		return nil, false
	}
	rt.mu.Lock()
	obj, ok := rt.live[key]
	rt.mu.Unlock()
	if !ok {
		return nil, false
	}
	ref, err := obj.Reacquire()
	if err != nil {
		return nil, false
	}
	return ref, true
}

func (rt *runtime) sharedBlock(h resource.Handle) (*native.Shared, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	b, ok := rt.blocks[h]
	return b, ok
}

// OnResourceEvent implements resource.Observer. It drops identity and
// control block records of slots that are gone.
func (rt *runtime) OnResourceEvent(e resource.Event) {
	switch e.Type {
	case resource.EventDestroyed, resource.EventMoved:
		rt.forget(e.Value)
	}
	if e.Mode == resource.ModeShared && (e.Type == resource.EventReleased || e.Type == resource.EventDestroyed) &&
		!rt.arena.Valid(e.Handle) {
		rt.mu.Lock()
		delete(rt.blocks, e.Handle)
		rt.mu.Unlock()
	}
}

// destructor returns the arena destructor of objects of static class.
// Bindings go to Destroying first so virtual calls made by the native
// destructor reach native implementations.
func (rt *runtime) destructor(static string) resource.Destructor {
	return func(ctx context.Context, value any) error {
		class := native.ClassOf(value, static)
		key, tracked := identity(value)
		if tracked {
			rt.table.BeginDestroy(key)
		}
		dtor := rt.nativeDestructor(class, static)
		return rt.coord.Destroy(ctx, class, func(ctx context.Context) error {
			if dtor != nil {
				return dtor(ctx, value)
			}
			if d, ok := value.(resource.Dropper); ok {
				d.Drop()
			}
			return nil
		}, func() {
			if tracked {
				rt.table.Unbind(key)
			}
		})
	}
}

// nativeDestructor finds the destructor of the most derived class that
// defines one.
func (rt *runtime) nativeDestructor(class, static string) native.Destructor {
	var lineage []string
	if c, ok := rt.classes[class]; ok {
		lineage = c.Lineage()
	} else {
		lineage = []string{class}
		if c, ok := rt.classes[static]; ok {
			lineage = append(lineage, c.Lineage()...)
		}
	}
	for _, name := range lineage {
		if fn, ok := rt.lib.Destructor(name); ok {
			return fn
		}
	}
	return nil
}
