// Package cxxbind generates and runs bindings that expose C++ libraries to a
// dynamic host language.
//
// A library is described by a declaration manifest: classes, constructors,
// methods, fields, free functions, enums and exceptions with their C++
// types. cxxbind turns the declarations into a plan (type mappings, overload
// sets, ownership decisions, the virtual method hierarchy) and from the plan
// either emits binding code or installs a live host module over a native
// library.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	cxxbind/             Root package (documentation only)
//	├── runtime/         High-level API: register natives, load, instantiate
//	├── generator/       Declarations to plan; one session per module
//	├── backend/         Legacy and embedded emission; module installation
//	├── decl/            Declaration model and TOML manifests
//	├── typemap/         C++ type to host representation registry
//	├── overload/        Overload sets and call-time resolution
//	├── ownership/       Return policies and argument passing
//	├── enumbridge/      Typed and legacy enum bridging
//	├── trampoline/      Virtual hierarchy, override table, dispatch
//	├── lifecycle/       Execution token, call frames, exception translation
//	├── resource/        Arena of wrapped native objects
//	├── host/            Host object model: modules, classes, objects
//	├── native/          In-process native library model
//	├── config/          cxxbind.toml
//	├── errors/          Structured error types for debugging
//	└── cmd/cxxbind/     generate, inspect and version commands
//
// # Quick Start
//
// Generate binding code:
//
//	cxxbind generate geo.toml -o geo.msgpack
//
// Install a module over Go-implemented natives:
//
//	rt, _ := runtime.New(nil)
//	rt.RegisterClass(&Circle{})
//	rt.RegisterFunc("geo::Circle::Circle(double)", NewCircle)
//
//	mod, err := rt.LoadManifest("geo.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	c, _ := inst.New(ctx, "Circle", 2.0)
//	fmt.Println(c.Call(ctx, "area"))
//
// # Backends
//
// The legacy backend emits direct host API calls with static method and
// property tables; the embedded backend emits declarative builder chains.
// Both install through one runtime, so overload resolution, conversions,
// ownership and lifecycle behave identically.
//
// # Thread Safety
//
// Plans are read-only once generated and may be shared. A host module
// serializes calls on its execution token; native calls marked to release
// the token run concurrently with other host work.
package cxxbind
