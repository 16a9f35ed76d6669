// Package runtime provides the high-level API for binding Go-implemented
// native libraries to host modules.
//
// # Quick Start
//
//	rt, err := runtime.New(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Register native implementations
//	rt.RegisterFunc("geo::Circle::Circle(double)", func(r float64) *Circle {
//	    return &Circle{R: r}
//	})
//	rt.RegisterClass(&Circle{})
//
//	// Load a declaration manifest
//	mod, err := rt.LoadManifest("geo.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mod.Close()
//
//	// Install it
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	c, _ := inst.New(ctx, "Circle", 2.0)
//	area, _ := c.Call(ctx, "area")
//
// # Loading Declarations
//
// The runtime supports three loading modes:
//
//	LoadManifest(path)      - Read a TOML manifest from disk
//	Load(text)              - Parse a TOML manifest held in memory
//	LoadDecls(module, list) - Use an already built declaration list
//
// # Native Implementations
//
// Natives are registered by symbol, the qualified name plus signature that
// declarations produce:
//
//	"geo::area(const geo::Shape&)"
//	"geo::Circle::scale(double)"
//	"geo::Circle::radius() const"
//
// RegisterClass binds every exported method of a Go type under its Scope.
// Method names are converted from PascalCase to snake_case (GetValue ->
// get_value) and match any overload of that name; implement
// ExplicitRegistrar to bind overloads individually.
//
// Handlers are ordinary Go functions. An optional leading context.Context
// receives the call context, member handlers take the receiver next, and
// results may be (), (V), (error) or (V, error). Arguments are converted to
// the parameter types with range checks.
//
// # Backends
//
// Instantiate installs with the first configured backend. InstantiateWith
// picks a backend explicitly and accepts a library with hand-written
// symbols, which take precedence over registered natives. Emit runs every
// configured backend and returns the code bundle the CLI writes.
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. Calls into an Instance
// serialize on the module's execution token.
package runtime
