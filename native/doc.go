// Package native models the C++ side of a binding: the symbol library a
// generated module calls into, native exceptions, and shared-ownership
// control blocks.
//
// Implementations are registered by the symbol a declaration reports
// (decl.Declaration.Symbol):
//
//	lib := native.NewLibrary()
//	lib.Define("Pet::Pet(std::string)", func(ctx context.Context, _ any, args []any) (any, error) {
//	    return &Pet{name: args[0].(string)}, nil
//	})
//	lib.Define("Pet::name() const", func(ctx context.Context, self any, _ []any) (any, error) {
//	    return self.(*Pet).name, nil
//	})
//	lib.DefineDestructor("Pet", func(ctx context.Context, self any) error { ... })
//
// Native code that performs a virtual call goes through CallVirtual so a
// host subclass override is honored:
//
//	lib.Define("call_go(Animal&)", func(ctx context.Context, _ any, args []any) (any, error) {
//	    return lib.CallVirtual(ctx, args[0], "Animal", "go")
//	})
//
// Errors returned (or panicked) as *Exception carry the C++ exception type
// the lifecycle coordinator translates into a host error category.
package native
