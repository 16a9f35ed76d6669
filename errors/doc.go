// Package errors provides structured error types for the cxxbind engine.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: offending declaration, host/C++ type names,
// attempted argument shapes, the translated exception category, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConvert, errors.KindTypeMismatch).
//		Path("Pet::set", "arg0").
//		HostType("str").
//		CppType("int").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for the engine's taxonomy:
//
//	errors.UnresolvedType("Widget<int>", "make_widget")    // fatal, generation aborts
//	errors.AmbiguousOwnership("take", path, "Pet**", "...") // fatal, generation aborts
//	errors.NoMatchingOverload("Pet.set", shapes, sigs)      // runtime, recoverable
//	errors.CrossLanguage(errors.CategoryRuntime, "std::runtime_error", msg, nil)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
