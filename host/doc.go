// Package host models the dynamic host runtime bindings are installed
// into.
//
// Host values are nil, bool, integers, float64, string, [Tuple], []any
// lists, [Dict], enum members and [*Object] wrappers around native
// objects. Every value has a [Shape] used by overload resolution.
//
// A [Module] owns classes, functions and attributes. A [Class] is either
// bound to a native class or a host subclass created with
// [Class.Subclass]; host subclasses may override virtual methods. An
// [Object] is one host reference to an arena slot. [Object.Dup] creates
// another reference to the same host identity and [Object.Release] drops
// it; the slot's destructor runs once the last reference is gone.
//
// All entry points acquire the module's execution token.
package host
