// Package overload builds the runtime dispatch for C++ names declared more
// than once.
//
// A Set holds the candidates of one host-visible name in declaration
// order. Trailing default arguments expand into synthetic candidates of
// lower arity that complete the call with the declared defaults.
// Parameter mappings are resolved when the set is built, so call-time
// resolution only ranks argument shapes:
//
//   - the first candidate in declaration order whose every argument is an
//     exact match wins;
//   - otherwise the first candidate that accepts every argument, possibly
//     through implicit conversions, wins;
//   - otherwise the call fails with a no-matching-overload error naming
//     the argument shapes and listing the candidate signatures.
//
// Both backends dispatch through the same Set.
package overload
