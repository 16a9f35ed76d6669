// Package typemap resolves C++ types to host representations.
//
// A [Registry] maps every canonical C++ type spelling to a [Mapping]. Many
// spellings share one [Repr]: every integer width is a host int, and Pet,
// Pet*, const Pet& and std::unique_ptr<Pet> are all the Pet class.
// Template instantiations are synthesized by parametric rules on first use
// and cached, so resolving the same instantiation twice returns the
// identical *Mapping. The cache lives exactly as long as the registry;
// [Registry.Close] discards it.
//
// A mapping carries its conversion rules: [Mapping.Rank] scores a host
// argument against the parameter type for overload resolution,
// [Mapping.In] converts a host value to the native value and
// [Mapping.Out] converts back. Class values are unwrapped and wrapped
// through a [Context] supplied by the installing backend.
package typemap
