// Package enumbridge exposes C++ enumerations to the host in one of two
// modes.
//
// In legacy mode entries become plain integer constants in the enclosing
// scope and values cross the boundary as host integers.
//
// In typed mode the enum becomes a host type whose members are interned:
// [Type.Of] returns the identical [*Member] for equal values, including
// values no entry declares. Typed members never compare equal to raw
// integers, round-trip through host serialization and report the module
// they were declared in, even when re-exported elsewhere.
package enumbridge
