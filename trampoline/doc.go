// Package trampoline routes C++ virtual calls into host overrides.
//
// A Hierarchy records, per polymorphic class, which class provides each
// virtual method. A Table binds host subclass instances to their
// overrides, keyed by native object identity and method. The Dispatcher
// is installed into the native library: every virtual call made by native
// code goes through it, reaching the host override when one is bound and
// the next most derived native implementation otherwise.
//
// A binding lives exactly as long as its host instance:
//
//	Unbound -> Bound -> Destroying -> Released
//
// While an object is Destroying, virtual calls made by its destructor
// reach native implementations only.
package trampoline
