// Package resource provides the runtime half of the ownership transfer
// engine: an arena of slots that host-side wrappers reference by handle.
//
// Every host wrapper around a native object points at exactly one slot.
// The slot's Mode decides what happens when the host lets go of it:
//
//	ModeOwned     - exclusive owner, destructor runs exactly once
//	ModeShared    - one strong reference of a shared control block
//	ModeView      - borrowed view, re-resolved from its owner on every Get
//	ModeReference - non-owning, lifetime managed elsewhere
//	ModeMoved     - ownership was transferred to native code
//
// # Reference Counting
//
// Duplicating a wrapper on the host side retains the slot; the destructor
// runs when the last host reference is released:
//
//	arena := resource.NewArena()
//	h := arena.Own("Pet", pet, dtor)
//	arena.Retain(h)  // host copied the reference
//	arena.Release(h) // still alive
//	arena.Release(h) // dtor(pet) runs here, once
//
// # Borrowed Views
//
// A view stores its owner's handle and a resolver instead of an address:
//
//	v, _ := arena.View("Field", holder, func(owner any) (any, error) {
//	    return owner.(*Holder).Field, nil
//	})
//	arena.Get(v) // resolver runs against the owner's current state
//
// Views keep their owner alive and block Move on it. A view into an owner
// whose value was destroyed by other means (for example a reference slot
// whose native owner went away) is undefined; the arena does not try to
// detect it beyond handle validity.
//
// # Observers
//
// Register observers to track lifecycle events; LogObserver forwards them
// to a zap logger.
//
// # Thread Safety
//
// Arena methods are safe for concurrent use. Destructors and resolvers run
// without the arena lock held, so they may call back into the arena.
package resource
