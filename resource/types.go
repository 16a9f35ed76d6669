package resource

import (
	"context"
	"fmt"
)

// Handle is an opaque reference to a slot in an Arena. The low 32 bits are
// the slot index plus one, the high 32 bits the slot generation, so a
// handle to a reused slot never resolves to the new occupant.
// Handle 0 is reserved and always invalid.
type Handle uint64

func makeHandle(idx int, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(idx+1))
}

func (h Handle) index() int {
	return int(uint32(h)) - 1
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

func (h Handle) String() string {
	if h == 0 {
		return "handle(nil)"
	}
	return fmt.Sprintf("handle(%d@%d)", h.index(), h.generation())
}

// Mode is the ownership mode of a slot.
type Mode uint8

const (
	// ModeOwned slots exclusively own their value and destroy it once.
	ModeOwned Mode = iota
	// ModeShared slots hold one strong reference of a shared control block.
	ModeShared
	// ModeView slots are borrowed views re-resolved from their owner on
	// every access.
	ModeView
	// ModeReference slots point at a value whose lifetime is managed
	// elsewhere; nothing is destroyed on release.
	ModeReference
	// ModeMoved slots gave up their value to native code.
	ModeMoved
)

var modeNames = [...]string{
	ModeOwned:     "owned",
	ModeShared:    "shared",
	ModeView:      "view",
	ModeReference: "reference",
	ModeMoved:     "moved",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "unknown"
}

// Event types for slot lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventRetained
	EventReleased
	EventDestroyed
	EventMoved
	EventBorrowed
	EventBorrowReturned
)

var eventNames = [...]string{
	EventCreated:        "created",
	EventRetained:       "retained",
	EventReleased:       "released",
	EventDestroyed:      "destroyed",
	EventMoved:          "moved",
	EventBorrowed:       "borrowed",
	EventBorrowReturned: "borrow_returned",
}

func (e EventType) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}

// Event represents a slot lifecycle event.
type Event struct {
	Value  any
	Class  string
	Handle Handle
	Owner  Handle
	Type   EventType
	Mode   Mode
}

// Observer receives notifications about slot lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Destructor destroys a native value. It is invoked at most once per value.
// ctx is the context of the host call that released the last reference.
type Destructor func(ctx context.Context, value any) error

// Resolver recomputes a borrowed view from the current owner value.
type Resolver func(owner any) (any, error)

// RefCounted is a shared-ownership control block.
type RefCounted interface {
	// IncRef adds a strong reference.
	IncRef()
	// DecRef removes a strong reference and reports whether it was the last.
	DecRef() bool
	// Pointee returns the managed value.
	Pointee() any
}

// Dropper is optionally implemented by values that need cleanup when no
// explicit destructor was supplied.
type Dropper interface {
	Drop()
}
