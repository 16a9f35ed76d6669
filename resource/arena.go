package resource

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrClosed            = errors.New("resource arena closed")
	ErrInvalidHandle     = errors.New("invalid or released handle")
	ErrMoved             = errors.New("value was moved to native ownership")
	ErrOutstandingBorrow = errors.New("cannot move value with outstanding borrows")
	ErrNotOwned          = errors.New("slot does not exclusively own its value")
)

// Arena stores host-visible slots for native values.
type Arena struct {
	entries   []entry
	freeList  []int
	observers []Observer
	mu        sync.Mutex
	obsMu     sync.RWMutex
	closed    bool
}

type entry struct {
	value      any
	counted    RefCounted
	dtor       Destructor
	resolve    Resolver
	class      string
	owner      Handle
	refs       uint32
	borrows    uint32
	generation uint32
	mode       Mode
	valid      bool
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		entries:  make([]entry, 0, 64),
		freeList: make([]int, 0, 16),
	}
}

func (a *Arena) insert(e entry) (Handle, error) {
	if a.closed {
		return 0, ErrClosed
	}
	e.valid = true
	e.refs = 1

	if len(a.freeList) > 0 {
		idx := a.freeList[len(a.freeList)-1]
		a.freeList = a.freeList[:len(a.freeList)-1]
		e.generation = a.entries[idx].generation + 1
		a.entries[idx] = e
		return makeHandle(idx, e.generation), nil
	}

	a.entries = append(a.entries, e)
	return makeHandle(len(a.entries)-1, 0), nil
}

func (a *Arena) lookup(h Handle) *entry {
	idx := h.index()
	if h == 0 || idx < 0 || idx >= len(a.entries) {
		return nil
	}
	e := &a.entries[idx]
	if !e.valid || e.generation != h.generation() {
		return nil
	}
	return e
}

// Own stores a value exclusively owned by the host. dtor runs exactly once
// when the last host reference is released; when dtor is nil a Dropper
// value is dropped instead.
func (a *Arena) Own(class string, value any, dtor Destructor) (Handle, error) {
	a.mu.Lock()
	h, err := a.insert(entry{class: class, value: value, dtor: dtor, mode: ModeOwned})
	a.mu.Unlock()
	if err != nil {
		return 0, err
	}
	a.notify(Event{Type: EventCreated, Handle: h, Class: class, Value: value, Mode: ModeOwned})
	return h, nil
}

// Share stores one strong reference to a shared control block. dtor runs
// on the pointee when the released reference was the last one.
func (a *Arena) Share(class string, counted RefCounted, dtor Destructor) (Handle, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return 0, ErrClosed
	}
	counted.IncRef()
	h, err := a.insert(entry{class: class, counted: counted, dtor: dtor, mode: ModeShared})
	a.mu.Unlock()
	if err != nil {
		return 0, err
	}
	a.notify(Event{Type: EventCreated, Handle: h, Class: class, Value: counted.Pointee(), Mode: ModeShared})
	return h, nil
}

// Reference stores a non-owning slot. Releasing it never destroys value.
func (a *Arena) Reference(class string, value any) (Handle, error) {
	a.mu.Lock()
	h, err := a.insert(entry{class: class, value: value, mode: ModeReference})
	a.mu.Unlock()
	if err != nil {
		return 0, err
	}
	a.notify(Event{Type: EventCreated, Handle: h, Class: class, Value: value, Mode: ModeReference})
	return h, nil
}

// View stores a borrowed view into owner. The view keeps the owner alive
// until it is released and resolves its value from the owner on every Get.
func (a *Arena) View(class string, owner Handle, resolve Resolver) (Handle, error) {
	a.mu.Lock()
	oe := a.lookup(owner)
	if oe == nil {
		a.mu.Unlock()
		return 0, ErrInvalidHandle
	}
	oe.refs++
	oe.borrows++
	h, err := a.insert(entry{class: class, owner: owner, resolve: resolve, mode: ModeView})
	if err != nil {
		oe.refs--
		oe.borrows--
		a.mu.Unlock()
		return 0, err
	}
	a.mu.Unlock()
	a.notify(Event{Type: EventBorrowed, Handle: h, Owner: owner, Class: class, Mode: ModeView})
	return h, nil
}

// Get returns the current native value of a slot. Views are resolved from
// the owner's current value on every call.
func (a *Arena) Get(h Handle) (any, error) {
	a.mu.Lock()
	e := a.lookup(h)
	if e == nil {
		a.mu.Unlock()
		return nil, ErrInvalidHandle
	}
	mode, value, counted, owner, resolve := e.mode, e.value, e.counted, e.owner, e.resolve
	a.mu.Unlock()

	switch mode {
	case ModeMoved:
		return nil, ErrMoved
	case ModeShared:
		return counted.Pointee(), nil
	case ModeView:
		ov, err := a.Get(owner)
		if err != nil {
			return nil, err
		}
		return resolve(ov)
	default:
		return value, nil
	}
}

// Retain adds a host reference to a slot.
func (a *Arena) Retain(h Handle) error {
	a.mu.Lock()
	e := a.lookup(h)
	if e == nil {
		a.mu.Unlock()
		return ErrInvalidHandle
	}
	e.refs++
	class, mode := e.class, e.mode
	a.mu.Unlock()
	a.notify(Event{Type: EventRetained, Handle: h, Class: class, Mode: mode})
	return nil
}

// Release removes a host reference. When it was the last one the slot is
// freed and its value destroyed according to its mode; destroyed reports
// whether a destructor ran.
func (a *Arena) Release(ctx context.Context, h Handle) (destroyed bool, err error) {
	a.mu.Lock()
	e := a.lookup(h)
	if e == nil {
		a.mu.Unlock()
		return false, ErrInvalidHandle
	}
	e.refs--
	if e.refs > 0 {
		class, mode := e.class, e.mode
		a.mu.Unlock()
		a.notify(Event{Type: EventReleased, Handle: h, Class: class, Mode: mode})
		return false, nil
	}
	fin := a.free(h, e)
	a.mu.Unlock()

	return a.finalize(ctx, h, fin)
}

// finalizer captures what must happen after a slot was freed.
type finalizer struct {
	value   any
	counted RefCounted
	dtor    Destructor
	class   string
	owner   Handle
	mode    Mode
}

func (a *Arena) free(h Handle, e *entry) finalizer {
	fin := finalizer{
		value:   e.value,
		counted: e.counted,
		dtor:    e.dtor,
		class:   e.class,
		owner:   e.owner,
		mode:    e.mode,
	}
	gen := e.generation
	*e = entry{generation: gen}
	a.freeList = append(a.freeList, h.index())
	return fin
}

func (a *Arena) finalize(ctx context.Context, h Handle, fin finalizer) (bool, error) {
	switch fin.mode {
	case ModeOwned:
		a.notify(Event{Type: EventDestroyed, Handle: h, Class: fin.class, Value: fin.value, Mode: fin.mode})
		return true, destroy(ctx, fin.value, fin.dtor)
	case ModeShared:
		if !fin.counted.DecRef() {
			a.notify(Event{Type: EventReleased, Handle: h, Class: fin.class, Mode: fin.mode})
			return false, nil
		}
		value := fin.counted.Pointee()
		a.notify(Event{Type: EventDestroyed, Handle: h, Class: fin.class, Value: value, Mode: fin.mode})
		return true, destroy(ctx, value, fin.dtor)
	case ModeView:
		a.notify(Event{Type: EventBorrowReturned, Handle: h, Owner: fin.owner, Class: fin.class, Mode: fin.mode})
		a.mu.Lock()
		if oe := a.lookup(fin.owner); oe != nil && oe.borrows > 0 {
			oe.borrows--
		}
		a.mu.Unlock()
		_, err := a.Release(ctx, fin.owner)
		return false, err
	default:
		a.notify(Event{Type: EventReleased, Handle: h, Class: fin.class, Mode: fin.mode})
		return false, nil
	}
}

func destroy(ctx context.Context, value any, dtor Destructor) error {
	if dtor != nil {
		return dtor(ctx, value)
	}
	if d, ok := value.(Dropper); ok {
		d.Drop()
	}
	return nil
}

// Move transfers an exclusively owned value to native code. The slot stays
// allocated so host references observe ErrMoved instead of a dangling value.
func (a *Arena) Move(h Handle) (any, error) {
	a.mu.Lock()
	e := a.lookup(h)
	if e == nil {
		a.mu.Unlock()
		return nil, ErrInvalidHandle
	}
	switch e.mode {
	case ModeMoved:
		a.mu.Unlock()
		return nil, ErrMoved
	case ModeOwned:
	default:
		a.mu.Unlock()
		return nil, ErrNotOwned
	}
	if e.borrows > 0 {
		a.mu.Unlock()
		return nil, ErrOutstandingBorrow
	}
	value, class := e.value, e.class
	e.value = nil
	e.dtor = nil
	e.mode = ModeMoved
	a.mu.Unlock()

	a.notify(Event{Type: EventMoved, Handle: h, Class: class, Value: value, Mode: ModeMoved})
	return value, nil
}

// Mode returns the slot's ownership mode.
func (a *Arena) Mode(h Handle) (Mode, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e := a.lookup(h)
	if e == nil {
		return 0, false
	}
	return e.mode, true
}

// Class returns the class name recorded for the slot.
func (a *Arena) Class(h Handle) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e := a.lookup(h)
	if e == nil {
		return "", false
	}
	return e.class, true
}

// Refs returns the number of host references to the slot.
func (a *Arena) Refs(h Handle) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	e := a.lookup(h)
	if e == nil {
		return 0
	}
	return int(e.refs)
}

// Valid reports whether h refers to a live slot.
func (a *Arena) Valid(h Handle) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lookup(h) != nil
}

// Len returns the number of live slots.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	count := 0
	for _, e := range a.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over live slots in index order.
func (a *Arena) Each(fn func(Handle, string, Mode) bool) {
	a.mu.Lock()
	type item struct {
		class string
		h     Handle
		mode  Mode
	}
	items := make([]item, 0, len(a.entries))
	for i, e := range a.entries {
		if e.valid {
			items = append(items, item{h: makeHandle(i, e.generation), class: e.class, mode: e.mode})
		}
	}
	a.mu.Unlock()

	for _, it := range items {
		if !fn(it.h, it.class, it.mode) {
			return
		}
	}
}

// Close stops accepting new slots and destroys every remaining value,
// views first, then the rest in reverse creation order. The first
// destructor error is returned.
func (a *Arena) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true

	var views, others []finalizer
	var viewHandles, otherHandles []Handle
	for i := len(a.entries) - 1; i >= 0; i-- {
		e := &a.entries[i]
		if !e.valid {
			continue
		}
		h := makeHandle(i, e.generation)
		if e.mode == ModeView {
			viewHandles = append(viewHandles, h)
			views = append(views, a.free(h, e))
		}
	}
	for i := len(a.entries) - 1; i >= 0; i-- {
		e := &a.entries[i]
		if !e.valid {
			continue
		}
		h := makeHandle(i, e.generation)
		otherHandles = append(otherHandles, h)
		others = append(others, a.free(h, e))
	}
	a.mu.Unlock()

	var firstErr error
	for i, fin := range views {
		a.notify(Event{Type: EventBorrowReturned, Handle: viewHandles[i], Owner: fin.owner, Class: fin.class, Mode: fin.mode})
	}
	for i, fin := range others {
		if _, err := a.finalize(ctx, otherHandles[i], fin); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Subscribe adds an observer for lifecycle events.
func (a *Arena) Subscribe(o Observer) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	a.observers = append(a.observers, o)
}

// Unsubscribe removes an observer.
func (a *Arena) Unsubscribe(o Observer) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	for i, obs := range a.observers {
		if obs == o {
			a.observers = append(a.observers[:i], a.observers[i+1:]...)
			return
		}
	}
}

func (a *Arena) notify(e Event) {
	a.obsMu.RLock()
	defer a.obsMu.RUnlock()
	for _, o := range a.observers {
		o.OnResourceEvent(e)
	}
}
