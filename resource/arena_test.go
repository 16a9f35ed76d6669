package resource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testObserver struct {
	events []Event
	mu     sync.Mutex
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *testObserver) types() []EventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]EventType, len(o.events))
	for i, e := range o.events {
		out[i] = e.Type
	}
	return out
}

var ctx = context.Background()

type pet struct {
	name string
}

type counter struct {
	n int32
}

func (c *counter) dtor(context.Context, any) error {
	atomic.AddInt32(&c.n, 1)
	return nil
}

func (c *counter) count() int {
	return int(atomic.LoadInt32(&c.n))
}

func TestArena_OwnDestroysOnce(t *testing.T) {
	a := NewArena()
	c := &counter{}

	h, err := a.Own("Pet", &pet{name: "rex"}, c.dtor)
	if err != nil {
		t.Fatalf("Own: %v", err)
	}

	// host duplicated the wrapper twice
	if err := a.Retain(h); err != nil {
		t.Fatal(err)
	}
	if err := a.Retain(h); err != nil {
		t.Fatal(err)
	}
	if a.Refs(h) != 3 {
		t.Fatalf("Refs = %d, want 3", a.Refs(h))
	}

	for i := 0; i < 2; i++ {
		destroyed, err := a.Release(ctx, h)
		if err != nil || destroyed {
			t.Fatalf("release %d: destroyed=%v err=%v", i, destroyed, err)
		}
	}
	destroyed, err := a.Release(ctx, h)
	if err != nil || !destroyed {
		t.Fatalf("last release: destroyed=%v err=%v", destroyed, err)
	}
	if c.count() != 1 {
		t.Fatalf("destructor ran %d times, want 1", c.count())
	}

	// further releases must not reach the destructor again
	if _, err := a.Release(ctx, h); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("expected ErrInvalidHandle, got %v", err)
	}
	if c.count() != 1 {
		t.Fatalf("destructor ran %d times after extra release", c.count())
	}
}

type dropCounter struct {
	count int
}

func (d *dropCounter) Drop() {
	d.count++
}

func TestArena_DropperFallback(t *testing.T) {
	a := NewArena()
	d := &dropCounter{}
	h, _ := a.Own("X", d, nil)
	if _, err := a.Release(ctx, h); err != nil {
		t.Fatal(err)
	}
	if d.count != 1 {
		t.Fatalf("Drop called %d times", d.count)
	}
}

type holder struct {
	field *pet
}

func TestArena_ViewResolvesOnEveryAccess(t *testing.T) {
	a := NewArena()
	hold := &holder{field: &pet{name: "first"}}
	owner, _ := a.Own("Holder", hold, nil)

	v, err := a.View("Pet", owner, func(o any) (any, error) {
		return o.(*holder).field, nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	got, _ := a.Get(v)
	if got.(*pet).name != "first" {
		t.Fatalf("got %v", got)
	}

	hold.field = &pet{name: "second"}
	got, _ = a.Get(v)
	if got.(*pet).name != "second" {
		t.Fatalf("view returned stale value %v", got)
	}
}

func TestArena_ViewKeepsOwnerAlive(t *testing.T) {
	a := NewArena()
	c := &counter{}
	owner, _ := a.Own("Holder", &holder{field: &pet{}}, c.dtor)
	v, _ := a.View("Pet", owner, func(o any) (any, error) { return o.(*holder).field, nil })

	if destroyed, _ := a.Release(ctx, owner); destroyed {
		t.Fatal("owner destroyed while a view was outstanding")
	}
	if _, err := a.Get(v); err != nil {
		t.Fatalf("view unusable: %v", err)
	}
	if _, err := a.Release(ctx, v); err != nil {
		t.Fatal(err)
	}
	if c.count() != 1 {
		t.Fatalf("owner destroyed %d times, want 1", c.count())
	}
	if a.Len() != 0 {
		t.Fatalf("Len = %d", a.Len())
	}
}

func TestArena_Move(t *testing.T) {
	a := NewArena()
	c := &counter{}
	p := &pet{name: "rex"}
	h, _ := a.Own("Pet", p, c.dtor)

	v, _ := a.View("Pet", h, func(o any) (any, error) { return o, nil })
	if _, err := a.Move(h); !errors.Is(err, ErrOutstandingBorrow) {
		t.Fatalf("expected ErrOutstandingBorrow, got %v", err)
	}
	a.Release(ctx, v)

	got, err := a.Move(h)
	if err != nil || got != p {
		t.Fatalf("Move = %v, %v", got, err)
	}
	if _, err := a.Get(h); !errors.Is(err, ErrMoved) {
		t.Fatalf("expected ErrMoved, got %v", err)
	}
	if _, err := a.Move(h); !errors.Is(err, ErrMoved) {
		t.Fatalf("second move: %v", err)
	}
	if destroyed, _ := a.Release(ctx, h); destroyed {
		t.Fatal("moved value must not be destroyed by the host")
	}
	if c.count() != 0 {
		t.Fatalf("destructor ran %d times", c.count())
	}
}

type sharedBlock struct {
	value any
	n     int
}

func (s *sharedBlock) IncRef()      { s.n++ }
func (s *sharedBlock) DecRef() bool { s.n--; return s.n == 0 }
func (s *sharedBlock) Pointee() any { return s.value }

func TestArena_Shared(t *testing.T) {
	a := NewArena()
	c := &counter{}
	blk := &sharedBlock{value: &pet{name: "shared"}, n: 1} // native side holds one

	h, _ := a.Share("Pet", blk, c.dtor)
	if blk.n != 2 {
		t.Fatalf("count = %d, want 2", blk.n)
	}
	got, _ := a.Get(h)
	if got.(*pet).name != "shared" {
		t.Fatalf("Get = %v", got)
	}
	if destroyed, _ := a.Release(ctx, h); destroyed {
		t.Fatal("shared value destroyed while native still holds a reference")
	}
	if blk.n != 1 || c.count() != 0 {
		t.Fatalf("count=%d dtor=%d", blk.n, c.count())
	}

	h2, _ := a.Share("Pet", blk, c.dtor)
	blk.DecRef() // native side lets go
	if destroyed, _ := a.Release(ctx, h2); !destroyed {
		t.Fatal("last shared reference should destroy")
	}
	if c.count() != 1 {
		t.Fatalf("dtor = %d", c.count())
	}
}

func TestArena_Reference(t *testing.T) {
	a := NewArena()
	d := &dropCounter{}
	h, _ := a.Reference("X", d)
	if destroyed, _ := a.Release(ctx, h); destroyed || d.count != 0 {
		t.Fatal("reference slots never destroy")
	}
}

func TestArena_HandleGeneration(t *testing.T) {
	a := NewArena()
	h1, _ := a.Own("A", 1, nil)
	a.Release(ctx, h1)
	h2, _ := a.Own("B", 2, nil)

	if h1 == h2 {
		t.Fatal("reused slot must get a new generation")
	}
	if h1.index() != h2.index() {
		t.Fatal("slot should be reused")
	}
	if _, err := a.Get(h1); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("stale handle resolved: %v", err)
	}
	if v, _ := a.Get(h2); v != 2 {
		t.Fatalf("Get = %v", v)
	}
}

func TestArena_Close(t *testing.T) {
	a := NewArena()
	var order []string
	dtor := func(_ context.Context, v any) error {
		order = append(order, v.(*pet).name)
		return nil
	}
	first, _ := a.Own("Pet", &pet{name: "a"}, dtor)
	a.Own("Pet", &pet{name: "b"}, dtor)
	a.View("Pet", first, func(o any) (any, error) { return o, nil })

	if err := a.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Fatalf("destroy order = %v", order)
	}
	if _, err := a.Own("Pet", &pet{}, dtor); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := a.Close(ctx); err != nil {
		t.Fatal("second close should be a no-op")
	}
}

func TestArena_Observer(t *testing.T) {
	a := NewArena()
	obs := &testObserver{}
	a.Subscribe(obs)

	h, _ := a.Own("Pet", &pet{}, nil)
	a.Retain(h)
	a.Release(ctx, h)
	a.Release(ctx, h)

	want := []EventType{EventCreated, EventRetained, EventReleased, EventDestroyed}
	got := obs.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %v, want %v", i, got[i], want[i])
		}
	}

	a.Unsubscribe(obs)
	a.Own("Pet", &pet{}, nil)
	if len(obs.types()) != len(want) {
		t.Fatal("should not receive events after Unsubscribe")
	}
}

func TestLogObserver(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	a := NewArena()
	a.Subscribe(NewLogObserver(zap.New(core)))

	h, _ := a.Own("Pet", &pet{}, nil)
	a.Release(ctx, h)

	entries := logs.FilterMessage("slot destroyed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one destroyed log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["class"] != "Pet" {
		t.Errorf("class field = %v", entries[0].ContextMap()["class"])
	}
}

func TestArena_ConcurrentRetainRelease(t *testing.T) {
	a := NewArena()
	c := &counter{}
	h, _ := a.Own("Pet", &pet{}, c.dtor)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		a.Retain(h)
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Release(ctx, h)
		}()
	}
	wg.Wait()
	if c.count() != 0 {
		t.Fatal("destroyed too early")
	}
	a.Release(ctx, h)
	if c.count() != 1 {
		t.Fatalf("dtor = %d", c.count())
	}
}
