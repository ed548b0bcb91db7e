package store

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jpalmerr/fluxboard/action"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// counter is a minimal model with a reference field to exercise Clone.
type counter struct {
	Total int
	Log   []string
}

func (c counter) Clone() counter {
	c.Log = append([]string(nil), c.Log...)
	return c
}

const (
	kindAdd   action.Kind = "add"
	kindReset action.Kind = "reset"
	kindPeek  action.Kind = "peek"
)

func add(m counter, n int) counter {
	m.Total += n
	m.Log = append(m.Log, "add")
	return m
}

func counterHandlers() Handlers[counter] {
	return Handlers[counter]{
		kindAdd: func(c *Context[counter], a action.Action) {
			n, _ := a.Payload.(int)
			*c.Model() = add(*c.Model(), n)
			c.Notify()
		},
		kindReset: func(c *Context[counter], a action.Action) {
			*c.Model() = counter{}
			c.Notify()
		},
		kindPeek: func(c *Context[counter], a action.Action) {
			// read-only
			_ = c.Model().Total
		},
	}
}

func newCounterStore() *Store[counter] {
	return New("counter", counter{}, counterHandlers(), WithLogger(testLogger()))
}

func TestStore_InitialStateIsInitialModel(t *testing.T) {
	s := New("counter", counter{Total: 7}, counterHandlers())
	if got := s.State().Total; got != 7 {
		t.Errorf("State().Total = %d, want 7", got)
	}
	if s.Name() != "counter" {
		t.Errorf("Name() = %q, want counter", s.Name())
	}
}

func TestStore_StateIsFoldOfActions(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 20; trial++ {
		s := newCounterStore()
		want := counter{}

		for i := 0; i < 30; i++ {
			n := rng.Intn(10)
			s.Dispatch(action.Action{Kind: kindAdd, Payload: n})
			want = add(want, n)
		}

		if diff := cmp.Diff(want, s.State()); diff != "" {
			t.Fatalf("trial %d: state mismatch (-want +got):\n%s", trial, diff)
		}
	}
}

func TestStore_NotifyDeliversInSubscriptionOrder(t *testing.T) {
	s := newCounterStore()

	var order []string
	s.Listen(func(counter) { order = append(order, "first") })
	s.Listen(func(counter) { order = append(order, "second") })
	s.Listen(func(counter) { order = append(order, "third") })

	s.Dispatch(action.Action{Kind: kindAdd, Payload: 1})

	if diff := cmp.Diff([]string{"first", "second", "third"}, order); diff != "" {
		t.Errorf("listener order mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_EveryNotifyIsDelivered(t *testing.T) {
	s := newCounterStore()

	calls := 0
	s.Listen(func(counter) { calls++ })

	// identical consecutive states are not deduplicated
	s.Dispatch(action.Action{Kind: kindReset})
	s.Dispatch(action.Action{Kind: kindReset})
	s.Dispatch(action.Action{Kind: kindReset})

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestStore_ReadOnlyHandlerDoesNotNotify(t *testing.T) {
	s := newCounterStore()

	calls := 0
	s.Listen(func(counter) { calls++ })
	s.Dispatch(action.Action{Kind: kindPeek})

	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestStore_UnroutedActionIsIgnored(t *testing.T) {
	s := newCounterStore()
	s.Dispatch(action.Action{Kind: kindAdd, Payload: 3})

	calls := 0
	s.Listen(func(counter) { calls++ })

	before := s.State()
	s.Dispatch(action.Action{Kind: "no-such-kind", Payload: 99})

	if diff := cmp.Diff(before, s.State()); diff != "" {
		t.Errorf("unrouted action changed state (-before +after):\n%s", diff)
	}
	if calls != 0 {
		t.Errorf("unrouted action notified %d times", calls)
	}
	if s.Listeners() != 1 {
		t.Errorf("Listeners() = %d, want 1", s.Listeners())
	}
}

func TestStore_UnsubscribeStopsNotifications(t *testing.T) {
	s := newCounterStore()

	calls := 0
	unsubscribe := s.Listen(func(counter) { calls++ })

	s.Dispatch(action.Action{Kind: kindAdd, Payload: 1})
	unsubscribe()
	frozen := calls

	s.Dispatch(action.Action{Kind: kindAdd, Payload: 1})
	s.Dispatch(action.Action{Kind: kindAdd, Payload: 1})

	if calls != frozen {
		t.Errorf("calls = %d after unsubscribe, want frozen at %d", calls, frozen)
	}
	unsubscribe() // idempotent
}

func TestStore_UnsubscribeDuringNotify(t *testing.T) {
	s := newCounterStore()

	var second func()
	secondCalls := 0
	s.Listen(func(counter) { second() })
	second = s.Listen(func(counter) { secondCalls++ })

	s.Dispatch(action.Action{Kind: kindAdd, Payload: 1})

	if secondCalls != 0 {
		t.Errorf("listener removed mid-notify was still called %d times", secondCalls)
	}
}

func TestStore_NotifyWithoutListenersIsNoop(t *testing.T) {
	s := newCounterStore()
	s.Dispatch(action.Action{Kind: kindAdd, Payload: 2})

	if got := s.State().Total; got != 2 {
		t.Errorf("State().Total = %d, want 2", got)
	}
}

func TestStore_SnapshotsDoNotAliasModel(t *testing.T) {
	s := newCounterStore()

	var seen counter
	s.Listen(func(m counter) { seen = m })
	s.Dispatch(action.Action{Kind: kindAdd, Payload: 1})

	seen.Log[0] = "tampered"
	state := s.State()
	state.Log = append(state.Log, "tampered")

	if diff := cmp.Diff([]string{"add"}, s.State().Log); diff != "" {
		t.Errorf("model aliased by snapshot (-want +got):\n%s", diff)
	}
}

func TestStore_HandlerPanicIsRecovered(t *testing.T) {
	s := New("boom", counter{}, Handlers[counter]{
		"explode": func(c *Context[counter], a action.Action) { panic("bad handler") },
	}, WithLogger(testLogger()))

	s.Dispatch(action.Action{Kind: "explode"})
}

func TestStore_ListenerPanicDoesNotStopOthers(t *testing.T) {
	s := newCounterStore()

	after := 0
	s.Listen(func(counter) { panic("bad listener") })
	s.Listen(func(counter) { after++ })

	s.Dispatch(action.Action{Kind: kindAdd, Payload: 1})
	if after != 1 {
		t.Errorf("listener after panicking listener ran %d times, want 1", after)
	}
}

func TestStore_BindRoutesDispatcherActions(t *testing.T) {
	d := action.NewDispatcher(action.Inline{})
	s := newCounterStore()
	unbind := s.Bind(d)

	handles := d.Define(kindAdd, "unrouted")
	handles[kindAdd].Emit(4)
	handles["unrouted"].Emit(1)

	if got := s.State().Total; got != 4 {
		t.Fatalf("State().Total = %d, want 4", got)
	}

	unbind()
	handles[kindAdd].Emit(4)
	if got := s.State().Total; got != 4 {
		t.Errorf("State().Total = %d after unbind, want 4", got)
	}
	if n := d.Subscribers(kindAdd); n != 0 {
		t.Errorf("Subscribers(add) = %d after unbind, want 0", n)
	}
}

func TestStore_ObservableSurface(t *testing.T) {
	s := newCounterStore()
	var o Observable = s

	var got []any
	unsubscribe := o.Observe(func(v any) { got = append(got, v) })
	s.Dispatch(action.Action{Kind: kindAdd, Payload: 5})
	unsubscribe()

	if len(got) != 1 {
		t.Fatalf("Observe() received %d notifications, want 1", len(got))
	}
	if m, ok := got[0].(counter); !ok || m.Total != 5 {
		t.Errorf("Observe() received %#v, want counter with Total 5", got[0])
	}
	if m, ok := o.Snapshot().(counter); !ok || m.Total != 5 {
		t.Errorf("Snapshot() = %#v, want counter with Total 5", o.Snapshot())
	}
}

// manual is a Scheduler whose async work is held until release is called.
type manual struct {
	held []func() func()
}

func (m *manual) Post(fn func()) bool { fn(); return true }

func (m *manual) Go(work func() func()) { m.held = append(m.held, work) }

func (m *manual) release() {
	held := m.held
	m.held = nil
	for _, w := range held {
		if done := w(); done != nil {
			done()
		}
	}
}

const kindFetch action.Kind = "fetch"

func fetchHandlers(result int) Handlers[counter] {
	return Handlers[counter]{
		kindFetch: func(c *Context[counter], a action.Action) {
			c.Go(func(ctx context.Context) Completion[counter] {
				return func(c *Context[counter]) {
					c.Model().Total = result
					c.Notify()
				}
			})
		},
	}
}

func TestStore_AsyncCompletionAppliesOnScheduler(t *testing.T) {
	sched := &manual{}
	s := New("async", counter{}, fetchHandlers(42), WithScheduler(sched), WithLogger(testLogger()))

	calls := 0
	s.Listen(func(counter) { calls++ })

	s.Dispatch(action.Action{Kind: kindFetch})
	if calls != 0 || s.State().Total != 0 {
		t.Fatal("handler should return before the async completion applies")
	}

	sched.release()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if got := s.State().Total; got != 42 {
		t.Errorf("State().Total = %d, want 42", got)
	}
}

func TestStore_AsyncCompletionAfterLastUnsubscribeIsDiscarded(t *testing.T) {
	sched := &manual{}
	s := New("async", counter{}, fetchHandlers(42), WithScheduler(sched), WithLogger(testLogger()))

	calls := 0
	unsubscribe := s.Listen(func(counter) { calls++ })

	s.Dispatch(action.Action{Kind: kindFetch})
	unsubscribe()
	sched.release()

	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
	if got := s.State().Total; got != 0 {
		t.Errorf("stale completion applied: State().Total = %d, want 0", got)
	}
}

func TestStore_AsyncCompletionReachesResubscribedListener(t *testing.T) {
	sched := &manual{}
	s := New("async", counter{}, fetchHandlers(42), WithScheduler(sched), WithLogger(testLogger()))

	callsA := 0
	unsubscribeA := s.Listen(func(counter) { callsA++ })

	s.Dispatch(action.Action{Kind: kindFetch})
	unsubscribeA()

	var got []int
	s.Listen(func(m counter) { got = append(got, m.Total) })
	sched.release()

	if callsA != 0 {
		t.Errorf("unsubscribed listener called %d times", callsA)
	}
	if diff := cmp.Diff([]int{42}, got); diff != "" {
		t.Errorf("resubscribed listener mismatch (-want +got):\n%s", diff)
	}
	if total := s.State().Total; total != 42 {
		t.Errorf("State().Total = %d, want 42", total)
	}
}

func TestStore_AsyncCompletionWithoutListenersStillApplies(t *testing.T) {
	sched := &manual{}
	s := New("async", counter{}, fetchHandlers(7), WithScheduler(sched), WithLogger(testLogger()))

	s.Dispatch(action.Action{Kind: kindFetch})
	sched.release()

	if got := s.State().Total; got != 7 {
		t.Errorf("State().Total = %d, want 7", got)
	}
}

func TestStore_BindAdoptsDispatcherScheduler(t *testing.T) {
	sched := &manual{}
	d := action.NewDispatcher(sched)
	s := New("async", counter{}, fetchHandlers(9), WithLogger(testLogger()))
	s.Bind(d)

	d.Emit(kindFetch, nil)
	if len(sched.held) != 1 {
		t.Fatalf("async work scheduled on %d held slots, want 1", len(sched.held))
	}
	sched.release()

	if got := s.State().Total; got != 9 {
		t.Errorf("State().Total = %d, want 9", got)
	}
}
