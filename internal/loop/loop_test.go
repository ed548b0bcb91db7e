package loop

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitIdle(t *testing.T, l *Loop) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestLoop_RunsTasksInOrder(t *testing.T) {
	l := New(testLogger())
	l.Start(context.Background())
	defer l.Stop()

	var got []int
	for i := 0; i < 50; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	waitIdle(t, l)

	if len(got) != 50 {
		t.Fatalf("ran %d tasks, want 50", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestLoop_TasksPostedBeforeStartRunAfterStart(t *testing.T) {
	l := New(testLogger())

	ran := false
	l.Post(func() { ran = true })

	l.Start(context.Background())
	defer l.Stop()
	waitIdle(t, l)

	if !ran {
		t.Error("task posted before Start did not run")
	}
}

func TestLoop_GoPostsCompletionOnLoop(t *testing.T) {
	l := New(testLogger())
	l.Start(context.Background())
	defer l.Stop()

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	release := make(chan struct{})
	l.Go(func() func() {
		<-release
		record("work")
		return func() { record("done") }
	})
	l.Post(func() { record("task") })
	close(release)

	waitIdle(t, l)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 {
		t.Fatalf("order = %v, want 3 entries", order)
	}
	if order[len(order)-1] != "done" {
		t.Errorf("completion should run last, got %v", order)
	}
}

func TestLoop_WaitCoversAsyncWork(t *testing.T) {
	l := New(testLogger())
	l.Start(context.Background())
	defer l.Stop()

	done := false
	l.Go(func() func() {
		time.Sleep(50 * time.Millisecond)
		return func() { done = true }
	})

	waitIdle(t, l)
	if !done {
		t.Error("Wait() returned before async completion ran")
	}
}

func TestLoop_WaitRespectsContext(t *testing.T) {
	l := New(testLogger()) // never started, so posted work never drains
	l.Post(func() {})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("Wait() = nil, want context error")
	}
}

func TestLoop_PanicDoesNotStopLoop(t *testing.T) {
	l := New(testLogger())
	l.Start(context.Background())
	defer l.Stop()

	l.Post(func() { panic("boom") })
	ran := false
	l.Post(func() { ran = true })

	waitIdle(t, l)
	if !ran {
		t.Error("task after panicking task did not run")
	}
}

func TestLoop_PanickingWorkIsDropped(t *testing.T) {
	l := New(testLogger())
	l.Start(context.Background())
	defer l.Stop()

	l.Go(func() func() { panic("work boom") })
	waitIdle(t, l)
}

func TestLoop_PostAfterStopIsRejected(t *testing.T) {
	l := New(testLogger())
	l.Start(context.Background())
	l.Stop()

	if l.Post(func() {}) {
		t.Error("Post() after Stop = true, want false")
	}
}

func TestLoop_LateCompletionAfterStopIsDropped(t *testing.T) {
	l := New(testLogger())
	l.Start(context.Background())

	release := make(chan struct{})
	finished := make(chan struct{})
	ran := false
	l.Go(func() func() {
		<-release
		defer close(finished)
		return func() { ran = true }
	})

	l.Stop()
	close(release)
	<-finished
	time.Sleep(10 * time.Millisecond)

	if ran {
		t.Error("completion ran after Stop")
	}
}

func TestLoop_StopIsIdempotent(t *testing.T) {
	l := New(testLogger())
	l.Stop()
	l.Stop()

	l.Start(context.Background()) // no-op after Stop
	if l.Post(func() {}) {
		t.Error("Post() after Stop-before-Start = true, want false")
	}
}

func TestLoop_ContextCancelStopsLoop(t *testing.T) {
	l := New(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)
	cancel()

	deadline := time.After(time.Second)
	for l.Post(func() {}) {
		select {
		case <-deadline:
			t.Fatal("loop still accepting tasks after context cancel")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}
