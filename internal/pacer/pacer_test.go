package pacer

import (
	"context"
	"testing"
	"time"

	"anitransfer/internal/stats"
)

func TestFirstWaitNeverBlocks(t *testing.T) {
	current := time.Unix(1000, 0)
	timerCalls := 0
	p := New(4*time.Second, nil, nil, WithClock(
		func() time.Time { return current },
		func(d time.Duration) <-chan time.Time {
			timerCalls++
			fired := make(chan time.Time, 1)
			fired <- current.Add(d)
			return fired
		},
	))

	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if timerCalls != 0 {
		t.Fatalf("first Wait should not block, timer called %d times", timerCalls)
	}
}

func TestWaitEnforcesInterval(t *testing.T) {
	current := time.Unix(1000, 0)
	var waited time.Duration
	st := stats.New()
	p := New(4*time.Second, nil, st, WithClock(
		func() time.Time { return current },
		func(d time.Duration) <-chan time.Time {
			waited += d
			fired := make(chan time.Time, 1)
			fired <- current.Add(d)
			return fired
		},
	))

	ctx := context.Background()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	// Only one second has passed; expect a three second pause.
	current = current.Add(time.Second)
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	if waited != 3*time.Second {
		t.Fatalf("waited %v, want 3s", waited)
	}
	if got := st.Get(stats.MillisWaiting); got != 3000 {
		t.Fatalf("MillisWaiting = %d, want 3000", got)
	}

	// Enough time has passed; no further pause.
	current = current.Add(10 * time.Second)
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("third Wait: %v", err)
	}
	if waited != 3*time.Second {
		t.Fatalf("unexpected extra wait: %v", waited)
	}
}

func TestWaitCountsSubSecondPauses(t *testing.T) {
	current := time.Unix(1000, 0)
	st := stats.New()
	p := New(time.Second, nil, st, WithClock(
		func() time.Time { return current },
		func(d time.Duration) <-chan time.Time {
			fired := make(chan time.Time, 1)
			fired <- current.Add(d)
			return fired
		},
	))

	ctx := context.Background()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	// Half the interval has passed; the 500ms pause must not vanish.
	current = current.Add(500 * time.Millisecond)
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	if got := st.Get(stats.MillisWaiting); got != 500 {
		t.Fatalf("MillisWaiting = %d, want 500", got)
	}
}

func TestZeroIntervalIsNoOp(t *testing.T) {
	current := time.Unix(1000, 0)
	timerCalls := 0
	p := New(0, nil, nil, WithClock(
		func() time.Time { return current },
		func(d time.Duration) <-chan time.Time {
			timerCalls++
			return make(chan time.Time)
		},
	))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("Wait returned error: %v", err)
		}
	}
	if timerCalls != 0 {
		t.Fatalf("zero interval should never block, timer called %d times", timerCalls)
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	current := time.Unix(1000, 0)
	p := New(4*time.Second, nil, nil, WithClock(
		func() time.Time { return current },
		func(d time.Duration) <-chan time.Time { return make(chan time.Time) },
	))

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	cancel()
	if err := p.Wait(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
