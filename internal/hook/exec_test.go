package hook

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRun_Success(t *testing.T) {
	res := Run(context.Background(), 0, func(ctx context.Context) (any, error) {
		return "value", nil
	})

	if !res.Success() {
		t.Fatalf("expected success, got error %v", res.Err)
	}
	if res.Value != "value" {
		t.Errorf("expected value, got %v", res.Value)
	}
	if res.TimedOut {
		t.Error("expected no timeout")
	}
}

func TestRun_Error(t *testing.T) {
	wantErr := errors.New("handler failed")
	res := Run(context.Background(), 0, func(ctx context.Context) (any, error) {
		return nil, wantErr
	})

	if res.Success() {
		t.Fatal("expected failure")
	}
	if !errors.Is(res.Err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, res.Err)
	}
}

func TestRun_PanicRecovered(t *testing.T) {
	res := Run(context.Background(), 0, func(ctx context.Context) (any, error) {
		panic("boom")
	})

	if res.Success() {
		t.Fatal("expected failure")
	}
	if !errors.Is(res.Err, ErrHandlerPanic) {
		t.Errorf("expected panic error, got %v", res.Err)
	}

	var pe *PanicError
	if !errors.As(res.Err, &pe) {
		t.Fatal("expected *PanicError")
	}
	if pe.Value != "boom" {
		t.Errorf("expected panic value boom, got %v", pe.Value)
	}
	if len(pe.Stack) == 0 {
		t.Error("expected captured stack")
	}
}

func TestRun_TimeoutWins(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	res := Run(context.Background(), 20*time.Millisecond, func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	elapsed := time.Since(start)

	if !res.TimedOut {
		t.Fatal("expected timeout")
	}
	if !errors.Is(res.Err, ErrHandlerTimeout) {
		t.Errorf("expected ErrHandlerTimeout, got %v", res.Err)
	}
	if elapsed > time.Second {
		t.Errorf("expected Run to return at the timer, took %v", elapsed)
	}
}

func TestRun_FastHandlerBeatsTimer(t *testing.T) {
	res := Run(context.Background(), time.Second, func(ctx context.Context) (any, error) {
		return 42, nil
	})

	if res.TimedOut {
		t.Fatal("expected handler to beat the timer")
	}
	if res.Value != 42 {
		t.Errorf("expected 42, got %v", res.Value)
	}
}

func TestRun_TimeoutContextVisibleToHandler(t *testing.T) {
	sawDeadline := make(chan bool, 1)
	Run(context.Background(), 15*time.Millisecond, func(ctx context.Context) (any, error) {
		_, ok := ctx.Deadline()
		sawDeadline <- ok
		return nil, nil
	})

	if !<-sawDeadline {
		t.Error("expected handler context to carry the timeout deadline")
	}
}

func TestRun_PanicUnderTimeout(t *testing.T) {
	res := Run(context.Background(), time.Second, func(ctx context.Context) (any, error) {
		panic("late boom")
	})

	if !errors.Is(res.Err, ErrHandlerPanic) {
		t.Errorf("expected panic error, got %v", res.Err)
	}
}

func TestRun_InlineRunsToCompletion(t *testing.T) {
	res := Run(WithInline(context.Background()), 5*time.Millisecond, func(ctx context.Context) (any, error) {
		time.Sleep(30 * time.Millisecond)
		return "late", nil
	})

	if res.TimedOut {
		t.Fatal("expected no timer race for an inline context")
	}
	if !res.Success() || res.Value != "late" {
		t.Errorf("expected the late result, got %+v", res)
	}
}

func TestRun_InlineDeadlineCooperative(t *testing.T) {
	res := Run(WithInline(context.Background()), 15*time.Millisecond, func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	if res.TimedOut {
		t.Error("expected no synthetic timeout for an inline context")
	}
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("expected the deadline surfaced by the handler, got %v", res.Err)
	}
}

func TestIsInline(t *testing.T) {
	if IsInline(context.Background()) {
		t.Error("expected a plain context to not be inline")
	}
	if !IsInline(WithInline(context.Background())) {
		t.Error("expected the marker to be detected")
	}
}
