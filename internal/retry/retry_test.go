package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func recordedSleeps(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDoStopsAfterSuccess(t *testing.T) {
	var delays []time.Duration
	calls := 0
	p := Policy{MaxAttempts: 3, Backoff: Exponential(2 * time.Second), Sleep: recordedSleeps(&delays)}

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if len(delays) != 1 || delays[0] != 2*time.Second {
		t.Fatalf("delays = %v, want [2s]", delays)
	}
}

func TestDoExponentialBackoffAndNoTrailingSleep(t *testing.T) {
	var delays []time.Duration
	boom := errors.New("boom")
	p := Policy{MaxAttempts: 3, Backoff: Exponential(2 * time.Second), Sleep: recordedSleeps(&delays)}

	err := p.Do(context.Background(), func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Do returned %v, want last observed error", err)
	}
	if len(delays) != 2 {
		t.Fatalf("delays = %v, want exactly two sleeps", delays)
	}
	if delays[0] != 2*time.Second || delays[1] != 4*time.Second {
		t.Fatalf("delays = %v, want [2s 4s]", delays)
	}
}

func TestDoNonRetryableFailsFast(t *testing.T) {
	var delays []time.Duration
	fatal := errors.New("fatal")
	calls := 0
	p := Policy{
		MaxAttempts: 3,
		Backoff:     Fixed(2 * time.Second),
		RetryIf:     func(err error) bool { return !errors.Is(err, fatal) },
		Sleep:       recordedSleeps(&delays),
	}

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("Do returned %v, want fatal", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if len(delays) != 0 {
		t.Fatalf("delays = %v, want none", delays)
	}
}

func TestDoHonorsContextDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := Policy{MaxAttempts: 2, Backoff: Fixed(time.Minute)}

	err := p.Do(ctx, func(context.Context) error { return errors.New("boom") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do returned %v, want context.Canceled", err)
	}
}

func TestExponentialSchedule(t *testing.T) {
	backoff := Exponential(2 * time.Second)
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, expected := range want {
		if got := backoff(i + 1); got != expected {
			t.Fatalf("backoff(%d) = %s, want %s", i+1, got, expected)
		}
	}
}
