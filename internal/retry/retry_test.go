package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	p := Policy{Attempts: 3, Delay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	p := Policy{Attempts: 3, Delay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	p := Policy{Attempts: 3, Delay: time.Millisecond}
	calls := 0
	last := errors.New("still broken")
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return last
	})

	assert.Equal(t, last, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanent(t *testing.T) {
	p := Policy{Attempts: 5, Delay: time.Millisecond}
	calls := 0
	boom := errors.New("bad payload")
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(boom)
	})

	assert.Equal(t, boom, err)
	assert.Equal(t, 1, calls)
}

func TestDoAppliesPerAttemptTimeout(t *testing.T) {
	p := Policy{Attempts: 2, Delay: time.Millisecond, PerAttemptTimeout: 10 * time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, calls)
}

func TestDoHonorsCancelledParent(t *testing.T) {
	p := Policy{Attempts: 5, Delay: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
