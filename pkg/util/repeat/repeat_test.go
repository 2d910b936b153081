package repeat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRepeat(t *testing.T) {
	t.Run("stops_on_success", func(t *testing.T) {
		calls := 0
		err := Repeat(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("boom")
			}
			return nil
		}, 5, time.Millisecond)

		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("returns_last_error", func(t *testing.T) {
		calls := 0
		err := Repeat(context.Background(), func(ctx context.Context) error {
			calls++
			return errors.New("boom")
		}, 3, time.Millisecond)

		assert.EqualError(t, err, "boom")
		assert.Equal(t, 3, calls)
	})

	t.Run("context_cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := Repeat(ctx, func(ctx context.Context) error {
			return errors.New("boom")
		}, 3, time.Second)

		assert.ErrorIs(t, err, context.Canceled)
	})
}
