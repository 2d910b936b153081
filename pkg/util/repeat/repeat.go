package repeat

import (
	"context"
	"time"
)

// Repeat calls f until it succeeds, attempts run out or ctx is done, sleeping delay between attempts.
// It returns the last error of f, or ctx's error if the context ended first.
func Repeat(ctx context.Context, f func(ctx context.Context) error, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return err
}
