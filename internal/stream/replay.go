package stream

import (
	"context"
	"errors"
	"io"

	"golang.org/x/time/rate"

	"github.com/sawpanic/tickgate/internal/ingest"
	"github.com/sawpanic/tickgate/internal/tick"
)

// Validator is the part of the engine replay needs
type Validator interface {
	ValidateResult(raw tick.Raw) ingest.Result
}

// HandlerFunc is called for every processed record; a non-nil error stops
// the replay
type HandlerFunc func(raw tick.Raw, res ingest.Result) error

// NewLimiter returns a limiter for rps records per second, or nil for an
// unthrottled replay
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Replay drains src through v until EOF, cancellation or a handler error.
// It returns the number of records processed.
func Replay(ctx context.Context, src Source, v Validator, limiter *rate.Limiter, fn HandlerFunc) (int, error) {
	processed := 0
	for {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return processed, err
			}
		}

		raw, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return processed, nil
		}
		if err != nil {
			return processed, err
		}

		res := v.ValidateResult(raw)
		processed++

		if fn != nil {
			if err := fn(raw, res); err != nil {
				return processed, err
			}
		}
	}
}
