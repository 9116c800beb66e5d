package bridge

import (
	"context"
	"io"
	"log/slog"

	"github.com/fermi-controls/extapi-acsys/errors"
)

// streamEnd is the reason a backend stream stopped delivering.
type streamEnd int

const (
	endCompleted streamEnd = iota
	endCancelled
	endInterrupted
)

func (e streamEnd) String() string {
	switch e {
	case endCompleted:
		return "completed"
	case endCancelled:
		return "cancelled"
	case endInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// failAll returns n failed results carrying the same message. Batch calls
// use it so a call that never reached the backend still answers every
// position.
func failAll[T any](n int, msg string) []Result[T] {
	results := make([]Result[T], n)
	for i := range results {
		results[i] = Fail[T](msg)
	}
	return results
}

// connectionFailed logs a backend call that could not be opened. A call
// abandoned by its caller is not a backend failure and is logged at debug.
func connectionFailed(ctx context.Context, logger *slog.Logger, err error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		logger.Debug("backend call abandoned before open", "error", err)
		return
	}
	logger.Error("backend connection failed", "error", err, "class", errors.Classify(err).String())
}

// streamEnded classifies why a stream stopped and logs it exactly once.
// err is the error from Recv, or nil when the consumer went away.
func streamEnded(ctx context.Context, logger *slog.Logger, err error) streamEnd {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		logger.Debug("subscription cancelled")
		return endCancelled
	case err == nil || err == io.EOF:
		logger.Debug("backend stream completed")
		return endCompleted
	default:
		logger.Warn("backend stream interrupted", "error", err, "class", errors.Classify(err).String())
		return endInterrupted
	}
}
