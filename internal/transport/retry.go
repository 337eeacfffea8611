package transport

import (
	"context"
	"time"

	"github.com/phoenixhw/phoenix/internal/perr"
)

func invalidKind() error {
	return perr.InvalidArgument("unknown transport kind")
}

// withRetry runs op up to maxRetries+1 times, retrying only on a *perr.Error
// whose Retryable() is true (BusError/FramingError), with retryBackoff
// between attempts. NAK and every other error returns immediately.
func withRetry(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		pe, ok := err.(*perr.Error)
		if !ok || !pe.Retryable() {
			return err
		}
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
	}
	return lastErr
}

// withTimeout runs op with a DefaultTimeout deadline on ctx. op is itself a
// blocking syscall with no context awareness (an ioctl), so the deadline is
// enforced by racing op's completion against tctx.Done() in a goroutine
// rather than by op checking tctx directly; a wedged op surfaces
// perr.Timeout to the caller instead of hanging it forever, though the
// goroutine itself only unblocks once the underlying syscall returns.
func withTimeout(ctx context.Context, opName string, op func(context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- op(tctx) }()

	select {
	case err := <-done:
		return err
	case <-tctx.Done():
		return perr.Timeout(opName)
	}
}
