// Package ctxutil provides contexts carrying their own cancel function,
// so that a context can be cancelled by every party it is passed to.
package ctxutil

import (
	"context"
	"time"
)

type key string

var cancelkey = key("cancel")

func CancelContext(ctx context.Context) context.Context {
	return cancelContext(context.WithCancel(ctx))
}

// TimeoutContext is a cancellable context expiring after the given
// duration. Tests use it to bound waits on services.
func TimeoutContext(ctx context.Context, duration time.Duration) context.Context {
	return cancelContext(context.WithTimeout(ctx, duration))
}

func cancelContext(ctx context.Context, cancel context.CancelFunc) context.Context {
	return context.WithValue(ctx, cancelkey, cancel)
}

// Cancel cancels a context created by this package. It reports
// false for other contexts.
func Cancel(ctx context.Context) bool {
	cancel, ok := ctx.Value(cancelkey).(context.CancelFunc)
	if ok {
		cancel()
	}
	return ok
}
