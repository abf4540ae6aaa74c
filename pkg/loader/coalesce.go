package loader

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Coalescer deduplicates concurrent tracked invocations sharing a key.
// Callers arriving while an invocation for the key is in flight receive
// its result instead of starting another one.
type Coalescer struct {
	group singleflight.Group
}

// Track runs Track(ctx, fn) unless an invocation for key is already in
// flight. shared reports whether the result was delivered to more than
// one caller.
//
// The shared invocation runs detached from the cancellation of the caller
// that started it, so one caller leaving does not discard the result for
// the others. Each caller stops waiting when its own ctx ends and then
// gets ErrDiscarded.
func (c *Coalescer) Track(ctx context.Context, key string, fn Func) (res *Result, shared bool, err error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return Track(detached, fn)
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Shared, r.Err
		}
		return r.Val.(*Result), r.Shared, nil
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%w: %w", ErrDiscarded, ctx.Err())
	}
}

// Forget makes the next Track for key start a new invocation even if one
// is in flight.
func (c *Coalescer) Forget(key string) {
	c.group.Forget(key)
}
