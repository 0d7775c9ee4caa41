package engine

import (
	"context"
	"time"

	"github.com/threatdetect-io/mlsweep/internal/catalog"
)

// DefaultSettleDelay is how long verification waits before its second
// existence check, absorbing provider eventual-consistency lag.
const DefaultSettleDelay = 15 * time.Second

// verifyAbsent proves a delete by re-querying the provider. A delete
// call's own return code is never trusted: distributed delete APIs can
// acknowledge a request before the resource is actually gone. If the
// first fresh check still sees the resource, verification waits one
// settle delay and checks once more.
func (e *Engine) verifyAbsent(ctx context.Context, kind catalog.Kind, id string) (bool, error) {
	absent, err := e.adapter.IsAbsent(ctx, kind, id)
	if err == nil && absent {
		return true, nil
	}

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-time.After(e.cfg.SettleDelay):
	}

	return e.adapter.IsAbsent(ctx, kind, id)
}
