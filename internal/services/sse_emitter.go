package services

import (
	"context"

	"github.com/caelexhq/caelex-backend/internal/realtime"
	"github.com/caelexhq/caelex-backend/internal/realtime/bus"
)

// SSEEmitter abstracts where realtime events go: straight into the
// in-process hub on single-replica deploys, or through the redis bus so
// every replica's hub sees them.
type SSEEmitter interface {
	Emit(ctx context.Context, msg realtime.SSEMessage)
}

type HubEmitter struct{ Hub *realtime.SSEHub }

func (e *HubEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	e.Hub.Broadcast(msg)
}

type RedisEmitter struct{ Bus bus.Bus }

func (e *RedisEmitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	_ = e.Bus.Publish(ctx, msg)
}
