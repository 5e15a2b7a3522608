package bus

import (
	"context"

	"github.com/caelexhq/caelex-backend/internal/realtime"
)

// Bus fans SSE messages out across API replicas. A nil Bus is valid:
// the notifier then only reaches clients connected to this process.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
