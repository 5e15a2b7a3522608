package app

import (
	"fmt"
	"os"
	"strings"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/caelexhq/caelex-backend/internal/clients/assistant"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
	"github.com/caelexhq/caelex-backend/internal/realtime/bus"
	"github.com/caelexhq/caelex-backend/internal/satellites"
	"github.com/caelexhq/caelex-backend/internal/temporalx"
)

// Clients are the external collaborators. All of them are optional except
// the satellite client: the redis bus only matters on multi-replica
// deploys, the assistant client needs an API key, and Temporal needs an
// address. Missing config degrades to the single-process path.
type Clients struct {
	SSEBus     bus.Bus
	Assistant  assistant.Client
	Satellites satellites.Client
	Temporal   temporalsdkclient.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	var sseBus bus.Bus
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		b, err := bus.NewRedisBus(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		sseBus = b
	}

	var assistantClient assistant.Client
	if strings.TrimSpace(os.Getenv("ASSISTANT_API_KEY")) != "" {
		ac, err := assistant.NewClient(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init assistant client: %w", err)
		}
		assistantClient = ac
	} else {
		log.Warn("ASSISTANT_API_KEY not set; assistant replies disabled")
	}

	satClient, err := satellites.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init satellite client: %w", err)
	}

	tc, err := temporalx.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init temporal client: %w", err)
	}

	return Clients{
		SSEBus:     sseBus,
		Assistant:  assistantClient,
		Satellites: satClient,
		Temporal:   tc,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
}
