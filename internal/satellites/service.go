package satellites

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/caelexhq/caelex-backend/internal/observability"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
	"github.com/caelexhq/caelex-backend/internal/pkg/ttlcache"
)

// Service fronts the SATCAT client with a TTL cache. Concurrent lookups for
// the same NORAD ID are coalesced into a single upstream request.
type Service interface {
	Get(ctx context.Context, noradID int64) (*Satellite, error)
	Invalidate(noradID int64)
}

type service struct {
	log    *logger.Logger
	client Client
	cache  *ttlcache.Cache[int64, *Satellite]
	group  singleflight.Group
}

func NewService(client Client, log *logger.Logger) (Service, error) {
	ttl := 1 * time.Hour
	if v := os.Getenv("SATCAT_CACHE_TTL_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			ttl = time.Duration(parsed) * time.Second
		}
	}
	return newService(client, log, ttl, time.Now)
}

func newService(client Client, log *logger.Logger, ttl time.Duration, now func() time.Time) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("satcat client required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		log:    log.With("service", "SatelliteService"),
		client: client,
		cache:  ttlcache.New[int64, *Satellite](ttl, now),
	}, nil
}

func (s *service) Get(ctx context.Context, noradID int64) (*Satellite, error) {
	if sat, ok := s.cache.Get(noradID); ok {
		if metrics := observability.Current(); metrics != nil {
			metrics.IncSatelliteLookup("cache_hit")
		}
		return sat, nil
	}

	key := strconv.FormatInt(noradID, 10)
	v, err, _ := s.group.Do(key, func() (any, error) {
		// A losing racer lands here after the winner populated the cache.
		if sat, ok := s.cache.Get(noradID); ok {
			return sat, nil
		}
		sat, err := s.client.Lookup(ctx, noradID)
		if err != nil {
			return nil, err
		}
		s.cache.Set(noradID, sat)
		return sat, nil
	})
	if err != nil {
		if metrics := observability.Current(); metrics != nil {
			metrics.IncSatelliteLookup("error")
		}
		return nil, err
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncSatelliteLookup("cache_miss")
	}
	return v.(*Satellite), nil
}

func (s *service) Invalidate(noradID int64) {
	s.cache.Delete(noradID)
}
