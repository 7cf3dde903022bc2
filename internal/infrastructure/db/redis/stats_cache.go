package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/military-registry/personnel-api/internal/core/domain"
)

const (
	statsKey        = "personnel:stats"
	generationKey   = "personnel:stats:gen"
	allUnitsField   = "*"
	defaultStatsTTL = time.Minute
)

// setIfCurrent writes one hash field only while the generation key still
// holds ARGV[1]. A missing generation key reads as 0.
var setIfCurrent = redis.NewScript(`
local gen = redis.call("GET", KEYS[2]) or "0"
if gen ~= ARGV[1] then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[2], ARGV[3])
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return 1
`)

// StatsCache keeps computed statistics in a single Redis hash keyed by unit,
// next to a generation counter that Invalidate advances. The counter has no
// expiry so a write computed before an invalidation is always refused.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache wraps client. A non-positive ttl uses defaultStatsTTL.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &StatsCache{client: client, ttl: ttl}
}

func field(unit string) string {
	if unit == "" {
		return allUnitsField
	}
	return "unit:" + unit
}

// Get returns the cached statistics for unit and the current generation,
// reporting false on a miss.
func (c *StatsCache) Get(ctx context.Context, unit string) (*domain.PersonnelStatistics, int64, bool, error) {
	pipe := c.client.Pipeline()
	genCmd := pipe.Get(ctx, generationKey)
	valCmd := pipe.HGet(ctx, statsKey, field(unit))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("stats cache get: %w", err)
	}

	gen, err := genCmd.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("stats cache generation: %w", err)
	}

	raw, err := valCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("stats cache get: %w", err)
	}

	var stats domain.PersonnelStatistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, 0, false, fmt.Errorf("stats cache decode: %w", err)
	}
	return &stats, gen, true, nil
}

// Set stores stats for unit and refreshes the hash expiry, unless the
// generation moved since Get.
func (c *StatsCache) Set(ctx context.Context, unit string, generation int64, stats *domain.PersonnelStatistics) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("stats cache encode: %w", err)
	}

	keys := []string{statsKey, generationKey}
	args := []any{strconv.FormatInt(generation, 10), field(unit), raw, c.ttl.Milliseconds()}
	if err := setIfCurrent.Run(ctx, c.client, keys, args...).Err(); err != nil {
		return fmt.Errorf("stats cache set: %w", err)
	}
	return nil
}

// Invalidate advances the generation and drops every cached scope.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, generationKey)
	pipe.Del(ctx, statsKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("stats cache invalidate: %w", err)
	}
	return nil
}
