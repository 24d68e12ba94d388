package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/kaical-backend/internal/domain"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

const defaultEventTTL = 60 * time.Second

// EventCache memoizes a user's calendar range reads. Writes bump a per-user
// version so every cached range for that user goes stale at once.
//
// GetRange reports the version it read; a fill must hand that same version to
// PutRange so a write that lands in between leaves the fill unreachable.
type EventCache interface {
	GetRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]types.CalendarEvent, int64, bool, error)
	PutRange(ctx context.Context, userID uuid.UUID, version int64, from, to time.Time, events []types.CalendarEvent) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
	Close() error
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

type eventCache struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewEventCache(ctx context.Context, log *logger.Logger, opts Options) (EventCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(opts.Addr) == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newEventCache(log, rdb, opts), nil
}

func newEventCache(log *logger.Logger, rdb goredis.UniversalClient, opts Options) *eventCache {
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = "kaical"
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultEventTTL
	}
	return &eventCache{
		log:    log.With("service", "RedisEventCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *eventCache) versionKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:events:%s:ver", c.prefix, userID)
}

func (c *eventCache) version(ctx context.Context, userID uuid.UUID) (int64, error) {
	ver, err := c.rdb.Get(ctx, c.versionKey(userID)).Int64()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return 0, err
	}
	return ver, nil
}

func (c *eventCache) rangeKey(userID uuid.UUID, ver int64, from, to time.Time) string {
	return fmt.Sprintf("%s:events:%s:v%d:%d:%d", c.prefix, userID, ver, from.Unix(), to.Unix())
}

func (c *eventCache) GetRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]types.CalendarEvent, int64, bool, error) {
	ver, err := c.version(ctx, userID)
	if err != nil {
		return nil, 0, false, err
	}
	key := c.rangeKey(userID, ver, from, to)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ver, false, nil
	}
	if err != nil {
		return nil, ver, false, err
	}
	var out []types.CalendarEvent
	if err := json.Unmarshal(raw, &out); err != nil {
		// A corrupt entry is a miss; it expires on its own.
		c.log.Warn("dropping undecodable cache entry", "key", key, "error", err)
		return nil, ver, false, nil
	}
	return out, ver, true, nil
}

func (c *eventCache) PutRange(ctx context.Context, userID uuid.UUID, version int64, from, to time.Time, events []types.CalendarEvent) error {
	key := c.rangeKey(userID, version, from, to)
	if events == nil {
		events = []types.CalendarEvent{}
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

func (c *eventCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.rdb.Incr(ctx, c.versionKey(userID)).Err()
}

func (c *eventCache) Close() error {
	return c.rdb.Close()
}
