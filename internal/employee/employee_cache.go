package employee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-ees/internal/shared/pagination"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	EmployeeListKeyPrefix  = "employees:list:"
	EmployeeListVersionKey = EmployeeListKeyPrefix + "version"

	DefaultListCacheTTL = 5 * time.Minute
)

// EmployeeListKey is the cache key of one page of results under a list
// version. Search is case-insensitive, so the term is folded.
func EmployeeListKey(version string, q GetEmployeesQuery) string {
	return fmt.Sprintf("%sv%s:p%d:s%d:q%s",
		EmployeeListKeyPrefix,
		version,
		q.PageNumber,
		q.PageSize,
		strings.ToLower(strings.TrimSpace(q.SearchTerm)),
	)
}

// ListCache stores paginated results in Redis. Writes bump a version number
// instead of deleting keys, so every cached page goes stale at once and the
// old entries expire through their TTL.
//
// A nil *ListCache, or one without a client, is a disabled cache.
type ListCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewListCache(rdb *redis.Client, ttl time.Duration, logger ...*zap.Logger) *ListCache {
	l := zap.L().Named("employee.cache")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.cache")
	}
	if ttl <= 0 {
		ttl = DefaultListCacheTTL
	}
	return &ListCache{rdb: rdb, ttl: ttl, logger: l}
}

func (c *ListCache) enabled() bool {
	return c != nil && c.rdb != nil
}

// Version returns the current list version, "0" before the first write. ok
// is false when the cache is disabled or the version cannot be read; callers
// must then neither read nor fill the cache.
func (c *ListCache) Version(ctx context.Context) (version string, ok bool) {
	if !c.enabled() {
		return "", false
	}

	v, err := c.rdb.Get(ctx, EmployeeListVersionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", true
	}
	if err != nil {
		c.logger.Warn("read employee list version failed", zap.Error(err))
		return "", false
	}
	return v, true
}

func (c *ListCache) Get(ctx context.Context, key string) (pagination.PaginatedResult[EmployeeDto], bool) {
	var result pagination.PaginatedResult[EmployeeDto]
	if !c.enabled() {
		return result, false
	}

	cached, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("read employee list cache failed", zap.String("key", key), zap.Error(err))
		}
		return result, false
	}

	if err := json.Unmarshal(cached, &result); err != nil {
		c.logger.Warn("decode employee list cache failed", zap.String("key", key), zap.Error(err))
		return result, false
	}
	return result, true
}

func (c *ListCache) Set(ctx context.Context, key string, result pagination.PaginatedResult[EmployeeDto]) {
	if !c.enabled() {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("encode employee list cache failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("write employee list cache failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate retires every cached page.
func (c *ListCache) Invalidate(ctx context.Context) {
	if !c.enabled() {
		return
	}

	if err := c.rdb.Incr(ctx, EmployeeListVersionKey).Err(); err != nil {
		c.logger.Error("failed to invalidate employee list cache",
			zap.String("key", EmployeeListVersionKey),
			zap.Error(err),
		)
	}
}
