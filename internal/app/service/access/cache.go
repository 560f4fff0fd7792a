package access

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fuelflow/fuelflow/pkg/logctx"
)

const cacheKeyPrefix = "fuelflow:access:"

type membershipKind string

const (
	kindBlocked membershipKind = "blocked"
	kindAdmin   membershipKind = "admin"
	kindAllowed membershipKind = "allowed"
)

var allKinds = []membershipKind{kindBlocked, kindAdmin, kindAllowed}

// CachedStore keeps short-lived membership answers in redis. Any toggle drops
// every cached answer for that email. Redis errors fall through to the store.
type CachedStore struct {
	next Store
	rdb  *redis.Client
	ttl  time.Duration
	log  *zap.SugaredLogger
}

func NewCachedStore(next Store, rdb *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *CachedStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedStore{next: next, rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(kind membershipKind, email string) string {
	return cacheKeyPrefix + string(kind) + ":" + email
}

func (c *CachedStore) lookup(ctx context.Context, kind membershipKind, email string, load func(context.Context, string) (bool, error)) (bool, error) {
	key := cacheKey(kind, email)
	v, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		return v == "1", nil
	case !errors.Is(err, redis.Nil):
		logctx.FromCtx(ctx, c.log).Warnw("membership_cache_get_failed", "key", key, "err", err)
	}

	present, err := load(ctx, email)
	if err != nil {
		return false, err
	}
	val := "0"
	if present {
		val = "1"
	}
	if err := c.rdb.Set(ctx, key, val, c.ttl).Err(); err != nil {
		logctx.FromCtx(ctx, c.log).Warnw("membership_cache_set_failed", "key", key, "err", err)
	}
	return present, nil
}

func (c *CachedStore) invalidate(ctx context.Context, email string) {
	keys := make([]string, 0, len(allKinds))
	for _, k := range allKinds {
		keys = append(keys, cacheKey(k, email))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logctx.FromCtx(ctx, c.log).Warnw("membership_cache_invalidate_failed", "email", email, "err", err)
	}
}

func (c *CachedStore) IsBlocked(ctx context.Context, email string) (bool, error) {
	return c.lookup(ctx, kindBlocked, email, c.next.IsBlocked)
}

func (c *CachedStore) IsAdmin(ctx context.Context, email string) (bool, error) {
	return c.lookup(ctx, kindAdmin, email, c.next.IsAdmin)
}

func (c *CachedStore) IsAllowed(ctx context.Context, email string) (bool, error) {
	return c.lookup(ctx, kindAllowed, email, c.next.IsAllowed)
}

func (c *CachedStore) SetAllowed(ctx context.Context, email, actor string, on bool) error {
	defer c.invalidate(ctx, email)
	return c.next.SetAllowed(ctx, email, actor, on)
}

func (c *CachedStore) SetBlocked(ctx context.Context, email, reason, actor string, on bool) error {
	defer c.invalidate(ctx, email)
	return c.next.SetBlocked(ctx, email, reason, actor, on)
}

func (c *CachedStore) SetAdmin(ctx context.Context, email, actor string, on bool) error {
	defer c.invalidate(ctx, email)
	return c.next.SetAdmin(ctx, email, actor, on)
}

var _ Store = (*CachedStore)(nil)
