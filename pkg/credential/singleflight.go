package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RefreshCoordinator serializes concurrent refresh attempts for the same
// (tenant, kind) pair, both within this process (singleflight.Group) and
// across processes (a Redis SET NX PX lock) — the two-layer mechanism spec
// §4.1 requires so that two concurrent Acquire calls racing an expired
// credential never issue two refresh requests against the provider.
type RefreshCoordinator struct {
	group *singleflight.Group
	rdb   *redis.Client
	ttl   time.Duration
}

// NewRefreshCoordinator builds a RefreshCoordinator backed by rdb, with
// lockTTL bounding how long a crashed refresh attempt can hold the lock.
func NewRefreshCoordinator(rdb *redis.Client, lockTTL time.Duration) *RefreshCoordinator {
	return &RefreshCoordinator{
		group: &singleflight.Group{},
		rdb:   rdb,
		ttl:   lockTTL,
	}
}

// Do runs fn for key (tenant-schema-qualified, e.g. "tenant_acme:google"),
// coalescing concurrent in-process callers via singleflight and holding a
// distributed Redis lock for the duration so other processes do not
// duplicate the refresh. A caller whose process finds the lock already held
// does not wait: Do returns ErrLockContended at once without invoking fn,
// and the caller re-checks freshness itself (e.g. by retrying Acquire).
func (rc *RefreshCoordinator) Do(ctx context.Context, key string, fn func(ctx context.Context) (Credential, error)) (Credential, error) {
	v, err, _ := rc.group.Do(key, func() (any, error) {
		return rc.doLocked(ctx, key, fn)
	})
	if err != nil {
		return Credential{}, err
	}
	return v.(Credential), nil
}

// ErrLockContended is returned when another process holds the refresh lock
// and the caller should retry Acquire rather than attempt its own refresh.
var ErrLockContended = fmt.Errorf("credential refresh lock held by another process")

func (rc *RefreshCoordinator) doLocked(ctx context.Context, key string, fn func(ctx context.Context) (Credential, error)) (Credential, error) {
	if rc.rdb == nil {
		return fn(ctx)
	}

	lockKey := "credential_refresh_lock:" + key
	ok, err := rc.rdb.SetNX(ctx, lockKey, "1", rc.ttl).Result()
	if err != nil {
		return Credential{}, fmt.Errorf("acquiring refresh lock: %w", err)
	}
	if !ok {
		return Credential{}, ErrLockContended
	}
	defer rc.rdb.Del(context.WithoutCancel(ctx), lockKey)

	return fn(ctx)
}
