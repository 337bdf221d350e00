package admission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/sentinel"
)

// Lease serialises capacity-sensitive admissions per (organisation, event,
// category). Acquire blocks until the slot is free so a burst of concurrent
// admissions queues up instead of failing fast; the conditional team insert
// remains the hard cap guard underneath.
type Lease interface {
	// Acquire claims the slot, blocking while another admission for the same
	// key is in flight. Returns sentinel.ErrUnavailable when the slot cannot
	// be claimed before the context or lease deadline expires.
	Acquire(ctx context.Context, orgID id.OrganisationID, eventID id.EventID, categoryCode string) (release func(), err error)
}

func leaseKey(orgID id.OrganisationID, eventID id.EventID, categoryCode string) string {
	return fmt.Sprintf("admission:%s:%s:%s", orgID, eventID, categoryCode)
}

// MemoryLease holds one mutex per key. Single-node only.
type MemoryLease struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMemoryLease() *MemoryLease {
	return &MemoryLease{locks: make(map[string]*sync.Mutex)}
}

func (l *MemoryLease) Acquire(_ context.Context, orgID id.OrganisationID, eventID id.EventID, categoryCode string) (func(), error) {
	key := leaseKey(orgID, eventID, categoryCode)
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock, nil
}

// RedisLease implements the lease with SET NX PX so it holds across replicas.
// Acquire polls until the key is claimed or the context gives up. Release
// compares the stored token before deleting, so an expired lease re-acquired
// by another replica is never released by the original holder.
type RedisLease struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisLease(client *goredis.Client, ttl time.Duration) *RedisLease {
	return &RedisLease{client: client, ttl: ttl}
}

const leasePollInterval = 50 * time.Millisecond

var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *RedisLease) Acquire(ctx context.Context, orgID id.OrganisationID, eventID id.EventID, categoryCode string) (func(), error) {
	key := leaseKey(orgID, eventID, categoryCode)
	token := uuid.NewString()

	deadline := time.Now().Add(l.ttl)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire admission lease: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, sentinel.ErrUnavailable
		}
		select {
		case <-ctx.Done():
			return nil, sentinel.ErrUnavailable
		case <-time.After(leasePollInterval):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}
