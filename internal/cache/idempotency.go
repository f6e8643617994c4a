package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// idem:checkout:{key} -> transaction id
	KeyIdemCheckout = "idem:checkout:%s"

	TTLIdempotency = 24 * time.Hour
)

// IdempotencyStore remembers which transaction a checkout key produced. It is a
// fast path only; the ledger's unique key remains authoritative.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (uuid.UUID, bool, error)
	Remember(ctx context.Context, key string, txID uuid.UUID) error
}

// NewRedisClient builds a client with short timeouts so a slow cache never stalls checkout.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
}

type redisIdempotency struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisIdempotency(rdb redis.Cmdable) IdempotencyStore {
	return &redisIdempotency{rdb: rdb, ttl: TTLIdempotency}
}

func (r *redisIdempotency) Lookup(ctx context.Context, key string) (uuid.UUID, bool, error) {
	val, err := r.rdb.Get(ctx, fmt.Sprintf(KeyIdemCheckout, key)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt idempotency entry %q: %w", key, err)
	}
	return id, true, nil
}

func (r *redisIdempotency) Remember(ctx context.Context, key string, txID uuid.UUID) error {
	return r.rdb.SetNX(ctx, fmt.Sprintf(KeyIdemCheckout, key), txID.String(), r.ttl).Err()
}

// Noop is used when no Redis address is configured.
type Noop struct{}

func (Noop) Lookup(context.Context, string) (uuid.UUID, bool, error) { return uuid.Nil, false, nil }
func (Noop) Remember(context.Context, string, uuid.UUID) error        { return nil }
