package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedup claims event ids so a redelivered event is processed once.
type Dedup struct {
	RDB     redis.UniversalClient
	Service string
	TTL     time.Duration
}

func NewDedup(rdb redis.UniversalClient, service string) *Dedup {
	return &Dedup{RDB: rdb, Service: service, TTL: TTLDedup}
}

// Claim reports true when the caller is the first to see eventID.
func (d *Dedup) Claim(ctx context.Context, eventID string) (bool, error) {
	return d.RDB.SetNX(ctx, fmt.Sprintf(KeyDedup, d.Service, eventID), "1", d.TTL).Result()
}

// Release forgets a claim so the event can be retried after a failure.
func (d *Dedup) Release(ctx context.Context, eventID string) error {
	return d.RDB.Del(ctx, fmt.Sprintf(KeyDedup, d.Service, eventID)).Err()
}
