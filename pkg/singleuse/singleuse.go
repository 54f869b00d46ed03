// Package singleuse marks state tokens as consumed so a returned callback
// can be processed at most once. The codec itself is stateless and does not
// prevent replay; this guard is the layer on top that does.
package singleuse

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyUsed = errors.New("token already used")
	ErrUnavailable = errors.New("single-use guard unavailable")
)

// client is the slice of go-redis used by the guard, narrowed so tests can
// substitute a fake.
type client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// Guard claims tokens in Redis with SETNX. Keys hold the SHA-256 of the
// token rather than the token itself, so raw tokens never land in Redis, and
// expire after the claim TTL to bound memory.
type Guard struct {
	rdb    client
	prefix string
	ttl    time.Duration
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Guard {
	return newGuard(rdb, prefix, ttl)
}

func newGuard(rdb client, prefix string, ttl time.Duration) *Guard {
	if prefix == "" {
		prefix = "presave:state"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Guard{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Claim marks the token as used. The first claim succeeds; any later claim
// within the TTL fails with ErrAlreadyUsed.
func (g *Guard) Claim(ctx context.Context, token string) error {
	ok, err := g.rdb.SetNX(ctx, g.key(token), 1, g.ttl).Result()
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	if !ok {
		return ErrAlreadyUsed
	}
	return nil
}

func (g *Guard) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return g.prefix + ":" + hex.EncodeToString(sum[:])
}
