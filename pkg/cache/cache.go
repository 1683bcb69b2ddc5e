// Package cache is the gateway to the ephemeral key/value store holding
// OTPs and blacklisted access tokens. Every operation fails soft: cached
// data here is always re-derivable (OTPs can be resent, the blacklist is
// defense in depth), so correctness must not depend on cache availability.
package cache

import (
	"context"
	"time"
)

// DefaultTTL applies when a caller passes a non-positive TTL to Set.
const DefaultTTL = time.Hour

// Store is the capability interface over the cache. Get returns the decoded
// value and whether it was present; Set/Del/FlushAll report success.
// TakeOnce atomically consumes key if its value equals expected, so an OTP
// can only ever be redeemed once.
type Store interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
	Del(ctx context.Context, key string) bool
	FlushAll(ctx context.Context) bool
	TakeOnce(ctx context.Context, key, expected string) bool
}
