package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Atomic compare-and-delete so two concurrent verifications cannot both
// observe a still-valid OTP.
var takeOnceScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if v == ARGV[1] then
  redis.call("DEL", KEYS[1])
  return 1
end
return 0
`)

// RedisStore implements Store over go-redis. Values are stored as JSON.
type RedisStore struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

func NewRedisStore(rdb *redis.Client, logger *logrus.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, logger: logger}
}

func (s *RedisStore) Get(ctx context.Context, key string, dest any) bool {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		s.logErr("GET", key, err)
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		s.logErr("GET", key, err)
		return false
	}
	return true
}

func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	b, err := json.Marshal(value)
	if err != nil {
		s.logErr("SET", key, err)
		return false
	}
	if err := s.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		s.logErr("SET", key, err)
		return false
	}
	return true
}

func (s *RedisStore) Del(ctx context.Context, key string) bool {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.logErr("DEL", key, err)
		return false
	}
	return true
}

func (s *RedisStore) FlushAll(ctx context.Context) bool {
	if err := s.rdb.FlushAll(ctx).Err(); err != nil {
		s.logErr("FLUSHALL", "", err)
		return false
	}
	return true
}

func (s *RedisStore) TakeOnce(ctx context.Context, key, expected string) bool {
	// The stored value is JSON, so compare against the encoded form.
	b, err := json.Marshal(expected)
	if err != nil {
		return false
	}
	res, err := takeOnceScript.Run(ctx, s.rdb, []string{key}, string(b)).Int()
	if err != nil {
		s.logErr("TAKEONCE", key, err)
		return false
	}
	return res == 1
}

func (s *RedisStore) logErr(op, key string, err error) {
	if s.logger != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"op": op, "key": key}).Warn("cache error")
	}
}

var _ Store = (*RedisStore)(nil)
