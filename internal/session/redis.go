package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
)

// setAccessScript swaps the access half of a stored pair in place.
//
// Returns:
//
//	1 if updated
//	0 if no pair is stored (cleared, expired, or corrupt)
var setAccessScript = redis.NewScript(`
-- KEYS[1] = session key
-- ARGV[1] = new access token
local raw = redis.call('GET', KEYS[1])
if not raw then
  return 0
end
local ok, pair = pcall(cjson.decode, raw)
if not ok or type(pair) ~= 'table' or not pair['refreshToken'] or pair['refreshToken'] == '' then
  return 0
end
pair['accessToken'] = ARGV[1]
local ttl = redis.call('PTTL', KEYS[1])
if ttl > 0 then
  redis.call('SET', KEYS[1], cjson.encode(pair), 'PX', ttl)
else
  redis.call('SET', KEYS[1], cjson.encode(pair))
end
return 1
`)

// RedisStore persists one client context's pair at "session-token:<clientID>".
// Redis serializes commands per key, so Set, SetAccess and Clear never interleave.
type RedisStore struct {
	rdb      redis.UniversalClient
	clientID string
	ttl      time.Duration
	log      *slog.Logger
}

// NewRedisStore binds a store to clientID. ttl bounds how long the pair
// survives without activity and should match the refresh token lifetime.
func NewRedisStore(rdb redis.UniversalClient, clientID string, ttl time.Duration, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}
	return &RedisStore{rdb: rdb, clientID: clientID, ttl: ttl, log: log}
}

func (s *RedisStore) key() string { return StorageKey + ":" + s.clientID }

func (s *RedisStore) Get(ctx context.Context) (auth.TokenPair, bool) {
	if s.rdb == nil || s.clientID == "" {
		return auth.TokenPair{}, false
	}
	raw, err := s.rdb.Get(ctx, s.key()).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("session store unavailable, treating as logged out", "err", err)
		}
		return auth.TokenPair{}, false
	}
	pair, ok := DecodePair(raw)
	if !ok {
		s.log.Warn("discarding malformed session value", "client_id", s.clientID)
	}
	return pair, ok
}

func (s *RedisStore) Set(ctx context.Context, pair auth.TokenPair) error {
	if s.rdb == nil {
		return errors.New("session: redis client is nil")
	}
	if s.clientID == "" {
		return errors.New("session: client id is required")
	}
	raw, err := EncodePair(pair)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(), raw, s.ttl).Err()
}

func (s *RedisStore) SetAccess(ctx context.Context, accessToken string) error {
	if s.rdb == nil || s.clientID == "" {
		return ErrNoSession
	}
	res, err := setAccessScript.Run(ctx, s.rdb, []string{s.key()}, accessToken).Int()
	if err != nil {
		return err
	}
	if res != 1 {
		return ErrNoSession
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if s.rdb == nil || s.clientID == "" {
		return nil
	}
	return s.rdb.Del(ctx, s.key()).Err()
}
