package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps the session under <prefix>:token and <prefix>:user so
// several console processes on one workstation share a login.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "clinicdesk:session"
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) key(name string) string {
	return fmt.Sprintf("%s:%s", s.prefix, name)
}

// Load reads both keys in a single MGET so a concurrent Save cannot be
// observed half applied.
func (s *RedisStore) Load(ctx context.Context) (*Session, error) {
	vals, err := s.redis.MGet(ctx, s.key(KeyToken), s.key(KeyUser)).Result()
	if err != nil {
		return nil, fmt.Errorf("session: redis mget: %w", err)
	}
	token, ok1 := vals[0].(string)
	rawUser, ok2 := vals[1].(string)
	if !ok1 || !ok2 || strings.TrimSpace(token) == "" {
		return nil, ErrNoSession
	}
	user, ok := decodeUser([]byte(rawUser))
	if !ok {
		return nil, ErrNoSession
	}
	return &Session{Token: token, User: user}, nil
}

// Save writes token and user inside one MULTI/EXEC.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session: nil session")
	}
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("session: marshal user: %w", err)
	}
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(KeyToken), sess.Token, 0)
		pipe.Set(ctx, s.key(KeyUser), userJSON, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: redis save: %w", err)
	}
	return nil
}

// Clear removes the canonical keys and any legacy keys under the prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	keys := []string{s.key(KeyToken), s.key(KeyUser)}
	for _, k := range legacyKeys {
		keys = append(keys, s.key(k))
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("session: redis clear: %w", err)
	}
	return nil
}
