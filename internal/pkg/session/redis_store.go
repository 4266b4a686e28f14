// internal/pkg/session/redis_store.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"carbon-portal/internal/domain/identity"
	xerrors "carbon-portal/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps the session under three keys sharing one namespace.
// Tokens are written in a MULTI/EXEC block and Clear is a single DEL, so
// partial states are never visible to other readers.
type RedisStore struct {
	client    redis.UniversalClient
	namespace string
	logger    *zap.Logger
}

func NewRedisStore(client redis.UniversalClient, namespace string, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

func (s *RedisStore) SaveToken(ctx context.Context, accessToken, refreshToken string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(KeyAccessToken), accessToken, 0)
		pipe.Set(ctx, s.key(KeyRefreshToken), refreshToken, 0)
		return nil
	})
	if err != nil {
		return xerrors.Storage("store tokens in redis", err)
	}
	return nil
}

func (s *RedisStore) SaveIdentity(ctx context.Context, id *identity.Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := s.client.Set(ctx, s.key(KeyUser), data, 0).Err(); err != nil {
		return xerrors.Storage("store identity in redis", err)
	}
	return nil
}

func (s *RedisStore) LoadIdentity(ctx context.Context) (*identity.Identity, error) {
	data, err := s.client.Get(ctx, s.key(KeyUser)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Storage("load identity from redis", err)
	}

	id, err := decodeIdentity(data)
	if err != nil {
		s.logger.Warn("cached identity is unreadable, treating as absent",
			zap.String("key", s.key(KeyUser)),
			zap.Error(err),
		)
		return nil, nil
	}
	return id, nil
}

func (s *RedisStore) HasToken(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(KeyAccessToken)).Result()
	if err != nil {
		return false, xerrors.Storage("check token in redis", err)
	}
	return n > 0, nil
}

func (s *RedisStore) AccessToken(ctx context.Context) (string, error) {
	tok, err := s.client.Get(ctx, s.key(KeyAccessToken)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", xerrors.Storage("load token from redis", err)
	}
	return tok, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	err := s.client.Del(ctx,
		s.key(KeyAccessToken),
		s.key(KeyRefreshToken),
		s.key(KeyUser),
	).Err()
	if err != nil {
		return xerrors.Storage("clear session in redis", err)
	}
	return nil
}

// key wraps the namespace in a hash tag so all three keys share a cluster
// slot and the multi-key DEL stays valid in cluster mode.
func (s *RedisStore) key(name string) string {
	return fmt.Sprintf("{%s}:%s", s.namespace, name)
}
