package redisstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"music-controller/internal/domain"
	"music-controller/internal/repository"
)

// DefaultSessionTTL 默认会话有效期两周
const DefaultSessionTTL = 14 * 24 * time.Hour

// RedisSessionStore 使用 Redis Hash 存储会话，Key 为 <prefix>session:<id>
type RedisSessionStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisSessionStore 创建 RedisSessionStore 实例，prefix 为空时使用默认前缀
func NewRedisSessionStore(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisSessionStore {
	if client == nil {
		panic("redis client cannot be nil for RedisSessionStore")
	}
	if keyPrefix == "" {
		keyPrefix = "mc:"
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// sessionKey 生成会话 Key
func (s *RedisSessionStore) sessionKey(id string) string {
	return fmt.Sprintf("%ssession:%s", s.keyPrefix, id)
}

// Create 生成新的会话 ID，写入 created_at 标记会话存在
func (s *RedisSessionStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	key := s.sessionKey(id)

	// HSET 与 EXPIRE 在同一事务中执行，不会留下没有 TTL 的会话
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, domain.SessionFieldCreatedAt, strconv.FormatInt(time.Now().Unix(), 10))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis: failed to create session on key %s: %w", key, err)
	}
	logrus.WithField("session_id", id).Debug("redis: session created")
	return id, nil
}

// Exists 判断会话 Key 是否存在，空 ID 视为不存在
func (s *RedisSessionStore) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	key := s.sessionKey(id)
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to check session key %s: %w", key, err)
	}
	return n > 0, nil
}

// GetField 读取会话字段
func (s *RedisSessionStore) GetField(ctx context.Context, id, field string) (string, bool, error) {
	key := s.sessionKey(id)
	value, err := s.client.HGet(ctx, key, field).Result()
	if err != nil {
		// redis.Nil 表示字段或会话不存在，不是错误
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis: failed to get field %s from %s: %w", field, key, err)
	}
	return value, true, nil
}

// SetField 写入字段并刷新 TTL
// 会话已过期时返回 ErrSessionNotFound，避免 HSET 悄悄复活一个不完整的会话
func (s *RedisSessionStore) SetField(ctx context.Context, id, field, value string) error {
	exists, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return repository.ErrSessionNotFound
	}
	// 写入字段并刷新 TTL
	key := s.sessionKey(id)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, field, value)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: failed to set field %s on %s: %w", field, key, err)
	}
	return nil
}

// DeleteField 删除会话字段，HDEL 返回值大于 0 表示字段原先存在
func (s *RedisSessionStore) DeleteField(ctx context.Context, id, field string) (bool, error) {
	key := s.sessionKey(id)
	n, err := s.client.HDel(ctx, key, field).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to delete field %s from %s: %w", field, key, err)
	}
	return n > 0, nil
}
