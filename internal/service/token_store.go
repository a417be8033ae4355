package service

import (
	"context"
	"errors"
	"langquiz_backend/internal/util"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	revokedKeyPrefix  = "revoked_jwt:"
	sessionsKeyPrefix = "sessions_after:"
	resetKeyPrefix    = "password_reset:"
)

// RedisTokenStore 在 Redis 中保存已注销的 JWT、用户级会话截止时间和密码重置令牌
type RedisTokenStore struct {
	Redis *redis.Client
}

func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{Redis: rdb}
}

// Revoke 将 jti 加入黑名单，直到令牌本身过期
func (s *RedisTokenStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return s.Redis.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err()
}

func (s *RedisTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.Redis.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func sessionsKey(userID uint) string {
	return sessionsKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// RevokeAll 使 userID 在 at 及之前签发的所有 JWT 失效，ttl 应覆盖 JWT 有效期
func (s *RedisTokenStore) RevokeAll(ctx context.Context, userID uint, at time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.Redis.Set(ctx, sessionsKey(userID), at.Unix(), ttl).Err()
}

// SessionRevoked 检查单个令牌的注销记录以及所属用户的会话截止时间
func (s *RedisTokenStore) SessionRevoked(ctx context.Context, claims *util.Claims) (bool, error) {
	revoked, err := s.IsRevoked(ctx, claims.ID)
	if err != nil || revoked {
		return revoked, err
	}

	cutoff, err := s.Redis.Get(ctx, sessionsKey(claims.UserID)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if claims.IssuedAt == nil {
		return true, nil
	}
	return claims.IssuedAt.Unix() <= cutoff, nil
}

func (s *RedisTokenStore) Create(ctx context.Context, userID uint, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	if err := s.Redis.Set(ctx, resetKeyPrefix+token, userID, ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Consume 返回重置令牌所属用户并使其失效
func (s *RedisTokenStore) Consume(ctx context.Context, token string) (uint, error) {
	val, err := s.Redis.GetDel(ctx, resetKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, util.ErrResetTokenInvalid
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, util.ErrResetTokenInvalid
	}
	return uint(id), nil
}
