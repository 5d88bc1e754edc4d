package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/coursereg/internal/models"
)

const (
	timeFormat    = "2006-01-02 15:04:05"
	sessionKeyTpl = "session:%s" // session:${token}
	userKeyTpl    = "user:%s:%s" // user:${role}:${id}
	tokenPrefix   = "sk-crsreg-"
)

var ErrSessionNotFound = errors.New("session not found")

// TokenStore keeps bearer sessions.
type TokenStore interface {
	Issue(ctx context.Context, role models.Role, userID string) (*models.Session, error)
	Lookup(ctx context.Context, token string) (*models.Session, error)
	Revoke(ctx context.Context, token string) error
	Close() error
}

type TokenManager struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewTokenManager(redis *redis.Client, ttl time.Duration) *TokenManager {
	return &TokenManager{redis: redis, ttl: ttl}
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

// Issue creates a fresh session and revokes the previous one of the same user.
func (tm *TokenManager) Issue(ctx context.Context, role models.Role, userID string) (*models.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	userKey := fmt.Sprintf(userKeyTpl, role, userID)
	previous, err := tm.redis.Get(ctx, userKey).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to check previous session: %w", err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf(sessionKeyTpl, token)

	pipe := tm.redis.TxPipeline()
	if previous != "" {
		pipe.Del(ctx, fmt.Sprintf(sessionKeyTpl, previous))
	}
	pipe.HSet(ctx, key, map[string]interface{}{
		"role":                  string(role),
		"user_id":               userID,
		"request_count":         0,
		"last_request_dttm_utc": now.Format(timeFormat),
		"created_dttm_utc":      now.Format(timeFormat),
	})
	pipe.Set(ctx, userKey, token, tm.ttl)
	if tm.ttl > 0 {
		pipe.Expire(ctx, key, tm.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		Token:       token,
		Role:        role,
		UserID:      userID,
		LastRequest: now.Truncate(time.Second),
		Created:     now.Truncate(time.Second),
	}, nil
}

// Lookup resolves a token and bumps its request stats.
func (tm *TokenManager) Lookup(ctx context.Context, token string) (*models.Session, error) {
	key := fmt.Sprintf(sessionKeyTpl, token)

	values, err := tm.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(values) == 0 {
		return nil, ErrSessionNotFound
	}

	now := time.Now().UTC()
	pipe := tm.redis.Pipeline()
	pipe.HIncrBy(ctx, key, "request_count", 1)
	pipe.HSet(ctx, key, "last_request_dttm_utc", now.Format(timeFormat))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to update session stats: %w", err)
	}

	createdTime, _ := time.Parse(timeFormat, values["created_dttm_utc"])
	reqCount, _ := strconv.Atoi(values["request_count"])

	return &models.Session{
		Token:        token,
		Role:         models.Role(values["role"]),
		UserID:       values["user_id"],
		RequestCount: reqCount + 1,
		LastRequest:  now.Truncate(time.Second),
		Created:      createdTime,
	}, nil
}

func (tm *TokenManager) Revoke(ctx context.Context, token string) error {
	key := fmt.Sprintf(sessionKeyTpl, token)

	values, err := tm.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if len(values) == 0 {
		return ErrSessionNotFound
	}

	pipe := tm.redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, fmt.Sprintf(userKeyTpl, values["role"], values["user_id"]))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (tm *TokenManager) Close() error {
	if tm.redis != nil {
		return tm.redis.Close()
	}
	return nil
}
