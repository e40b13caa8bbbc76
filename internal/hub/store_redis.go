// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/ecg-hub/internal/platform/apperr"
	"github.com/taibuivan/ecg-hub/internal/platform/constants"
)

// RedisResetTokenRepository implements ResetTokenRepository using Redis.
//
// Reset tokens are volatile by nature: Redis TTL handles expiry without any
// cleanup job, and a successful reset deletes the key so each token is
// single-use.
type RedisResetTokenRepository struct {
	client *redis.Client
}

// NewResetTokenRepository creates a new Redis-backed ResetTokenRepository.
func NewResetTokenRepository(client *redis.Client) *RedisResetTokenRepository {
	return &RedisResetTokenRepository{client: client}
}

// resetKey builds the namespaced Redis key for a reset token.
func resetKey(token string) string {
	return constants.RedisPrefixResetToken + token
}

/*
Set stores a reset token with its associated user uuid and TTL.

Parameters:
  - context: context.Context
  - token: string
  - userUUID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisResetTokenRepository) Set(context context.Context, token string, userUUID string, ttl time.Duration) error {
	if err := repository.client.Set(context, resetKey(token), userUUID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_set_failed: %w", err)
	}
	return nil
}

/*
Get retrieves the user uuid for a given token.

Description: Returns apperr.NotFound if the token is absent or expired.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - string: User uuid
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisResetTokenRepository) Get(context context.Context, token string) (string, error) {
	userUUID, err := repository.client.Get(context, resetKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("Reset token")
		}
		return "", fmt.Errorf("redis_reset_token_get_failed: %w", err)
	}
	return userUUID, nil
}

/*
Delete removes the token from Redis.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisResetTokenRepository) Delete(context context.Context, token string) error {
	if err := repository.client.Del(context, resetKey(token)).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_delete_failed: %w", err)
	}
	return nil
}
