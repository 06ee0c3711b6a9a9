package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"account-service/internal/model"
)

type ProfileCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewProfileCache(client *redisv9.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &ProfileCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached profile and whether it was present.
func (c *ProfileCache) Get(ctx context.Context, userID uint) (*model.Profile, bool, error) {
	raw, err := c.client.Get(ctx, c.profileKey(userID)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get profile failed: %w", err)
	}

	var profile model.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached profile failed: %w", err)
	}
	return &profile, true, nil
}

func (c *ProfileCache) Set(ctx context.Context, profile model.Profile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.profileKey(profile.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set profile failed: %w", err)
	}
	return nil
}

func (c *ProfileCache) Delete(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, c.profileKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete profile failed: %w", err)
	}
	return nil
}

func (c *ProfileCache) profileKey(userID uint) string {
	return fmt.Sprintf("account:profile:%d", userID)
}
