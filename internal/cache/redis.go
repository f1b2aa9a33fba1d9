// Package cache keeps short-lived server state in Redis: cached favorite sets
// and the access tokens revoked before they expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	favoritesPrefix = "favorites:"
	revokedPrefix   = "revoked:"
	// revoked_before:<user id> holds the unix second before which every
	// access token of that user is rejected.
	revokedBeforePrefix = "revoked_before:"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func Connect(ctx context.Context, cfg *config.Config) (*Cache, error) {
	const op = "cache.Connect"
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return New(client, cfg.CacheTTL), nil
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func favoritesKey(userID uuid.UUID) string { return favoritesPrefix + userID.String() }

// FavoriteIDs returns the cached favorite set. found is false on a miss.
func (c *Cache) FavoriteIDs(ctx context.Context, userID uuid.UUID) (ids []uuid.UUID, found bool, err error) {
	const op = "cache.FavoriteIDs"
	val, err := c.client.Get(ctx, favoritesKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(val, &ids); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return ids, true, nil
}

func (c *Cache) SetFavoriteIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, favoritesKey(userID), b, c.ttl).Err()
}

func (c *Cache) InvalidateFavorites(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, favoritesKey(userID)).Err()
}

func (c *Cache) InvalidateAllFavorites(ctx context.Context) error {
	_, err := c.DeleteMatching(ctx, favoritesPrefix+"*")
	return err
}

// RevokeToken denylists an access token id until it would have expired anyway.
func (c *Cache) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, revokedPrefix+jti, 1, ttl).Err()
}

// RevokeUserTokens rejects every access token of the user issued before at.
// ttl should cover the access token lifetime.
func (c *Cache) RevokeUserTokens(ctx context.Context, userID uuid.UUID, at time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, revokedBeforePrefix+userID.String(), at.Unix(), ttl).Err()
}

// IsRevoked reports whether the token id was denylisted or the subject's
// tokens issued before issuedAt were revoked in bulk.
func (c *Cache) IsRevoked(ctx context.Context, jti, subject string, issuedAt time.Time) (bool, error) {
	const op = "cache.IsRevoked"
	pipe := c.client.Pipeline()
	var exists *redis.IntCmd
	if jti != "" {
		exists = pipe.Exists(ctx, revokedPrefix+jti)
	}
	var before *redis.StringCmd
	if subject != "" {
		before = pipe.Get(ctx, revokedBeforePrefix+subject)
	}
	if exists == nil && before == nil {
		return false, nil
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if exists != nil && exists.Val() > 0 {
		return true, nil
	}
	if before != nil {
		cutoff, err := before.Int64()
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		// Tokens without iat cannot prove they are newer than the cutoff.
		return issuedAt.IsZero() || issuedAt.Unix() < cutoff, nil
	}
	return false, nil
}

// PurgeUser drops every cache entry whose key mentions the user id. The
// user's bulk revocation marker is kept.
func (c *Cache) PurgeUser(ctx context.Context, userID uuid.UUID) (int, error) {
	keep := revokedBeforePrefix + userID.String()
	return c.deleteMatching(ctx, "*"+userID.String()+"*", func(key string) bool { return key == keep })
}

// DeleteMatching scans for keys matching a glob pattern and deletes them.
func (c *Cache) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	return c.deleteMatching(ctx, pattern, nil)
}

func (c *Cache) deleteMatching(ctx context.Context, pattern string, skip func(string) bool) (int, error) {
	const op = "cache.DeleteMatching"
	deleted := 0
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}
		deleted += int(n)
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		if skip != nil && skip(iter.Val()) {
			continue
		}
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return deleted, fmt.Errorf("%s: %w", op, err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("%s: %w", op, err)
	}
	if err := flush(); err != nil {
		return deleted, fmt.Errorf("%s: %w", op, err)
	}
	return deleted, nil
}
