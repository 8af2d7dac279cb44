package overview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "pulseboard:overview:snapshot"

// ErrNoSnapshot is returned when nothing has been cached yet.
var ErrNoSnapshot = errors.New("overview: no snapshot cached")

// Cache persists snapshots in redis so the landing page does not fan
// out to the backend on every request.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache instance.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Load reads the cached snapshot. ErrNoSnapshot means the key is
// missing or expired.
func (c *Cache) Load(ctx context.Context) (Snapshot, error) {
	payload, err := c.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("overview: load snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("overview: decode snapshot: %w", err)
	}
	return snap, nil
}

// Store writes the snapshot with the configured TTL.
func (c *Cache) Store(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("overview: encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("overview: store snapshot: %w", err)
	}
	return nil
}
