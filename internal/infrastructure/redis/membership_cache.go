// Package redis caches resolved dynamic-group memberships.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ajg707/laurx-portal/internal/application/groups"
	goredis "github.com/redis/go-redis/v9"
)

var _ groups.MembershipCache = (*MembershipCache)(nil)

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

// MembershipCache stores member id lists as JSON under <prefix>:group:<id>:members,
// together with the group version they were computed for.
type MembershipCache struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewMembershipCache builds the cache. ttl <= 0 keeps entries until invalidated.
func NewMembershipCache(client goredis.UniversalClient, prefix string, ttl time.Duration) *MembershipCache {
	if ttl < 0 {
		ttl = 0
	}
	return &MembershipCache{client: client, prefix: prefix, ttl: ttl}
}

type cachedMembers struct {
	Version     string   `json:"version"`
	CustomerIDs []string `json:"customer_ids"`
}

func (c *MembershipCache) key(groupID string) string {
	return fmt.Sprintf("%s:group:%s:members", c.prefix, groupID)
}

// Get returns (nil, false, nil) on a miss or when the entry belongs to another version.
func (c *MembershipCache) Get(ctx context.Context, groupID, version string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(groupID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var entry cachedMembers
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, fmt.Errorf("decode cached members: %w", err)
	}
	if entry.Version != version {
		return nil, false, nil
	}
	if entry.CustomerIDs == nil {
		entry.CustomerIDs = []string{}
	}
	return entry.CustomerIDs, true, nil
}

func (c *MembershipCache) Set(ctx context.Context, groupID, version string, customerIDs []string) error {
	if customerIDs == nil {
		customerIDs = []string{}
	}
	raw, err := json.Marshal(cachedMembers{Version: version, CustomerIDs: customerIDs})
	if err != nil {
		return fmt.Errorf("encode members: %w", err)
	}
	if err := c.client.Set(ctx, c.key(groupID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *MembershipCache) Invalidate(ctx context.Context, groupID string) error {
	if err := c.client.Del(ctx, c.key(groupID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
