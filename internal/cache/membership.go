// Package cache holds the ephemeral membership projection: which
// organizations a user may select, and which one each user's session has
// currently activated. Staleness is bounded by explicit invalidation at
// every mutating transition, not by TTLs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// MembershipCache is a last-writer-wins key-value projection with two key
// shapes: user -> selectable organization IDs, and user -> the single
// active organization. MarkActive overwrites the active pointer, so a
// user can never hold two markers no matter how calls interleave;
// ClearActive only deletes when the pointer still names the given
// organization. A read miss never means "empty": callers get ok=false
// and are expected to refresh from the authoritative source.
type MembershipCache interface {
	GetUserOrganizations(ctx context.Context, userExternalID string) ([]string, bool, error)
	SetUserOrganizations(ctx context.Context, userExternalID string, orgExternalIDs []string) error
	MarkActive(ctx context.Context, userExternalID, orgExternalID string) error
	ClearActive(ctx context.Context, userExternalID, orgExternalID string) error
	IsActive(ctx context.Context, userExternalID, orgExternalID string) (bool, error)
}

type redisMembershipCache struct {
	client *redis.Client
	prefix string
}

// NewRedisMembershipCache builds a MembershipCache over the given client.
// Keys are namespaced under prefix.
func NewRedisMembershipCache(client *redis.Client, prefix string) MembershipCache {
	return &redisMembershipCache{client: client, prefix: prefix}
}

func (c *redisMembershipCache) orgsKey(userExternalID string) string {
	return fmt.Sprintf("%s:orgs:%s", c.prefix, userExternalID)
}

func (c *redisMembershipCache) activeKey(userExternalID string) string {
	return fmt.Sprintf("%s:active:%s", c.prefix, userExternalID)
}

// GetUserOrganizations returns (nil, false, nil) on a miss. An authoritative
// empty set round-trips as an empty slice with ok=true; the two are stored
// differently on purpose.
func (c *redisMembershipCache) GetUserOrganizations(ctx context.Context, userExternalID string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, c.orgsKey(userExternalID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading organization set: %w", err)
	}

	var orgIDs []string
	if err := json.Unmarshal([]byte(raw), &orgIDs); err != nil {
		return nil, false, fmt.Errorf("decoding organization set: %w", err)
	}
	return orgIDs, true, nil
}

// SetUserOrganizations replaces the stored set wholesale.
func (c *redisMembershipCache) SetUserOrganizations(ctx context.Context, userExternalID string, orgExternalIDs []string) error {
	if orgExternalIDs == nil {
		orgExternalIDs = []string{}
	}
	raw, err := json.Marshal(orgExternalIDs)
	if err != nil {
		return fmt.Errorf("encoding organization set: %w", err)
	}
	if err := c.client.Set(ctx, c.orgsKey(userExternalID), raw, 0).Err(); err != nil {
		return fmt.Errorf("writing organization set: %w", err)
	}
	return nil
}

// clearActiveScript deletes the active pointer only when it still names
// the expected organization, so a concurrent switch that already moved
// the pointer elsewhere is left alone.
var clearActiveScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// MarkActive points the user's single active marker at orgExternalID,
// displacing whatever organization held it before.
func (c *redisMembershipCache) MarkActive(ctx context.Context, userExternalID, orgExternalID string) error {
	if err := c.client.Set(ctx, c.activeKey(userExternalID), orgExternalID, 0).Err(); err != nil {
		return fmt.Errorf("setting active marker: %w", err)
	}
	return nil
}

// ClearActive is a compare-and-delete: the marker goes away only if it
// still names orgExternalID.
func (c *redisMembershipCache) ClearActive(ctx context.Context, userExternalID, orgExternalID string) error {
	err := clearActiveScript.Run(ctx, c.client, []string{c.activeKey(userExternalID)}, orgExternalID).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("clearing active marker: %w", err)
	}
	return nil
}

func (c *redisMembershipCache) IsActive(ctx context.Context, userExternalID, orgExternalID string) (bool, error) {
	current, err := c.client.Get(ctx, c.activeKey(userExternalID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("checking active marker: %w", err)
	}
	return current == orgExternalID, nil
}
