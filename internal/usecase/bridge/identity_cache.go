package bridge

import "github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"

// IdentityCache maps chat user IDs to display names. It is built once from a
// directory snapshot and never mutated, so it is safe for concurrent reads.
type IdentityCache struct {
	names map[string]string
}

// NewIdentityCache builds the cache. Entries with an empty ID or name are skipped;
// for duplicate IDs the last entry wins.
func NewIdentityCache(identities []entity.Identity) *IdentityCache {
	names := make(map[string]string, len(identities))
	for _, id := range identities {
		if id.ID == "" || id.DisplayName == "" {
			continue
		}
		names[id.ID] = id.DisplayName
	}
	return &IdentityCache{names: names}
}

// Lookup returns the display name for a chat user ID.
func (c *IdentityCache) Lookup(userID string) (string, bool) {
	name, ok := c.names[userID]
	return name, ok
}

// Len returns the number of cached identities.
func (c *IdentityCache) Len() int {
	return len(c.names)
}
