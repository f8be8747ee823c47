package collector

import "sync"

// User is one entry in the workspace user directory.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RealName    string `json:"real_name"`
	DisplayName string `json:"display_name"`
}

// UserCache holds the user directory for a run. It is populated once,
// read thereafter, and can be cleared explicitly; there is no lazy
// population hidden inside lookups.
type UserCache struct {
	mu        sync.RWMutex
	users     map[string]User
	populated bool
}

// NewUserCache creates an empty UserCache.
func NewUserCache() *UserCache {
	return &UserCache{users: make(map[string]User)}
}

// Populated reports whether the directory has been loaded this run.
func (c *UserCache) Populated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.populated
}

// SetAll replaces the directory contents and marks the cache populated.
func (c *UserCache) SetAll(users map[string]User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = make(map[string]User, len(users))
	for id, u := range users {
		c.users[id] = u
	}
	c.populated = true
}

// Get returns the user for id, if known.
func (c *UserCache) Get(id string) (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[id]
	return u, ok
}

// All returns a copy of the directory.
func (c *UserCache) All() map[string]User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]User, len(c.users))
	for id, u := range c.users {
		out[id] = u
	}
	return out
}

// Len returns the number of cached users.
func (c *UserCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}

// Clear empties the cache so the next collection repopulates it.
func (c *UserCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = make(map[string]User)
	c.populated = false
}
