package cache

import (
	"encoding/json"
	"time"

	"session-hub/internal/domain"
)

// DefaultTTL bounds the lifetime of every entry when no TTL is configured.
const DefaultTTL = 15 * time.Minute

// entry is the stored shape: the write instant plus the raw payload.
type entry struct {
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Ephemeral is a best-effort, TTL-bounded key/value cache over a tab-scoped
// storage medium. Every failure mode (absent key, malformed entry, storage
// unavailable) resolves to a miss; nothing ever surfaces as an error and a
// failed write never blocks the caller's primary data path.
//
// Keys are caller-defined strings with no namespacing or collision
// detection; the caller owns key cardinality.
type Ephemeral struct {
	store domain.Storage
	ttl   time.Duration
	now   func() time.Time
}

// New creates a cache over the given storage medium. A non-positive ttl
// falls back to DefaultTTL.
func New(store domain.Storage, ttl time.Duration) *Ephemeral {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Ephemeral{store: store, ttl: ttl, now: time.Now}
}

// Get returns the payload stored under key, or (nil, false) on a miss.
// Entries older than the TTL are evicted from storage and reported as
// misses; entries that cannot be parsed are treated the same way.
func (c *Ephemeral) Get(key string) (json.RawMessage, bool) {
	raw, err := c.store.Get(key)
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil || e.Timestamp == 0 {
		return nil, false
	}

	if c.now().Sub(time.UnixMilli(e.Timestamp)) > c.ttl {
		_ = c.store.Delete(key)
		return nil, false
	}

	return e.Payload, true
}

// GetInto decodes the payload stored under key into out.
// A payload that does not decode into out counts as a miss.
func (c *Ephemeral) GetInto(key string, out any) bool {
	payload, found := c.Get(key)
	if !found {
		return false
	}
	return json.Unmarshal(payload, out) == nil
}

// Set overwrites any entry under key with a fresh timestamped payload.
// Payloads that cannot be serialized and storage write failures are
// silently dropped.
func (c *Ephemeral) Set(key string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}

	stored, err := json.Marshal(entry{
		Timestamp: c.now().UnixMilli(),
		Payload:   raw,
	})
	if err != nil {
		return
	}

	_ = c.store.Set(key, string(stored))
}
