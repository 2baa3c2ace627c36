package cache

import (
	"encoding/json"
	"time"
)

// Entry is a cached GraphQL "data" payload. Data is kept as raw JSON so the
// stored value stays readable in redis-cli.
type Entry struct {
	Data     json.RawMessage `json:"data"`
	Expires  time.Time       `json:"expires"`
	CachedAt time.Time       `json:"cached_at"`
}

// NewEntry creates an entry that expires after ttl.
func NewEntry(data []byte, ttl time.Duration) *Entry {
	now := time.Now()
	return &Entry{
		Data:     data,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
}

// IsExpired returns true if the cache entry has expired.
func (e *Entry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the time until expiration, 0 if already expired.
func (e *Entry) TTL() time.Duration {
	return max(0, time.Until(e.Expires))
}

// Age is how long ago the entry was cached.
func (e *Entry) Age() time.Duration {
	return time.Since(e.CachedAt)
}
