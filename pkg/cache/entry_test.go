package cache

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewEntry(t *testing.T) {
	tests := []struct {
		name        string
		ttl         time.Duration
		wantExpired bool
	}{
		{name: "poll interval", ttl: 2 * time.Second},
		{name: "detail lookup", ttl: 30 * time.Second},
		{name: "zero ttl", ttl: 0, wantExpired: true},
		{name: "negative ttl", ttl: -time.Minute, wantExpired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := NewEntry([]byte(`{}`), tt.ttl)

			if got := entry.IsExpired(); got != tt.wantExpired {
				t.Errorf("IsExpired() = %v, want %v", got, tt.wantExpired)
			}
			if tt.wantExpired && entry.TTL() != 0 {
				t.Errorf("TTL() of expired entry = %v, want 0", entry.TTL())
			}
			if !tt.wantExpired && (entry.TTL() <= 0 || entry.TTL() > tt.ttl) {
				t.Errorf("TTL() = %v, want in (0, %v]", entry.TTL(), tt.ttl)
			}
			if entry.Age() < 0 || entry.Age() > time.Second {
				t.Errorf("Age() = %v, want about 0", entry.Age())
			}
		})
	}
}

func TestEntry_StoresRawJSON(t *testing.T) {
	entry := NewEntry([]byte(`{"chainQuery":{"blockQuery":{"blocks":[]}}}`), time.Minute)

	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(raw), `"data":{"chainQuery":`) {
		t.Errorf("expected data stored as JSON, got %s", raw)
	}
}
