package answercache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetThenGetBeforeExpiry(t *testing.T) {
	c := New()
	c.Set("example.com.", "10.0.0.1", 60)

	ip, ttl, ok := c.Get("example.com.")
	require.True(t, ok)
	require.Equal(t, "10.0.0.1", ip)
	require.Equal(t, uint64(60), ttl)
}

func TestGetMissingReturnsNotOK(t *testing.T) {
	c := New()
	_, _, ok := c.Get("nowhere.invalid.")
	require.False(t, ok)
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	c := New()
	c.mu.Lock()
	c.entries["example.com."] = Entry{IP: "10.0.0.1", TTL: 1, InsertedAt: time.Now().Add(-2 * time.Second)}
	c.mu.Unlock()

	_, _, ok := c.Get("example.com.")
	require.False(t, ok)

	c.Sweep()
	c.mu.Lock()
	_, stillPresent := c.entries["example.com."]
	c.mu.Unlock()
	require.False(t, stillPresent)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	c := New()
	c.Set("fresh.example.com.", "10.0.0.2", 600)
	c.mu.Lock()
	c.entries["stale.example.com."] = Entry{IP: "10.0.0.3", TTL: 1, InsertedAt: time.Now().Add(-10 * time.Second)}
	c.mu.Unlock()

	c.Sweep()

	_, _, freshOK := c.Get("fresh.example.com.")
	require.True(t, freshOK)
	_, _, staleOK := c.Get("stale.example.com.")
	require.False(t, staleOK)
}

func TestConcurrentAccessNeverPanics(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); c.Set("example.com.", "10.0.0.1", 60) }()
		go func() { defer wg.Done(); c.Get("example.com.") }()
		go func() { defer wg.Done(); c.Sweep() }()
	}
	wg.Wait()
}
