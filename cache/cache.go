package cache

import (
	"sync"
	"time"
)

// AlertCache remembers when each (user, key) alert was last raised so the
// same alert is not persisted again inside the cooldown window.
type AlertCache struct {
	mu       sync.RWMutex
	raised   map[string]map[string]time.Time // map[userID]map[key]lastRaised
	cooldown time.Duration
	hits     int
	misses   int
}

func NewAlertCache(cooldown time.Duration) *AlertCache {
	return &AlertCache{
		raised:   make(map[string]map[string]time.Time),
		cooldown: cooldown,
	}
}

// ShouldRaise reports whether key may be raised for userID at now, and
// records now as the last raise when it may.
func (ac *AlertCache) ShouldRaise(userID, key string, now time.Time) bool {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	keys, exists := ac.raised[userID]
	if !exists {
		keys = make(map[string]time.Time)
		ac.raised[userID] = keys
	}

	if last, ok := keys[key]; ok && now.Sub(last) < ac.cooldown {
		ac.hits++
		return false
	}

	keys[key] = now
	ac.misses++
	return true
}

// Forget clears key for userID so the next ShouldRaise succeeds. An empty
// key clears every entry for the user.
func (ac *AlertCache) Forget(userID, key string) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if key == "" {
		delete(ac.raised, userID)
		return
	}
	if keys, ok := ac.raised[userID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(ac.raised, userID)
		}
	}
}

// Prune drops entries whose cooldown has elapsed.
func (ac *AlertCache) Prune(now time.Time) int {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	removed := 0
	for userID, keys := range ac.raised {
		for key, last := range keys {
			if now.Sub(last) >= ac.cooldown {
				delete(keys, key)
				removed++
			}
		}
		if len(keys) == 0 {
			delete(ac.raised, userID)
		}
	}
	return removed
}

// Stats returns statistics about the current cache
func (ac *AlertCache) Stats() map[string]interface{} {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	entries := 0
	for _, keys := range ac.raised {
		entries += len(keys)
	}

	return map[string]interface{}{
		"users":       len(ac.raised),
		"entries":     entries,
		"suppressed":  ac.hits,
		"raised":      ac.misses,
		"cooldown_ms": ac.cooldown.Milliseconds(),
	}
}
