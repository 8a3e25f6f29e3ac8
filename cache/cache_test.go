package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldRaiseRespectsCooldown(t *testing.T) {
	ac := NewAlertCache(time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, ac.ShouldRaise("u1", "no_units", now))
	assert.False(t, ac.ShouldRaise("u1", "no_units", now.Add(30*time.Minute)))
	assert.True(t, ac.ShouldRaise("u1", "no_units", now.Add(time.Hour)))

	// other users and keys are independent
	assert.True(t, ac.ShouldRaise("u2", "no_units", now))
	assert.True(t, ac.ShouldRaise("u1", "high_consumption", now))
}

func TestForget(t *testing.T) {
	ac := NewAlertCache(time.Hour)
	now := time.Now()

	ac.ShouldRaise("u1", "a", now)
	ac.ShouldRaise("u1", "b", now)

	ac.Forget("u1", "a")
	assert.True(t, ac.ShouldRaise("u1", "a", now))
	assert.False(t, ac.ShouldRaise("u1", "b", now))

	ac.Forget("u1", "")
	assert.True(t, ac.ShouldRaise("u1", "b", now))
}

func TestPruneAndStats(t *testing.T) {
	ac := NewAlertCache(time.Minute)
	now := time.Now()

	ac.ShouldRaise("u1", "a", now)
	ac.ShouldRaise("u2", "a", now.Add(2*time.Minute))
	ac.ShouldRaise("u2", "a", now.Add(2*time.Minute))

	assert.Equal(t, 1, ac.Prune(now.Add(2*time.Minute)))

	stats := ac.Stats()
	assert.Equal(t, 1, stats["users"])
	assert.Equal(t, 1, stats["entries"])
	assert.Equal(t, 1, stats["suppressed"])
	assert.Equal(t, 2, stats["raised"])
}

func TestConcurrentShouldRaise(t *testing.T) {
	ac := NewAlertCache(time.Hour)
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	raised := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ac.ShouldRaise("u1", "k", now) {
				mu.Lock()
				raised++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, raised)
}
