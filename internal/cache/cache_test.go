package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type CacheSuite struct {
	suite.Suite
	cache *Cache
	ctx   context.Context

	mu  sync.Mutex
	now time.Time
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.cache = New(Config{
		DefaultTTL:     time.Minute,
		MaxEntries:     4,
		MaxMemoryBytes: 4096,
		SweepInterval:  time.Hour, // keep the background sweep out of the way
	}, WithClock(s.clock))
}

func (s *CacheSuite) TearDownTest() {
	s.cache.Close()
}

func (s *CacheSuite) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *CacheSuite) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func (s *CacheSuite) TestGetSet() {
	s.Run("miss on absent key", func() {
		_, ok, err := s.cache.Get(s.ctx, "absent")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("hit returns stored value", func() {
		s.Require().NoError(s.cache.Set(s.ctx, "k1", []byte("v1"), 0))
		value, ok, err := s.cache.Get(s.ctx, "k1")
		s.Require().NoError(err)
		s.True(ok)
		s.Equal([]byte("v1"), value)
	})

	s.Run("replace keeps a single entry", func() {
		s.Require().NoError(s.cache.Set(s.ctx, "k1", []byte("v1"), 0))
		s.Require().NoError(s.cache.Set(s.ctx, "k1", []byte("v2"), 0))
		value, ok, err := s.cache.Get(s.ctx, "k1")
		s.Require().NoError(err)
		s.True(ok)
		s.Equal([]byte("v2"), value)
		s.Equal(1, s.cache.Stats().Size)
	})
}

func (s *CacheSuite) TestTTLExpiry() {
	s.Require().NoError(s.cache.Set(s.ctx, "short", []byte("v"), 10*time.Second))

	s.Run("live before expiry", func() {
		_, ok, err := s.cache.Get(s.ctx, "short")
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("lazily removed after expiry", func() {
		s.advance(11 * time.Second)
		_, ok, err := s.cache.Get(s.ctx, "short")
		s.Require().NoError(err)
		s.False(ok)
		s.Equal(0, s.cache.Stats().Size, "expired entry is deleted on access")
	})
}

func (s *CacheSuite) TestEntryCountBound() {
	// Insert more entries than MaxEntries; size must never exceed the limit.
	for i := range 10 {
		key := fmt.Sprintf("k%d", i)
		s.Require().NoError(s.cache.Set(s.ctx, key, []byte("v"), 0))
		s.LessOrEqual(s.cache.Stats().Size, 4)
	}
	s.Equal(4, s.cache.Stats().Size)

	// The survivors are the most recently inserted.
	for i := 6; i < 10; i++ {
		_, ok, err := s.cache.Get(s.ctx, fmt.Sprintf("k%d", i))
		s.Require().NoError(err)
		s.True(ok, "k%d should have survived", i)
	}
}

func (s *CacheSuite) TestLRUEvictionOrder() {
	s.Require().NoError(s.cache.Set(s.ctx, "a", []byte("v"), 0))
	s.advance(time.Second)
	s.Require().NoError(s.cache.Set(s.ctx, "b", []byte("v"), 0))
	s.advance(time.Second)
	s.Require().NoError(s.cache.Set(s.ctx, "c", []byte("v"), 0))
	s.advance(time.Second)
	s.Require().NoError(s.cache.Set(s.ctx, "d", []byte("v"), 0))
	s.advance(time.Second)

	// Touch "a" so "b" becomes the least recently used.
	_, ok, err := s.cache.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.Require().True(ok)

	s.Require().NoError(s.cache.Set(s.ctx, "e", []byte("v"), 0))

	_, ok, _ = s.cache.Get(s.ctx, "b")
	s.False(ok, "least recently used entry should be evicted")
	_, ok, _ = s.cache.Get(s.ctx, "a")
	s.True(ok, "recently read entry should survive")
}

func (s *CacheSuite) TestMemoryBudget() {
	s.Run("oversized entry is rejected, not stored", func() {
		huge := make([]byte, 8192)
		s.Require().NoError(s.cache.Set(s.ctx, "huge", huge, 0))
		_, ok, err := s.cache.Get(s.ctx, "huge")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("inserts evict LRU entries until the budget is satisfied", func() {
		// Each entry is ~1KB + overhead against a 4KB budget.
		payload := make([]byte, 1024)
		for i := range 6 {
			s.Require().NoError(s.cache.Set(s.ctx, fmt.Sprintf("m%d", i), payload, 0))
			s.LessOrEqual(s.cache.Stats().MemoryBytes, int64(4096))
		}
	})
}

func (s *CacheSuite) TestDeleteAndClear() {
	s.Require().NoError(s.cache.Set(s.ctx, "progress:intern-1", []byte("v"), 0))
	s.Require().NoError(s.cache.Set(s.ctx, "progress:intern-2", []byte("v"), 0))
	s.Require().NoError(s.cache.Set(s.ctx, "queue:all", []byte("v"), 0))

	s.Run("delete removes a single key", func() {
		s.Require().NoError(s.cache.Delete(s.ctx, "progress:intern-1"))
		ok, err := s.cache.Exists(s.ctx, "progress:intern-1")
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("delete of a missing key never fails", func() {
		s.Require().NoError(s.cache.Delete(s.ctx, "progress:intern-1"))
	})

	s.Run("delete by prefix leaves other keys", func() {
		s.Require().NoError(s.cache.DeleteByPrefix(s.ctx, "progress:"))
		ok, err := s.cache.Exists(s.ctx, "progress:intern-2")
		s.Require().NoError(err)
		s.False(ok)
		ok, err = s.cache.Exists(s.ctx, "queue:all")
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("clear empties the cache", func() {
		s.Require().NoError(s.cache.Clear(s.ctx))
		stats := s.cache.Stats()
		s.Equal(0, stats.Size)
		s.Equal(int64(0), stats.MemoryBytes)
	})
}

func (s *CacheSuite) TestStats() {
	s.Require().NoError(s.cache.Set(s.ctx, "k", []byte("v"), 0))

	_, ok, _ := s.cache.Get(s.ctx, "k")
	s.Require().True(ok)
	_, ok, _ = s.cache.Get(s.ctx, "missing")
	s.Require().False(ok)

	stats := s.cache.Stats()
	s.Equal(uint64(1), stats.Hits)
	s.Equal(uint64(1), stats.Misses)
	s.InDelta(0.5, stats.HitRatio, 0.001)
	s.False(stats.NewestAccess.IsZero())
}

func (s *CacheSuite) TestSweepRemovesExpired() {
	s.Require().NoError(s.cache.Set(s.ctx, "short", []byte("v"), 10*time.Second))
	s.Require().NoError(s.cache.Set(s.ctx, "long", []byte("v"), time.Hour))

	s.advance(time.Minute)
	s.cache.sweep()

	stats := s.cache.Stats()
	s.Equal(1, stats.Size)
	ok, err := s.cache.Exists(s.ctx, "long")
	s.Require().NoError(err)
	s.True(ok)
}

func (s *CacheSuite) TestConcurrentAccess() {
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 200 {
				key := fmt.Sprintf("k%d", (n+j)%10)
				_ = s.cache.Set(s.ctx, key, []byte("v"), 0)
				_, _, _ = s.cache.Get(s.ctx, key)
			}
		}(i)
	}
	wg.Wait()

	s.LessOrEqual(s.cache.Stats().Size, 4)
}
