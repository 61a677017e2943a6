package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dyike/CandleCorr/internal/dataflows"
	"github.com/dyike/CandleCorr/internal/logger"
	"github.com/dyike/CandleCorr/models"
)

// HistoryCache memoises provider results in memory so each symbol is
// fetched at most once per TTL. Missing-data outcomes are remembered too.
type HistoryCache struct {
	provider dataflows.HistoryProvider
	ttl      time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	entries map[string]*cachedHistory
	log     *logrus.Entry
}

type cachedHistory struct {
	history   *models.PriceHistory
	err       error
	timestamp time.Time
}

// NewHistoryCache wraps provider. A non-positive ttl keeps entries for the
// life of the cache.
func NewHistoryCache(provider dataflows.HistoryProvider, ttl time.Duration) *HistoryCache {
	return &HistoryCache{
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]*cachedHistory),
		log:      logger.For("cache"),
	}
}

// History implements dataflows.HistoryProvider.
func (c *HistoryCache) History(ctx context.Context, symbol string) (*models.PriceHistory, error) {
	key := dataflows.NormalizeSymbol(symbol)

	if entry, ok := c.lookup(key); ok {
		c.log.WithField("symbol", key).Debug("using memory cache")
		return entry.history, entry.err
	}

	history, err := c.provider.History(ctx, key)
	if err != nil && !errors.Is(err, dataflows.ErrNoData) {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = &cachedHistory{
		history:   history,
		err:       err,
		timestamp: c.now(),
	}
	c.mu.Unlock()

	return history, err
}

func (c *HistoryCache) lookup(key string) (*cachedHistory, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()
	if !exists {
		return nil, false
	}

	if c.ttl > 0 && c.now().Sub(entry.timestamp) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry, true
}

func (c *HistoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cachedHistory)
	c.log.Debug("cleared memory cache")
}

// Stats reports the cached symbols.
func (c *HistoryCache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}

	return map[string]interface{}{
		"memory_cache_size": len(c.entries),
		"memory_cache_keys": keys,
		"ttl":               c.ttl.String(),
	}
}
