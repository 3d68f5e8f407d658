// Package marketdata caches the latest market snapshot per symbol and keeps
// it fresh while anyone is subscribed.
package marketdata

import (
	"context"
	"log"
	"sync"
	"time"

	"autotrader/pkg/market"
)

// DefaultRefreshPeriod is the interval between background refreshes while a
// symbol has subscribers.
const DefaultRefreshPeriod = 30 * time.Second

// Source fetches market data from a venue. pkg/market/binance.Client is the
// production implementation.
type Source interface {
	Ticker24h(ctx context.Context, symbol string) (market.Snapshot, error)
	Klines(ctx context.Context, symbol, interval string, limit int) ([]market.Kline, error)
}

// Callback receives a fresh snapshot. Callbacks run synchronously on the
// goroutine that completed the fetch and must not block.
type Callback func(market.Snapshot)

// Cache holds the latest snapshot per symbol. Snapshots survive fetch
// failures (stale-while-revalidate) and are evicted only when the last
// subscriber for the symbol leaves.
type Cache struct {
	source Source
	period time.Duration

	mu        sync.Mutex
	snapshots map[string]market.Snapshot
	subs      map[string]map[int64]Callback
	nextSub   int64
	inflight  map[string]bool
	refresh   map[string]context.CancelFunc
}

// NewCache builds a cache around source. period <= 0 selects the default.
func NewCache(source Source, period time.Duration) *Cache {
	if period <= 0 {
		period = DefaultRefreshPeriod
	}
	return &Cache{
		source:    source,
		period:    period,
		snapshots: make(map[string]market.Snapshot),
		subs:      make(map[string]map[int64]Callback),
		inflight:  make(map[string]bool),
		refresh:   make(map[string]context.CancelFunc),
	}
}

// Fetch performs a network read of 24h ticker statistics, stores the result
// and notifies subscribers for the symbol. Failures leave the previous
// snapshot in place.
func (c *Cache) Fetch(ctx context.Context, symbol string) (market.Snapshot, error) {
	snap, err := c.source.Ticker24h(ctx, symbol)
	if err != nil {
		return market.Snapshot{}, err
	}
	c.store(symbol, snap)
	return snap, nil
}

// GetCached returns the most recent snapshot without fetching.
func (c *Cache) GetCached(symbol string) (market.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.snapshots[symbol]
	return snap, ok
}

// Klines is a one-shot historical fetch; no caching, no retry.
func (c *Cache) Klines(ctx context.Context, symbol, interval string, limit int) ([]market.Kline, error) {
	return c.source.Klines(ctx, symbol, interval, limit)
}

// Subscribe registers a callback for snapshot updates. The first subscriber
// for a symbol starts the periodic refresh; the returned function removes
// the callback and, when the subscriber set becomes empty, stops the refresh
// and evicts the cached snapshot.
func (c *Cache) Subscribe(symbol string, cb Callback) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	if c.subs[symbol] == nil {
		c.subs[symbol] = make(map[int64]Callback)
	}
	c.subs[symbol][id] = cb
	if len(c.subs[symbol]) == 1 {
		rctx, cancel := context.WithCancel(context.Background())
		c.refresh[symbol] = cancel
		go c.refreshLoop(rctx, symbol)
	}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.removeSubscriber(symbol, id) })
	}
}

func (c *Cache) removeSubscriber(symbol string, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	subs := c.subs[symbol]
	if subs == nil {
		return
	}
	delete(subs, id)
	if len(subs) > 0 {
		return
	}
	delete(c.subs, symbol)
	delete(c.snapshots, symbol)
	if cancel := c.refresh[symbol]; cancel != nil {
		cancel()
		delete(c.refresh, symbol)
	}
}

func (c *Cache) refreshLoop(ctx context.Context, symbol string) {
	// Prime the cache immediately rather than waiting a full period.
	c.refreshOnce(ctx, symbol)

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refreshOnce(ctx, symbol)
		}
	}
}

// refreshOnce fetches a symbol unless a previous fetch is still outstanding;
// a tick that fires mid-fetch is a no-op. Errors are logged and the last
// good snapshot retained.
func (c *Cache) refreshOnce(ctx context.Context, symbol string) {
	c.mu.Lock()
	if c.inflight[symbol] {
		c.mu.Unlock()
		return
	}
	c.inflight[symbol] = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.inflight, symbol)
		c.mu.Unlock()
	}()

	// Unsubscribing stops future refreshes but must not cancel a fetch that
	// is already in flight; the HTTP client's own timeout still bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	if _, err := c.Fetch(fetchCtx, symbol); err != nil {
		log.Printf("market refresh %s: %v (keeping last snapshot)", symbol, err)
	}
}

// store replaces the snapshot for a symbol and notifies its subscribers.
// Callbacks are invoked outside the lock so they may call back into the
// cache.
func (c *Cache) store(symbol string, snap market.Snapshot) {
	c.mu.Lock()
	c.snapshots[symbol] = snap
	cbs := make([]Callback, 0, len(c.subs[symbol]))
	for _, cb := range c.subs[symbol] {
		cbs = append(cbs, cb)
	}
	c.mu.Unlock()

	for _, cb := range cbs {
		cb(snap)
	}
}
