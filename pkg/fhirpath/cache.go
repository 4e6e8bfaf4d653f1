package fhirpath

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// ExpressionCache memoizes Compile results behind an LRU of bounded size,
// so a server evaluating the same handful of FHIRPath expressions against
// many resources doesn't re-tokenize and re-parse them on every request.
type ExpressionCache struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	limit   int

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	key      string
	expr     *Expression
	lastUsed time.Time
}

// CacheStats is a point-in-time snapshot of an ExpressionCache's activity.
type CacheStats struct {
	Size   int
	Limit  int
	Hits   int64
	Misses int64
}

// NewExpressionCache builds a cache holding at most limit compiled
// expressions. limit <= 0 means unbounded: nothing is ever evicted.
func NewExpressionCache(limit int) *ExpressionCache {
	return &ExpressionCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		limit:   limit,
	}
}

// Get returns the cached compilation of expr, compiling and storing it on
// a miss.
func (c *ExpressionCache) Get(expr string) (*Expression, error) {
	if e := c.lookup(expr); e != nil {
		return e.expr, nil
	}

	compiled, err := Compile(expr)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Someone else may have compiled and stored the same expression while
	// we held no lock.
	if elem, ok := c.entries[expr]; ok {
		c.touch(elem)
		c.hits.Add(1)
		return elem.Value.(*cacheEntry).expr, nil
	}

	c.misses.Add(1)
	if c.limit > 0 && len(c.entries) >= c.limit {
		c.evictOldest()
	}
	elem := c.order.PushFront(&cacheEntry{key: expr, expr: compiled, lastUsed: time.Now()})
	c.entries[expr] = elem
	return compiled, nil
}

// lookup returns the entry for expr under a read lock, promoting it to
// most-recently-used on a hit. Returns nil on a miss without touching the
// hit/miss counters itself - Get's slow path records the miss once it
// knows a concurrent compile didn't beat it to the write lock.
func (c *ExpressionCache) lookup(expr string) *cacheEntry {
	c.mu.RLock()
	elem, ok := c.entries[expr]
	c.mu.RUnlock()
	if !ok {
		return nil
	}

	c.mu.Lock()
	c.touch(elem)
	c.mu.Unlock()
	c.hits.Add(1)
	return elem.Value.(*cacheEntry)
}

// touch moves elem to the front of the LRU order and refreshes its
// lastUsed timestamp. Caller must hold c.mu for writing.
func (c *ExpressionCache) touch(elem *list.Element) {
	c.order.MoveToFront(elem)
	elem.Value.(*cacheEntry).lastUsed = time.Now()
}

// evictOldest drops the least recently used entry. Caller must hold c.mu
// for writing.
func (c *ExpressionCache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.order.Remove(oldest)
	delete(c.entries, oldest.Value.(*cacheEntry).key)
}

// MustGet is Get but panics on a compile error; reserved for expressions
// known at init time to be valid.
func (c *ExpressionCache) MustGet(expr string) *Expression {
	compiled, err := c.Get(expr)
	if err != nil {
		panic(err)
	}
	return compiled
}

// Clear empties the cache and resets its hit/miss counters.
func (c *ExpressionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order = list.New()
	c.hits.Store(0)
	c.misses.Store(0)
}

func (c *ExpressionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ExpressionCache) Stats() CacheStats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{
		Size:   size,
		Limit:  c.limit,
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// HitRate returns the cache's hit rate as a percentage in [0, 100].
func (c *ExpressionCache) HitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// DefaultCache is a process-wide cache for callers that don't need their
// own lifetime management; GetCached/EvaluateCached use it implicitly.
var DefaultCache = NewExpressionCache(1000)

func GetCached(expr string) (*Expression, error) {
	return DefaultCache.Get(expr)
}

func MustGetCached(expr string) *Expression {
	return DefaultCache.MustGet(expr)
}

// EvaluateCached compiles expr through DefaultCache and evaluates it
// against resource. This is the entry point most callers evaluating a
// fixed set of expressions repeatedly should use instead of Evaluate.
func EvaluateCached(resource []byte, expr string) (Collection, error) {
	compiled, err := DefaultCache.Get(expr)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(resource)
}
