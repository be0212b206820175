package path

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCompileCacheSize = 128

// exprCache keeps compiled paths keyed by source text. A nil entries
// pointer means the cache is disabled.
type exprCache struct {
	mu      sync.Mutex
	entries atomic.Pointer[lru.Cache[string, *Expr]]
}

func newExprCache(size int) *exprCache {
	c := &exprCache{}
	c.resize(size)
	return c
}

func (c *exprCache) get(key string) (*Expr, bool) {
	if l := c.entries.Load(); l != nil {
		return l.Get(key)
	}
	return nil, false
}

func (c *exprCache) add(key string, expr *Expr) {
	if l := c.entries.Load(); l != nil {
		l.Add(key, expr)
	}
}

func (c *exprCache) resize(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if size <= 0 {
		c.entries.Store(nil)
		return
	}
	if l := c.entries.Load(); l != nil {
		l.Resize(size)
		return
	}
	l, err := lru.New[string, *Expr](size)
	if err != nil {
		return
	}
	c.entries.Store(l)
}

func (c *exprCache) purge() {
	if l := c.entries.Load(); l != nil {
		l.Purge()
	}
}

func (c *exprCache) len() int {
	if l := c.entries.Load(); l != nil {
		return l.Len()
	}
	return 0
}

var compileCache = newExprCache(defaultCompileCacheSize)

// SetCompileCacheSize bounds the number of compiled paths Compile keeps.
// Zero disables the cache.
func SetCompileCacheSize(size int) {
	compileCache.resize(size)
}

// ClearCompileCache drops every cached path.
func ClearCompileCache() {
	compileCache.purge()
}
