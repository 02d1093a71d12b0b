package lru

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// Cache 进程内缓存接口
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	SetWithTTL(key K, value V, ttl time.Duration)
	GetOrCreate(key K, create func() V) V
	Delete(key K)
	Len() int
	Clear()
	Close() error
}

// Config LRU 配置
type Config struct {
	MaxSize         int           `mapstructure:"max_size" json:"max_size" yaml:"max_size"`
	DefaultTTL      time.Duration `mapstructure:"default_ttl" json:"default_ttl" yaml:"default_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" json:"cleanup_interval" yaml:"cleanup_interval"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxSize:         1024,
		DefaultTTL:      time.Minute,
		CleanupInterval: 30 * time.Second,
	}
}

// Stats 命中统计
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// LRU 基于双向链表的 LRU 缓存，条目带过期时间
type LRU[K comparable, V any] struct {
	config *Config
	cache  *list.List
	items  map[K]*list.Element
	mu     sync.Mutex

	stopCh    chan struct{}
	stopOnce  sync.Once
	cleanupWg sync.WaitGroup

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	onEvict func(key K, value V)
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// Option LRU 配置选项
type Option[K comparable, V any] func(*LRU[K, V])

// WithOnEvict 设置淘汰回调，回调在持锁状态下执行
func WithOnEvict[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.onEvict = fn
	}
}

// New 创建 LRU 缓存。cfg 为 nil 时使用默认配置
func New[K comparable, V any](cfg *Config, opts ...Option[K, V]) *LRU[K, V] {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultConfig().MaxSize
	}

	c := &LRU[K, V]{
		config: cfg,
		cache:  list.New(),
		items:  make(map[K]*list.Element),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.CleanupInterval > 0 {
		c.cleanupWg.Add(1)
		go c.cleanupLoop()
	}
	return c
}

func (c *LRU[K, V]) cleanupLoop() {
	defer c.cleanupWg.Done()

	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *LRU[K, V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for e := c.cache.Back(); e != nil; {
		prev := e.Prev()
		if now.After(e.Value.(*entry[K, V]).expiresAt) {
			c.removeElement(e)
		}
		e = prev
	}
}

// Get 获取值，过期条目视为不存在
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if time.Now().Before(ent.expiresAt) {
			c.cache.MoveToFront(elem)
			c.hits.Add(1)
			return ent.value, true
		}
		c.removeElement(elem)
	}

	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set 使用默认 TTL 写入
func (c *LRU[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL 使用指定 TTL 写入
func (c *LRU[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, value, ttl)
}

// GetOrCreate 原子获取或创建
func (c *LRU[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if time.Now().Before(ent.expiresAt) {
			c.cache.MoveToFront(elem)
			c.hits.Add(1)
			return ent.value
		}
		c.removeElement(elem)
	}

	c.misses.Add(1)
	value := create()
	c.put(key, value, c.config.DefaultTTL)
	return value
}

func (c *LRU[K, V]) put(key K, value V, ttl time.Duration) {
	expiresAt := time.Now().Add(ttl)

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = expiresAt
		c.cache.MoveToFront(elem)
		return
	}

	c.items[key] = c.cache.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	for c.cache.Len() > c.config.MaxSize {
		if oldest := c.cache.Back(); oldest != nil {
			c.removeElement(oldest)
			c.evictions.Add(1)
		}
	}
}

// Delete 删除
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Len 当前条目数（含未清理的过期条目）
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

// Clear 清空缓存，不触发淘汰回调
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Init()
	c.items = make(map[K]*list.Element)
}

// Stats 返回命中统计快照
func (c *LRU[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Close 停止后台清理，可重复调用
func (c *LRU[K, V]) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.cleanupWg.Wait()
	return nil
}

func (c *LRU[K, V]) removeElement(elem *list.Element) {
	c.cache.Remove(elem)
	ent := elem.Value.(*entry[K, V])
	delete(c.items, ent.key)
	if c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}
