package xttl

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// maxEntries 缓存最大条目数上限。
const maxEntries = 1 << 24 // 16,777,216

// Config 定义缓存配置。
type Config struct {
	// DefaultTTL 条目默认过期时间。
	// 0 表示永不过期，不允许负值。
	DefaultTTL time.Duration

	// MaxSize 缓存最大条目数。
	// 必须大于 0 且不超过 16,777,216。
	MaxSize int
}

// Stats 定义缓存的诊断信息。
// 仅用于观测与调试，不参与正确性语义。
type Stats struct {
	// Size 当前条目数。
	Size int

	// MaxSize 配置的最大条目数。
	MaxSize int

	// Keys 当前存活的键，按插入顺序排列。
	// 可能包含已过期但尚未被惰性删除或周期清理回收的键。
	Keys []string
}

// entry 单个缓存条目。过期判定：now - storedAt > ttl（ttl > 0 时）。
type entry[V any] struct {
	value    V
	storedAt time.Time
	ttl      time.Duration
	elem     *list.Element // 在插入顺序链表中的位置
}

// Cache 是带 TTL 与插入序淘汰的泛型缓存。
// 键固定为 string：通配符失效（Invalidate）与层级键命名约定依赖字符串键。
// 必须通过 [New] 创建，零值不可用。所有方法并发安全。
//
// 淘汰策略是插入顺序（FIFO）而非 LRU：读取不会刷新条目的顺序，
// 容量满时淘汰最早插入的条目。过期（expiry）与淘汰（eviction）是两种
// 独立的移除原因，但都会触发 OnEvict 回调。
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	order   *list.List // 元素值为 string 键，队首为最早插入

	defaultTTL time.Duration
	maxSize    int
	onEvict    func(key string)
	metrics    *cacheMetrics

	// now 可在白盒测试中替换，生产路径固定为 time.Now。
	now func() time.Time

	sweepOnce sync.Once
	sweepStop chan struct{}
	sweepDone chan struct{}
}

// New 创建缓存实例。
// 如果 cfg.MaxSize <= 0，返回 ErrInvalidSize。
// 如果 cfg.MaxSize > 16,777,216，返回 ErrSizeExceedsMax。
// 如果 cfg.DefaultTTL < 0，返回 ErrInvalidTTL。
//
// 配置在构造后不可变。配置了 WithSweepInterval 时会启动后台清理
// goroutine，使用完毕必须调用 Close 释放；未配置时 Close 仍然安全。
func New[V any](cfg Config, opts ...Option) (*Cache[V], error) {
	if cfg.MaxSize <= 0 {
		return nil, ErrInvalidSize
	}
	if cfg.MaxSize > maxEntries {
		return nil, ErrSizeExceedsMax
	}
	if cfg.DefaultTTL < 0 {
		return nil, ErrInvalidTTL
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.sweepInterval < 0 {
		return nil, ErrInvalidSweepInterval
	}

	c := &Cache[V]{
		entries:    make(map[string]*entry[V]),
		order:      list.New(),
		defaultTTL: cfg.DefaultTTL,
		maxSize:    cfg.MaxSize,
		onEvict:    o.onEvict,
		metrics:    newCacheMetrics(o.meterProvider),
		now:        time.Now,
	}

	if o.sweepInterval > 0 {
		c.sweepStop = make(chan struct{})
		c.sweepDone = make(chan struct{})
		go c.sweepLoop(o.sweepInterval)
	}

	return c, nil
}

// Get 获取缓存值。
// 键不存在或已过期时返回零值和 false。
// 惰性过期：Get 发现已过期的条目会将其删除并触发 OnEvict 回调，
// 因此正确性不依赖周期清理是否运行。
func (c *Cache[V]) Get(key string) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.metrics.miss()
		var zero V
		return zero, false
	}
	if c.expiredLocked(e) {
		c.removeLocked(key, e)
		c.metrics.expired()
		c.metrics.miss()
		var zero V
		return zero, false
	}
	c.metrics.hit()
	return e.value, true
}

// Set 以默认 TTL 写入缓存，等价于 SetWithTTL(key, value, 0)。
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, 0)
}

// SetWithTTL 以指定 TTL 写入缓存。ttl <= 0 时使用默认 TTL。
//
// 如果 key 是新键且缓存已满，先淘汰最早插入的条目（触发 OnEvict），
// 再插入新条目；size <= MaxSize 在每次写入后恒成立。
// 覆盖已有键时保留其插入位置，但重置 storedAt，即 TTL 重新计时。
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.storedAt = c.now()
		e.ttl = ttl
		return
	}

	if len(c.entries) >= c.maxSize {
		front := c.order.Front()
		if front != nil {
			oldest := front.Value.(string)
			c.removeLocked(oldest, c.entries[oldest])
			c.metrics.evicted()
		}
	}

	e := &entry[V]{
		value:    value,
		storedAt: c.now(),
		ttl:      ttl,
	}
	e.elem = c.order.PushBack(key)
	c.entries[key] = e
}

// Has 检查键是否存在且未过期。
// 与 Get 的过期语义一致（同样执行惰性删除），但不计入命中/未命中统计。
func (c *Cache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.expiredLocked(e) {
		c.removeLocked(key, e)
		c.metrics.expired()
		return false
	}
	return true
}

// Delete 删除缓存条目，键存在时触发 OnEvict 回调。
// 返回 true 表示键存在并被删除，键不存在时为无副作用的 no-op。
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(key, e)
	return true
}

// Invalidate 按通配符模式批量删除。
// pattern 是字面字符串，其中 * 匹配任意子串（包括空串与 / 分隔符），
// 其余字符一律按字面匹配（正则元字符会被转义），并且锚定全键匹配。
// 匹配集合在锁内对当前键集一次性求值，之后逐个删除（触发 OnEvict）。
// 返回删除的条目数。
func (c *Cache[V]) Invalidate(pattern string) int {
	re := compilePattern(pattern)

	c.mu.Lock()
	defer c.mu.Unlock()

	var matched []string
	for key := range c.entries {
		if re.MatchString(key) {
			matched = append(matched, key)
		}
	}
	for _, key := range matched {
		c.removeLocked(key, c.entries[key])
	}
	return len(matched)
}

// Clear 清空缓存，按插入顺序对每个条目触发 OnEvict 回调。
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for front := c.order.Front(); front != nil; front = c.order.Front() {
		key := front.Value.(string)
		c.removeLocked(key, c.entries[key])
	}
}

// GetOrSet 读穿（read-through）访问：命中时直接返回缓存值；
// 未命中时调用 loader 加载，以默认 TTL 写入后返回。
// loader 返回错误时原样向调用方传播，且不写入缓存。
//
// 已知限制：并发的同键未命中不做去重，两次同时未命中会各自调用一次
// loader（后写入者覆盖先写入者）。需要去重时应由调用方自行处理。
func (c *Cache[V]) GetOrSet(ctx context.Context, key string, loader func(context.Context) (V, error)) (V, error) {
	return c.GetOrSetWithTTL(ctx, key, loader, 0)
}

// GetOrSetWithTTL 与 GetOrSet 相同，但未命中写入时使用指定 TTL。
// ttl <= 0 时使用默认 TTL。loader 不在缓存锁内执行。
func (c *Cache[V]) GetOrSetWithTTL(ctx context.Context, key string, loader func(context.Context) (V, error), ttl time.Duration) (V, error) {
	if loader == nil {
		var zero V
		return zero, ErrNilLoader
	}

	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := loader(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.SetWithTTL(key, v, ttl)
	return v, nil
}

// Cleanup 主动删除当前所有已过期条目（触发 OnEvict），返回删除数量。
// 用于在两次访问之间回收内存；正确性不依赖此方法，Get 已做惰性过期。
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expired []string
	for key, e := range c.entries {
		if c.expiredLocked(e) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		c.removeLocked(key, c.entries[key])
		c.metrics.expired()
	}
	return len(expired)
}

// Stats 返回当前诊断信息。Keys 按插入顺序排列。
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(string))
	}
	return Stats{
		Size:    len(c.entries),
		MaxSize: c.maxSize,
		Keys:    keys,
	}
}

// Len 返回当前条目数。
// 返回值可能包含已过期但尚未被回收的条目。
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close 停止后台清理 goroutine。幂等，可多次调用。
// Close 不清空缓存内容：缓存本身没有除清理定时器之外的外部资源，
// 关闭后实例仍可继续读写。
func (c *Cache[V]) Close() {
	if c.sweepStop == nil {
		return
	}
	c.sweepOnce.Do(func() {
		close(c.sweepStop)
		<-c.sweepDone
	})
}

// sweepLoop 周期清理循环。
func (c *Cache[V]) sweepLoop(interval time.Duration) {
	defer close(c.sweepDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.sweepStop:
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

// expiredLocked 判定条目是否过期。ttl <= 0 表示永不过期。
func (c *Cache[V]) expiredLocked(e *entry[V]) bool {
	if e.ttl <= 0 {
		return false
	}
	return c.now().Sub(e.storedAt) > e.ttl
}

// removeLocked 移除条目并触发 OnEvict 回调。
// 回调在锁内同步执行，严禁在回调中调用 Cache 自身方法（会死锁），
// 耗时逻辑应发送到外部 channel 异步处理。
func (c *Cache[V]) removeLocked(key string, e *entry[V]) {
	delete(c.entries, key)
	c.order.Remove(e.elem)
	if c.onEvict != nil {
		c.onEvict(key)
	}
}
