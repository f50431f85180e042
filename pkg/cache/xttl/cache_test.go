package xttl

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// fakeClock 测试用可推进时钟。
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{cur: time.Unix(1700000000, 0)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur = f.cur.Add(d)
}

// newTestCache 创建使用假时钟的缓存。
func newTestCache(t *testing.T, cfg Config, opts ...Option) (*Cache[int], *fakeClock) {
	t.Helper()
	c, err := New[int](cfg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	clk := newFakeClock()
	c.now = clk.Now
	return c, clk
}

func TestNew(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		c, err := New[int](Config{DefaultTTL: time.Minute, MaxSize: 10})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if c == nil {
			t.Fatal("cache should not be nil")
		}
	})

	t.Run("zero size", func(t *testing.T) {
		_, err := New[int](Config{MaxSize: 0})
		if !errors.Is(err, ErrInvalidSize) {
			t.Errorf("expected ErrInvalidSize, got %v", err)
		}
	})

	t.Run("negative size", func(t *testing.T) {
		_, err := New[int](Config{MaxSize: -1})
		if !errors.Is(err, ErrInvalidSize) {
			t.Errorf("expected ErrInvalidSize, got %v", err)
		}
	})

	t.Run("size exceeds max", func(t *testing.T) {
		_, err := New[int](Config{MaxSize: maxEntries + 1})
		if !errors.Is(err, ErrSizeExceedsMax) {
			t.Errorf("expected ErrSizeExceedsMax, got %v", err)
		}
	})

	t.Run("negative TTL", func(t *testing.T) {
		_, err := New[int](Config{DefaultTTL: -time.Second, MaxSize: 10})
		if !errors.Is(err, ErrInvalidTTL) {
			t.Errorf("expected ErrInvalidTTL, got %v", err)
		}
	})

	t.Run("negative sweep interval", func(t *testing.T) {
		_, err := New[int](Config{MaxSize: 10}, WithSweepInterval(-time.Second))
		if !errors.Is(err, ErrInvalidSweepInterval) {
			t.Errorf("expected ErrInvalidSweepInterval, got %v", err)
		}
	})
}

func TestCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 10})

	t.Run("set and get", func(t *testing.T) {
		c.Set("expeditions/details/1", 100)
		v, ok := c.Get("expeditions/details/1")
		if !ok {
			t.Fatal("expected key to exist")
		}
		if v != 100 {
			t.Errorf("v = %d, expected 100", v)
		}
	})

	t.Run("get nonexistent", func(t *testing.T) {
		v, ok := c.Get("nonexistent")
		if ok {
			t.Error("expected key to not exist")
		}
		if v != 0 {
			t.Errorf("v = %d, expected zero value", v)
		}
	})

	t.Run("overwrite keeps single entry", func(t *testing.T) {
		c.Set("k", 1)
		c.Set("k", 2)
		v, ok := c.Get("k")
		if !ok || v != 2 {
			t.Errorf("got (%d, %v), expected (2, true)", v, ok)
		}
	})
}

func TestCache_Expiry(t *testing.T) {
	t.Run("expired entry invisible without cleanup", func(t *testing.T) {
		c, clk := newTestCache(t, Config{DefaultTTL: time.Second, MaxSize: 10})
		c.Set("a", 1)

		clk.Advance(999 * time.Millisecond)
		if _, ok := c.Get("a"); !ok {
			t.Fatal("entry should still be alive at 999ms")
		}

		// 过期判定是严格大于：恰好等于 TTL 时仍然存活
		clk.Advance(1 * time.Millisecond)
		if _, ok := c.Get("a"); !ok {
			t.Fatal("entry should still be alive at exactly TTL")
		}

		clk.Advance(1 * time.Millisecond)
		if _, ok := c.Get("a"); ok {
			t.Fatal("entry should be expired past TTL without Cleanup")
		}
	})

	t.Run("lazy expiry deletes and fires callback", func(t *testing.T) {
		var evicted []string
		c, clk := newTestCache(t, Config{DefaultTTL: time.Second, MaxSize: 10},
			WithOnEvict(func(key string) { evicted = append(evicted, key) }))
		c.Set("a", 1)
		clk.Advance(2 * time.Second)

		c.Get("a")
		if c.Len() != 0 {
			t.Errorf("Len = %d, expected 0 after lazy expiry", c.Len())
		}
		if !reflect.DeepEqual(evicted, []string{"a"}) {
			t.Errorf("evicted = %v, expected [a]", evicted)
		}
	})

	t.Run("set refreshes TTL", func(t *testing.T) {
		c, clk := newTestCache(t, Config{DefaultTTL: time.Second, MaxSize: 10})
		c.Set("a", 1)
		clk.Advance(900 * time.Millisecond)
		c.Set("a", 2)
		clk.Advance(900 * time.Millisecond)
		if _, ok := c.Get("a"); !ok {
			t.Fatal("overwrite should restart TTL")
		}
	})

	t.Run("per-entry TTL overrides default", func(t *testing.T) {
		c, clk := newTestCache(t, Config{DefaultTTL: time.Second, MaxSize: 10})
		c.SetWithTTL("long", 1, time.Hour)
		clk.Advance(time.Minute)
		if _, ok := c.Get("long"); !ok {
			t.Fatal("entry with one hour TTL should survive a minute")
		}
	})

	t.Run("zero default TTL never expires", func(t *testing.T) {
		c, clk := newTestCache(t, Config{DefaultTTL: 0, MaxSize: 10})
		c.Set("a", 1)
		clk.Advance(1000 * time.Hour)
		if _, ok := c.Get("a"); !ok {
			t.Fatal("entry should never expire with zero TTL")
		}
	})
}

func TestCache_InsertionOrderEviction(t *testing.T) {
	t.Run("evicts earliest inserted", func(t *testing.T) {
		var evicted []string
		c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 3},
			WithOnEvict(func(key string) { evicted = append(evicted, key) }))

		c.Set("a", 1)
		c.Set("b", 2)
		c.Set("c", 3)
		c.Set("d", 4)

		if !reflect.DeepEqual(evicted, []string{"a"}) {
			t.Errorf("evicted = %v, expected exactly [a]", evicted)
		}
		if c.Len() != 3 {
			t.Errorf("Len = %d, expected 3", c.Len())
		}
		if c.Has("a") {
			t.Error("a should have been evicted")
		}
	})

	t.Run("access does not refresh order", func(t *testing.T) {
		c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 2})
		c.Set("a", 1)
		c.Set("b", 2)
		c.Get("a") // 读取不得让 a 变"新"
		c.Set("c", 3)
		if c.Has("a") {
			t.Error("a should be evicted despite recent access (FIFO, not LRU)")
		}
		if !c.Has("b") || !c.Has("c") {
			t.Error("b and c should remain")
		}
	})

	t.Run("overwrite keeps insertion position", func(t *testing.T) {
		c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 2})
		c.Set("a", 1)
		c.Set("b", 2)
		c.Set("a", 10) // 覆盖不是新插入
		c.Set("c", 3)  // 淘汰的仍应是最早插入的 a
		if c.Has("a") {
			t.Error("a should be evicted: overwrite keeps original position")
		}
	})

	t.Run("size never exceeds max", func(t *testing.T) {
		c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 5})
		keys := []string{"k0", "k1", "k2", "k3", "k4", "k5", "k6", "k7"}
		for i, k := range keys {
			c.Set(k, i)
			if c.Len() > 5 {
				t.Fatalf("Len = %d after inserting %s, must never exceed 5", c.Len(), k)
			}
		}
	})
}

func TestCache_Delete(t *testing.T) {
	var evicted []string
	c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 10},
		WithOnEvict(func(key string) { evicted = append(evicted, key) }))

	c.Set("a", 1)

	if !c.Delete("a") {
		t.Error("Delete should return true for existing key")
	}
	if !reflect.DeepEqual(evicted, []string{"a"}) {
		t.Errorf("evicted = %v, expected [a]", evicted)
	}

	if c.Delete("a") {
		t.Error("Delete should return false for absent key")
	}
	if len(evicted) != 1 {
		t.Error("callback must not fire for absent key")
	}
}

func TestCache_Invalidate(t *testing.T) {
	newFilled := func(t *testing.T) *Cache[int] {
		c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 10})
		c.Set("expeditions/list", 1)
		c.Set("expeditions/details/7", 2)
		c.Set("products/list", 3)
		return c
	}

	t.Run("prefix wildcard", func(t *testing.T) {
		c := newFilled(t)
		n := c.Invalidate("expeditions/*")
		if n != 2 {
			t.Errorf("Invalidate returned %d, expected 2", n)
		}
		if c.Has("expeditions/list") || c.Has("expeditions/details/7") {
			t.Error("expeditions keys should be gone")
		}
		if !c.Has("products/list") {
			t.Error("products/list must be untouched")
		}
	})

	t.Run("exact key", func(t *testing.T) {
		c := newFilled(t)
		n := c.Invalidate("expeditions/details/7")
		if n != 1 {
			t.Errorf("Invalidate returned %d, expected 1", n)
		}
		if !c.Has("expeditions/list") {
			t.Error("only the exact key may be deleted")
		}
	})

	t.Run("no match", func(t *testing.T) {
		c := newFilled(t)
		if n := c.Invalidate("users/*"); n != 0 {
			t.Errorf("Invalidate returned %d, expected 0", n)
		}
		if c.Len() != 3 {
			t.Errorf("Len = %d, expected 3", c.Len())
		}
	})

	t.Run("regex metacharacters are literal", func(t *testing.T) {
		c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 10})
		c.Set("a.b", 1)
		c.Set("axb", 2)
		if n := c.Invalidate("a.b"); n != 1 {
			t.Errorf("Invalidate returned %d, expected 1: dot must not match x", n)
		}
		if !c.Has("axb") {
			t.Error("axb must survive invalidating literal a.b")
		}
	})

	t.Run("star matches empty substring", func(t *testing.T) {
		c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 10})
		c.Set("ns/", 1)
		if n := c.Invalidate("ns/*"); n != 1 {
			t.Errorf("Invalidate returned %d, expected 1", n)
		}
	})
}

func TestCache_Clear(t *testing.T) {
	var evicted []string
	c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 10},
		WithOnEvict(func(key string) { evicted = append(evicted, key) }))

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len = %d, expected 0", c.Len())
	}
	// Clear 按插入顺序触发回调
	if !reflect.DeepEqual(evicted, []string{"a", "b"}) {
		t.Errorf("evicted = %v, expected [a b]", evicted)
	}
}

func TestCache_GetOrSet(t *testing.T) {
	t.Run("loader invoked exactly once within TTL", func(t *testing.T) {
		c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 10})
		calls := 0
		loader := func(context.Context) (int, error) {
			calls++
			return 42, nil
		}

		v1, err := c.GetOrSet(context.Background(), "k", loader)
		if err != nil {
			t.Fatalf("GetOrSet failed: %v", err)
		}
		v2, err := c.GetOrSet(context.Background(), "k", loader)
		if err != nil {
			t.Fatalf("GetOrSet failed: %v", err)
		}

		if calls != 1 {
			t.Errorf("loader called %d times, expected exactly 1", calls)
		}
		if v1 != 42 || v2 != 42 {
			t.Errorf("values = %d, %d, expected 42, 42", v1, v2)
		}
	})

	t.Run("loader error propagates uncached", func(t *testing.T) {
		c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 10})
		wantErr := errors.New("upstream down")
		_, err := c.GetOrSet(context.Background(), "k", func(context.Context) (int, error) {
			return 0, wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Errorf("err = %v, expected loader error unchanged", err)
		}
		if c.Has("k") {
			t.Error("failed load must not populate the cache")
		}

		// 之后的成功加载仍会执行
		v, err := c.GetOrSet(context.Background(), "k", func(context.Context) (int, error) {
			return 7, nil
		})
		if err != nil || v != 7 {
			t.Errorf("got (%d, %v), expected (7, nil)", v, err)
		}
	})

	t.Run("expired entry reloads", func(t *testing.T) {
		c, clk := newTestCache(t, Config{DefaultTTL: time.Second, MaxSize: 10})
		calls := 0
		loader := func(context.Context) (int, error) {
			calls++
			return calls, nil
		}
		if _, err := c.GetOrSet(context.Background(), "k", loader); err != nil {
			t.Fatalf("GetOrSet failed: %v", err)
		}
		clk.Advance(2 * time.Second)
		v, err := c.GetOrSet(context.Background(), "k", loader)
		if err != nil {
			t.Fatalf("GetOrSet failed: %v", err)
		}
		if calls != 2 || v != 2 {
			t.Errorf("calls = %d, v = %d, expected reload after expiry", calls, v)
		}
	})

	t.Run("nil loader", func(t *testing.T) {
		c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 10})
		_, err := c.GetOrSet(context.Background(), "k", nil)
		if !errors.Is(err, ErrNilLoader) {
			t.Errorf("err = %v, expected ErrNilLoader", err)
		}
	})
}

func TestCache_Cleanup(t *testing.T) {
	c, clk := newTestCache(t, Config{DefaultTTL: time.Second, MaxSize: 10})
	c.Set("a", 1)
	c.Set("b", 2)
	c.SetWithTTL("c", 3, time.Hour)

	clk.Advance(2 * time.Second)

	if n := c.Cleanup(); n != 2 {
		t.Errorf("Cleanup returned %d, expected 2", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, expected 1", c.Len())
	}
	if !c.Has("c") {
		t.Error("c should survive cleanup")
	}
	if n := c.Cleanup(); n != 0 {
		t.Errorf("second Cleanup returned %d, expected 0", n)
	}
}

func TestCache_Stats(t *testing.T) {
	c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 5})
	c.Set("b", 2)
	c.Set("a", 1)

	st := c.Stats()
	if st.Size != 2 || st.MaxSize != 5 {
		t.Errorf("Stats = %+v, expected Size 2 MaxSize 5", st)
	}
	if !reflect.DeepEqual(st.Keys, []string{"b", "a"}) {
		t.Errorf("Keys = %v, expected insertion order [b a]", st.Keys)
	}
}

// TestCache_Scenario 覆盖组合场景：容量 2、默认 TTL 1s。
func TestCache_Scenario(t *testing.T) {
	var evicted []string
	c, clk := newTestCache(t, Config{DefaultTTL: time.Second, MaxSize: 2},
		WithOnEvict(func(key string) { evicted = append(evicted, key) }))

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if c.Has("a") {
		t.Error("a should be evicted")
	}
	if !c.Has("b") || !c.Has("c") {
		t.Error("b and c should be present")
	}
	if !reflect.DeepEqual(evicted, []string{"a"}) {
		t.Errorf("evicted = %v, expected [a]", evicted)
	}

	clk.Advance(time.Second + time.Millisecond)
	if _, ok := c.Get("b"); ok {
		t.Error("b should be expired after the TTL window")
	}
}

func TestCache_Sweep(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := New[int](Config{DefaultTTL: 10 * time.Millisecond, MaxSize: 10},
		WithSweepInterval(5*time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c.Set("a", 1)

	// 不访问 a，等待后台清理回收
	deadline := time.Now().Add(time.Second)
	for c.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Len() != 0 {
		t.Error("sweeper should reclaim expired entries without access")
	}

	c.Close()
	c.Close() // 幂等
}

func TestCache_CloseWithoutSweeper(t *testing.T) {
	c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 10})
	c.Close()
	c.Close()
	// Close 不影响缓存可用性
	c.Set("a", 1)
	if !c.Has("a") {
		t.Error("cache should remain usable after Close")
	}
}

func TestCache_Concurrent(t *testing.T) {
	c, _ := newTestCache(t, Config{DefaultTTL: time.Minute, MaxSize: 64})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			keys := []string{"expeditions/list", "expeditions/details/1", "products/list"}
			for i := 0; i < 500; i++ {
				k := keys[(g+i)%len(keys)]
				switch i % 4 {
				case 0:
					c.Set(k, i)
				case 1:
					c.Get(k)
				case 2:
					c.Invalidate("expeditions/*")
				case 3:
					c.Delete(k)
				}
			}
		}(g)
	}
	wg.Wait()
}
