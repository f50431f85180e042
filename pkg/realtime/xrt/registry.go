package xrt

import (
	"log/slog"
	"sync"
)

// Handler 事件回调。
// 回调在客户端的派发 goroutine 上同步执行，应避免耗时操作。
type Handler func(Event)

// Subscription 订阅句柄。
type Subscription interface {
	// Cancel 取消订阅。幂等，可多次调用。
	Cancel()
}

// registry 订阅表：事件名 → 回调集合。
// 同一事件名允许多个相互独立的回调；派发顺序不作保证。
type registry struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Kind]map[uint64]Handler
	log    *slog.Logger
}

func newRegistry(log *slog.Logger) *registry {
	return &registry{
		subs: make(map[Kind]map[uint64]Handler),
		log:  log,
	}
}

// subscription 实现 Subscription。
type subscription struct {
	once sync.Once
	reg  *registry
	kind Kind
	id   uint64
}

func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.reg.remove(s.kind, s.id)
	})
}

func (r *registry) add(kind Kind, h Handler) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	if r.subs[kind] == nil {
		r.subs[kind] = make(map[uint64]Handler)
	}
	r.subs[kind][id] = h

	return &subscription{reg: r, kind: kind, id: id}
}

func (r *registry) remove(kind Kind, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hs, ok := r.subs[kind]; ok {
		delete(hs, id)
		if len(hs) == 0 {
			delete(r.subs, kind)
		}
	}
}

// clear 移除所有订阅（destroy 路径）。
func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = make(map[Kind]map[uint64]Handler)
}

// dispatch 向 kind 的所有回调派发事件。
// 先在读锁内快照回调集合，再在锁外逐个调用：回调中可以安全地
// Subscribe/Cancel。单个回调 panic 会被隔离（记录日志后继续派发
// 其余回调），并且不影响连接状态。
func (r *registry) dispatch(kind Kind, ev Event) {
	r.mu.RLock()
	hs := r.subs[kind]
	snapshot := make([]Handler, 0, len(hs))
	for _, h := range hs {
		snapshot = append(snapshot, h)
	}
	r.mu.RUnlock()

	for _, h := range snapshot {
		r.invoke(kind, ev, h)
	}
}

func (r *registry) invoke(kind Kind, ev Event, h Handler) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("事件回调 panic，已隔离",
				slog.String("kind", string(kind)),
				slog.Any("panic", rec))
		}
	}()
	h(ev)
}
