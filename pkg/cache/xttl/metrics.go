package xttl

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// instrumentationName 指标作用域名称。
const instrumentationName = "github.com/omeyang/xpedition/pkg/cache/xttl"

// cacheMetrics 封装缓存的 OpenTelemetry 计数器。
// nil 接收者表示指标未启用，所有方法均为 no-op。
type cacheMetrics struct {
	hits        metric.Int64Counter
	misses      metric.Int64Counter
	evictions   metric.Int64Counter
	expirations metric.Int64Counter
}

// newCacheMetrics 创建指标集合。
// mp 为 nil 或任一仪表创建失败时返回 nil（指标整体降级为禁用，
// 不影响缓存功能）。
func newCacheMetrics(mp metric.MeterProvider) *cacheMetrics {
	if mp == nil {
		return nil
	}
	meter := mp.Meter(instrumentationName)

	hits, err := meter.Int64Counter("xpedition.cache.hits",
		metric.WithDescription("缓存命中次数"))
	if err != nil {
		return nil
	}
	misses, err := meter.Int64Counter("xpedition.cache.misses",
		metric.WithDescription("缓存未命中次数"))
	if err != nil {
		return nil
	}
	evictions, err := meter.Int64Counter("xpedition.cache.evictions",
		metric.WithDescription("容量淘汰次数"))
	if err != nil {
		return nil
	}
	expirations, err := meter.Int64Counter("xpedition.cache.expirations",
		metric.WithDescription("过期回收次数（惰性过期与周期清理）"))
	if err != nil {
		return nil
	}

	return &cacheMetrics{
		hits:        hits,
		misses:      misses,
		evictions:   evictions,
		expirations: expirations,
	}
}

func (m *cacheMetrics) hit() {
	if m == nil {
		return
	}
	m.hits.Add(context.Background(), 1)
}

func (m *cacheMetrics) miss() {
	if m == nil {
		return
	}
	m.misses.Add(context.Background(), 1)
}

func (m *cacheMetrics) evicted() {
	if m == nil {
		return
	}
	m.evictions.Add(context.Background(), 1)
}

func (m *cacheMetrics) expired() {
	if m == nil {
		return
	}
	m.expirations.Add(context.Background(), 1)
}
