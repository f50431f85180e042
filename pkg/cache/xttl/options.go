package xttl

import (
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Option 定义缓存可选配置函数类型。
type Option func(*options)

// options 内部可选配置。
type options struct {
	onEvict       func(key string)
	sweepInterval time.Duration
	meterProvider metric.MeterProvider
}

func defaultOptions() *options {
	return &options{}
}

// WithOnEvict 设置条目被移除时的回调函数。
// 容量淘汰、显式删除、通配符失效、Clear、惰性过期与周期清理
// 都会触发此回调。
//
// 回调在缓存互斥锁内同步执行，调用方必须遵守以下约束：
//   - 严禁在回调中调用 Cache 自身的任何方法，否则会死锁
//   - 应避免耗时操作（如网络 I/O），以免阻塞其他并发操作
func WithOnEvict(fn func(key string)) Option {
	return func(o *options) {
		o.onEvict = fn
	}
}

// WithSweepInterval 启用周期清理，按指定间隔回收已过期条目。
// d 为 0 时不启动清理 goroutine（默认行为），不允许负值。
// 启用后必须调用 Close 释放 goroutine。
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		o.sweepInterval = d
	}
}

// WithMeterProvider 启用 OpenTelemetry 指标（命中/未命中/淘汰/过期计数）。
// 未设置时不产生任何指标开销。传入 nil 会被静默忽略。
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}
