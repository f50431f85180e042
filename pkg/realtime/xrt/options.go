package xrt

import (
	"log/slog"
	"time"
)

// 默认配置。
const (
	// defaultMaxAttempts 默认自动重连次数上限。
	defaultMaxAttempts = 5

	// defaultReconnectDelay Reconnect() 中断开与重连之间的固定等待。
	defaultReconnectDelay = time.Second

	// defaultProbeInterval 默认延迟探测间隔。
	defaultProbeInterval = 25 * time.Second

	// defaultBackoffDelay 默认自动重连退避（固定延迟）。
	defaultBackoffDelay = 2 * time.Second
)

// IdentityFunc 解析当前用户身份。
// 返回 false 表示身份暂不可用（如尚未登录）。
type IdentityFunc func() (userID int64, ok bool)

// Option 定义客户端可选配置函数类型。
type Option func(*clientOptions)

// clientOptions 内部可选配置。
type clientOptions struct {
	transport        Transport
	identity         IdentityFunc
	log              *slog.Logger
	maxAttempts      int
	backoff          BackoffPolicy
	reconnectDelay   time.Duration
	probeInterval    time.Duration
	handshakeTimeout time.Duration
}

func defaultClientOptions() *clientOptions {
	return &clientOptions{
		log:              slog.Default(),
		maxAttempts:      defaultMaxAttempts,
		backoff:          NewFixedBackoff(defaultBackoffDelay),
		reconnectDelay:   defaultReconnectDelay,
		probeInterval:    defaultProbeInterval,
		handshakeTimeout: defaultHandshakeTimeout,
	}
}

// WithTransport 替换传输实现。默认使用 WebSocket（见 NewWebSocketTransport）。
// 传入 nil 会被静默忽略。
func WithTransport(t Transport) Option {
	return func(o *clientOptions) {
		if t != nil {
			o.transport = t
		}
	}
}

// WithIdentity 设置身份解析函数。
// 房间操作与连接时自动加入用户房间都依赖身份：未配置或解析失败时，
// 房间操作记录告警并退化为 no-op。
func WithIdentity(fn IdentityFunc) Option {
	return func(o *clientOptions) {
		o.identity = fn
	}
}

// WithLogger 设置结构化日志。默认使用 slog.Default()。
func WithLogger(log *slog.Logger) Option {
	return func(o *clientOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// WithMaxReconnectAttempts 设置自动重连次数上限。
// 达到上限后派发 KindMaxReconnectAttemptsReached 并停止自动重试，
// 直到调用方显式 Reconnect。n <= 0 时静默忽略。
func WithMaxReconnectAttempts(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithReconnectBackoff 设置自动重连的退避策略。
// 默认为固定 2s 延迟；需要指数退避时传入 NewExponentialBackoff 的实例。
// 传入 nil 会被静默忽略。
func WithReconnectBackoff(p BackoffPolicy) Option {
	return func(o *clientOptions) {
		if p != nil {
			o.backoff = p
		}
	}
}

// WithReconnectDelay 设置 Reconnect() 断开后到重新连接之间的固定等待。
// d < 0 时静默忽略；0 表示立即重连。
func WithReconnectDelay(d time.Duration) Option {
	return func(o *clientOptions) {
		if d >= 0 {
			o.reconnectDelay = d
		}
	}
}

// WithProbeInterval 设置延迟探测间隔。
// 探测只在 Connected 状态运行，状态迁出时同步停止。d <= 0 时静默忽略。
func WithProbeInterval(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.probeInterval = d
		}
	}
}

// WithHandshakeTimeout 设置握手超时，仅对默认 WebSocket 传输生效。
// d <= 0 时静默忽略。
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.handshakeTimeout = d
		}
	}
}
