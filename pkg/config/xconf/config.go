package xconf

import (
	"fmt"
	"time"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	// FormatYAML YAML 格式（推荐用于 K8s ConfigMap）。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// Config 应用配置树。字段名即配置键（koanf 标签）。
// 缺省值见 Default()；加载时缺失的键保留缺省值。
type Config struct {
	Cache    CacheConfig    `koanf:"cache"`
	Realtime RealtimeConfig `koanf:"realtime"`
	Fetch    FetchConfig    `koanf:"fetch"`
	Log      LogConfig      `koanf:"log"`
}

// CacheConfig 缓存配置。
type CacheConfig struct {
	// DefaultTTL 条目默认存活时间。
	DefaultTTL time.Duration `koanf:"default_ttl"`

	// MaxSize 最大条目数，超出时按插入顺序淘汰。
	MaxSize int `koanf:"max_size"`

	// SweepInterval 后台清扫间隔；0 表示不启用后台清扫
	// （惰性过期已保证正确性，清扫只是回收内存）。
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// RealtimeConfig 实时客户端配置。
type RealtimeConfig struct {
	// URL 实时服务端地址（ws:// 或 wss://）。
	URL string `koanf:"url"`

	// MaxReconnects 自动重连次数上限。
	MaxReconnects int `koanf:"max_reconnects"`

	// ReconnectDelay 显式 Reconnect 的断开-重连间隔。
	ReconnectDelay time.Duration `koanf:"reconnect_delay"`

	// ProbeInterval 延迟探测间隔。
	ProbeInterval time.Duration `koanf:"probe_interval"`

	// HandshakeTimeout WebSocket 握手超时。
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`
}

// FetchConfig 只读 API 客户端配置。
type FetchConfig struct {
	// BaseURL API 基地址（http:// 或 https://）。
	BaseURL string `koanf:"base_url"`

	// Timeout 单次请求超时。
	Timeout time.Duration `koanf:"timeout"`

	// Attempts 总尝试次数（含首次）。
	Attempts uint `koanf:"attempts"`
}

// LogConfig 日志配置。
type LogConfig struct {
	// Level 日志级别: debug / info / warn / error。
	Level string `koanf:"level"`

	// Format 输出格式: json / text。
	Format string `koanf:"format"`

	// AddSource 是否附带调用位置。
	AddSource bool `koanf:"add_source"`

	// File 日志文件路径；为空时输出到标准错误。
	// 非空时启用按大小轮转。
	File string `koanf:"file"`
}

// Default 返回全部缺省值。
func Default() Config {
	return Config{
		Cache: CacheConfig{
			DefaultTTL:    5 * time.Minute,
			MaxSize:       1024,
			SweepInterval: 0,
		},
		Realtime: RealtimeConfig{
			MaxReconnects:    5,
			ReconnectDelay:   time.Second,
			ProbeInterval:    25 * time.Second,
			HandshakeTimeout: 10 * time.Second,
		},
		Fetch: FetchConfig{
			Timeout:  10 * time.Second,
			Attempts: 3,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate 校验配置的内部一致性。
// 不校验 URL 可达性，只校验取值范围。
func (c *Config) Validate() error {
	if c.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("%w: cache.default_ttl must be positive", ErrInvalidConfig)
	}
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("%w: cache.max_size must be positive", ErrInvalidConfig)
	}
	if c.Cache.SweepInterval < 0 {
		return fmt.Errorf("%w: cache.sweep_interval must not be negative", ErrInvalidConfig)
	}
	if c.Realtime.MaxReconnects <= 0 {
		return fmt.Errorf("%w: realtime.max_reconnects must be positive", ErrInvalidConfig)
	}
	if c.Realtime.ReconnectDelay < 0 {
		return fmt.Errorf("%w: realtime.reconnect_delay must not be negative", ErrInvalidConfig)
	}
	if c.Realtime.ProbeInterval <= 0 {
		return fmt.Errorf("%w: realtime.probe_interval must be positive", ErrInvalidConfig)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("%w: fetch.timeout must be positive", ErrInvalidConfig)
	}
	if c.Fetch.Attempts == 0 {
		return fmt.Errorf("%w: fetch.attempts must be positive", ErrInvalidConfig)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level must be one of debug/info/warn/error", ErrInvalidConfig)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: log.format must be json or text", ErrInvalidConfig)
	}
	return nil
}
