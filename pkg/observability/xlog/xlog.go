package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日志配置。字段与 xconf 的 log 段一一对应。
type Config struct {
	// Level 日志级别: debug / info / warn / error（大小写不敏感）。
	// 空值视为 info。
	Level string

	// Format 输出格式: json / text。空值视为 json。
	Format string

	// AddSource 是否附带调用位置。
	AddSource bool

	// File 日志文件路径；为空时输出到标准错误。
	// 非空时启用按大小轮转（lumberjack）。
	File string
}

// Option 定义构建时可选配置函数类型。
type Option func(*options)

type options struct {
	writer     io.Writer
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	compress   bool
}

// WithWriter 指定输出目标，覆盖 Config.File。主要用于测试。
// 传入 nil 会被静默忽略。
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.writer = w
		}
	}
}

// WithRotation 调整文件轮转参数（单文件大小上限 MB、保留个数、保留天数）。
// 仅在 Config.File 非空时生效；非正值保留默认。
func WithRotation(maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(o *options) {
		if maxSizeMB > 0 {
			o.maxSizeMB = maxSizeMB
		}
		if maxBackups > 0 {
			o.maxBackups = maxBackups
		}
		if maxAgeDays > 0 {
			o.maxAgeDays = maxAgeDays
		}
	}
}

// WithCompress 启用轮转文件的 gzip 压缩。
func WithCompress() Option {
	return func(o *options) {
		o.compress = true
	}
}

// Build 按配置构建结构化日志实例。
// 返回 logger、清理函数（关闭轮转文件，幂等）与配置错误。
func Build(cfg Config, opts ...Option) (*slog.Logger, func() error, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "text" {
		return nil, nil, fmt.Errorf("xlog: unknown format %q", cfg.Format)
	}

	o := &options{
		maxSizeMB:  100,
		maxBackups: 5,
		maxAgeDays: 30,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	var out io.Writer = os.Stderr
	var closer io.Closer
	switch {
	case o.writer != nil:
		out = o.writer
	case cfg.File != "":
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    o.maxSizeMB,
			MaxBackups: o.maxBackups,
			MaxAge:     o.maxAgeDays,
			Compress:   o.compress,
		}
		out = rotator
		closer = rotator
	}

	hopts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(out, hopts)
	} else {
		handler = slog.NewJSONHandler(out, hopts)
	}

	var once sync.Once
	cleanup := func() error {
		var err error
		once.Do(func() {
			if closer != nil {
				err = closer.Close()
			}
		})
		return err
	}
	return slog.New(handler), cleanup, nil
}

// parseLevel 解析日志级别字符串。支持 warning 作为 warn 的别名。
func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("xlog: unknown level %q", s)
	}
}
