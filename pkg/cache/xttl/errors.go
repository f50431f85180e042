package xttl

import "errors"

var (
	// ErrInvalidSize 表示缓存大小配置无效。
	ErrInvalidSize = errors.New("xttl: max size must be greater than 0")

	// ErrSizeExceedsMax 表示缓存大小超过上限 (16,777,216)。
	ErrSizeExceedsMax = errors.New("xttl: max size must not exceed 16777216")

	// ErrInvalidTTL 表示 TTL 配置无效。
	ErrInvalidTTL = errors.New("xttl: default TTL must not be negative")

	// ErrInvalidSweepInterval 表示周期清理间隔配置无效。
	ErrInvalidSweepInterval = errors.New("xttl: sweep interval must not be negative")

	// ErrNilLoader 表示 GetOrSet 传入了 nil loader。
	ErrNilLoader = errors.New("xttl: loader must not be nil")
)
