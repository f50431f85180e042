package xrt

import "errors"

var (
	// ErrEmptyURL 表示服务端地址为空。
	ErrEmptyURL = errors.New("xrt: server url must not be empty")
)
