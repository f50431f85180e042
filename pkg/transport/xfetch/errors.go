package xfetch

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBaseURL 表示服务端基地址为空。
	ErrEmptyBaseURL = errors.New("xfetch: base url must not be empty")

	// ErrInvalidBaseURL 表示服务端基地址不是合法的 http/https 地址。
	ErrInvalidBaseURL = errors.New("xfetch: base url must be a valid http(s) url")
)

// StatusError 表示服务端返回了非 2xx 状态码。
// 4xx 是调用方问题，不重试也不计入熔断；5xx 视为服务端故障。
type StatusError struct {
	// Code HTTP 状态码。
	Code int

	// URL 请求的完整地址。
	URL string

	// Body 应答体前若干字节，用于诊断。
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("xfetch: GET %s: unexpected status %d", e.URL, e.Code)
}

// ServerFault 报告该状态码是否属于服务端故障（5xx）。
func (e *StatusError) ServerFault() bool {
	return e.Code >= 500
}
