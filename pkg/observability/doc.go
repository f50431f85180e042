// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 按配置构建 log/slog 日志实例，支持文件轮转
//
// 设计原则：
//   - 不做全局状态，logger 经由依赖注入传递
//   - 指标走 OpenTelemetry（见 pkg/cache/xttl 的可选计数器）
package observability
