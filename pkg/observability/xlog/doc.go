// Package xlog 按配置构建标准库 slog 日志实例。
//
// 不做全局状态，不包装 slog 的 API：Build 返回 *slog.Logger，
// 调用方经由依赖注入传递。文件输出时启用按大小轮转。
//
// 使用示例:
//
//	logger, cleanup, err := xlog.Build(xlog.Config{
//		Level:  cfg.Log.Level,
//		Format: cfg.Log.Format,
//		File:   cfg.Log.File,
//	})
//	if err != nil {
//		return err
//	}
//	defer func() { _ = cleanup() }()
package xlog
