// Package xconf 提供应用配置的加载、校验与热更新。
//
// 配置是强类型的 Config 树（cache / realtime / fetch / log 四段），
// 支持 YAML 与 JSON，底层使用 koanf。时长字段接受 Go 时长字符串
// （如 "5m"、"30s"）。文件中缺失的键保留 Default() 的缺省值。
//
// 使用示例:
//
//	cfg, err := xconf.Load("/etc/xpedition/config.yaml")
//	if err != nil {
//		return err
//	}
//	cache, err := xttl.New[[]byte](xttl.Config{
//		DefaultTTL: cfg.Cache.DefaultTTL,
//		MaxSize:    cfg.Cache.MaxSize,
//	})
//
// 热更新经由 Watch：监视文件所在目录（兼容编辑器的原子写入），
// 防抖后重载并回调；重载失败时回调收到错误，调用方继续用旧配置。
package xconf
