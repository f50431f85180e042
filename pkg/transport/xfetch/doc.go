// Package xfetch 提供带重试与熔断的只读 API 客户端。
//
// 定位是缓存数据流的"远端"一侧：缓存未命中时经由本包的加载器
// 读穿透到服务端。错误分类决定弹性行为:
//   - 网络错误与 5xx: 指数退避重试，连续失败触发熔断
//   - 4xx: 立即返回 *StatusError，不重试也不计入熔断
//   - 熔断打开: 立即返回，不发起请求也不重试
//
// 使用示例:
//
//	api, err := xfetch.New("https://api.example.com",
//		xfetch.WithAttempts(3),
//		xfetch.WithTimeout(5*time.Second),
//	)
//	if err != nil {
//		return err
//	}
//	var list []Expedition
//	if err := api.GetJSON(ctx, "/expeditions", &list); err != nil {
//		return err
//	}
//
// 设计决策: 重试在外、熔断在内。每次实际请求都经过熔断器计数，
// 熔断打开后的拒绝被重试条件识别为不可重试，避免空转退避。
package xfetch
