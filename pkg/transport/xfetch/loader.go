package xfetch

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSONLoader 把一个 GET 端点包装成缓存读穿透加载器。
// 返回的函数签名与 xttl.Cache.GetOrSet 的 loader 一致:
//
//	cache, _ := xttl.New[ExpeditionDetails](xttl.Config{...})
//	details, err := cache.GetOrSet(ctx,
//		xkeys.ExpeditionDetails(42),
//		xfetch.JSONLoader[ExpeditionDetails](api, "/expeditions/42"))
//
// 加载失败原样返回，缓存保持未写入（由 GetOrSet 保证）。
func JSONLoader[T any](c *Client, path string) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var out T
		body, err := c.Get(ctx, path)
		if err != nil {
			return out, err
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return out, fmt.Errorf("xfetch: decode %s: %w", path, err)
		}
		return out, nil
	}
}
