// Package xkeys 固化缓存键命名约定并提供成套的失效例程。
//
// 键是 entity/subkind/id 形式的层级字符串（如 expeditions/details/42）。
// 分隔符、大小写与段顺序是契约：通配失效模式（如 expeditions/*）
// 依赖这套约定，私自改动会悄悄破坏缓存一致性——所有键必须经由
// 本包的构造函数产生，禁止手拼。
//
// 失效例程建立在最小的 Store 接口上（*xttl.Cache 的任意实例化均满足），
// 每个例程编码一个领域事实：哪些键会因同一实体的变更而一起失效。
//
// BindInvalidation 把实时推送事件接到同一套例程上（见 coordinator.go），
// 显式变更与推送变更共用失效路径:
//
//	cache, _ := xttl.New[[]byte](xttl.Config{DefaultTTL: time.Minute, MaxSize: 1024})
//	binding := xkeys.BindInvalidation(client, cache, logger)
//	defer binding.Unbind()
package xkeys
