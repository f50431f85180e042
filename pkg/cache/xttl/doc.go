// Package xttl 提供带 TTL 与插入序淘汰的泛型内存缓存。
//
// xttl 面向"频繁变更的共享状态"场景：应用通过 GetOrSet 读穿远端 API，
// 显式变更与实时推送事件通过 Delete/Invalidate 使相关键失效，
// 从而在不轮询的前提下保证有界的陈旧度。
//
// # 核心特性
//
//   - 泛型值类型：键固定为 string（通配符失效依赖字符串键），值任意
//   - TTL 过期：now - storedAt > ttl 即过期；Get 惰性删除，正确性不依赖后台清理
//   - 插入序淘汰：容量满时淘汰最早插入的条目（FIFO，读取不刷新顺序，非 LRU）
//   - 通配符失效：Invalidate("expeditions/*") 一次性删除整个前缀下的键
//   - 读穿加载：GetOrSet 未命中时调用 loader 并回填
//   - 并发安全：互斥锁保护键表与插入顺序链表
//
// # 配置
//
// Config 提供必需配置：
//   - DefaultTTL：默认过期时间，0 表示永不过期
//   - MaxSize：最大条目数，> 0 且 ≤ 16,777,216
//
// 可选配置通过 Option 提供：
//   - WithOnEvict：条目被移除时的回调（淘汰、删除、失效、过期均触发）
//   - WithSweepInterval：启用周期清理 goroutine（需 Close 释放）
//   - WithMeterProvider：启用 OpenTelemetry 命中率等计数指标
//
// # 键命名约定
//
// 键采用 entity/subkind/id 的层级形式（如 "expeditions/details/42"），
// 分隔符、大小写与段顺序是通配符失效模式依赖的契约，
// 具体约定与配套的失效例程见 pkg/cache/xkeys。
//
// # 已知限制
//
//   - GetOrSet 不对并发同键未命中去重：两次同时未命中会各自调用 loader
//   - OnEvict 在锁内执行：回调中严禁调用 Cache 自身方法
//   - 通配符模式只支持 *：其余字符按字面匹配（正则元字符被转义）
//   - Len/Stats 可能包含已过期但尚未回收的条目
package xttl
