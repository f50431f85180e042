// Package xrt 提供面向远征业务的实时事件客户端。
//
// 核心特性:
//   - 单条逻辑连接: 三态状态机（Disconnected/Connecting/Connected），
//     Connect/Disconnect/Reconnect 均为异步，结果经由派发的事件观察
//   - 有界自动重连: 传输错误后按退避策略自动重试，成功连接清零计数，
//     达到上限派发 KindMaxReconnectAttemptsReached 后等待显式 Reconnect
//   - 事件多路分发: 按事件名订阅，回调 panic 被隔离；远征相关的具体事件
//     同时以 KindExpeditionUpdate 二次派发，订阅方可窄可宽
//   - 房间成员管理: 加入/离开意向跨断线保留，每次成功连接后自动重发，
//     身份房间在连接成功时自动加入
//   - 延迟探测: 仅在 Connected 期间按固定间隔 ping，往返耗时以
//     KindPong 派发并记入 Status
//
// 使用示例:
//
//	client, err := xrt.New("wss://api.example.com/realtime",
//		xrt.WithIdentity(func() (int64, bool) { return session.UserID() }),
//		xrt.WithMaxReconnectAttempts(5),
//	)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	sub := client.Subscribe(xrt.KindExpeditionUpdate, func(ev xrt.Event) {
//		// itemConsumed/expeditionCompleted/deadlineWarning/expeditionCreated
//		// 都会到达这里
//	})
//	defer sub.Cancel()
//
//	client.Connect()
//	client.JoinExpedition(42)
//
// 设计决策:
//   - 异步连接语义: Connect/Disconnect 立即返回，不阻塞调用方；
//     成败通过 KindConnected/KindDisconnected 事件观察，
//     与浏览器端实时客户端的使用习惯一致
//   - 世代计数: 每次显式的连接级操作递增内部世代号，迟到的异步结果
//     （握手完成、读错误、退避到期）凭世代判别是否仍然有效，
//     保证显式操作对进行中的自动重试始终权威
//   - 传输抽象: Transport/Conn 接口隔离 gorilla/websocket，
//     测试用脚本化假传输驱动全部状态迁移
package xrt
