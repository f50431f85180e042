package xrt

import "context"

// Conn 一条已建立的传输连接。
// ReadMessage 只会被客户端的读循环串行调用；WriteMessage 可能被多个
// goroutine 并发调用，实现必须自行串行化写入。
type Conn interface {
	// ReadMessage 阻塞读取下一条完整消息。
	// 连接关闭或出错时返回错误，此后不会再被调用。
	ReadMessage() ([]byte, error)

	// WriteMessage 发送一条完整消息。
	WriteMessage(data []byte) error

	// Close 关闭连接。幂等。
	Close() error
}

// Transport 传输工厂。
// 生产实现见 NewWebSocketTransport；测试使用脚本化的假实现。
type Transport interface {
	// Dial 建立到 url 的连接并完成握手。
	// ctx 携带握手超时；超时或取消时必须返回错误。
	Dial(ctx context.Context, url string) (Conn, error)
}
