package xrt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// defaultHandshakeTimeout 默认握手超时。
const defaultHandshakeTimeout = 10 * time.Second

// wsTransport 基于 gorilla/websocket 的生产传输实现。
type wsTransport struct {
	dialer *websocket.Dialer
}

// NewWebSocketTransport 创建 WebSocket 传输。
// handshakeTimeout <= 0 时使用默认值 10s。
func NewWebSocketTransport(handshakeTimeout time.Duration) Transport {
	if handshakeTimeout <= 0 {
		handshakeTimeout = defaultHandshakeTimeout
	}
	return &wsTransport{
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
			Proxy:            websocket.DefaultDialer.Proxy,
		},
	}
}

func (t *wsTransport) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := t.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("xrt: websocket dial %s (status %d): %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("xrt: websocket dial %s: %w", url, err)
	}
	return &wsConn{conn: conn}, nil
}

// wsConn 包装 *websocket.Conn。
// gorilla 不允许并发写，用互斥锁串行化 WriteMessage 与 Close 期间的写。
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *wsConn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	// 尽力发送关闭帧，失败时直接关闭底层连接
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}
