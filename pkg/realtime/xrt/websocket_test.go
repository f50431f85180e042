package xrt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsEchoServer 起一个回显 WebSocket 服务，返回 ws:// 地址。
func wsEchoServer(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketTransport(t *testing.T) {
	t.Run("EchoRoundTrip", func(t *testing.T) {
		tr := NewWebSocketTransport(0)
		conn, err := tr.Dial(context.Background(), wsEchoServer(t))
		require.NoError(t, err)
		defer conn.Close()

		msg := []byte(`{"event":"ping","data":{"seq":1}}`)
		require.NoError(t, conn.WriteMessage(msg))

		got, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, msg, got)
	})

	t.Run("DialRefused", func(t *testing.T) {
		tr := NewWebSocketTransport(time.Second)
		_, err := tr.Dial(context.Background(), "ws://127.0.0.1:1/ws")
		require.Error(t, err)
	})

	t.Run("DialNonWebSocketEndpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		tr := NewWebSocketTransport(time.Second)
		_, err := tr.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("ReadAfterClose", func(t *testing.T) {
		tr := NewWebSocketTransport(0)
		conn, err := tr.Dial(context.Background(), wsEchoServer(t))
		require.NoError(t, err)

		require.NoError(t, conn.Close())
		_, err = conn.ReadMessage()
		require.Error(t, err)
	})
}

// TestClientOverWebSocket 用真实 WebSocket 服务端走一遍连接与事件派发。
func TestClientOverWebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// 对每条入站消息推送一条 item_consumed
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			push, _ := encodeOutbound(wireItemConsumed, ItemConsumed{ExpeditionID: 42, Quantity: 1})
			if err := conn.WriteMessage(websocket.TextMessage, push); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c, err := New("ws"+strings.TrimPrefix(srv.URL, "http"),
		WithIdentity(identityOf(7)))
	require.NoError(t, err)
	defer c.Close()

	connected := collect(c, KindConnected)
	update := collect(c, KindExpeditionUpdate)

	c.Connect()
	waitEvent(t, connected)

	// 连接成功自动发送 join_user_room，服务端对其应答一条推送
	ev := waitEvent(t, update).(ItemConsumed)
	assert.EqualValues(t, 42, ev.ExpeditionID)
}
