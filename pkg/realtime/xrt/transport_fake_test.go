package xrt

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// fakeConn 脚本化测试连接。
// 入站消息经 inbound 注入；出站写入被捕获到 writes；
// Close 或 fail 之后 ReadMessage/WriteMessage 返回错误。
type fakeConn struct {
	inbound chan []byte
	writes  chan []byte
	done    chan struct{}
	closed  atomic.Bool
	readErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		writes:  make(chan []byte, 16),
		done:    make(chan struct{}),
		readErr: errors.New("connection closed"),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case <-c.done:
		return nil, c.readErr
	case data := <-c.inbound:
		return data, nil
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	select {
	case <-c.done:
		return errors.New("write on closed connection")
	case c.writes <- data:
		return nil
	}
}

func (c *fakeConn) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.done)
	}
	return nil
}

// fail 模拟对端异常断开：读循环立刻收到 err。
func (c *fakeConn) fail(err error) {
	c.readErr = err
	if c.closed.CompareAndSwap(false, true) {
		close(c.done)
	}
}

// dialResult 一次握手的脚本结果。
type dialResult struct {
	conn *fakeConn
	err  error
}

// fakeTransport 脚本化传输：每次 Dial 消费一条脚本结果，
// 脚本未就绪时阻塞（可用于模拟握手进行中）。
type fakeTransport struct {
	script chan dialResult
	dials  atomic.Int64
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{script: make(chan dialResult, 16)}
}

func (t *fakeTransport) Dial(ctx context.Context, _ string) (Conn, error) {
	t.dials.Add(1)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-t.script:
		if r.err != nil {
			return nil, r.err
		}
		return r.conn, nil
	}
}

// dialOK 预置一次成功握手，返回将被交出的连接。
func (t *fakeTransport) dialOK() *fakeConn {
	conn := newFakeConn()
	t.script <- dialResult{conn: conn}
	return conn
}

// dialErr 预置一次失败握手。
func (t *fakeTransport) dialErr(err error) {
	t.script <- dialResult{err: err}
}

// waitEvent 等待一条事件，超时视为测试失败。
func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("事件等待超时")
		return nil
	}
}

// expectNoEvent 断言一小段时间内没有事件到达。
func expectNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("不应有事件到达: %#v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

// collect 订阅 kind 并把事件汇入通道。
func collect(c *Client, kind Kind) <-chan Event {
	ch := make(chan Event, 32)
	c.Subscribe(kind, func(ev Event) { ch <- ev })
	return ch
}

// waitWrite 等待并解码一条出站消息。
func waitWrite(t *testing.T, conn *fakeConn) envelope {
	t.Helper()
	select {
	case data := <-conn.writes:
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("解码出站消息失败: %v", err)
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("出站消息等待超时")
		return envelope{}
	}
}

// pushInbound 注入一条入站消息。
func pushInbound(t *testing.T, conn *fakeConn, event string, payload any) {
	t.Helper()
	b, err := encodeOutbound(event, payload)
	if err != nil {
		t.Fatalf("编码入站消息失败: %v", err)
	}
	conn.inbound <- b
}
