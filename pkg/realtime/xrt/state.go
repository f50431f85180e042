package xrt

import "time"

// ConnState 连接状态机的状态。
// 状态迁移：
//
//	Disconnected --Connect()--> Connecting
//	Connecting   --握手成功-->   Connected   （重连计数清零，自动加入身份房间）
//	Connected    --传输断开-->   Disconnected（订阅与房间意向保留）
//	Connecting/Connected --传输错误--> Disconnected（重连计数 +1）
type ConnState int32

const (
	// StateDisconnected 未连接。
	StateDisconnected ConnState = iota

	// StateConnecting 握手进行中。
	StateConnecting

	// StateConnected 已连接。
	StateConnected
)

// String 实现 fmt.Stringer。
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Status 客户端诊断信息快照。
type Status struct {
	// Connected 是否处于 Connected 状态。
	Connected bool

	// State 当前状态。
	State ConnState

	// ReconnectAttempts 当前的连续失败计数（成功连接时清零）。
	ReconnectAttempts int

	// Exhausted 自动重连次数是否已耗尽（等待显式 Reconnect）。
	Exhausted bool

	// TransportID 当前连接的标识；未连接时为空。
	TransportID string

	// LastRTT 最近一次延迟探测的往返耗时；尚未探测时为 0。
	LastRTT time.Duration
}
