package xrt

import (
	"encoding/json"
	"fmt"
)

// 线上协议：双向均为 JSON 信封 {"event": <string>, "data": <object>}。
// 载荷中的实体引用一律是整型标识（expedition_id、user_id 等）。

// 出站事件名。
const (
	opJoinExpedition       = "join_expedition"
	opLeaveExpedition      = "leave_expedition"
	opJoinUserRoom         = "join_user_room"
	opGetExpeditionMetrics = "get_expedition_metrics"
	opPing                 = "ping"
)

// 入站事件名。
const (
	wireItemConsumed        = "item_consumed"
	wireExpeditionCompleted = "expedition_completed"
	wireDeadlineWarning     = "deadline_warning"
	wireExpeditionCreated   = "expedition_created"
	wireExpeditionMetrics   = "expedition_metrics"
	wirePong                = "pong"
)

// envelope 协议信封。
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// encodeOutbound 编码一条出站消息。
func encodeOutbound(event string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("xrt: encode %s payload: %w", event, err)
		}
		raw = b
	}
	b, err := json.Marshal(envelope{Event: event, Data: raw})
	if err != nil {
		return nil, fmt.Errorf("xrt: encode %s envelope: %w", event, err)
	}
	return b, nil
}

// roomPayload join_expedition / leave_expedition 载荷。
type roomPayload struct {
	ExpeditionID int64 `json:"expedition_id"`
	UserID       int64 `json:"user_id"`
}

// userRoomPayload join_user_room 载荷。
type userRoomPayload struct {
	UserID int64 `json:"user_id"`
}

// metricsPayload get_expedition_metrics 载荷。
type metricsPayload struct {
	ExpeditionID int64 `json:"expedition_id"`
}

// pingPayload ping 载荷，seq 用于关联应答。
type pingPayload struct {
	Seq uint64 `json:"seq"`
}

// pongPayload pong 应答载荷。
type pongPayload struct {
	Seq uint64 `json:"seq"`
}

// decodeInbound 解码一条入站消息为本地事件。
// pong 不在此处转成事件：返回 (nil, *pongPayload, nil)，由调用方结算 RTT
// 后自行派发携带耗时的 Pong 事件。
// 未知事件名返回 (nil, nil, *UnknownEventError)，调用方记日志后忽略。
func decodeInbound(data []byte) (Event, *pongPayload, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("xrt: decode envelope: %w", err)
	}

	switch env.Event {
	case wireItemConsumed:
		var p ItemConsumed
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, nil, fmt.Errorf("xrt: decode %s: %w", env.Event, err)
		}
		return p, nil, nil
	case wireExpeditionCompleted:
		var p ExpeditionCompleted
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, nil, fmt.Errorf("xrt: decode %s: %w", env.Event, err)
		}
		return p, nil, nil
	case wireDeadlineWarning:
		var p DeadlineWarning
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, nil, fmt.Errorf("xrt: decode %s: %w", env.Event, err)
		}
		return p, nil, nil
	case wireExpeditionCreated:
		var p ExpeditionCreated
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, nil, fmt.Errorf("xrt: decode %s: %w", env.Event, err)
		}
		return p, nil, nil
	case wireExpeditionMetrics:
		var p ExpeditionMetrics
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, nil, fmt.Errorf("xrt: decode %s: %w", env.Event, err)
		}
		return p, nil, nil
	case wirePong:
		var p pongPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, nil, fmt.Errorf("xrt: decode %s: %w", env.Event, err)
		}
		return nil, &p, nil
	default:
		return nil, nil, &UnknownEventError{Name: env.Event}
	}
}

// UnknownEventError 表示入站消息携带未知事件名。
// 协议演进时新增的事件名对旧客户端不是致命错误。
type UnknownEventError struct {
	Name string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("xrt: unknown inbound event %q", e.Name)
}
