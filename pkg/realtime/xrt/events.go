package xrt

import "time"

// Kind 本地事件名。
// 取值是封闭集合：入站推送的每种具体类型对应一个 Kind，
// 其中远征相关的四种还会以 KindExpeditionUpdate 再次派发，
// 订阅方可按需窄订阅（具体类型）或宽订阅（任何远征变更）。
// 这个"具体 → 通用"的二次派发是契约的一部分，不得更改。
type Kind string

const (
	// KindItemConsumed 远征中的物品被消耗。
	KindItemConsumed Kind = "itemConsumed"

	// KindExpeditionCompleted 远征完成。
	KindExpeditionCompleted Kind = "expeditionCompleted"

	// KindDeadlineWarning 远征临近截止。
	KindDeadlineWarning Kind = "deadlineWarning"

	// KindExpeditionCreated 远征创建。
	KindExpeditionCreated Kind = "expeditionCreated"

	// KindExpeditionUpdate 通用远征变更。
	// 上述四种具体事件都会同时以此 Kind 派发（事件值不变）。
	KindExpeditionUpdate Kind = "expeditionUpdate"

	// KindExpeditionMetrics 远征统计数据到达（get_expedition_metrics 的应答）。
	KindExpeditionMetrics Kind = "expeditionMetrics"

	// KindConnected 连接建立。
	KindConnected Kind = "connected"

	// KindDisconnected 连接断开（对端关闭、网络错误或本地主动断开）。
	KindDisconnected Kind = "disconnected"

	// KindReconnected 自动或手动重连成功（在 KindConnected 之外额外派发）。
	KindReconnected Kind = "reconnected"

	// KindMaxReconnectAttemptsReached 自动重连次数耗尽。
	// 此后客户端停止自动重试，需调用方显式 Reconnect。
	KindMaxReconnectAttemptsReached Kind = "maxReconnectAttemptsReached"

	// KindPong 延迟探测应答，携带本次往返耗时。
	KindPong Kind = "pong"
)

// Event 本地事件。Kind 与载荷类型一一对应、编译期绑定：
// 订阅方对事件值做类型断言即可取得该 Kind 的载荷。
type Event interface {
	// Kind 返回事件名。
	Kind() Kind
}

// ItemConsumed 物品消耗事件载荷。
type ItemConsumed struct {
	ExpeditionID int64 `json:"expedition_id"`
	ProductID    int64 `json:"product_id"`
	UserID       int64 `json:"user_id"`
	Quantity     int64 `json:"quantity"`
}

func (ItemConsumed) Kind() Kind { return KindItemConsumed }

// ExpeditionCompleted 远征完成事件载荷。
type ExpeditionCompleted struct {
	ExpeditionID int64 `json:"expedition_id"`
	UserID       int64 `json:"user_id"`
}

func (ExpeditionCompleted) Kind() Kind { return KindExpeditionCompleted }

// DeadlineWarning 截止预警事件载荷。
type DeadlineWarning struct {
	ExpeditionID     int64 `json:"expedition_id"`
	RemainingSeconds int64 `json:"remaining_seconds"`
}

func (DeadlineWarning) Kind() Kind { return KindDeadlineWarning }

// ExpeditionCreated 远征创建事件载荷。
type ExpeditionCreated struct {
	ExpeditionID int64  `json:"expedition_id"`
	OwnerID      int64  `json:"owner_id"`
	Name         string `json:"name"`
}

func (ExpeditionCreated) Kind() Kind { return KindExpeditionCreated }

// ExpeditionMetrics 远征统计应答载荷。
type ExpeditionMetrics struct {
	ExpeditionID  int64 `json:"expedition_id"`
	MemberCount   int64 `json:"member_count"`
	ItemsConsumed int64 `json:"items_consumed"`
	ItemsTotal    int64 `json:"items_total"`
}

func (ExpeditionMetrics) Kind() Kind { return KindExpeditionMetrics }

// Connected 连接建立事件载荷。
type Connected struct {
	// TransportID 本次连接的标识，随每次成功握手更新。
	TransportID string
}

func (Connected) Kind() Kind { return KindConnected }

// Disconnected 连接断开事件载荷。
type Disconnected struct {
	// Err 导致断开的传输错误；本地主动断开时为 nil。
	Err error
}

func (Disconnected) Kind() Kind { return KindDisconnected }

// Reconnected 重连成功事件载荷。
type Reconnected struct {
	// Attempts 本次成功之前经历的失败次数。
	Attempts int
}

func (Reconnected) Kind() Kind { return KindReconnected }

// AttemptsExhausted 重连次数耗尽事件载荷。
type AttemptsExhausted struct {
	// Attempts 已经历的连续失败次数（等于配置的上限）。
	Attempts int
}

func (AttemptsExhausted) Kind() Kind { return KindMaxReconnectAttemptsReached }

// Pong 延迟探测应答载荷。
type Pong struct {
	// Seq 对应 ping 的序号。
	Seq uint64

	// RTT 本次探测的往返耗时。
	RTT time.Duration
}

func (Pong) Kind() Kind { return KindPong }

// generalizesToUpdate 判断某 Kind 是否需要以 KindExpeditionUpdate 二次派发。
func generalizesToUpdate(k Kind) bool {
	switch k {
	case KindItemConsumed, KindExpeditionCompleted, KindDeadlineWarning, KindExpeditionCreated:
		return true
	default:
		return false
	}
}
