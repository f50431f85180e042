package xrt

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client 实时事件客户端。
// 持有一条到服务端的逻辑连接：自动重连（有界）、入站事件多路分发、
// 服务端房间成员管理与延迟探测。必须通过 [New] 创建。
//
// Connect/Disconnect/Reconnect 均立即返回，结果只通过状态迁移与
// 派发的事件观察，不通过返回值传递成败。所有方法并发安全。
type Client struct {
	url      string
	identity IdentityFunc
	log      *slog.Logger

	maxAttempts    int
	backoff        BackoffPolicy
	reconnectDelay time.Duration
	probeInterval  time.Duration

	transport Transport
	registry  *registry

	mu          sync.Mutex
	state       ConnState
	conn        Conn
	transportID string

	// gen 连接世代。Connect/Disconnect/Reconnect/Close 都会递增；
	// 异步路径（握手结果、读循环错误、自动重试）携带发起时的世代，
	// 世代不匹配的迟到结果一律丢弃。这保证 Disconnect 对进行中的
	// 重连尝试是权威的：迟到的握手成功会被直接关闭。
	gen uint64

	// dialCancel 打断在途握手；teardown 时调用并清空。
	dialCancel context.CancelFunc

	// attempts 连续传输错误计数，成功连接时清零。
	attempts  int
	exhausted bool

	// rooms / userRooms 房间成员意向，跨断线保留，
	// 每次成功连接后整体重发。
	rooms     map[int64]struct{}
	userRooms map[int64]struct{}

	// 延迟探测状态。probeStop 非 nil 表示探测循环在运行，
	// 关闭该通道即同步停止探测（与 Connected→Disconnected 迁移同步）。
	probeStop chan struct{}
	pingSeq   uint64
	pending   map[uint64]time.Time
	lastRTT   time.Duration

	closed   bool
	closedCh chan struct{}
	destroy  sync.Once
}

// New 创建实时客户端。url 为空时返回 ErrEmptyURL。
// 创建后客户端处于 Disconnected 状态，需调用 Connect 发起连接。
func New(url string, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	o := defaultClientOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.transport == nil {
		o.transport = NewWebSocketTransport(o.handshakeTimeout)
	}

	return &Client{
		url:            url,
		identity:       o.identity,
		log:            o.log,
		maxAttempts:    o.maxAttempts,
		backoff:        o.backoff,
		reconnectDelay: o.reconnectDelay,
		probeInterval:  o.probeInterval,
		transport:      o.transport,
		registry:       newRegistry(o.log),
		state:          StateDisconnected,
		rooms:          make(map[int64]struct{}),
		userRooms:      make(map[int64]struct{}),
		pending:        make(map[uint64]time.Time),
		closedCh:       make(chan struct{}),
	}, nil
}

// =============================================================================
// 订阅
// =============================================================================

// Subscribe 注册 kind 的事件回调，返回用于取消的句柄。
// 同一 kind 允许多个相互独立的回调；回调 panic 会被隔离，
// 不影响同批次其余回调的派发，也不影响连接状态。
func (c *Client) Subscribe(kind Kind, h Handler) Subscription {
	return c.registry.add(kind, h)
}

// dispatch 派发事件。远征相关的具体事件同时以 KindExpeditionUpdate
// 二次派发（同一事件值），订阅方可窄可宽。
func (c *Client) dispatch(ev Event) {
	c.registry.dispatch(ev.Kind(), ev)
	if generalizesToUpdate(ev.Kind()) {
		c.registry.dispatch(KindExpeditionUpdate, ev)
	}
}

// =============================================================================
// 连接生命周期
// =============================================================================

// Connect 发起连接。异步：立即返回，结果经由事件观察。
// 仅在 Disconnected 状态有效，其余状态记录日志后忽略。
// 显式 Connect 会清除"重连次数耗尽"标记。
func (c *Client) Connect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.log.Warn("客户端已销毁，忽略 Connect")
		return
	}
	if c.state != StateDisconnected {
		state := c.state
		c.mu.Unlock()
		c.log.Debug("已在连接中或已连接，忽略 Connect", slog.String("state", state.String()))
		return
	}
	c.state = StateConnecting
	c.exhausted = false
	c.gen++
	g := c.gen
	ctx := c.armDialLocked()
	c.mu.Unlock()

	go c.dial(ctx, g)
}

// Disconnect 主动断开。异步语义同 Connect。
// 对进行中的重连尝试是权威的：之后迟到的握手成功会被丢弃。
// 订阅与房间意向保留，重新 Connect 后自动恢复。
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.gen++
	prev := c.state
	conn := c.teardownLocked()
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if prev != StateDisconnected {
		c.dispatch(Disconnected{})
	}
}

// Reconnect 断开后等待固定延迟再重新连接。
// 随后的成功连接照常把重连计数清零。
func (c *Client) Reconnect() {
	c.Disconnect()
	go func() {
		select {
		case <-time.After(c.reconnectDelay):
		case <-c.closedCh:
			return
		}
		c.Connect()
	}()
}

// Close 销毁客户端：取消所有订阅、断开传输、停止所有内部 goroutine。
// 幂等，可从进程退出钩子等多处安全调用。
func (c *Client) Close() {
	c.destroy.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.gen++
		conn := c.teardownLocked()
		c.mu.Unlock()

		close(c.closedCh)
		if conn != nil {
			_ = conn.Close()
		}
		c.registry.clear()
	})
}

// armDialLocked 为一次握手尝试准备可取消的 context。
// teardown 会取消它，保证 Disconnect/Close 能打断阻塞中的握手。
func (c *Client) armDialLocked() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c.dialCancel = cancel
	return ctx
}

// teardownLocked 打断在途握手、停止探测、摘下当前连接，
// 并把状态置为 Disconnected。返回待关闭的连接（在锁外关闭）。
func (c *Client) teardownLocked() Conn {
	if c.dialCancel != nil {
		c.dialCancel()
		c.dialCancel = nil
	}
	c.stopProbeLocked()
	conn := c.conn
	c.conn = nil
	c.transportID = ""
	c.state = StateDisconnected
	return conn
}

// dial 在新 goroutine 中执行一次握手尝试。
func (c *Client) dial(ctx context.Context, g uint64) {
	conn, err := c.transport.Dial(ctx, c.url)
	if err != nil {
		c.transportError(g, err)
		return
	}

	c.mu.Lock()
	if c.gen != g || c.state != StateConnecting {
		// 迟到的握手成功：期间发生过 Disconnect/Close，丢弃
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	if c.dialCancel != nil {
		c.dialCancel()
		c.dialCancel = nil
	}
	c.conn = conn
	c.state = StateConnected
	c.transportID = uuid.NewString()
	tid := c.transportID
	prevAttempts := c.attempts
	c.attempts = 0
	c.exhausted = false
	c.startProbeLocked(g, conn)
	rejoin := c.rejoinMessagesLocked()
	c.mu.Unlock()

	go c.readLoop(g, conn)

	c.log.Info("连接已建立",
		slog.String("transport_id", tid),
		slog.Int("prev_attempts", prevAttempts))
	c.dispatch(Connected{TransportID: tid})
	if prevAttempts > 0 {
		c.dispatch(Reconnected{Attempts: prevAttempts})
	}

	// 恢复房间成员意向（含身份房间）
	for _, msg := range rejoin {
		c.write(g, conn, msg)
	}
}

// transportError 统一处理传输错误（握手失败、读写错误、连接断开）。
// 世代不匹配或状态已是 Disconnected 的重复报告会被忽略。
func (c *Client) transportError(g uint64, err error) {
	c.mu.Lock()
	if c.gen != g || c.closed || c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	conn := c.teardownLocked()
	c.attempts++
	attempts := c.attempts
	reached := attempts >= c.maxAttempts
	if reached {
		c.exhausted = true
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	c.log.Warn("传输错误",
		slog.Any("error", err),
		slog.Int("attempts", attempts),
		slog.Int("max_attempts", c.maxAttempts))
	c.dispatch(Disconnected{Err: err})

	if reached {
		// 恰好达到上限时只报告一次；之后不再自动重试
		if attempts == c.maxAttempts {
			c.log.Warn("自动重连次数耗尽，等待显式 Reconnect")
			c.dispatch(AttemptsExhausted{Attempts: attempts})
		}
		return
	}

	go c.retry(g, attempts)
}

// retry 按退避延迟调度下一次自动重连尝试。
// 期间发生 Disconnect/Connect/Close（世代变化）则放弃。
func (c *Client) retry(g uint64, attempt int) {
	select {
	case <-time.After(c.backoff.NextDelay(attempt)):
	case <-c.closedCh:
		return
	}

	c.mu.Lock()
	if c.gen != g || c.closed || c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	ctx := c.armDialLocked()
	c.mu.Unlock()

	c.dial(ctx, g)
}

// readLoop 串行读取入站消息直到连接出错。
func (c *Client) readLoop(g uint64, conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.transportError(g, err)
			return
		}
		c.handleInbound(data)
	}
}

// handleInbound 解码并派发一条入站消息。
// 解码失败与未知事件名只记日志，不影响连接。
func (c *Client) handleInbound(data []byte) {
	ev, pong, err := decodeInbound(data)
	if err != nil {
		var unknown *UnknownEventError
		if errors.As(err, &unknown) {
			c.log.Debug("忽略未知入站事件", slog.String("event", unknown.Name))
		} else {
			c.log.Warn("入站消息解码失败", slog.Any("error", err))
		}
		return
	}
	if pong != nil {
		c.handlePong(pong)
		return
	}
	c.dispatch(ev)
}

// =============================================================================
// 房间成员管理
// =============================================================================

// JoinExpedition 请求加入远征房间。
// 需要可解析的身份：无身份时记录告警并 no-op。
// 成员意向始终记录，未连接时延迟到下次连接成功后发送。
func (c *Client) JoinExpedition(expeditionID int64) {
	userID, ok := c.resolveIdentity("JoinExpedition")
	if !ok {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.rooms[expeditionID] = struct{}{}
	conn := c.connectedConnLocked()
	g := c.gen
	c.mu.Unlock()

	if conn == nil {
		c.log.Debug("未连接，已记录房间意向", slog.Int64("expedition_id", expeditionID))
		return
	}
	c.send(g, conn, opJoinExpedition, roomPayload{ExpeditionID: expeditionID, UserID: userID})
}

// LeaveExpedition 请求离开远征房间并移除成员意向。
func (c *Client) LeaveExpedition(expeditionID int64) {
	userID, ok := c.resolveIdentity("LeaveExpedition")
	if !ok {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	delete(c.rooms, expeditionID)
	conn := c.connectedConnLocked()
	g := c.gen
	c.mu.Unlock()

	if conn == nil {
		return
	}
	c.send(g, conn, opLeaveExpedition, roomPayload{ExpeditionID: expeditionID, UserID: userID})
}

// JoinUserRoom 请求加入指定用户的专属房间。
// 连接成功时当前身份的用户房间会自动加入，此方法用于额外订阅
// 其他用户（如协作者）的房间。
func (c *Client) JoinUserRoom(userID int64) {
	if _, ok := c.resolveIdentity("JoinUserRoom"); !ok {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.userRooms[userID] = struct{}{}
	conn := c.connectedConnLocked()
	g := c.gen
	c.mu.Unlock()

	if conn == nil {
		return
	}
	c.send(g, conn, opJoinUserRoom, userRoomPayload{UserID: userID})
}

// RequestExpeditionMetrics 请求远征统计，应答以 KindExpeditionMetrics 派发。
// 未连接时记录告警并 no-op。
func (c *Client) RequestExpeditionMetrics(expeditionID int64) {
	c.mu.Lock()
	conn := c.connectedConnLocked()
	g := c.gen
	c.mu.Unlock()

	if conn == nil {
		c.log.Warn("未连接，无法请求远征统计", slog.Int64("expedition_id", expeditionID))
		return
	}
	c.send(g, conn, opGetExpeditionMetrics, metricsPayload{ExpeditionID: expeditionID})
}

// resolveIdentity 解析身份；失败时记录告警。
func (c *Client) resolveIdentity(op string) (int64, bool) {
	if c.identity == nil {
		c.log.Warn("未配置身份解析，房间操作被忽略", slog.String("op", op))
		return 0, false
	}
	userID, ok := c.identity()
	if !ok {
		c.log.Warn("身份暂不可用，房间操作被忽略", slog.String("op", op))
		return 0, false
	}
	return userID, true
}

// rejoinMessagesLocked 构造连接成功后需要重发的全部房间消息。
// 身份可解析时总是先加入身份房间；身份不可用时记日志但不失败。
func (c *Client) rejoinMessagesLocked() [][]byte {
	var msgs [][]byte

	appendMsg := func(event string, payload any) {
		b, err := encodeOutbound(event, payload)
		if err != nil {
			c.log.Error("编码出站消息失败", slog.String("event", event), slog.Any("error", err))
			return
		}
		msgs = append(msgs, b)
	}

	var userID int64
	identityOK := false
	if c.identity != nil {
		userID, identityOK = c.identity()
	}
	if identityOK {
		appendMsg(opJoinUserRoom, userRoomPayload{UserID: userID})
	} else {
		c.log.Info("身份不可解析，跳过自动加入用户房间")
	}

	for uid := range c.userRooms {
		if identityOK && uid == userID {
			continue // 身份房间已加入
		}
		appendMsg(opJoinUserRoom, userRoomPayload{UserID: uid})
	}
	if identityOK {
		for eid := range c.rooms {
			appendMsg(opJoinExpedition, roomPayload{ExpeditionID: eid, UserID: userID})
		}
	}
	return msgs
}

// =============================================================================
// 延迟探测
// =============================================================================

// startProbeLocked 启动探测循环。调用方持有 c.mu。
func (c *Client) startProbeLocked(g uint64, conn Conn) {
	stop := make(chan struct{})
	c.probeStop = stop
	go c.probeLoop(g, stop, conn)
}

// stopProbeLocked 同步停止探测循环并清空未结算的探测记录。
// 调用方持有 c.mu；关闭通道后探测循环不会再发送任何 ping。
func (c *Client) stopProbeLocked() {
	if c.probeStop != nil {
		close(c.probeStop)
		c.probeStop = nil
	}
	clear(c.pending)
}

// probeLoop 按固定间隔发送 ping。只在 Connected 期间运行。
func (c *Client) probeLoop(g uint64, stop <-chan struct{}, conn Conn) {
	ticker := time.NewTicker(c.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.gen != g || c.state != StateConnected {
			c.mu.Unlock()
			return
		}
		c.pingSeq++
		seq := c.pingSeq
		c.pending[seq] = time.Now()
		c.mu.Unlock()

		b, err := encodeOutbound(opPing, pingPayload{Seq: seq})
		if err != nil {
			c.log.Error("编码 ping 失败", slog.Any("error", err))
			continue
		}
		if err := conn.WriteMessage(b); err != nil {
			c.transportError(g, err)
			return
		}
	}
}

// handlePong 结算一次探测并派发 Pong 事件。
func (c *Client) handlePong(p *pongPayload) {
	c.mu.Lock()
	sentAt, ok := c.pending[p.Seq]
	if ok {
		delete(c.pending, p.Seq)
	}
	var rtt time.Duration
	if ok {
		rtt = time.Since(sentAt)
		c.lastRTT = rtt
	}
	c.mu.Unlock()

	if !ok {
		// 断开时 pending 已清空，迟到的 pong 直接丢弃
		c.log.Debug("丢弃无对应 ping 的 pong", slog.Uint64("seq", p.Seq))
		return
	}
	c.dispatch(Pong{Seq: p.Seq, RTT: rtt})
}

// =============================================================================
// 发送与诊断
// =============================================================================

// connectedConnLocked 返回当前连接；非 Connected 状态返回 nil。
func (c *Client) connectedConnLocked() Conn {
	if c.state != StateConnected {
		return nil
	}
	return c.conn
}

// send 编码并发送一条出站消息，写错误按传输错误处理。
func (c *Client) send(g uint64, conn Conn, event string, payload any) {
	b, err := encodeOutbound(event, payload)
	if err != nil {
		c.log.Error("编码出站消息失败", slog.String("event", event), slog.Any("error", err))
		return
	}
	c.write(g, conn, b)
}

func (c *Client) write(g uint64, conn Conn, data []byte) {
	if err := conn.WriteMessage(data); err != nil {
		c.transportError(g, err)
	}
}

// Status 返回诊断信息快照。
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Connected:         c.state == StateConnected,
		State:             c.state,
		ReconnectAttempts: c.attempts,
		Exhausted:         c.exhausted,
		TransportID:       c.transportID,
		LastRTT:           c.lastRTT,
	}
}
