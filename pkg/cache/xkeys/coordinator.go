package xkeys

import (
	"log/slog"

	"github.com/omeyang/xpedition/pkg/realtime/xrt"
)

// EventBus 定义联动依赖的最小订阅接口。*xrt.Client 满足此接口。
type EventBus interface {
	Subscribe(kind xrt.Kind, h xrt.Handler) xrt.Subscription
}

// Binding 一次联动绑定的句柄。
type Binding struct {
	subs []xrt.Subscription
}

// Unbind 解除联动，取消全部订阅。幂等。
func (b *Binding) Unbind() {
	for _, sub := range b.subs {
		sub.Cancel()
	}
	b.subs = nil
}

// BindInvalidation 把实时推送事件接到失效例程上：
// 服务端推送的变更走与显式变更完全相同的失效路径，
// 缓存一致性不依赖轮询。
//
// 绑定关系:
//   - itemConsumed        → 远征 + 被消耗物品
//   - expeditionCompleted → 远征
//   - deadlineWarning     → 远征（详情携带剩余时间，需重取）
//   - expeditionCreated   → 远征全命名空间 + 创建者
//
// 回调在客户端的派发 goroutine 上执行，失效例程只做 map 删除，
// 不会阻塞派发。
func BindInvalidation(bus EventBus, store Store, log *slog.Logger) *Binding {
	if log == nil {
		log = slog.Default()
	}

	sub := bus.Subscribe(xrt.KindExpeditionUpdate, func(ev xrt.Event) {
		var n int
		switch e := ev.(type) {
		case xrt.ItemConsumed:
			n = InvalidateExpedition(store, e.ExpeditionID)
			n += InvalidateProduct(store, e.ProductID)
		case xrt.ExpeditionCompleted:
			n = InvalidateExpedition(store, e.ExpeditionID)
		case xrt.DeadlineWarning:
			n = InvalidateExpedition(store, e.ExpeditionID)
		case xrt.ExpeditionCreated:
			n = InvalidateExpeditions(store)
			n += InvalidateUser(store, e.OwnerID)
		default:
			log.Debug("联动收到未绑定的事件类型", slog.String("kind", string(ev.Kind())))
			return
		}
		log.Debug("推送触发缓存失效",
			slog.String("kind", string(ev.Kind())),
			slog.Int("invalidated", n))
	})

	return &Binding{subs: []xrt.Subscription{sub}}
}
