package xkeys

// Store 定义失效例程依赖的最小缓存接口。
// *xttl.Cache[V] 的任意实例化都满足此接口。
type Store interface {
	// Delete 删除单个键，返回键是否存在。
	Delete(key string) bool

	// Invalidate 按通配符模式批量删除，返回删除数量。
	Invalidate(pattern string) int
}

// 以下例程编码"哪些键必须一起失效"的领域知识：
// 某个实体变更时，所有可能包含其旧状态的键都必须删除。
// 显式变更处理与实时事件联动（见 coordinator.go）共用同一套例程，
// 保证两条路径的失效范围一致。

// InvalidateExpedition 使单个远征的所有派生键失效。
// 覆盖：详情、统计、全量列表，以及所有用户维度的远征列表
// （无法得知哪些用户的列表包含该远征，只能整段失效）。
func InvalidateExpedition(s Store, expeditionID int64) int {
	n := 0
	if s.Delete(ExpeditionDetails(expeditionID)) {
		n++
	}
	if s.Delete(ExpeditionMetrics(expeditionID)) {
		n++
	}
	if s.Delete(ExpeditionList()) {
		n++
	}
	n += s.Invalidate(AllUserExpeditions())
	return n
}

// InvalidateExpeditions 使整个远征命名空间失效。
func InvalidateExpeditions(s Store) int {
	return s.Invalidate(AllExpeditions())
}

// InvalidateProduct 使单个物品的派生键失效（详情与全量列表）。
func InvalidateProduct(s Store, productID int64) int {
	n := 0
	if s.Delete(ProductDetails(productID)) {
		n++
	}
	if s.Delete(ProductList()) {
		n++
	}
	return n
}

// InvalidateProducts 使整个物品命名空间失效。
func InvalidateProducts(s Store) int {
	return s.Invalidate(AllProducts())
}

// InvalidateUser 使单个用户的派生键失效（资料与其远征列表）。
func InvalidateUser(s Store, userID int64) int {
	n := 0
	if s.Delete(UserProfile(userID)) {
		n++
	}
	if s.Delete(UserExpeditions(userID)) {
		n++
	}
	return n
}
