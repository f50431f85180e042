package xkeys

import "strconv"

// 键命名约定：entity/subkind/id，小写，以 / 分隔。
// 分隔符、大小写与段顺序是通配符失效模式依赖的契约：
// 修改任何一段都必须同步修改本包中所有失效例程，否则缓存一致性会
// 静默失效。所有键必须经由本包的构造函数产生，禁止手写字面量。

const (
	// Sep 层级键分隔符。
	Sep = "/"

	// NSExpeditions 远征实体命名空间。
	NSExpeditions = "expeditions"

	// NSProducts 物品实体命名空间。
	NSProducts = "products"

	// NSUsers 用户实体命名空间。
	NSUsers = "users"
)

// ExpeditionList 远征列表键。
func ExpeditionList() string {
	return NSExpeditions + Sep + "list"
}

// ExpeditionDetails 单个远征详情键。
func ExpeditionDetails(expeditionID int64) string {
	return NSExpeditions + Sep + "details" + Sep + strconv.FormatInt(expeditionID, 10)
}

// ExpeditionMetrics 单个远征统计键。
func ExpeditionMetrics(expeditionID int64) string {
	return NSExpeditions + Sep + "metrics" + Sep + strconv.FormatInt(expeditionID, 10)
}

// UserExpeditions 某用户参与的远征列表键。
func UserExpeditions(userID int64) string {
	return NSExpeditions + Sep + "user" + Sep + strconv.FormatInt(userID, 10)
}

// ProductList 物品列表键。
func ProductList() string {
	return NSProducts + Sep + "list"
}

// ProductDetails 单个物品详情键。
func ProductDetails(productID int64) string {
	return NSProducts + Sep + "details" + Sep + strconv.FormatInt(productID, 10)
}

// UserProfile 用户资料键。
func UserProfile(userID int64) string {
	return NSUsers + Sep + "profile" + Sep + strconv.FormatInt(userID, 10)
}

// AllExpeditions 匹配整个远征命名空间的通配符模式。
func AllExpeditions() string {
	return NSExpeditions + Sep + "*"
}

// AllProducts 匹配整个物品命名空间的通配符模式。
func AllProducts() string {
	return NSProducts + Sep + "*"
}

// AllUserExpeditions 匹配所有用户远征列表的通配符模式。
func AllUserExpeditions() string {
	return NSExpeditions + Sep + "user" + Sep + "*"
}
