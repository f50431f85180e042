package xkeys

import "testing"

func TestKeyBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"ExpeditionList", ExpeditionList(), "expeditions/list"},
		{"ExpeditionDetails", ExpeditionDetails(42), "expeditions/details/42"},
		{"ExpeditionMetrics", ExpeditionMetrics(42), "expeditions/metrics/42"},
		{"UserExpeditions", UserExpeditions(7), "expeditions/user/7"},
		{"ProductList", ProductList(), "products/list"},
		{"ProductDetails", ProductDetails(3), "products/details/3"},
		{"UserProfile", UserProfile(7), "users/profile/7"},
		{"AllExpeditions", AllExpeditions(), "expeditions/*"},
		{"AllProducts", AllProducts(), "products/*"},
		{"AllUserExpeditions", AllUserExpeditions(), "expeditions/user/*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("键约定被破坏: got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestNegativeIDsFormatted(t *testing.T) {
	// 负数标识不合法，但构造函数不做校验，至少要保证格式稳定
	if got := ExpeditionDetails(-1); got != "expeditions/details/-1" {
		t.Fatalf("got %q", got)
	}
}
