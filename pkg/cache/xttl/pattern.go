package xttl

import (
	"regexp"
	"strings"
)

// compilePattern 将通配符模式编译为锚定正则。
// 模式中只有 * 是特殊字符，匹配任意子串；其余字符（包括正则元字符
// 如 . + ( )）一律转义后按字面匹配。
//
// 设计决策: 来源行为只替换 * 而不转义其余元字符，键段中出现元字符时
// 匹配会静默失真。这里选择显式转义，使 "expeditions/details/1" 这类
// 字面模式永远精确匹配自身，代价是模式不支持 * 以外的正则语法。
func compilePattern(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	// QuoteMeta 之后唯一的元结构是我们自己插入的 .*，编译不可能失败。
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
