package watermark

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// RenderTemplate 单遍替换模板中的 {identifier} 占位符
// 未知变量替换为空字符串，不做递归展开，任何输入都不会失败
func RenderTemplate(template string, ctx Context) string {
	if template == "" {
		return ""
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		if ctx == nil {
			return ""
		}
		return ctx[key]
	})
}
