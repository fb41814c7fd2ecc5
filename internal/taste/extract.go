package taste

import (
	"strings"

	"github.com/Mrpixelraf/wine-advisor/internal/model"
)

// appendCapped 追加一个不重复的标签，超出容量时从队首淘汰最旧条目。
func appendCapped(list []string, label string, capacity int) []string {
	for _, v := range list {
		if v == label {
			return list
		}
	}
	out := append(append([]string{}, list...), label)
	if len(out) > capacity {
		out = out[len(out)-capacity:]
	}
	return out
}

// matchRules 按固定顺序扫描关键词规则，把命中的规范标签并入列表。
func matchRules(lower string, list []string, rules []keywordRule, capacity int) []string {
	for _, r := range rules {
		if strings.Contains(lower, strings.ToLower(r.keyword)) {
			list = appendCapped(list, r.label, capacity)
		}
	}
	return list
}

// Extract 扫描助手回复文本，返回并入新信号后的口味画像。
// 纯函数：不修改入参，相同输入必得相同输出。
// 关键词匹配对非表意文字大小写不敏感；价位匹配使用原文且首个命中的模式生效。
func Extract(text string, current model.TasteProfile) model.TasteProfile {
	lower := strings.ToLower(text)

	updated := model.TasteProfile{
		Regions:    append([]string{}, current.Regions...),
		Grapes:     append([]string{}, current.Grapes...),
		Styles:     append([]string{}, current.Styles...),
		Occasions:  append([]string{}, current.Occasions...),
		PriceRange: current.PriceRange,
	}

	updated.Regions = matchRules(lower, updated.Regions, regionRules, MaxRegions)
	updated.Grapes = matchRules(lower, updated.Grapes, grapeRules, MaxGrapes)
	updated.Styles = matchRules(lower, updated.Styles, styleRules, MaxStyles)
	updated.Occasions = matchRules(lower, updated.Occasions, occasionRules, MaxOccasions)

	for _, p := range pricePatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			updated.PriceRange = p.extract(m)
			break
		}
	}
	return updated
}

// HasData 判断画像是否已有任何累积信号。
func HasData(p model.TasteProfile) bool {
	return len(p.Regions) > 0 || len(p.Grapes) > 0 || len(p.Styles) > 0 || len(p.Occasions) > 0
}
