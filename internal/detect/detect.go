// Package detect 在助手回复完成后判定是否附加后续操作按钮。
// 刻意采用有序的关键词包含检查而非结构化解析：后端输出是无固定
// 格式的自然语言，关键词门控以召回率换实现确定性，未命中的改写
// 措辞会漏出按钮，这是已记录的数据表问题而非逻辑缺陷。
package detect

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Mrpixelraf/wine-advisor/internal/i18n"
	"github.com/Mrpixelraf/wine-advisor/internal/model"
)

// 识酒指示短语：助手完成酒款识别时通常出现的词。
var wineIdentifiers = []string{
	"识别", "识别出", "这款酒", "这瓶酒", "这是一款", "这瓶", "酒标", "酒款", "年份", "产区", "葡萄品种", "请问你现在是",
	"identified", "recognized", "appears to be", "this wine", "this bottle", "this is a", "wine label", "vintage", "region", "grape variet", "are you looking to",
}

// 想买模式的评价类关键词。
var buyKeywords = []string{"评分", "推荐", "评价", "/100", "分", "rating", "recommend", "score", "review"}

// 在喝/品鉴模式的小节关键词。中英文词表长度不对称，保留原始数据。
var drinkKeywords = []string{"Tasting", "品鉴", "香气", "口感", "余味", "酒体", "Appearance", "Nose", "Palate", "Finish", "Aroma"}

func containsAnyFold(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// WineIdentificationActions 识酒检测：本轮用户消息带图且回复含识酒指示短语时，
// 产生"想买"与"在喝"两个自动发送型按钮。
func WineIdentificationActions(aiContent string, hasImage bool, locale i18n.Locale) []model.MessageAction {
	if !hasImage {
		return nil
	}
	if !containsAnyFold(aiContent, wineIdentifiers) {
		return nil
	}
	return []model.MessageAction{
		{
			ID:      "buy-" + uuid.NewString(),
			Label:   i18n.T(locale, "wantBuy"),
			Icon:    "🛒",
			Message: i18n.T(locale, "wantBuyMsg"),
		},
		{
			ID:      "drink-" + uuid.NewString(),
			Label:   i18n.T(locale, "drinking"),
			Icon:    "🍷",
			Message: i18n.T(locale, "drinkingMsg"),
		},
	}
}

// BuyModeActions 想买模式检测：用户消息是固定的想买触发语，
// 且回复含评价类关键词时，产生"加入心愿清单"按钮，负载携带完整回复。
func BuyModeActions(aiContent, userMessage string, locale i18n.Locale) []model.MessageAction {
	if !strings.Contains(userMessage, "我想买这款酒") &&
		!strings.Contains(strings.ToLower(userMessage), "i want to buy this wine") {
		return nil
	}
	if !containsAnyFold(aiContent, buyKeywords) {
		return nil
	}
	return []model.MessageAction{
		{
			ID:     "wishlist-" + uuid.NewString(),
			Label:  i18n.T(locale, "addWishlist"),
			Icon:   "📖",
			Action: model.ActionSaveToCellar,
			Data:   map[string]any{"type": model.WineTypeWishlist, "aiNotes": aiContent},
		},
	}
}

// DrinkModeActions 在喝模式检测：用户消息是固定的在喝触发语，
// 且回复含品鉴小节关键词时，产生"记录品酒体验"按钮。
func DrinkModeActions(aiContent, userMessage string, locale i18n.Locale) []model.MessageAction {
	if !strings.Contains(userMessage, "我正在喝这款酒") &&
		!strings.Contains(strings.ToLower(userMessage), "i'm drinking this wine") {
		return nil
	}
	if !containsAny(aiContent, drinkKeywords) {
		return nil
	}
	return []model.MessageAction{
		{
			ID:     "rate-" + uuid.NewString(),
			Label:  i18n.T(locale, "rateWine"),
			Icon:   "⭐",
			Action: model.ActionRateWine,
			Data:   map[string]any{"type": model.WineTypeDrinking, "aiNotes": aiContent},
		},
	}
}

// TastingSceneActions 品酒场景检测：用户处于引导品鉴开场语境且回复
// 呈现品鉴小节时，提供进入引导品鉴向导的入口。
func TastingSceneActions(aiContent, userMessage string, locale i18n.Locale) []model.MessageAction {
	if !strings.Contains(userMessage, "引导我做一次专业的品鉴") &&
		!strings.Contains(strings.ToLower(userMessage), "guide me through a professional tasting") {
		return nil
	}
	if !containsAny(aiContent, drinkKeywords) {
		return nil
	}
	return []model.MessageAction{
		{
			ID:     "guided-" + uuid.NewString(),
			Label:  i18n.T(locale, "guidedTasting"),
			Icon:   "📝",
			Action: model.ActionStartGuidedTasting,
			Data:   map[string]any{"aiNotes": aiContent},
		},
	}
}

// Actions 按固定优先级依次尝试各检测器：识酒、想买、在喝、品酒场景。
// 首个返回非空操作集的检测器胜出，之后的检测器不再参与。
func Actions(aiContent, userMessage string, hasImage bool, locale i18n.Locale) []model.MessageAction {
	if acts := WineIdentificationActions(aiContent, hasImage, locale); len(acts) > 0 {
		return acts
	}
	if acts := BuyModeActions(aiContent, userMessage, locale); len(acts) > 0 {
		return acts
	}
	if acts := DrinkModeActions(aiContent, userMessage, locale); len(acts) > 0 {
		return acts
	}
	if acts := TastingSceneActions(aiContent, userMessage, locale); len(acts) > 0 {
		return acts
	}
	return nil
}
