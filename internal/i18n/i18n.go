// Package i18n 提供 (locale, key) -> 文案 的静态查找表。
// 两套词表在启动时构建完毕，运行期只读。
package i18n

import "strings"

// Locale 为界面语言，当前支持 zh / en，zh 为回退默认。
type Locale = string

const (
	LocaleZH Locale = "zh"
	LocaleEN Locale = "en"
)

// Normalize 将任意输入归一到受支持的 locale。
func Normalize(locale string) Locale {
	if strings.HasPrefix(strings.ToLower(locale), "en") {
		return LocaleEN
	}
	return LocaleZH
}

var zh = map[string]string{
	// 错误文案
	"errorGeneric":       "连接出现问题。请检查网络后重试。",
	"errorRate":          "请求过于频繁，请稍后重试",
	"errorServer":        "服务器内部错误",
	"errorService":       "服务暂时不可用，请稍后重试",
	"errorRequestFailed": "请求失败",
	"errorNetworkFailed": "网络连接失败，请检查网络后重试",
	"errorUnknown":       "未知错误，请稍后重试",
	"errorImgProcess":    "图片处理失败，请尝试截图后重新上传",
	"errorStorageFull":   "存储空间不足，请清理部分酒窖记录",
	"errorReportFailed":  "品鉴笔记生成失败，请稍后重试",

	// 操作按钮
	"wantBuy":       "想买这款酒",
	"drinking":      "正在喝这款酒",
	"addWishlist":   "加入心愿清单",
	"rateWine":      "记录品酒体验",
	"guidedTasting": "开始引导品鉴",

	// 按钮点击后自动发送的消息
	"wantBuyMsg":  "我想买这款酒，请给我详细评价",
	"drinkingMsg": "我正在喝这款酒，请给我 Tasting Notes",

	// 场景开场白
	"scene1Msg": "我现在在餐厅，想找一款合适的酒搭配今天的菜，请问你需要了解什么信息来帮我推荐？",
	"scene2Msg": "我想选购一瓶葡萄酒，能帮我推荐吗？请先问我一些问题来了解我的需求。",
	"scene3Msg": "我手上有一瓶酒，想详细了解它。请帮我识别并介绍这款酒。",
	"scene4Msg": "我正在品酒，想让你引导我做一次专业的品鉴体验。请一步一步带我从外观、香气、口感到余味来品评。",

	// 提示与杂项
	"savedCellar":   "🍷 已存入酒窖！",
	"savedWishlist": "📖 已加入心愿清单！",
	"deletedCellar": "已从酒窖删除",
	"unknownWine":   "未知酒款",
	"photoAnalyze":  "📷 请帮我分析这张图片",

	// 口味画像推荐
	"recBordeaux":      "🏰 推荐一款波尔多左岸佳酿",
	"recBurgundy":      "🍇 推荐一款勃艮第黑皮诺",
	"recCabernet":      "🍷 推荐一款赤霞珠精选",
	"recChardonnay":    "🥂 推荐一款优质霞多丽白葡萄酒",
	"recFullBodied":    "💪 推荐一款酒体饱满的红酒",
	"recRefreshing":    "🌿 推荐一款清爽的夏日白葡萄酒",
	"recDate":          "💝 推荐一款适合约会的浪漫酒款",
	"recBusiness":      "🤝 推荐一款商务宴请的体面酒款",
	"recPairing":       "🍽️ 推荐一款万能的餐酒搭配",
	"recTuscany":       "🇮🇹 推荐一款托斯卡纳经典",
	"recRiesling":      "✨ 推荐一款德国雷司令",
	"recSyrah":         "🔥 推荐一款澳洲西拉",
	"recSweet":         "🍯 推荐一款优质甜酒",
	"recGift":          "🎁 推荐一款适合送礼的名庄酒",
	"recExploreGrape":  "🍇 探索更多{0}风格",
	"recExploreRegion": "🌍 深入了解{0}产区",
}

var en = map[string]string{
	"errorGeneric":       "Connection problem. Please check your network and retry.",
	"errorRate":          "Too many requests, please try again later",
	"errorServer":        "Internal server error",
	"errorService":       "Service temporarily unavailable, please try again later",
	"errorRequestFailed": "Request failed",
	"errorNetworkFailed": "Network connection failed, please check and retry",
	"errorUnknown":       "Unknown error, please try again later",
	"errorImgProcess":    "Failed to process image, try a screenshot instead",
	"errorStorageFull":   "Storage is full, please remove some cellar records",
	"errorReportFailed":  "Failed to generate notes. Please try again.",

	"wantBuy":       "I want to buy this",
	"drinking":      "I'm drinking this",
	"addWishlist":   "Add to Wishlist",
	"rateWine":      "Record Tasting",
	"guidedTasting": "Start Guided Tasting",

	"wantBuyMsg":  "I want to buy this wine, please give me a detailed review",
	"drinkingMsg": "I'm drinking this wine, please give me Tasting Notes",

	"scene1Msg": "I'm at a restaurant and looking for a wine to pair with my meal. What do you need to know to help me choose?",
	"scene2Msg": "I'd like to buy a bottle of wine. Can you help me choose? Please ask me some questions to understand my needs.",
	"scene3Msg": "I have a bottle of wine and would like to learn more about it. Please help me identify and describe it.",
	"scene4Msg": "I'm tasting a wine right now. Please guide me through a professional tasting — step by step from appearance, aroma, palate to finish.",

	"savedCellar":   "🍷 Saved to cellar!",
	"savedWishlist": "📖 Added to wishlist!",
	"deletedCellar": "Removed from cellar",
	"unknownWine":   "Unknown wine",
	"photoAnalyze":  "📷 Please analyze this image for me",

	"recBordeaux":      "🏰 Recommend a Left Bank Bordeaux",
	"recBurgundy":      "🍇 Recommend a Burgundy Pinot Noir",
	"recCabernet":      "🍷 Recommend a Cabernet Sauvignon pick",
	"recChardonnay":    "🥂 Recommend a fine Chardonnay",
	"recFullBodied":    "💪 Recommend a full-bodied red",
	"recRefreshing":    "🌿 Recommend a crisp summer white",
	"recDate":          "💝 Recommend a romantic date-night wine",
	"recBusiness":      "🤝 Recommend a wine for business dinners",
	"recPairing":       "🍽️ Recommend a versatile food-pairing wine",
	"recTuscany":       "🇮🇹 Recommend a Tuscan classic",
	"recRiesling":      "✨ Recommend a German Riesling",
	"recSyrah":         "🔥 Recommend an Australian Shiraz",
	"recSweet":         "🍯 Recommend a quality dessert wine",
	"recGift":          "🎁 Recommend an estate wine for gifting",
	"recExploreGrape":  "🍇 Explore more {0} styles",
	"recExploreRegion": "🌍 Learn more about {0}",
}

// T 按 locale 查找文案，缺失的 en 键回退到 zh。
func T(locale Locale, key string) string {
	if locale == LocaleEN {
		if s, ok := en[key]; ok {
			return s
		}
	}
	if s, ok := zh[key]; ok {
		return s
	}
	return key
}

// Format 将 {0} 占位符替换为参数。
func Format(s, arg string) string {
	return strings.Replace(s, "{0}", arg, 1)
}
