package taste

import (
	"strings"

	"github.com/Mrpixelraf/wine-advisor/internal/i18n"
	"github.com/Mrpixelraf/wine-advisor/internal/model"
)

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// Recommendations 根据画像生成最多 4 条推荐提问。
// 固定映射规则，命中顺序即输出顺序；画像太薄时用首个产区/品种补足探索项。
func Recommendations(p model.TasteProfile, locale i18n.Locale) []string {
	recs := []string{}
	add := func(key string) { recs = append(recs, i18n.T(locale, key)) }

	if contains(p.Regions, "波尔多") {
		add("recBordeaux")
	}
	if contains(p.Regions, "勃艮第") {
		add("recBurgundy")
	}
	cabMarker := "赤霞珠"
	if locale == i18n.LocaleEN {
		cabMarker = "Cabernet"
	}
	if contains(p.Grapes, "赤霞珠") && !anyContains(recs, cabMarker) {
		add("recCabernet")
	}
	if contains(p.Grapes, "霞多丽") {
		add("recChardonnay")
	}
	if contains(p.Styles, "饱满型") {
		add("recFullBodied")
	}
	if contains(p.Styles, "清爽型") {
		add("recRefreshing")
	}
	if contains(p.Occasions, "约会") {
		add("recDate")
	}
	if contains(p.Occasions, "商务") {
		add("recBusiness")
	}
	if contains(p.Occasions, "餐酒搭配") {
		add("recPairing")
	}
	if contains(p.Regions, "托斯卡纳") {
		add("recTuscany")
	}
	if contains(p.Grapes, "雷司令") {
		add("recRiesling")
	}
	if contains(p.Grapes, "西拉") {
		add("recSyrah")
	}
	if contains(p.Styles, "甜型") {
		add("recSweet")
	}
	if contains(p.Occasions, "送礼") {
		add("recGift")
	}

	if len(recs) < 3 {
		if len(p.Grapes) > 0 && len(recs) < 4 {
			recs = append(recs, i18n.Format(i18n.T(locale, "recExploreGrape"), p.Grapes[0]))
		}
		if len(p.Regions) > 0 && len(recs) < 4 {
			recs = append(recs, i18n.Format(i18n.T(locale, "recExploreRegion"), p.Regions[0]))
		}
	}
	if len(recs) > 4 {
		recs = recs[:4]
	}
	return recs
}

func anyContains(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
