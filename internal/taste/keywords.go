// Package taste 从助手回复文本中提取口味信号并维护累积画像。
package taste

import "regexp"

// 各类别列表上限。
const (
	MaxRegions   = 8
	MaxGrapes    = 8
	MaxStyles    = 6
	MaxOccasions = 5
)

// keywordRule 把回复中出现的关键词映射到规范标签。
// 规则按固定顺序匹配，保证相同输入得到相同输出。
type keywordRule struct {
	keyword string
	label   string
}

var regionRules = []keywordRule{
	{"波尔多", "波尔多"}, {"bordeaux", "波尔多"},
	{"勃艮第", "勃艮第"}, {"burgundy", "勃艮第"}, {"布根地", "勃艮第"},
	{"香槟", "香槟"}, {"champagne", "香槟"},
	{"托斯卡纳", "托斯卡纳"}, {"tuscany", "托斯卡纳"},
	{"纳帕", "纳帕谷"}, {"napa", "纳帕谷"},
	{"巴罗洛", "巴罗洛"}, {"barolo", "巴罗洛"},
	{"里奥哈", "里奥哈"}, {"rioja", "里奥哈"},
	{"罗纳河谷", "罗纳河谷"}, {"rhone", "罗纳河谷"}, {"rhône", "罗纳河谷"},
	{"阿尔萨斯", "阿尔萨斯"}, {"alsace", "阿尔萨斯"},
	{"摩泽尔", "摩泽尔"}, {"mosel", "摩泽尔"},
	{"新西兰", "新西兰"}, {"澳洲", "澳大利亚"}, {"澳大利亚", "澳大利亚"},
	{"智利", "智利"}, {"阿根廷", "阿根廷"}, {"南非", "南非"},
}

var grapeRules = []keywordRule{
	{"赤霞珠", "赤霞珠"}, {"cabernet", "赤霞珠"},
	{"梅洛", "梅洛"}, {"merlot", "梅洛"},
	{"黑皮诺", "黑皮诺"}, {"pinot noir", "黑皮诺"},
	{"霞多丽", "霞多丽"}, {"chardonnay", "霞多丽"},
	{"长相思", "长相思"}, {"sauvignon blanc", "长相思"},
	{"雷司令", "雷司令"}, {"riesling", "雷司令"},
	{"西拉", "西拉"}, {"syrah", "西拉"}, {"shiraz", "西拉"},
	{"桑娇维塞", "桑娇维塞"}, {"sangiovese", "桑娇维塞"},
	{"内比奥罗", "内比奥罗"}, {"nebbiolo", "内比奥罗"},
	{"丹魄", "丹魄"}, {"tempranillo", "丹魄"},
	{"马尔贝克", "马尔贝克"}, {"malbec", "马尔贝克"},
	{"仙粉黛", "仙粉黛"}, {"zinfandel", "仙粉黛"},
	{"琼瑶浆", "琼瑶浆"}, {"gewurztraminer", "琼瑶浆"},
}

var styleRules = []keywordRule{
	{"饱满", "饱满型"}, {"浓郁", "饱满型"}, {"厚重", "饱满型"}, {"full-bodied", "饱满型"},
	{"果味", "果味型"}, {"果香", "果味型"}, {"水果", "果味型"},
	{"优雅", "优雅型"}, {"细腻", "优雅型"}, {"精致", "优雅型"},
	{"清爽", "清爽型"}, {"清新", "清爽型"}, {"爽口", "清爽型"},
	{"甜", "甜型"}, {"甜酒", "甜型"}, {"贵腐", "甜型"},
	{"干型", "干型"}, {"单宁", "单宁突出"},
	{"起泡", "起泡型"}, {"气泡", "起泡型"},
	{"陈年", "陈年型"}, {"橡木桶", "橡木桶风格"},
}

var occasionRules = []keywordRule{
	{"商务", "商务"}, {"宴请", "商务"},
	{"约会", "约会"}, {"浪漫", "约会"},
	{"日常", "日常饮用"}, {"家常", "日常饮用"},
	{"聚会", "聚会"}, {"派对", "聚会"},
	{"送礼", "送礼"}, {"礼物", "送礼"},
	{"搭配", "餐酒搭配"}, {"配餐", "餐酒搭配"},
	{"收藏", "收藏投资"}, {"投资", "收藏投资"},
	{"庆祝", "庆祝"}, {"节日", "庆祝"},
}

// pricePattern 价位识别规则。模式顺序即匹配优先级：
// 带币值区间、"以内/以下"、"以上"、不带币值的裸区间，命中即停。
type pricePattern struct {
	re      *regexp.Regexp
	extract func(m []string) string
}

var pricePatterns = []pricePattern{
	{
		re:      regexp.MustCompile(`(\d{2,5})\s*[-–~到至]\s*(\d{2,5})\s*元?`),
		extract: func(m []string) string { return m[1] + "-" + m[2] },
	},
	{
		re:      regexp.MustCompile(`(\d{2,5})\s*元\s*以[内下]`),
		extract: func(m []string) string { return "0-" + m[1] },
	},
	{
		re:      regexp.MustCompile(`(\d{2,5})\s*元\s*以上`),
		extract: func(m []string) string { return m[1] + "+" },
	},
	{
		re:      regexp.MustCompile(`(\d{2,5})\s*[-–~到至]\s*(\d{2,5})`),
		extract: func(m []string) string { return m[1] + "-" + m[2] },
	},
}
