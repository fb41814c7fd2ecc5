package model

// TasteProfile 是从助手回复中累积提取的用户口味画像。
// 四个列表各有上限且去重，超限时从队首淘汰最旧条目；
// PriceRange 为最近一次识别结果，整体覆盖而非合并。
// 画像在"新对话"清空历史后仍然保留。
type TasteProfile struct {
	Regions    []string `json:"regions"`
	Grapes     []string `json:"grapes"`
	Styles     []string `json:"styles"`
	PriceRange string   `json:"priceRange"`
	Occasions  []string `json:"occasions"`
}

// EmptyTasteProfile 返回一个各列表均已初始化的空画像。
func EmptyTasteProfile() TasteProfile {
	return TasteProfile{
		Regions:   []string{},
		Grapes:    []string{},
		Styles:    []string{},
		Occasions: []string{},
	}
}
