package model

// 品鉴经验等级，作为独立用户偏好持久化，跨品鉴会话保留。
const (
	TastingLevelBeginner     = "beginner"
	TastingLevelIntermediate = "intermediate"
	TastingLevelExpert       = "expert"
)

// ValidTastingLevel 校验等级取值。
func ValidTastingLevel(level string) bool {
	switch level {
	case TastingLevelBeginner, TastingLevelIntermediate, TastingLevelExpert:
		return true
	}
	return false
}

// 引导品鉴的四个固定步骤，只允许前后线性导航。
const (
	TastingStepAppearance = "appearance"
	TastingStepAroma      = "aroma"
	TastingStepPalate     = "palate"
	TastingStepFinish     = "finish"
)

// TastingSteps 按固定顺序列出向导步骤。
var TastingSteps = []string{
	TastingStepAppearance,
	TastingStepAroma,
	TastingStepPalate,
	TastingStepFinish,
}

// GuidedTastingData 是引导品鉴向导的工作状态。它不落盘：
// 完成保存时转换为 WineEntry 后丢弃，中途退出也直接丢弃。
type GuidedTastingData struct {
	WineName   string            `json:"wineName"`
	WineImage  string            `json:"wineImage,omitempty"`
	Level      string            `json:"level"`
	Appearance TastingAppearance `json:"appearance"`
	Aroma      TastingAroma      `json:"aroma"`
	Palate     TastingPalate     `json:"palate"`
	Finish     TastingFinish     `json:"finish"`
}

// TastingAppearance 外观步骤：颜色与清澈度多选。
type TastingAppearance struct {
	Color   []string `json:"color"`
	Clarity []string `json:"clarity"`
}

// TastingAroma 闻香步骤：一级/二级香气多选，强度 1-5。
type TastingAroma struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
	Intensity int      `json:"intensity"`
}

// TastingPalate 口感步骤：酸度/单宁/酒体 1-5，质感多选，甜度单选。
type TastingPalate struct {
	Acidity   int      `json:"acidity"`
	Tannin    int      `json:"tannin"`
	Body      int      `json:"body"`
	Texture   []string `json:"texture"`
	Sweetness string   `json:"sweetness"`
}

// TastingFinish 余味步骤：长度单选，描述词多选，综合评分 1-100。
type TastingFinish struct {
	Length       string   `json:"length"`
	Descriptors  []string `json:"descriptors"`
	OverallScore int      `json:"overallScore"`
}

// NewGuidedTastingData 返回带默认滑杆值的工作状态。
func NewGuidedTastingData(wineName, wineImage, level string) GuidedTastingData {
	return GuidedTastingData{
		WineName:   wineName,
		WineImage:  wineImage,
		Level:      level,
		Appearance: TastingAppearance{Color: []string{}, Clarity: []string{}},
		Aroma:      TastingAroma{Primary: []string{}, Secondary: []string{}, Intensity: 3},
		Palate:     TastingPalate{Acidity: 3, Tannin: 3, Body: 3, Texture: []string{}},
		Finish:     TastingFinish{Descriptors: []string{}, OverallScore: 75},
	}
}

// FlattenTags 将四步选择拍平为酒窖标签，空类别省略。
func (d *GuidedTastingData) FlattenTags() *WineTags {
	tags := &WineTags{}
	tags.Appearance = append(append([]string{}, d.Appearance.Color...), d.Appearance.Clarity...)
	tags.Aroma = append(append([]string{}, d.Aroma.Primary...), d.Aroma.Secondary...)
	tags.Palate = append([]string{}, d.Palate.Texture...)
	if d.Palate.Sweetness != "" {
		tags.Palate = append(tags.Palate, d.Palate.Sweetness)
	}
	if d.Finish.Length != "" {
		tags.Finish = append(tags.Finish, d.Finish.Length)
	}
	tags.Finish = append(tags.Finish, d.Finish.Descriptors...)
	return tags
}
