package model

// 酒窖条目类型。drinking 条目可带评分，wishlist 条目通常不带。
const (
	WineTypeDrinking = "drinking"
	WineTypeWishlist = "wishlist"
)

// WineTags 按品鉴维度归类的标签，引导品鉴完成后由四步数据拍平而来。
type WineTags struct {
	Appearance []string `json:"appearance,omitempty"`
	Aroma      []string `json:"aroma,omitempty"`
	Palate     []string `json:"palate,omitempty"`
	Finish     []string `json:"finish,omitempty"`
}

// WineEntry 代表酒窖/心愿单中的一条记录。创建后不可原地修改，只能整条删除。
type WineEntry struct {
	ID        string    `json:"id"` // 创建时间戳派生，唯一
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"` // 独立压缩的小缩略图
	Type      string    `json:"type"`            // drinking | wishlist
	Rating    int       `json:"rating,omitempty"` // 1-100
	UserNotes string    `json:"userNotes,omitempty"`
	AiNotes   string    `json:"aiNotes,omitempty"`
	Date      string    `json:"date"` // 创建日期 YYYY-MM-DD
	Region    string    `json:"region,omitempty"`
	Grape     string    `json:"grape,omitempty"`
	Price     string    `json:"price,omitempty"`
	Tags      *WineTags `json:"tags,omitempty"`
}
