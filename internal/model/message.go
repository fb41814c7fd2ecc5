// Package model 包含了应用的数据模型定义。
package model

// 消息角色。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MessageAction 代表附加在助手消息上的一个后续操作按钮。
// Message 与 Action 互斥：Message 非空时点击后自动发送为下一轮用户消息，
// 否则 Action 给出符号化操作名（如 save-to-cellar），Data 为其负载。
type MessageAction struct {
	ID      string         `json:"id"`
	Label   string         `json:"label"`
	Icon    string         `json:"icon"`
	Message string         `json:"message,omitempty"`
	Action  string         `json:"action,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Clicked bool           `json:"clicked,omitempty"` // 一次性置位，之后点击为空操作
}

// 符号化操作名。
const (
	ActionSaveToCellar       = "save-to-cellar"
	ActionRateWine           = "rate-wine"
	ActionStartGuidedTasting = "start-guided-tasting"
)

// Message 代表一轮对话消息。除 Actions 中的 Clicked 置位外，追加后不可变；
// 整个历史只能由"新对话"操作原子清空，不支持单条删除。
type Message struct {
	Role          string          `json:"role"`
	Content       string          `json:"content"`
	Image         string          `json:"image,omitempty"` // base64 内联图片
	ImageMimeType string          `json:"imageMimeType,omitempty"`
	IsError       bool            `json:"isError,omitempty"` // 传输/后端失败的合成助手消息
	Hidden        bool            `json:"hidden,omitempty"`  // 作为上下文发送给后端但不渲染
	Actions       []MessageAction `json:"actions,omitempty"`
}

// FindAction 按操作实例 ID 查找消息上的操作按钮。
func (m *Message) FindAction(actionID string) *MessageAction {
	for i := range m.Actions {
		if m.Actions[i].ID == actionID {
			return &m.Actions[i]
		}
	}
	return nil
}
