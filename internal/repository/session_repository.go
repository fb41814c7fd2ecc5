package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Mrpixelraf/wine-advisor/internal/model"
	"github.com/Mrpixelraf/wine-advisor/pkg/log"
)

// ImagePlaceholder 在配额不足降级保存时替换掉所有内联图片。
const ImagePlaceholder = "[img_omitted]"

// SessionRepository 管理单个会话（设备）的全部持久化记录。
// 各记录独立按键存取；读取在键缺失或载荷损坏时一律返回空默认值，
// 保存返回是否成功以便调用方提示"存储已满"，失败不影响内存状态。
type SessionRepository interface {
	LoadMessages(ctx context.Context, sid string) []model.Message
	SaveMessages(ctx context.Context, sid string, messages []model.Message) bool
	ClearMessages(ctx context.Context, sid string) error

	LoadProfile(ctx context.Context, sid string) model.TasteProfile
	SaveProfile(ctx context.Context, sid string, profile model.TasteProfile) bool

	LoadCellar(ctx context.Context, sid string) []model.WineEntry
	SaveCellar(ctx context.Context, sid string, entries []model.WineEntry) bool

	Locale(ctx context.Context, sid string) string
	SetLocale(ctx context.Context, sid, locale string) bool

	TastingLevel(ctx context.Context, sid string) string
	SetTastingLevel(ctx context.Context, sid, level string) bool

	Onboarded(ctx context.Context, sid string) bool
	SetOnboarded(ctx context.Context, sid string, done bool) bool
}

type kvSessionRepository struct {
	kv KV
}

// NewSessionRepository 创建一个新的 SessionRepository 实例。
func NewSessionRepository(kv KV) SessionRepository {
	return &kvSessionRepository{kv: kv}
}

func messagesKey(sid string) string { return fmt.Sprintf("session:%s:messages", sid) }
func profileKey(sid string) string  { return fmt.Sprintf("session:%s:taste_profile", sid) }
func cellarKey(sid string) string   { return fmt.Sprintf("session:%s:cellar", sid) }
func localeKey(sid string) string   { return fmt.Sprintf("session:%s:locale", sid) }
func levelKey(sid string) string    { return fmt.Sprintf("session:%s:tasting_level", sid) }
func onboardKey(sid string) string  { return fmt.Sprintf("session:%s:onboarded", sid) }

// loadJSON 读取并反序列化；任何失败都静默落回默认值，不向调用方抛错。
func (r *kvSessionRepository) loadJSON(ctx context.Context, key string, out any) bool {
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if err != ErrNotFound {
			log.Warnf("读取 %s 失败: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Warnf("反序列化 %s 失败，回退默认值: %v", key, err)
		return false
	}
	return true
}

func (r *kvSessionRepository) saveJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化 %s 失败: %w", key, err)
	}
	return r.kv.Set(ctx, key, string(raw))
}

func (r *kvSessionRepository) LoadMessages(ctx context.Context, sid string) []model.Message {
	var messages []model.Message
	if !r.loadJSON(ctx, messagesKey(sid), &messages) || messages == nil {
		return []model.Message{}
	}
	return messages
}

// SaveMessages 全量写入对话历史。配额不足时把所有图片字段替换为占位符
// 重试一次；重试仍失败则放弃本次写入，存储保持之前已提交的值。
func (r *kvSessionRepository) SaveMessages(ctx context.Context, sid string, messages []model.Message) bool {
	err := r.saveJSON(ctx, messagesKey(sid), messages)
	if err == nil {
		return true
	}
	log.Warnf("保存对话历史失败，剥离图片后重试: %v", err)

	lightweight := make([]model.Message, len(messages))
	for i, m := range messages {
		lightweight[i] = m
		if m.Image != "" {
			lightweight[i].Image = ImagePlaceholder
		}
	}
	if err := r.saveJSON(ctx, messagesKey(sid), lightweight); err != nil {
		log.Warnf("剥离图片后保存仍失败，放弃写入: %v", err)
		return false
	}
	return true
}

func (r *kvSessionRepository) ClearMessages(ctx context.Context, sid string) error {
	return r.kv.Del(ctx, messagesKey(sid))
}

func (r *kvSessionRepository) LoadProfile(ctx context.Context, sid string) model.TasteProfile {
	profile := model.EmptyTasteProfile()
	if !r.loadJSON(ctx, profileKey(sid), &profile) {
		return model.EmptyTasteProfile()
	}
	return profile
}

func (r *kvSessionRepository) SaveProfile(ctx context.Context, sid string, profile model.TasteProfile) bool {
	if err := r.saveJSON(ctx, profileKey(sid), profile); err != nil {
		log.Warnf("保存口味画像失败: %v", err)
		return false
	}
	return true
}

func (r *kvSessionRepository) LoadCellar(ctx context.Context, sid string) []model.WineEntry {
	var entries []model.WineEntry
	if !r.loadJSON(ctx, cellarKey(sid), &entries) || entries == nil {
		return []model.WineEntry{}
	}
	return entries
}

// SaveCellar 与 SaveMessages 同样的配额降级策略：先整体写，
// 不行就去掉缩略图再写一次。
func (r *kvSessionRepository) SaveCellar(ctx context.Context, sid string, entries []model.WineEntry) bool {
	err := r.saveJSON(ctx, cellarKey(sid), entries)
	if err == nil {
		return true
	}
	log.Warnf("保存酒窖失败，剥离缩略图后重试: %v", err)

	lightweight := make([]model.WineEntry, len(entries))
	for i, e := range entries {
		lightweight[i] = e
		lightweight[i].Image = ""
	}
	if err := r.saveJSON(ctx, cellarKey(sid), lightweight); err != nil {
		log.Warnf("剥离缩略图后保存仍失败，放弃写入: %v", err)
		return false
	}
	return true
}

func (r *kvSessionRepository) Locale(ctx context.Context, sid string) string {
	raw, err := r.kv.Get(ctx, localeKey(sid))
	if err != nil {
		return ""
	}
	return raw
}

func (r *kvSessionRepository) SetLocale(ctx context.Context, sid, locale string) bool {
	if err := r.kv.Set(ctx, localeKey(sid), locale); err != nil {
		log.Warnf("保存语言偏好失败: %v", err)
		return false
	}
	return true
}

func (r *kvSessionRepository) TastingLevel(ctx context.Context, sid string) string {
	raw, err := r.kv.Get(ctx, levelKey(sid))
	if err != nil || !model.ValidTastingLevel(raw) {
		return model.TastingLevelBeginner
	}
	return raw
}

func (r *kvSessionRepository) SetTastingLevel(ctx context.Context, sid, level string) bool {
	if err := r.kv.Set(ctx, levelKey(sid), level); err != nil {
		log.Warnf("保存品鉴等级失败: %v", err)
		return false
	}
	return true
}

func (r *kvSessionRepository) Onboarded(ctx context.Context, sid string) bool {
	raw, err := r.kv.Get(ctx, onboardKey(sid))
	return err == nil && raw == "1"
}

func (r *kvSessionRepository) SetOnboarded(ctx context.Context, sid string, done bool) bool {
	val := "0"
	if done {
		val = "1"
	}
	if err := r.kv.Set(ctx, onboardKey(sid), val); err != nil {
		log.Warnf("保存引导标记失败: %v", err)
		return false
	}
	return true
}
