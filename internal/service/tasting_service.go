package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Mrpixelraf/wine-advisor/internal/i18n"
	"github.com/Mrpixelraf/wine-advisor/internal/model"
	"github.com/Mrpixelraf/wine-advisor/internal/repository"
)

// ErrNoTasting 表示该会话没有进行中的引导品鉴。
var ErrNoTasting = errors.New("tasting: no active session")

// ErrNoReport 表示尚未生成品鉴笔记，不能保存。
var ErrNoReport = errors.New("tasting: report not generated yet")

// ErrNotAtEnd 表示向导还没走到最后一步。
var ErrNotAtEnd = errors.New("tasting: wizard not at final step")

// TastingView 是向导当前状态的快照，供展示层渲染。
type TastingView struct {
	Step      string                  `json:"step"`
	StepIndex int                     `json:"stepIndex"`
	Data      model.GuidedTastingData `json:"data"`
	Report    string                  `json:"report,omitempty"`
}

// TastingService 实现引导品鉴向导：外观 → 闻香 → 口感 → 余味的线性
// 流程，只允许前后导航。工作状态保存在内存里，保存成酒窖条目或
// 中途退出后即丢弃；经验等级单独持久化。
type TastingService interface {
	Start(ctx context.Context, sid, wineName, wineImage string) *TastingView
	View(sid string) (*TastingView, error)
	Level(ctx context.Context, sid string) string
	SetLevel(ctx context.Context, sid, level string) error
	ToggleTag(sid, field, tag string) (*TastingView, error)
	SetScale(sid, field string, value int) (*TastingView, error)
	SetChoice(sid, field, value string) (*TastingView, error)
	Next(sid string) (*TastingView, error)
	Prev(sid string) (*TastingView, error)
	// Summarize 走完四步后发起一次旁路模型请求生成品鉴笔记。
	// 返回的文本只驻留在向导状态里，不进入对话历史。
	Summarize(ctx context.Context, sid string, sink StreamSink) (string, error)
	// Save 把品鉴数据与生成的笔记转换为一条 drinking 酒窖条目并丢弃工作状态。
	Save(ctx context.Context, sid string) (model.WineEntry, bool, error)
	Exit(sid string)
}

type tastingSession struct {
	mu        sync.Mutex
	data      model.GuidedTastingData
	stepIndex int
	report    string
}

type tastingService struct {
	repo     repository.SessionRepository
	chat     ChatService
	cellar   CellarService
	sessions sync.Map // sid -> *tastingSession
}

// NewTastingService 创建一个新的 TastingService 实例。
func NewTastingService(repo repository.SessionRepository, chat ChatService, cellar CellarService) TastingService {
	return &tastingService{repo: repo, chat: chat, cellar: cellar}
}

func (s *tastingService) Start(ctx context.Context, sid, wineName, wineImage string) *TastingView {
	level := s.repo.TastingLevel(ctx, sid)
	if wineName == "" {
		wineName = i18n.T(i18n.Normalize(s.repo.Locale(ctx, sid)), "unknownWine")
	}
	ts := &tastingSession{data: model.NewGuidedTastingData(wineName, wineImage, level)}
	s.sessions.Store(sid, ts)
	return ts.view()
}

func (s *tastingService) session(sid string) (*tastingSession, error) {
	v, ok := s.sessions.Load(sid)
	if !ok {
		return nil, ErrNoTasting
	}
	return v.(*tastingSession), nil
}

func (ts *tastingSession) view() *TastingView {
	return &TastingView{
		Step:      model.TastingSteps[ts.stepIndex],
		StepIndex: ts.stepIndex,
		Data:      ts.data,
		Report:    ts.report,
	}
}

func (s *tastingService) View(sid string) (*TastingView, error) {
	ts, err := s.session(sid)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.view(), nil
}

func (s *tastingService) Level(ctx context.Context, sid string) string {
	return s.repo.TastingLevel(ctx, sid)
}

// SetLevel 更新经验等级偏好；进行中的向导同步生效。
func (s *tastingService) SetLevel(ctx context.Context, sid, level string) error {
	if !model.ValidTastingLevel(level) {
		return fmt.Errorf("无效的品鉴等级: %s", level)
	}
	s.repo.SetTastingLevel(ctx, sid, level)
	if ts, err := s.session(sid); err == nil {
		ts.mu.Lock()
		ts.data.Level = level
		ts.mu.Unlock()
	}
	return nil
}

// toggle 多选标签：存在则移除，不存在则追加。
func toggle(list []string, tag string) []string {
	for i, v := range list {
		if v == tag {
			return append(list[:i], list[i+1:]...)
		}
	}
	return append(list, tag)
}

func (s *tastingService) ToggleTag(sid, field, tag string) (*TastingView, error) {
	ts, err := s.session(sid)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	switch field {
	case "appearance.color":
		ts.data.Appearance.Color = toggle(ts.data.Appearance.Color, tag)
	case "appearance.clarity":
		ts.data.Appearance.Clarity = toggle(ts.data.Appearance.Clarity, tag)
	case "aroma.primary":
		ts.data.Aroma.Primary = toggle(ts.data.Aroma.Primary, tag)
	case "aroma.secondary":
		ts.data.Aroma.Secondary = toggle(ts.data.Aroma.Secondary, tag)
	case "palate.texture":
		ts.data.Palate.Texture = toggle(ts.data.Palate.Texture, tag)
	case "finish.descriptors":
		ts.data.Finish.Descriptors = toggle(ts.data.Finish.Descriptors, tag)
	default:
		return nil, fmt.Errorf("未知标签字段: %s", field)
	}
	return ts.view(), nil
}

func (s *tastingService) SetScale(sid, field string, value int) (*TastingView, error) {
	ts, err := s.session(sid)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	switch field {
	case "aroma.intensity", "palate.acidity", "palate.tannin", "palate.body":
		if value < 1 || value > 5 {
			return nil, fmt.Errorf("%s 取值必须在 1-5 之间", field)
		}
	case "finish.overallScore":
		if value < 1 || value > 100 {
			return nil, fmt.Errorf("综合评分必须在 1-100 之间")
		}
	default:
		return nil, fmt.Errorf("未知滑杆字段: %s", field)
	}
	switch field {
	case "aroma.intensity":
		ts.data.Aroma.Intensity = value
	case "palate.acidity":
		ts.data.Palate.Acidity = value
	case "palate.tannin":
		ts.data.Palate.Tannin = value
	case "palate.body":
		ts.data.Palate.Body = value
	case "finish.overallScore":
		ts.data.Finish.OverallScore = value
	}
	return ts.view(), nil
}

func (s *tastingService) SetChoice(sid, field, value string) (*TastingView, error) {
	ts, err := s.session(sid)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	switch field {
	case "palate.sweetness":
		ts.data.Palate.Sweetness = value
	case "finish.length":
		ts.data.Finish.Length = value
	default:
		return nil, fmt.Errorf("未知单选字段: %s", field)
	}
	return ts.view(), nil
}

func (s *tastingService) Next(sid string) (*TastingView, error) {
	ts, err := s.session(sid)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.stepIndex < len(model.TastingSteps)-1 {
		ts.stepIndex++
	}
	return ts.view(), nil
}

func (s *tastingService) Prev(sid string) (*TastingView, error) {
	ts, err := s.session(sid)
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.stepIndex > 0 {
		ts.stepIndex--
	}
	return ts.view(), nil
}

func (s *tastingService) Summarize(ctx context.Context, sid string, sink StreamSink) (string, error) {
	ts, err := s.session(sid)
	if err != nil {
		return "", err
	}
	ts.mu.Lock()
	if ts.stepIndex != len(model.TastingSteps)-1 {
		ts.mu.Unlock()
		return "", ErrNotAtEnd
	}
	data := ts.data
	ts.mu.Unlock()

	locale := i18n.Normalize(s.repo.Locale(ctx, sid))
	prompt := BuildTastingPrompt(data, locale)
	report, err := s.chat.Summarize(ctx, sid, prompt, sink)
	if err != nil {
		return "", err
	}
	ts.mu.Lock()
	ts.report = report
	ts.mu.Unlock()
	return report, nil
}

func (s *tastingService) Save(ctx context.Context, sid string) (model.WineEntry, bool, error) {
	ts, err := s.session(sid)
	if err != nil {
		return model.WineEntry{}, false, err
	}
	ts.mu.Lock()
	if ts.report == "" {
		ts.mu.Unlock()
		return model.WineEntry{}, false, ErrNoReport
	}
	entry := model.WineEntry{
		ID:      NewEntryID(),
		Name:    ts.data.WineName,
		Image:   ts.data.WineImage,
		Type:    model.WineTypeDrinking,
		Rating:  ts.data.Finish.OverallScore,
		AiNotes: ts.report,
		Date:    today(),
		Tags:    ts.data.FlattenTags(),
	}
	ts.mu.Unlock()

	saved, ok := s.cellar.SaveEntry(ctx, sid, entry)
	s.sessions.Delete(sid)
	return saved, ok, nil
}

// Exit 放弃进行中的向导，不留任何持久化痕迹。
func (s *tastingService) Exit(sid string) {
	s.sessions.Delete(sid)
}

// BuildTastingPrompt 由品鉴数据确定性地构造笔记生成提示词。
func BuildTastingPrompt(d model.GuidedTastingData, locale i18n.Locale) string {
	if locale == i18n.LocaleEN {
		secondary := ""
		if len(d.Aroma.Secondary) > 0 {
			secondary = ", specifically " + strings.Join(d.Aroma.Secondary, ", ")
		}
		tone := map[string]string{
			model.TastingLevelBeginner:     "accessible, everyday language",
			model.TastingLevelIntermediate: "semi-professional terms",
			model.TastingLevelExpert:       "professional tasting terminology",
		}[d.Level]
		return fmt.Sprintf(`As a professional sommelier, generate concise tasting notes (150-250 words) for "%s" based on these tasting data:

Appearance: Color %s, Clarity %s
Nose: %s%s, Intensity %d/5
Palate: Acidity %d/5, Tannin %d/5, Body %d/5, %s, %s
Finish: %s, %s
Overall Score: %d/100

Write in %s. Include sections for Appearance, Nose, Palate, Finish, and a final summary.`,
			d.WineName,
			strings.Join(d.Appearance.Color, ", "), strings.Join(d.Appearance.Clarity, ", "),
			strings.Join(d.Aroma.Primary, ", "), secondary, d.Aroma.Intensity,
			d.Palate.Acidity, d.Palate.Tannin, d.Palate.Body,
			strings.Join(d.Palate.Texture, ", "), d.Palate.Sweetness,
			d.Finish.Length, strings.Join(d.Finish.Descriptors, ", "),
			d.Finish.OverallScore, tone)
	}

	secondary := ""
	if len(d.Aroma.Secondary) > 0 {
		secondary = "，具体有" + strings.Join(d.Aroma.Secondary, "、")
	}
	tone := map[string]string{
		model.TastingLevelBeginner:     "通俗易懂的语言",
		model.TastingLevelIntermediate: "半专业的语言",
		model.TastingLevelExpert:       "专业品鉴术语",
	}[d.Level]
	return fmt.Sprintf(`作为专业侍酒师，请根据以下品鉴数据为"%s"生成一份简洁的品鉴笔记（150-250字）。

外观：颜色 %s，清澈度 %s
闻香：%s%s，香气强度 %d/5
口感：酸度 %d/5，单宁 %d/5，酒体 %d/5，%s，%s
余味：%s，%s
整体评分：%d/100

请用%s撰写。包含外观、闻香、口感、余味四段和最终总结。`,
		d.WineName,
		strings.Join(d.Appearance.Color, "、"), strings.Join(d.Appearance.Clarity, "、"),
		strings.Join(d.Aroma.Primary, "、"), secondary, d.Aroma.Intensity,
		d.Palate.Acidity, d.Palate.Tannin, d.Palate.Body,
		strings.Join(d.Palate.Texture, "、"), d.Palate.Sweetness,
		d.Finish.Length, strings.Join(d.Finish.Descriptors, "、"),
		d.Finish.OverallScore, tone)
}
