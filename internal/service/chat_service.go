// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Mrpixelraf/wine-advisor/internal/detect"
	"github.com/Mrpixelraf/wine-advisor/internal/i18n"
	"github.com/Mrpixelraf/wine-advisor/internal/model"
	"github.com/Mrpixelraf/wine-advisor/internal/repository"
	"github.com/Mrpixelraf/wine-advisor/internal/taste"
	"github.com/Mrpixelraf/wine-advisor/pkg/llm"
	"github.com/Mrpixelraf/wine-advisor/pkg/log"
)

// SessionState 是单个会话内待处理请求的状态机状态。
type SessionState int

const (
	StateIdle SessionState = iota
	StateSending
	StateStreaming
	StateCommitted
	StateFailed
)

// ErrBusy 表示该会话已有一次请求在途，本次调用被忽略（不排队）。
var ErrBusy = errors.New("chat: request already in flight")

// ErrEmptyMessage 表示既无文本也无图片，无可发送内容。
var ErrEmptyMessage = errors.New("chat: empty message")

// ErrNoRetryTarget 表示历史尾部不是 [用户消息, 错误消息] 形态，无可重试目标。
var ErrNoRetryTarget = errors.New("chat: no failed turn to retry")

// ErrActionNotFound 表示找不到指定的操作按钮实例。
var ErrActionNotFound = errors.New("chat: action not found")

// StreamSink 在每个增量分块到达时接收当前片段，供展示层实时渲染。
type StreamSink interface {
	WriteFragment(text string) error
}

// SendResult 是一轮交互的提交结果。
type SendResult struct {
	Message     model.Message // 追加到历史的助手消息（可能为错误消息）
	StorageFull bool          // 持久化降级或失败，调用方据此提示"存储已满"
}

// ActionOutcome 描述一次按钮点击的效果。
type ActionOutcome struct {
	Performed   bool   // false 表示按钮此前已点击过，本次为空操作
	AutoSend    string // 非空则作为下一轮用户消息自动发送
	Op          string // 符号化操作名（save-to-cellar 等）
	Data        map[string]any
	StorageFull bool // 置位标记未能落盘，调用方据此提示"存储已满"
}

// ChatService 是流式会话控制器：负责发送一轮对话、累积流式回复、
// 完成后做按钮判定与口味提取、落盘，以及传输失败的恢复路径。
type ChatService interface {
	History(ctx context.Context, sid string) []model.Message
	Send(ctx context.Context, sid, content, image, imageMime string, sink StreamSink) (*SendResult, error)
	StartScene(ctx context.Context, sid, scene string, sink StreamSink) (*SendResult, error)
	RetryLast(ctx context.Context, sid string, sink StreamSink) (*SendResult, error)
	ClickAction(ctx context.Context, sid, actionID string) (*ActionOutcome, error)
	ClearConversation(ctx context.Context, sid string) error
	// Summarize 是引导品鉴使用的单次旁路请求：占用同一个在途互斥区，
	// 但结果不进入对话历史。
	Summarize(ctx context.Context, sid, prompt string, sink StreamSink) (string, error)
}

type chatService struct {
	repo         repository.SessionRepository
	llmClient    llm.Client
	historyLimit int
	sessions     sync.Map // sid -> *session
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(repo repository.SessionRepository, llmClient llm.Client, historyLimit int) ChatService {
	return &chatService{
		repo:         repo,
		llmClient:    llmClient,
		historyLimit: historyLimit,
	}
}

// session 持有单个会话的状态机。互斥规则：Sending/Streaming 期间
// 新的发送请求直接丢弃。
type session struct {
	mu    sync.Mutex
	state SessionState
}

func (s *chatService) session(sid string) *session {
	v, _ := s.sessions.LoadOrStore(sid, &session{})
	return v.(*session)
}

// begin 是状态机入口守卫：已有请求在途时返回 false。
func (sess *session) begin() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == StateSending || sess.state == StateStreaming {
		return false
	}
	sess.state = StateSending
	return true
}

func (sess *session) transition(state SessionState) {
	sess.mu.Lock()
	sess.state = state
	sess.mu.Unlock()
}

// accumulator 把流式分块拼接进缓冲，同时转发给展示层 sink。
// 最终缓冲等于全部分块按到达顺序的拼接。
type accumulator struct {
	sess *session
	sink StreamSink
	buf  strings.Builder
}

func (a *accumulator) WriteFragment(text string) error {
	a.sess.transition(StateStreaming)
	a.buf.WriteString(text)
	if a.sink != nil {
		return a.sink.WriteFragment(text)
	}
	return nil
}

func (s *chatService) History(ctx context.Context, sid string) []model.Message {
	return s.repo.LoadMessages(ctx, sid)
}

func (s *chatService) Send(ctx context.Context, sid, content, image, imageMime string, sink StreamSink) (*SendResult, error) {
	if strings.TrimSpace(content) == "" && image == "" {
		return nil, ErrEmptyMessage
	}
	sess := s.session(sid)
	if !sess.begin() {
		return nil, ErrBusy
	}
	userMsg := model.Message{
		Role:          model.RoleUser,
		Content:       content,
		Image:         image,
		ImageMimeType: imageMime,
	}
	return s.exchange(ctx, sid, sess, s.repo.LoadMessages(ctx, sid), userMsg, sink)
}

// StartScene 以场景开场白发起一轮对话。识酒场景的开场白作为
// 上下文发送但不渲染（hidden）。
func (s *chatService) StartScene(ctx context.Context, sid, scene string, sink StreamSink) (*SendResult, error) {
	locale := s.locale(ctx, sid)
	var key string
	hidden := false
	switch scene {
	case "restaurant":
		key = "scene1Msg"
	case "shopping":
		key = "scene2Msg"
	case "identify":
		key, hidden = "scene3Msg", true
	case "tasting":
		key = "scene4Msg"
	default:
		return nil, fmt.Errorf("未知场景: %s", scene)
	}
	sess := s.session(sid)
	if !sess.begin() {
		return nil, ErrBusy
	}
	userMsg := model.Message{
		Role:    model.RoleUser,
		Content: i18n.T(locale, key),
		Hidden:  hidden,
	}
	return s.exchange(ctx, sid, sess, s.repo.LoadMessages(ctx, sid), userMsg, sink)
}

// RetryLast 移除历史尾部的错误消息与其前面的用户消息，并用同样的
// 用户消息内容重新发起请求。仅当尾部恰为这两条时生效，重复调用幂等。
func (s *chatService) RetryLast(ctx context.Context, sid string, sink StreamSink) (*SendResult, error) {
	sess := s.session(sid)
	if !sess.begin() {
		return nil, ErrBusy
	}

	history := s.repo.LoadMessages(ctx, sid)
	n := len(history)
	if n < 2 || !history[n-1].IsError || history[n-1].Role != model.RoleAssistant ||
		history[n-2].Role != model.RoleUser {
		sess.transition(StateIdle)
		return nil, ErrNoRetryTarget
	}

	userMsg := history[n-2]
	history = history[:n-2]
	s.repo.SaveMessages(ctx, sid, history)
	return s.exchange(ctx, sid, sess, history, userMsg, sink)
}

// exchange 执行一轮完整交互。调用前必须已通过 begin() 占用状态机。
func (s *chatService) exchange(ctx context.Context, sid string, sess *session, history []model.Message, userMsg model.Message, sink StreamSink) (*SendResult, error) {
	locale := s.locale(ctx, sid)

	// 先落用户消息：失败时它留在历史里，重试才有目标
	history = append(history, userMsg)
	storageFull := !s.repo.SaveMessages(ctx, sid, history)

	acc := &accumulator{sess: sess, sink: sink}
	err := s.llmClient.StreamChat(ctx, s.outgoing(history), locale, acc)
	if err != nil {
		log.Errorf("模型请求失败 sid=%s: %v", sid, err)
		errMsg := model.Message{
			Role:    model.RoleAssistant,
			Content: i18n.T(locale, classifyFailure(err)),
			IsError: true,
		}
		history = append(history, errMsg)
		if !s.repo.SaveMessages(ctx, sid, history) {
			storageFull = true
		}
		sess.transition(StateFailed)
		// 失败不更新口味画像
		return &SendResult{Message: errMsg, StorageFull: storageFull}, nil
	}

	full := acc.buf.String()
	actions := detect.Actions(full, userMsg.Content, userMsg.Image != "", locale)
	asstMsg := model.Message{Role: model.RoleAssistant, Content: full, Actions: actions}
	history = append(history, asstMsg)
	if !s.repo.SaveMessages(ctx, sid, history) {
		storageFull = true
	}

	profile := taste.Extract(full, s.repo.LoadProfile(ctx, sid))
	s.repo.SaveProfile(ctx, sid, profile)

	sess.transition(StateCommitted)
	return &SendResult{Message: asstMsg, StorageFull: storageFull}, nil
}

// outgoing 组装发往后端的消息列表：保留 hidden（作为上下文），
// 剔除合成的错误消息，并截取最近的上下文窗口。
func (s *chatService) outgoing(history []model.Message) []llm.Message {
	msgs := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if m.IsError {
			continue
		}
		msgs = append(msgs, llm.Message{
			Role:          m.Role,
			Content:       m.Content,
			Image:         m.Image,
			ImageMimeType: m.ImageMimeType,
		})
	}
	if s.historyLimit > 0 && len(msgs) > s.historyLimit {
		msgs = msgs[len(msgs)-s.historyLimit:]
	}
	return msgs
}

// ClickAction 点击操作按钮。Clicked 一次性置位：重复点击返回
// Performed=false 的空操作结果。
func (s *chatService) ClickAction(ctx context.Context, sid, actionID string) (*ActionOutcome, error) {
	history := s.repo.LoadMessages(ctx, sid)
	for i := range history {
		act := history[i].FindAction(actionID)
		if act == nil {
			continue
		}
		if act.Clicked {
			return &ActionOutcome{Performed: false}, nil
		}
		act.Clicked = true
		saved := s.repo.SaveMessages(ctx, sid, history)
		return &ActionOutcome{
			Performed:   true,
			AutoSend:    act.Message,
			Op:          act.Action,
			Data:        act.Data,
			StorageFull: !saved,
		}, nil
	}
	return nil, ErrActionNotFound
}

// ClearConversation 原子清空对话历史；口味画像与酒窖不受影响。
func (s *chatService) ClearConversation(ctx context.Context, sid string) error {
	return s.repo.ClearMessages(ctx, sid)
}

func (s *chatService) Summarize(ctx context.Context, sid, prompt string, sink StreamSink) (string, error) {
	sess := s.session(sid)
	if !sess.begin() {
		return "", ErrBusy
	}
	locale := s.locale(ctx, sid)

	acc := &accumulator{sess: sess, sink: sink}
	err := s.llmClient.StreamChat(ctx, []llm.Message{{Role: model.RoleUser, Content: prompt}}, locale, acc)
	if err != nil {
		log.Errorf("品鉴笔记生成失败 sid=%s: %v", sid, err)
		sess.transition(StateFailed)
		return "", err
	}
	sess.transition(StateCommitted)
	return acc.buf.String(), nil
}

func (s *chatService) locale(ctx context.Context, sid string) i18n.Locale {
	return i18n.Normalize(s.repo.Locale(ctx, sid))
}

// classifyFailure 把传输失败归入固定的错误文案类别。
func classifyFailure(err error) string {
	var serr *llm.StatusError
	if errors.As(err, &serr) {
		switch {
		case serr.Code == http.StatusTooManyRequests:
			return "errorRate"
		case serr.Code == http.StatusServiceUnavailable:
			return "errorService"
		case serr.Code >= 500:
			return "errorServer"
		default:
			return "errorRequestFailed"
		}
	}
	return "errorNetworkFailed"
}
