// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Mrpixelraf/wine-advisor/internal/config"
	"github.com/Mrpixelraf/wine-advisor/internal/detect"
	"github.com/Mrpixelraf/wine-advisor/internal/i18n"
	"github.com/Mrpixelraf/wine-advisor/internal/middleware"
	"github.com/Mrpixelraf/wine-advisor/internal/model"
	"github.com/Mrpixelraf/wine-advisor/internal/service"
	"github.com/Mrpixelraf/wine-advisor/pkg/imageutil"
	"github.com/Mrpixelraf/wine-advisor/pkg/llm"
	"github.com/Mrpixelraf/wine-advisor/pkg/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// wsFrame 是 WebSocket 双向帧的统一结构。客户端发 send / retry /
// clear / scene / action，服务端回 chunk / message / notice / action / error。
type wsFrame struct {
	Type      string         `json:"type"`
	Content   string         `json:"content,omitempty"`
	Image     string         `json:"image,omitempty"`
	ImageMime string         `json:"imageMimeType,omitempty"`
	Scene     string         `json:"scene,omitempty"`
	ActionID  string         `json:"actionId,omitempty"`
	Message   *model.Message `json:"message,omitempty"`
	Op        string         `json:"op,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// ChatHandler 负责处理 WebSocket 聊天连接与 SSE 代理端点。
type ChatHandler struct {
	chatService    service.ChatService
	cellarService  service.CellarService
	profileService service.ProfileService
	llmClient      llm.Client
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, cellarService service.CellarService, profileService service.ProfileService, llmClient llm.Client) *ChatHandler {
	return &ChatHandler{
		chatService:    chatService,
		cellarService:  cellarService,
		profileService: profileService,
		llmClient:      llmClient,
	}
}

// wsSink 把流式分块转发为 chunk 帧。gorilla/websocket 要求单写者，
// 帧写入始终发生在连接的处理协程内。
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) WriteFragment(text string) error {
	return s.writeFrame(wsFrame{Type: "chunk", Content: text})
}

func (s *wsSink) writeFrame(f wsFrame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, b)
}

// compressChatImage 把客户端附带的图片压缩到对话分辨率后再入库、
// 转发。与酒窖缩略图不同，失败时中止发送而不是丢图继续。
func compressChatImage(image string) (string, string, error) {
	cfg := config.Conf.Image
	data, _, err := imageutil.DecodeDataURI(image)
	if err != nil {
		return "", "", err
	}
	out, err := imageutil.Compress(data, cfg.MaxDimension, cfg.Quality, cfg.MaxBytes)
	if err != nil {
		return "", "", err
	}
	return out.Base64, out.MimeType, nil
}

// GetHistory 返回当前会话的可见对话历史。
func (h *ChatHandler) GetHistory(c *gin.Context) {
	history := h.chatService.History(c.Request.Context(), middleware.Sid(c))
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": history})
}

// Handle 处理一个传入的 WebSocket 连接。
func (h *ChatHandler) Handle(c *gin.Context) {
	sid := middleware.Sid(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，会话: %s", sid)
	sink := &wsSink{conn: conn}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		var frame wsFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			_ = sink.writeFrame(wsFrame{Type: "error", Content: "无法解析的消息帧"})
			continue
		}

		ctx := c.Request.Context()
		switch frame.Type {
		case "send":
			image, mime := frame.Image, frame.ImageMime
			if image != "" {
				var err error
				image, mime, err = compressChatImage(image)
				if err != nil {
					// 附图失败中止本次发送，不产生任何历史记录
					log.Warnf("聊天图片压缩失败 sid=%s: %v", sid, err)
					locale := h.profileService.Locale(ctx, sid)
					_ = sink.writeFrame(wsFrame{Type: "error", Content: i18n.T(locale, "errorImgProcess")})
					continue
				}
			}
			result, err := h.chatService.Send(ctx, sid, frame.Content, image, mime, sink)
			h.finishTurn(c, sid, sink, result, err)
		case "scene":
			result, err := h.chatService.StartScene(ctx, sid, frame.Scene, sink)
			h.finishTurn(c, sid, sink, result, err)
		case "retry":
			result, err := h.chatService.RetryLast(ctx, sid, sink)
			h.finishTurn(c, sid, sink, result, err)
		case "clear":
			if err := h.chatService.ClearConversation(ctx, sid); err != nil {
				_ = sink.writeFrame(wsFrame{Type: "error", Content: err.Error()})
				continue
			}
			_ = sink.writeFrame(wsFrame{Type: "notice", Content: "cleared"})
		case "action":
			h.handleAction(c, sid, frame.ActionID, sink)
		default:
			_ = sink.writeFrame(wsFrame{Type: "error", Content: fmt.Sprintf("未知帧类型: %s", frame.Type)})
		}
	}
}

// finishTurn 把一轮交互的提交结果回发给客户端。
func (h *ChatHandler) finishTurn(c *gin.Context, sid string, sink *wsSink, result *service.SendResult, err error) {
	locale := h.profileService.Locale(c.Request.Context(), sid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBusy):
			_ = sink.writeFrame(wsFrame{Type: "notice", Content: "busy"})
		case errors.Is(err, service.ErrEmptyMessage), errors.Is(err, service.ErrNoRetryTarget):
			_ = sink.writeFrame(wsFrame{Type: "error", Content: err.Error()})
		default:
			log.Errorf("处理对话失败 sid=%s: %v", sid, err)
			_ = sink.writeFrame(wsFrame{Type: "error", Content: i18n.T(locale, "errorUnknown")})
		}
		return
	}
	_ = sink.writeFrame(wsFrame{Type: "message", Message: &result.Message})
	if result.StorageFull {
		_ = sink.writeFrame(wsFrame{Type: "notice", Content: i18n.T(locale, "errorStorageFull")})
	}
}

// handleAction 执行一次按钮点击。自动发送类按钮直接进入下一轮对话；
// 心愿清单按钮在服务端落盘；其余按钮回发 action 帧交给客户端打开
// 对应界面。
func (h *ChatHandler) handleAction(c *gin.Context, sid, actionID string, sink *wsSink) {
	ctx := c.Request.Context()
	locale := h.profileService.Locale(ctx, sid)

	outcome, err := h.chatService.ClickAction(ctx, sid, actionID)
	if err != nil {
		if errors.Is(err, service.ErrActionNotFound) {
			_ = sink.writeFrame(wsFrame{Type: "error", Content: "操作按钮不存在"})
			return
		}
		_ = sink.writeFrame(wsFrame{Type: "error", Content: i18n.T(locale, "errorUnknown")})
		return
	}
	if !outcome.Performed {
		_ = sink.writeFrame(wsFrame{Type: "notice", Content: "already-clicked"})
		return
	}
	if outcome.StorageFull {
		_ = sink.writeFrame(wsFrame{Type: "notice", Content: i18n.T(locale, "errorStorageFull")})
	}

	if outcome.AutoSend != "" {
		result, err := h.chatService.Send(ctx, sid, outcome.AutoSend, "", "", sink)
		h.finishTurn(c, sid, sink, result, err)
		return
	}

	switch outcome.Op {
	case model.ActionSaveToCellar:
		history := h.chatService.History(ctx, sid)
		name := detect.WineNameFromMessages(history, locale)
		image := detect.WineImageFromMessages(history)
		aiNotes, _ := outcome.Data["aiNotes"].(string)
		if _, ok := h.cellarService.SaveWishlist(ctx, sid, name, image, aiNotes); !ok {
			_ = sink.writeFrame(wsFrame{Type: "notice", Content: i18n.T(locale, "errorStorageFull")})
			return
		}
		_ = sink.writeFrame(wsFrame{Type: "notice", Content: i18n.T(locale, "savedWishlist")})
	default:
		// rate-wine / start-guided-tasting 由客户端打开对应界面
		_ = sink.writeFrame(wsFrame{Type: "action", Op: outcome.Op, Data: outcome.Data})
	}
}

// completionsRequest 是 SSE 代理端点的请求体。
type completionsRequest struct {
	Messages []llm.Message `json:"messages" binding:"required"`
	Locale   string        `json:"locale"`
}

// sseSink 把流式分块编码为 SSE data 帧。响应头推迟到首个分块才写，
// 这样流开始前的上游失败仍能以 JSON 错误响应返回。
type sseSink struct {
	w       http.ResponseWriter
	f       http.Flusher
	started bool
}

// begin 写入 SSE 响应头，幂等。
func (s *sseSink) begin() {
	if s.started {
		return
	}
	s.started = true
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
}

func (s *sseSink) WriteFragment(text string) error {
	payload, err := json.Marshal(gin.H{"content": text})
	if err != nil {
		return err
	}
	s.begin()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// Completions 是无状态的流式代理端点：把对话消息转发给上游模型，
// 以 SSE 回流增量分块，流结束后追加 [DONE] 哨兵。
func (h *ChatHandler) Completions(c *gin.Context) {
	var req completionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	locale := i18n.Normalize(req.Locale)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	sink := &sseSink{w: c.Writer, f: flusher}
	if err := h.llmClient.StreamChat(c.Request.Context(), req.Messages, locale, sink); err != nil {
		var serr *llm.StatusError
		if errors.As(err, &serr) && !sink.started {
			// 流尚未开始，保留上游状态码
			c.JSON(serr.Code, gin.H{"error": i18n.T(locale, "errorRequestFailed")})
			return
		}
		log.Errorf("SSE 代理转发失败: %v", err)
		if !sink.started {
			c.JSON(http.StatusInternalServerError, gin.H{"error": i18n.T(locale, "errorNetworkFailed")})
		}
		return
	}
	sink.begin()
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	flusher.Flush()
}
