package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Mrpixelraf/wine-advisor/internal/i18n"
	"github.com/Mrpixelraf/wine-advisor/internal/middleware"
	"github.com/Mrpixelraf/wine-advisor/internal/service"
	"github.com/Mrpixelraf/wine-advisor/pkg/log"
	"github.com/gin-gonic/gin"
)

// TastingHandler 处理引导品鉴向导的 API 请求。
type TastingHandler struct {
	tastingService service.TastingService
	profileService service.ProfileService
}

// NewTastingHandler 创建一个新的 TastingHandler。
func NewTastingHandler(tastingService service.TastingService, profileService service.ProfileService) *TastingHandler {
	return &TastingHandler{tastingService: tastingService, profileService: profileService}
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": data})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error(), "data": nil})
}

// wizardError 统一处理向导操作的失败分支。
func wizardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoTasting):
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "没有进行中的品鉴", "data": nil})
	case errors.Is(err, service.ErrNotAtEnd), errors.Is(err, service.ErrNoReport):
		c.JSON(http.StatusConflict, gin.H{"code": http.StatusConflict, "message": err.Error(), "data": nil})
	default:
		badRequest(c, err)
	}
}

type startTastingRequest struct {
	WineName  string `json:"wineName"`
	WineImage string `json:"wineImage"`
}

// Start 开始一次引导品鉴。
func (h *TastingHandler) Start(c *gin.Context) {
	var req startTastingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	view := h.tastingService.Start(c.Request.Context(), middleware.Sid(c), req.WineName, req.WineImage)
	ok(c, view)
}

// View 返回向导当前状态。
func (h *TastingHandler) View(c *gin.Context) {
	view, err := h.tastingService.View(middleware.Sid(c))
	if err != nil {
		wizardError(c, err)
		return
	}
	ok(c, view)
}

type levelRequest struct {
	Level string `json:"level" binding:"required"`
}

// SetLevel 更新品鉴经验等级偏好。
func (h *TastingHandler) SetLevel(c *gin.Context) {
	var req levelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.tastingService.SetLevel(c.Request.Context(), middleware.Sid(c), req.Level); err != nil {
		badRequest(c, err)
		return
	}
	ok(c, gin.H{"level": req.Level})
}

type fieldValueRequest struct {
	Field string `json:"field" binding:"required"`
	Tag   string `json:"tag"`
	Value any    `json:"value"`
}

// Input 更新当前步骤的一个输入项：多选标签、滑杆或单选。
func (h *TastingHandler) Input(c *gin.Context) {
	var req fieldValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sid := middleware.Sid(c)

	var (
		view *service.TastingView
		err  error
	)
	switch v := req.Value.(type) {
	case nil:
		view, err = h.tastingService.ToggleTag(sid, req.Field, req.Tag)
	case float64:
		view, err = h.tastingService.SetScale(sid, req.Field, int(v))
	case string:
		view, err = h.tastingService.SetChoice(sid, req.Field, v)
	default:
		badRequest(c, fmt.Errorf("不支持的输入值类型"))
		return
	}
	if err != nil {
		wizardError(c, err)
		return
	}
	ok(c, view)
}

// Next 前进到下一步。
func (h *TastingHandler) Next(c *gin.Context) {
	view, err := h.tastingService.Next(middleware.Sid(c))
	if err != nil {
		wizardError(c, err)
		return
	}
	ok(c, view)
}

// Prev 回退到上一步。
func (h *TastingHandler) Prev(c *gin.Context) {
	view, err := h.tastingService.Prev(middleware.Sid(c))
	if err != nil {
		wizardError(c, err)
		return
	}
	ok(c, view)
}

// Summarize 走完四步后流式生成品鉴笔记（SSE）。
func (h *TastingHandler) Summarize(c *gin.Context) {
	sid := middleware.Sid(c)
	locale := h.profileService.Locale(c.Request.Context(), sid)

	flusher, okFlush := c.Writer.(http.Flusher)
	if !okFlush {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}
	sink := &sseSink{w: c.Writer, f: flusher}
	if _, err := h.tastingService.Summarize(c.Request.Context(), sid, sink); err != nil {
		if !sink.started {
			switch {
			case errors.Is(err, service.ErrNoTasting), errors.Is(err, service.ErrNotAtEnd):
				wizardError(c, err)
			default:
				log.Errorf("品鉴笔记生成失败 sid=%s: %v", sid, err)
				c.JSON(http.StatusBadGateway, gin.H{"error": i18n.T(locale, "errorReportFailed")})
			}
			return
		}
		log.Errorf("品鉴笔记流中断 sid=%s: %v", sid, err)
		return
	}
	sink.begin()
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	flusher.Flush()
}

// Save 把完成的品鉴存入酒窖并结束向导。
func (h *TastingHandler) Save(c *gin.Context) {
	sid := middleware.Sid(c)
	locale := h.profileService.Locale(c.Request.Context(), sid)

	entry, stored, err := h.tastingService.Save(c.Request.Context(), sid)
	if err != nil {
		wizardError(c, err)
		return
	}
	if !stored {
		c.JSON(http.StatusInsufficientStorage, gin.H{
			"code":    http.StatusInsufficientStorage,
			"message": i18n.T(locale, "errorStorageFull"),
			"data":    nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": i18n.T(locale, "savedCellar"), "data": entry})
}

// Exit 放弃当前向导。
func (h *TastingHandler) Exit(c *gin.Context) {
	h.tastingService.Exit(middleware.Sid(c))
	ok(c, nil)
}
