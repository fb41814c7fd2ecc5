package handler

import (
	"net/http"

	"github.com/Mrpixelraf/wine-advisor/internal/middleware"
	"github.com/Mrpixelraf/wine-advisor/internal/service"
	"github.com/gin-gonic/gin"
)

// ProfileHandler 处理口味画像与会话偏好的 API 请求。
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler 创建一个新的 ProfileHandler。
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Get 返回当前会话的口味画像。
func (h *ProfileHandler) Get(c *gin.Context) {
	profile := h.profileService.Profile(c.Request.Context(), middleware.Sid(c))
	ok(c, profile)
}

// Recommendations 根据口味画像生成个性化推荐语。
func (h *ProfileHandler) Recommendations(c *gin.Context) {
	recs := h.profileService.Recommendations(c.Request.Context(), middleware.Sid(c))
	ok(c, recs)
}

// GetLocale 返回当前会话的界面语言。
func (h *ProfileHandler) GetLocale(c *gin.Context) {
	locale := h.profileService.Locale(c.Request.Context(), middleware.Sid(c))
	ok(c, gin.H{"locale": locale})
}

type localeRequest struct {
	Locale string `json:"locale" binding:"required"`
}

// SetLocale 切换界面语言。
func (h *ProfileHandler) SetLocale(c *gin.Context) {
	var req localeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.profileService.SetLocale(c.Request.Context(), middleware.Sid(c), req.Locale)
	ok(c, gin.H{"locale": req.Locale})
}

// Onboarding 返回是否已看过引导页。
func (h *ProfileHandler) Onboarding(c *gin.Context) {
	done := h.profileService.Onboarded(c.Request.Context(), middleware.Sid(c))
	ok(c, gin.H{"onboarded": done})
}

// CompleteOnboarding 标记引导页已完成。
func (h *ProfileHandler) CompleteOnboarding(c *gin.Context) {
	h.profileService.SetOnboarded(c.Request.Context(), middleware.Sid(c))
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": gin.H{"onboarded": true}})
}
