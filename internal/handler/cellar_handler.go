package handler

import (
	"errors"
	"net/http"

	"github.com/Mrpixelraf/wine-advisor/internal/config"
	"github.com/Mrpixelraf/wine-advisor/internal/i18n"
	"github.com/Mrpixelraf/wine-advisor/internal/middleware"
	"github.com/Mrpixelraf/wine-advisor/internal/model"
	"github.com/Mrpixelraf/wine-advisor/internal/service"
	"github.com/Mrpixelraf/wine-advisor/pkg/imageutil"
	"github.com/Mrpixelraf/wine-advisor/pkg/log"
	"github.com/gin-gonic/gin"
)

// CellarHandler 处理酒窖相关的 API 请求。
type CellarHandler struct {
	cellarService  service.CellarService
	profileService service.ProfileService
}

// NewCellarHandler 创建一个新的 CellarHandler。
func NewCellarHandler(cellarService service.CellarService, profileService service.ProfileService) *CellarHandler {
	return &CellarHandler{cellarService: cellarService, profileService: profileService}
}

// List 返回酒窖全部条目（含心愿清单）。
func (h *CellarHandler) List(c *gin.Context) {
	entries := h.cellarService.List(c.Request.Context(), middleware.Sid(c))
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": entries})
}

type rateRequest struct {
	Name      string          `json:"name" binding:"required"`
	Image     string          `json:"image"`
	Rating    int             `json:"rating" binding:"required,min=1,max=100"`
	UserNotes string          `json:"userNotes"`
	AiNotes   string          `json:"aiNotes"`
	Tags      *model.WineTags `json:"tags"`
}

// Rate 记录一次品酒体验。图片在入库前压缩为缩略图，压缩失败时
// 去掉图片继续保存。
func (h *CellarHandler) Rate(c *gin.Context) {
	sid := middleware.Sid(c)
	locale := h.profileService.Locale(c.Request.Context(), sid)

	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error(), "data": nil})
		return
	}

	image := h.thumbnail(req.Image)
	entry, ok := h.cellarService.SaveRating(c.Request.Context(), sid, req.Name, image, req.Rating, req.UserNotes, req.AiNotes, req.Tags)
	if !ok {
		c.JSON(http.StatusInsufficientStorage, gin.H{
			"code":    http.StatusInsufficientStorage,
			"message": i18n.T(locale, "errorStorageFull"),
			"data":    nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": i18n.T(locale, "savedCellar"), "data": entry})
}

type wishlistRequest struct {
	Name    string `json:"name" binding:"required"`
	Image   string `json:"image"`
	AiNotes string `json:"aiNotes"`
}

// Wishlist 把一款酒加入心愿清单。
func (h *CellarHandler) Wishlist(c *gin.Context) {
	sid := middleware.Sid(c)
	locale := h.profileService.Locale(c.Request.Context(), sid)

	var req wishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error(), "data": nil})
		return
	}

	image := h.thumbnail(req.Image)
	entry, ok := h.cellarService.SaveWishlist(c.Request.Context(), sid, req.Name, image, req.AiNotes)
	if !ok {
		c.JSON(http.StatusInsufficientStorage, gin.H{
			"code":    http.StatusInsufficientStorage,
			"message": i18n.T(locale, "errorStorageFull"),
			"data":    nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": i18n.T(locale, "savedWishlist"), "data": entry})
}

// Delete 删除一条酒窖记录。
func (h *CellarHandler) Delete(c *gin.Context) {
	sid := middleware.Sid(c)
	locale := h.profileService.Locale(c.Request.Context(), sid)

	if err := h.cellarService.Delete(c.Request.Context(), sid, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "条目不存在", "data": nil})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": err.Error(), "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": i18n.T(locale, "deletedCellar"), "data": nil})
}

// thumbnail 把上传图压缩为酒窖缩略图。任何一步失败都放弃图片，
// 条目照常保存。
func (h *CellarHandler) thumbnail(image string) string {
	if image == "" {
		return ""
	}
	cfg := config.Conf.Image
	data, _, err := imageutil.DecodeDataURI(image)
	if err != nil {
		log.Warnf("酒窖缩略图解码失败: %v", err)
		return ""
	}
	thumb, err := imageutil.Compress(data, cfg.ThumbDimension, cfg.Quality, cfg.MaxBytes)
	if err != nil {
		log.Warnf("酒窖缩略图压缩失败: %v", err)
		return ""
	}
	return thumb.ToDataURI()
}
