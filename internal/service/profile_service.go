package service

import (
	"context"

	"github.com/Mrpixelraf/wine-advisor/internal/i18n"
	"github.com/Mrpixelraf/wine-advisor/internal/model"
	"github.com/Mrpixelraf/wine-advisor/internal/repository"
	"github.com/Mrpixelraf/wine-advisor/internal/taste"
)

// ProfileService 暴露口味画像的只读视图与推荐语，以及语言、
// 引导页等轻量会话偏好。画像本身只由对话流程写入。
type ProfileService interface {
	Profile(ctx context.Context, sid string) model.TasteProfile
	Recommendations(ctx context.Context, sid string) []string
	Locale(ctx context.Context, sid string) i18n.Locale
	SetLocale(ctx context.Context, sid string, locale i18n.Locale)
	Onboarded(ctx context.Context, sid string) bool
	SetOnboarded(ctx context.Context, sid string)
}

type profileService struct {
	repo repository.SessionRepository
}

// NewProfileService 创建一个新的 ProfileService 实例。
func NewProfileService(repo repository.SessionRepository) ProfileService {
	return &profileService{repo: repo}
}

func (s *profileService) Profile(ctx context.Context, sid string) model.TasteProfile {
	return s.repo.LoadProfile(ctx, sid)
}

func (s *profileService) Recommendations(ctx context.Context, sid string) []string {
	profile := s.repo.LoadProfile(ctx, sid)
	locale := i18n.Normalize(s.repo.Locale(ctx, sid))
	return taste.Recommendations(profile, locale)
}

func (s *profileService) Locale(ctx context.Context, sid string) i18n.Locale {
	return i18n.Normalize(s.repo.Locale(ctx, sid))
}

func (s *profileService) SetLocale(ctx context.Context, sid string, locale i18n.Locale) {
	s.repo.SetLocale(ctx, sid, i18n.Normalize(locale))
}

func (s *profileService) Onboarded(ctx context.Context, sid string) bool {
	return s.repo.Onboarded(ctx, sid)
}

func (s *profileService) SetOnboarded(ctx context.Context, sid string) {
	s.repo.SetOnboarded(ctx, sid, true)
}
