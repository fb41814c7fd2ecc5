package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Mrpixelraf/wine-advisor/internal/model"
	"github.com/Mrpixelraf/wine-advisor/internal/repository"
)

// ErrEntryNotFound 表示指定的酒窖条目不存在。
var ErrEntryNotFound = errors.New("cellar: entry not found")

// CellarService 管理个人酒窖：品过的酒与心愿单。
// 条目创建后不可修改，只能整条删除。
type CellarService interface {
	List(ctx context.Context, sid string) []model.WineEntry
	// SaveRating 手动评分流程：产生一条 drinking 条目。
	SaveRating(ctx context.Context, sid, name, image string, rating int, userNotes, aiNotes string, tags *model.WineTags) (model.WineEntry, bool)
	// SaveWishlist "加入心愿清单"按钮：产生一条 wishlist 条目。
	SaveWishlist(ctx context.Context, sid, name, image, aiNotes string) (model.WineEntry, bool)
	// SaveEntry 保存一条外部组装好的条目（引导品鉴完成时使用）。
	SaveEntry(ctx context.Context, sid string, entry model.WineEntry) (model.WineEntry, bool)
	Delete(ctx context.Context, sid, id string) error
}

type cellarService struct {
	repo repository.SessionRepository
}

// NewCellarService 创建一个新的 CellarService 实例。
func NewCellarService(repo repository.SessionRepository) CellarService {
	return &cellarService{repo: repo}
}

// NewEntryID 生成创建时间戳派生的条目 ID。
func NewEntryID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func (s *cellarService) List(ctx context.Context, sid string) []model.WineEntry {
	return s.repo.LoadCellar(ctx, sid)
}

func (s *cellarService) SaveRating(ctx context.Context, sid, name, image string, rating int, userNotes, aiNotes string, tags *model.WineTags) (model.WineEntry, bool) {
	entry := model.WineEntry{
		ID:        NewEntryID(),
		Name:      name,
		Image:     image,
		Type:      model.WineTypeDrinking,
		Rating:    rating,
		UserNotes: userNotes,
		AiNotes:   aiNotes,
		Date:      today(),
		Tags:      tags,
	}
	return s.SaveEntry(ctx, sid, entry)
}

func (s *cellarService) SaveWishlist(ctx context.Context, sid, name, image, aiNotes string) (model.WineEntry, bool) {
	entry := model.WineEntry{
		ID:      NewEntryID(),
		Name:    name,
		Image:   image,
		Type:    model.WineTypeWishlist,
		AiNotes: aiNotes,
		Date:    today(),
	}
	return s.SaveEntry(ctx, sid, entry)
}

func (s *cellarService) SaveEntry(ctx context.Context, sid string, entry model.WineEntry) (model.WineEntry, bool) {
	if entry.ID == "" {
		entry.ID = NewEntryID()
	}
	if entry.Date == "" {
		entry.Date = today()
	}
	entries := append(s.repo.LoadCellar(ctx, sid), entry)
	ok := s.repo.SaveCellar(ctx, sid, entries)
	return entry, ok
}

func (s *cellarService) Delete(ctx context.Context, sid, id string) error {
	entries := s.repo.LoadCellar(ctx, sid)
	for i, e := range entries {
		if e.ID == id {
			entries = append(entries[:i], entries[i+1:]...)
			s.repo.SaveCellar(ctx, sid, entries)
			return nil
		}
	}
	return ErrEntryNotFound
}
