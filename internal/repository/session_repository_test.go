package repository

import (
	"context"
	"testing"

	"github.com/Mrpixelraf/wine-advisor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyKV 包装内存 KV，可按键注入写入失败。
type flakyKV struct {
	KV
	failSet func(key, value string) error
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.failSet != nil {
		if err := f.failSet(key, value); err != nil {
			return err
		}
	}
	return f.KV.Set(ctx, key, value)
}

func TestMemoryKV_QuotaRejectsKeepingOldValue(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV(32)

	require.NoError(t, kv.Set(ctx, "k", "small"))
	err := kv.Set(ctx, "k", string(make([]byte, 64)))
	require.ErrorIs(t, err, ErrQuotaExceeded)

	val, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "small", val)
}

func TestMemoryKV_GetMissing(t *testing.T) {
	kv := NewMemoryKV(0)
	_, err := kv.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepository_MessagesRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(NewMemoryKV(0))

	assert.Empty(t, repo.LoadMessages(ctx, "dev-1"))

	msgs := []model.Message{
		{Role: model.RoleUser, Content: "你好"},
		{Role: model.RoleAssistant, Content: "您好，想了解什么酒？"},
	}
	require.True(t, repo.SaveMessages(ctx, "dev-1", msgs))
	assert.Equal(t, msgs, repo.LoadMessages(ctx, "dev-1"))

	// 会话互相隔离
	assert.Empty(t, repo.LoadMessages(ctx, "dev-2"))

	require.NoError(t, repo.ClearMessages(ctx, "dev-1"))
	assert.Empty(t, repo.LoadMessages(ctx, "dev-1"))
}

func TestSessionRepository_SaveMessagesStripsImagesOnQuota(t *testing.T) {
	ctx := context.Background()
	// 第一次整体写入失败（带图太大），剥离图片后的重试放行
	kv := &flakyKV{
		KV: NewMemoryKV(0),
		failSet: func(_, value string) error {
			if len(value) > 1024 {
				return ErrQuotaExceeded
			}
			return nil
		},
	}
	repo := NewSessionRepository(kv)

	msgs := []model.Message{
		{Role: model.RoleUser, Content: "识别一下", Image: string(make([]byte, 4096))},
		{Role: model.RoleAssistant, Content: "这是一款奔富407。"},
	}
	require.True(t, repo.SaveMessages(ctx, "dev-1", msgs))

	loaded := repo.LoadMessages(ctx, "dev-1")
	require.Len(t, loaded, 2)
	assert.Equal(t, ImagePlaceholder, loaded[0].Image)
	assert.Equal(t, "识别一下", loaded[0].Content)
	assert.Empty(t, loaded[1].Image)
}

func TestSessionRepository_SaveMessagesGivesUpKeepingPrevious(t *testing.T) {
	ctx := context.Background()
	fail := false
	kv := &flakyKV{
		KV: NewMemoryKV(0),
		failSet: func(key, _ string) error {
			if fail && key == messagesKey("dev-1") {
				return ErrQuotaExceeded
			}
			return nil
		},
	}
	repo := NewSessionRepository(kv)

	old := []model.Message{{Role: model.RoleUser, Content: "旧消息"}}
	require.True(t, repo.SaveMessages(ctx, "dev-1", old))

	fail = true
	updated := append(old, model.Message{Role: model.RoleAssistant, Content: "新消息"})
	assert.False(t, repo.SaveMessages(ctx, "dev-1", updated))

	// 之前提交的值保持不变
	assert.Equal(t, old, repo.LoadMessages(ctx, "dev-1"))
}

func TestSessionRepository_CorruptPayloadFallsBack(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV(0)
	require.NoError(t, kv.Set(ctx, messagesKey("dev-1"), "{not json"))
	require.NoError(t, kv.Set(ctx, profileKey("dev-1"), "[]"))

	repo := NewSessionRepository(kv)
	assert.Empty(t, repo.LoadMessages(ctx, "dev-1"))
	assert.Equal(t, model.EmptyTasteProfile(), repo.LoadProfile(ctx, "dev-1"))
}

func TestSessionRepository_ProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(NewMemoryKV(0))

	profile := model.TasteProfile{
		Regions:    []string{"波尔多"},
		Grapes:     []string{"赤霞珠"},
		PriceRange: "500-800",
	}
	require.True(t, repo.SaveProfile(ctx, "dev-1", profile))

	loaded := repo.LoadProfile(ctx, "dev-1")
	assert.Equal(t, profile.Regions, loaded.Regions)
	assert.Equal(t, profile.Grapes, loaded.Grapes)
	assert.Equal(t, "500-800", loaded.PriceRange)
}

func TestSessionRepository_SaveCellarStripsThumbnails(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{
		KV: NewMemoryKV(0),
		failSet: func(_, value string) error {
			if len(value) > 1024 {
				return ErrQuotaExceeded
			}
			return nil
		},
	}
	repo := NewSessionRepository(kv)

	entries := []model.WineEntry{
		{ID: "1", Name: "奔富407", Image: string(make([]byte, 4096)), Type: model.WineTypeDrinking, Rating: 90},
	}
	require.True(t, repo.SaveCellar(ctx, "dev-1", entries))

	loaded := repo.LoadCellar(ctx, "dev-1")
	require.Len(t, loaded, 1)
	assert.Empty(t, loaded[0].Image)
	assert.Equal(t, "奔富407", loaded[0].Name)
	assert.Equal(t, 90, loaded[0].Rating)
}

func TestSessionRepository_Preferences(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(NewMemoryKV(0))

	assert.Equal(t, "", repo.Locale(ctx, "dev-1"))
	require.True(t, repo.SetLocale(ctx, "dev-1", "en"))
	assert.Equal(t, "en", repo.Locale(ctx, "dev-1"))

	// 未设置或非法值都回退到入门级
	assert.Equal(t, model.TastingLevelBeginner, repo.TastingLevel(ctx, "dev-1"))
	require.True(t, repo.SetTastingLevel(ctx, "dev-1", model.TastingLevelExpert))
	assert.Equal(t, model.TastingLevelExpert, repo.TastingLevel(ctx, "dev-1"))

	assert.False(t, repo.Onboarded(ctx, "dev-1"))
	require.True(t, repo.SetOnboarded(ctx, "dev-1", true))
	assert.True(t, repo.Onboarded(ctx, "dev-1"))
}
