package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Mrpixelraf/wine-advisor/internal/model"
	"github.com/Mrpixelraf/wine-advisor/internal/repository"
	"github.com/Mrpixelraf/wine-advisor/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM 以固定分块序列回放，或返回预置错误。
// release 非空时流式过程阻塞在首个分块前，用于并发互斥测试。
type fakeLLM struct {
	mu        sync.Mutex
	fragments []string
	err       error
	release   chan struct{}
	calls     [][]llm.Message
}

func (f *fakeLLM) StreamChat(ctx context.Context, messages []llm.Message, locale string, sink llm.StreamSink) error {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return f.err
	}
	for _, frag := range f.fragments {
		if err := sink.WriteFragment(frag); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeLLM) lastCall() []llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// collectSink 记录转发给展示层的分块。
type collectSink struct {
	fragments []string
}

func (c *collectSink) WriteFragment(text string) error {
	c.fragments = append(c.fragments, text)
	return nil
}

func newChatFixture(fake *fakeLLM) (ChatService, repository.SessionRepository) {
	repo := repository.NewSessionRepository(repository.NewMemoryKV(0))
	return NewChatService(repo, fake, 20), repo
}

func TestSend_CommitsAssistantMessage(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{fragments: []string{"这款波尔多", "的赤霞珠", "很浓郁。"}}
	svc, repo := newChatFixture(fake)
	sink := &collectSink{}

	result, err := svc.Send(ctx, "dev-1", "推荐一款红酒", "", "", sink)
	require.NoError(t, err)

	// 分块按到达顺序转发，最终消息等于全部分块拼接
	assert.Equal(t, []string{"这款波尔多", "的赤霞珠", "很浓郁。"}, sink.fragments)
	assert.Equal(t, "这款波尔多的赤霞珠很浓郁。", result.Message.Content)
	assert.False(t, result.Message.IsError)
	assert.False(t, result.StorageFull)

	history := repo.LoadMessages(ctx, "dev-1")
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, model.RoleAssistant, history[1].Role)
}

func TestSend_UpdatesTasteProfileOnCommit(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{fragments: []string{"推荐勃艮第的黑皮诺，500-800元。"}}
	svc, repo := newChatFixture(fake)

	_, err := svc.Send(ctx, "dev-1", "有什么推荐", "", "", nil)
	require.NoError(t, err)

	profile := repo.LoadProfile(ctx, "dev-1")
	assert.Equal(t, []string{"勃艮第"}, profile.Regions)
	assert.Equal(t, []string{"黑皮诺"}, profile.Grapes)
	assert.Equal(t, "500-800", profile.PriceRange)
}

func TestSend_AttachesActions(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{fragments: []string{"我识别出这款酒是奔富407。"}}
	svc, _ := newChatFixture(fake)

	result, err := svc.Send(ctx, "dev-1", "这是什么酒", "base64img", "image/jpeg", nil)
	require.NoError(t, err)
	require.Len(t, result.Message.Actions, 2)
	assert.Equal(t, "想买这款酒", result.Message.Actions[0].Label)
}

func TestSend_EmptyMessageRejected(t *testing.T) {
	fake := &fakeLLM{}
	svc, _ := newChatFixture(fake)

	_, err := svc.Send(context.Background(), "dev-1", "   ", "", "", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	// 纯图片消息可以发送
	fake.fragments = []string{"我识别出这款酒。"}
	_, err = svc.Send(context.Background(), "dev-1", "", "img", "image/png", nil)
	assert.NoError(t, err)
}

func TestSend_BusyIsNoOp(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{fragments: []string{"好的。"}, release: make(chan struct{})}
	svc, repo := newChatFixture(fake)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Send(ctx, "dev-1", "第一条", "", "", nil)
	}()

	// 等首条请求进入流式阶段
	for {
		fake.mu.Lock()
		started := len(fake.calls) > 0
		fake.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	_, err := svc.Send(ctx, "dev-1", "第二条", "", "", nil)
	assert.ErrorIs(t, err, ErrBusy)

	close(fake.release)
	<-done

	// 被拒绝的请求没有留下任何痕迹
	history := repo.LoadMessages(ctx, "dev-1")
	require.Len(t, history, 2)
	assert.Equal(t, "第一条", history[0].Content)
}

func TestSend_FailureAppendsErrorMessage(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{err: &llm.StatusError{Code: 429}}
	svc, repo := newChatFixture(fake)

	result, err := svc.Send(ctx, "dev-1", "推荐波尔多", "", "", nil)
	require.NoError(t, err)
	assert.True(t, result.Message.IsError)
	assert.Equal(t, "请求过于频繁，请稍后重试", result.Message.Content)

	history := repo.LoadMessages(ctx, "dev-1")
	require.Len(t, history, 2)
	assert.Equal(t, "推荐波尔多", history[0].Content)
	assert.True(t, history[1].IsError)

	// 失败的交互不更新口味画像
	assert.Empty(t, repo.LoadProfile(ctx, "dev-1").Regions)
}

func TestSend_FailureClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"限流", &llm.StatusError{Code: 429}, "请求过于频繁，请稍后重试"},
		{"服务不可用", &llm.StatusError{Code: 503}, "服务暂时不可用，请稍后重试"},
		{"服务器错误", &llm.StatusError{Code: 500}, "服务器内部错误"},
		{"请求失败", &llm.StatusError{Code: 400}, "请求失败"},
		{"网络错误", context.DeadlineExceeded, "网络连接失败，请检查网络后重试"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newChatFixture(&fakeLLM{err: tt.err})
			result, err := svc.Send(context.Background(), "dev-1", "你好", "", "", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Message.Content)
		})
	}
}

func TestRetryLast_ResendsFailedTurn(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{err: &llm.StatusError{Code: 503}}
	svc, repo := newChatFixture(fake)

	_, err := svc.Send(ctx, "dev-1", "推荐一款酒", "", "", nil)
	require.NoError(t, err)
	require.Len(t, repo.LoadMessages(ctx, "dev-1"), 2)

	// 后端恢复
	fake.err = nil
	fake.fragments = []string{"推荐这款波尔多。"}

	result, err := svc.RetryLast(ctx, "dev-1", nil)
	require.NoError(t, err)
	assert.False(t, result.Message.IsError)

	// 错误消息被移除，历史里只有一问一答
	history := repo.LoadMessages(ctx, "dev-1")
	require.Len(t, history, 2)
	assert.Equal(t, "推荐一款酒", history[0].Content)
	assert.Equal(t, "推荐这款波尔多。", history[1].Content)
}

func TestRetryLast_NoTarget(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{fragments: []string{"好的。"}}
	svc, _ := newChatFixture(fake)

	// 空历史
	_, err := svc.RetryLast(ctx, "dev-1", nil)
	assert.ErrorIs(t, err, ErrNoRetryTarget)

	// 尾部是成功回复，同样无目标
	_, err = svc.Send(ctx, "dev-1", "你好", "", "", nil)
	require.NoError(t, err)
	_, err = svc.RetryLast(ctx, "dev-1", nil)
	assert.ErrorIs(t, err, ErrNoRetryTarget)

	// 拒绝后状态机已释放，正常发送不受影响
	_, err = svc.Send(ctx, "dev-1", "再来一条", "", "", nil)
	assert.NoError(t, err)
}

func TestOutgoing_FiltersErrorsKeepsHidden(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{err: &llm.StatusError{Code: 500}}
	svc, _ := newChatFixture(fake)

	// 留下一条错误消息，再用隐藏开场白的场景发起下一轮
	_, err := svc.Send(ctx, "dev-1", "第一问", "", "", nil)
	require.NoError(t, err)

	fake.err = nil
	fake.fragments = []string{"好的，请上传酒标照片。"}
	_, err = svc.StartScene(ctx, "dev-1", "identify", nil)
	require.NoError(t, err)

	sent := fake.lastCall()
	for _, m := range sent {
		assert.NotEqual(t, "服务器内部错误", m.Content, "错误消息不能发往后端")
	}
	// 隐藏的开场白在上下文里
	assert.Equal(t, "我手上有一瓶酒，想详细了解它。请帮我识别并介绍这款酒。", sent[len(sent)-1].Content)
}

func TestStartScene_HiddenFlag(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{fragments: []string{"请上传照片。"}}
	svc, repo := newChatFixture(fake)

	_, err := svc.StartScene(ctx, "dev-1", "identify", nil)
	require.NoError(t, err)

	history := repo.LoadMessages(ctx, "dev-1")
	require.Len(t, history, 2)
	assert.True(t, history[0].Hidden)

	_, err = svc.StartScene(ctx, "dev-1", "restaurant", nil)
	require.NoError(t, err)
	history = repo.LoadMessages(ctx, "dev-1")
	assert.False(t, history[2].Hidden)

	_, err = svc.StartScene(ctx, "dev-1", "nope", nil)
	assert.Error(t, err)
}

func TestHistoryLimitWindow(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{fragments: []string{"好的。"}}
	repo := repository.NewSessionRepository(repository.NewMemoryKV(0))
	svc := NewChatService(repo, fake, 4)

	for i := 0; i < 5; i++ {
		_, err := svc.Send(ctx, "dev-1", "问题", "", "", nil)
		require.NoError(t, err)
	}

	// 发往后端的上下文窗口不超过上限
	assert.LessOrEqual(t, len(fake.lastCall()), 4)
	// 持久化历史不截断
	assert.Len(t, repo.LoadMessages(ctx, "dev-1"), 10)
}

func TestClickAction_WriteOnce(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{fragments: []string{"我识别出这款酒是奔富407。"}}
	svc, _ := newChatFixture(fake)

	result, err := svc.Send(ctx, "dev-1", "识别", "img", "image/jpeg", nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Message.Actions)
	actionID := result.Message.Actions[0].ID

	outcome, err := svc.ClickAction(ctx, "dev-1", actionID)
	require.NoError(t, err)
	assert.True(t, outcome.Performed)
	assert.Equal(t, "我想买这款酒，请给我详细评价", outcome.AutoSend)

	// 重复点击是空操作
	outcome, err = svc.ClickAction(ctx, "dev-1", actionID)
	require.NoError(t, err)
	assert.False(t, outcome.Performed)

	_, err = svc.ClickAction(ctx, "dev-1", "nonexistent")
	assert.ErrorIs(t, err, ErrActionNotFound)
}

// quotaTrippedRepo 在 trip 置位后让 SaveMessages 失败，模拟点击
// 时刻存储配额耗尽。
type quotaTrippedRepo struct {
	repository.SessionRepository
	trip bool
}

func (r *quotaTrippedRepo) SaveMessages(ctx context.Context, sid string, messages []model.Message) bool {
	if r.trip {
		return false
	}
	return r.SessionRepository.SaveMessages(ctx, sid, messages)
}

func TestClickAction_StorageFullSurfaced(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{fragments: []string{"我识别出这款酒是奔富407。"}}
	repo := &quotaTrippedRepo{SessionRepository: repository.NewSessionRepository(repository.NewMemoryKV(0))}
	svc := NewChatService(repo, fake, 20)

	result, err := svc.Send(ctx, "dev-1", "识别", "img", "image/jpeg", nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Message.Actions)

	// 点击时落盘失败要上报，按钮本身照常生效
	repo.trip = true
	outcome, err := svc.ClickAction(ctx, "dev-1", result.Message.Actions[0].ID)
	require.NoError(t, err)
	assert.True(t, outcome.Performed)
	assert.True(t, outcome.StorageFull)
}

func TestClearConversation_KeepsProfileAndCellar(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{fragments: []string{"推荐波尔多的赤霞珠。"}}
	svc, repo := newChatFixture(fake)

	_, err := svc.Send(ctx, "dev-1", "推荐", "", "", nil)
	require.NoError(t, err)
	repo.SaveCellar(ctx, "dev-1", []model.WineEntry{{ID: "1", Name: "奔富"}})

	require.NoError(t, svc.ClearConversation(ctx, "dev-1"))

	assert.Empty(t, repo.LoadMessages(ctx, "dev-1"))
	assert.NotEmpty(t, repo.LoadProfile(ctx, "dev-1").Regions)
	assert.Len(t, repo.LoadCellar(ctx, "dev-1"), 1)
}

func TestSummarize_NotInHistory(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{fragments: []string{"这是一段", "品鉴笔记。"}}
	svc, repo := newChatFixture(fake)
	sink := &collectSink{}

	report, err := svc.Summarize(ctx, "dev-1", "生成品鉴笔记", sink)
	require.NoError(t, err)
	assert.Equal(t, "这是一段品鉴笔记。", report)
	assert.Equal(t, []string{"这是一段", "品鉴笔记。"}, sink.fragments)

	// 旁路请求不进入对话历史，也不更新画像
	assert.Empty(t, repo.LoadMessages(ctx, "dev-1"))
	assert.Empty(t, repo.LoadProfile(ctx, "dev-1").Regions)
}

func TestSend_StorageFullReported(t *testing.T) {
	ctx := context.Background()
	fake := &fakeLLM{fragments: []string{"好的。"}}
	// 配额小到任何历史都写不进去
	repo := repository.NewSessionRepository(repository.NewMemoryKV(16))
	svc := NewChatService(repo, fake, 20)

	result, err := svc.Send(ctx, "dev-1", "推荐一款酒", "", "", nil)
	require.NoError(t, err)
	assert.True(t, result.StorageFull)
	assert.Equal(t, "好的。", result.Message.Content)
}
