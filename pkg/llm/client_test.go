package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Mrpixelraf/wine-advisor/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fragmentSink struct {
	fragments []string
}

func (s *fragmentSink) WriteFragment(text string) error {
	s.fragments = append(s.fragments, text)
	return nil
}

func testConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "gemini-2.5-pro",
		Retry: config.LLMRetryConfig{
			MaxRetries:      3,
			BaseDelayMillis: 1,
		},
	}
}

func sseChunk(text string) string {
	payload, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return fmt.Sprintf("data: %s\n\n", payload)
}

func TestStreamChat_ConcatenatesFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("你好"))
		fmt.Fprint(w, sseChunk("，这款酒"))
		fmt.Fprint(w, sseChunk("不错。"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	sink := &fragmentSink{}
	err := client.StreamChat(context.Background(), []Message{{Role: "user", Content: "你好"}}, "zh", sink)

	require.NoError(t, err)
	assert.Equal(t, []string{"你好", "，这款酒", "不错。"}, sink.fragments)
}

func TestStreamChat_SkipsMalformedEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {not valid json\n\n")
		fmt.Fprint(w, ": comment line\n\n")
		fmt.Fprint(w, sseChunk("有效分块"))
		fmt.Fprint(w, "data: {\"candidates\":[]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	sink := &fragmentSink{}
	err := client.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}}, "zh", sink)

	require.NoError(t, err)
	assert.Equal(t, []string{"有效分块"}, sink.fragments)
}

func TestStreamChat_RetriesTransientStatus(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, sseChunk("恢复后的回复"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	sink := &fragmentSink{}
	err := client.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}}, "zh", sink)

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, []string{"恢复后的回复"}, sink.fragments)
}

func TestStreamChat_PermanentStatusFailsFast(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"bad request"}`)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	err := client.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}}, "zh", &fragmentSink{})

	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusBadRequest, serr.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "非瞬时状态不应重试")
}

func TestStreamChat_RetriesExhausted(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	err := client.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}}, "zh", &fragmentSink{})

	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusServiceUnavailable, serr.Code)
	// 首次 + MaxRetries 次重试
	assert.Equal(t, int32(4), atomic.LoadInt32(&attempts))
}

func TestBuildRequest_RoleAndImageMapping(t *testing.T) {
	client := NewClient(testConfig("http://example")).(*geminiClient)

	req := client.buildRequest([]Message{
		{Role: "user", Content: "识别一下", Image: "data:image/jpeg;base64,QUJD", ImageMimeType: "image/jpeg"},
		{Role: "assistant", Content: "这是一款奔富407。"},
		{Role: "user", Content: "", Image: ""},
	}, "zh")

	require.Len(t, req.Contents, 3)

	// 用户消息：文本 + 剥掉 data-URI 前缀的内联图片
	assert.Equal(t, "user", req.Contents[0].Role)
	require.Len(t, req.Contents[0].Parts, 2)
	assert.Equal(t, "识别一下", req.Contents[0].Parts[0].Text)
	assert.Equal(t, "QUJD", req.Contents[0].Parts[1].InlineData.Data)
	assert.Equal(t, "image/jpeg", req.Contents[0].Parts[1].InlineData.MimeType)

	// assistant 映射为 model
	assert.Equal(t, "model", req.Contents[1].Role)

	// 空消息补一个空文本 part
	require.Len(t, req.Contents[2].Parts, 1)
	assert.Equal(t, "", req.Contents[2].Parts[0].Text)

	// 系统提示按语言注入
	require.NotNil(t, req.SystemInstruction)
	assert.Contains(t, req.SystemInstruction.Parts[0].Text, "颂美")
}

func TestBuildRequest_DefaultsImageMime(t *testing.T) {
	client := NewClient(testConfig("http://example")).(*geminiClient)
	req := client.buildRequest([]Message{{Role: "user", Image: "QUJD"}}, "en")

	require.Len(t, req.Contents[0].Parts, 1)
	assert.Equal(t, "image/jpeg", req.Contents[0].Parts[0].InlineData.MimeType)
	assert.Equal(t, "QUJD", req.Contents[0].Parts[0].InlineData.Data)
}

func TestStatusError_Retryable(t *testing.T) {
	assert.True(t, (&StatusError{Code: 429}).Retryable())
	assert.True(t, (&StatusError{Code: 503}).Retryable())
	assert.False(t, (&StatusError{Code: 400}).Retryable())
	assert.False(t, (&StatusError{Code: 500}).Retryable())
}
