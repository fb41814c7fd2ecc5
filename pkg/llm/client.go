// Package llm 封装对大模型流式文本/图像补全服务的访问。
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Mrpixelraf/wine-advisor/internal/config"
)

// Message 是发往后端的一条角色消息，图片为 base64（可带 data-URI 前缀）。
type Message struct {
	Role          string `json:"role"`
	Content       string `json:"content"`
	Image         string `json:"image,omitempty"`
	ImageMimeType string `json:"imageMimeType,omitempty"`
}

// StreamSink 接收流式返回的文本分块。
type StreamSink interface {
	WriteFragment(text string) error
}

// Client 定义了模型后端客户端的接口。
type Client interface {
	// StreamChat 发送一轮多模态对话并把增量文本写入 sink。
	// 连接级瞬时失败（网络错误、429/503）按指数退避自动重试；
	// 其余非 2xx 状态立即以 *StatusError 返回。
	StreamChat(ctx context.Context, messages []Message, locale string, sink StreamSink) error
}

// StatusError 表示后端返回的非 2xx 初始状态。
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm backend returned status %d: %s", e.Code, e.Body)
}

// Retryable 判断该状态是否属于可自动重试的瞬时失败。
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code == http.StatusServiceUnavailable
}

type geminiClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient 创建一个新的 LLM 客户端实例。
func NewClient(cfg config.LLMConfig) Client {
	return &geminiClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// Gemini 请求/响应结构。
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiGenConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiChunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

var dataURIPrefix = regexp.MustCompile(`^data:image/[a-z]+;base64,`)

// buildRequest 把角色消息转成 Gemini 的多模态轮次格式：
// assistant 映射为 model 角色，内联图片剥掉 data-URI 前缀。
func (c *geminiClient) buildRequest(messages []Message, locale string) geminiRequest {
	contents := make([]geminiContent, 0, len(messages))
	for _, m := range messages {
		var parts []geminiPart
		if m.Content != "" {
			parts = append(parts, geminiPart{Text: m.Content})
		}
		if m.Image != "" {
			mime := m.ImageMimeType
			if mime == "" {
				mime = "image/jpeg"
			}
			parts = append(parts, geminiPart{InlineData: &geminiInlineData{
				MimeType: mime,
				Data:     dataURIPrefix.ReplaceAllString(m.Image, ""),
			}})
		}
		if len(parts) == 0 {
			parts = append(parts, geminiPart{Text: ""})
		}
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: parts})
	}

	return geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt(locale)}}},
		Contents:          contents,
		GenerationConfig: geminiGenConfig{
			MaxOutputTokens: c.cfg.Generation.MaxOutputTokens,
			Temperature:     c.cfg.Generation.Temperature,
		},
	}
}

// open 建立流式连接。只有连接建立阶段参与退避重试，流一旦打开
// 就不再重试，避免向 sink 重复投递分块。
func (c *geminiClient) open(ctx context.Context, body []byte) (*http.Response, error) {
	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s",
		c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)

	var resp *http.Response
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("构造请求失败: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		r, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("调用模型后端失败: %w", err)
		}
		if r.StatusCode == http.StatusOK {
			resp = r
			return nil
		}
		b, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
		_ = r.Body.Close()
		serr := &StatusError{Code: r.StatusCode, Body: string(b)}
		if serr.Retryable() {
			return serr
		}
		return backoff.Permanent(serr)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = time.Duration(c.cfg.Retry.BaseDelayMillis) * time.Millisecond
	expo.Multiplier = 2
	expo.RandomizationFactor = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(c.cfg.Retry.MaxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *geminiClient) StreamChat(ctx context.Context, messages []Message, locale string, sink StreamSink) error {
	reqBody, err := json.Marshal(c.buildRequest(messages, locale))
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	resp, err := c.open(ctx, reqBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("读取事件流失败: %w", err)
		}

		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			break
		}

		// 无法解析的事件载荷直接跳过，不中断整个流
		var chunk geminiChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Candidates) == 0 || len(chunk.Candidates[0].Content.Parts) == 0 {
			continue
		}
		text := chunk.Candidates[0].Content.Parts[0].Text
		if text == "" {
			continue
		}
		if err := sink.WriteFragment(text); err != nil {
			return fmt.Errorf("写入流式分块失败: %w", err)
		}
	}
	return nil
}
