package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const aiChatTimeout = 2 * time.Minute

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type aiChatRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

type aiChatResponse struct {
	Provider         string
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// aiEndpoint 单个平台的地址与模型
type aiEndpoint struct {
	label   string
	baseURL string
	model   string
}

// aiChatClient 调用 OpenAI 兼容的 chat/completions 接口
type aiChatClient struct {
	http      httpDoer
	endpoints map[string]*aiEndpoint
}

func newAIChatClient(openAIModel, deepSeekModel string) *aiChatClient {
	return &aiChatClient{
		http: &http.Client{Timeout: aiChatTimeout},
		endpoints: map[string]*aiEndpoint{
			AIProviderOpenAI:   {label: "OpenAI", baseURL: "https://api.openai.com/v1", model: strings.TrimSpace(openAIModel)},
			AIProviderDeepSeek: {label: "DeepSeek", baseURL: "https://api.deepseek.com/v1", model: strings.TrimSpace(deepSeekModel)},
		},
	}
}

func (c *aiChatClient) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: aiChatTimeout}
		return
	}
	c.http = client
}

func (c *aiChatClient) SetBaseURL(provider, base string) {
	if endpoint, ok := c.endpoints[normalizeAIProvider(provider)]; ok {
		endpoint.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

func (c *aiChatClient) SetModel(provider, model string) {
	model = strings.TrimSpace(model)
	if model == "" {
		return
	}
	if endpoint, ok := c.endpoints[normalizeAIProvider(provider)]; ok {
		endpoint.model = model
	}
}

func (c *aiChatClient) call(ctx context.Context, settings SystemSettings, req aiChatRequest) (aiChatResponse, error) {
	provider := normalizeAIProvider(settings.AIProvider)
	if provider == "" {
		provider = AIProviderOpenAI
	}
	endpoint := c.endpoints[provider]

	apiKey := settings.APIKey()
	if apiKey == "" {
		return aiChatResponse{}, ErrAIAPIKeyMissing
	}

	client := c.http
	if client == nil {
		client = http.DefaultClient
	}

	payload := chatCompletionRequest{
		Model: endpoint.model,
		Messages: []chatMessage{
			{Role: "system", Content: strings.TrimSpace(req.SystemPrompt)},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens:   max(req.MaxTokens, 0),
		Temperature: req.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return aiChatResponse{}, fmt.Errorf("构造请求失败: %w", err)
	}

	url := strings.TrimRight(endpoint.baseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return aiChatResponse{}, fmt.Errorf("创建 %s 请求失败: %w", endpoint.label, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "athletetrack/1.0")

	resp, err := client.Do(httpReq)
	if err != nil {
		return aiChatResponse{}, fmt.Errorf("请求 %s 接口失败: %w", endpoint.label, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return aiChatResponse{}, fmt.Errorf("读取 %s 响应失败: %w", endpoint.label, err)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return aiChatResponse{}, fmt.Errorf("%s 接口返回错误：%s", endpoint.label, resp.Status)
		}
		return aiChatResponse{}, fmt.Errorf("解析 %s 响应失败: %w", endpoint.label, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		errMsg := strings.TrimSpace(completion.Error.Message)
		if errMsg == "" {
			errMsg = resp.Status
		}
		return aiChatResponse{}, fmt.Errorf("%s 接口返回错误：%s", endpoint.label, errMsg)
	}

	if len(completion.Choices) == 0 {
		return aiChatResponse{}, fmt.Errorf("%s 接口未返回结果", endpoint.label)
	}

	return aiChatResponse{
		Provider:         provider,
		Content:          strings.TrimSpace(completion.Choices[0].Message.Content),
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
	}, nil
}
