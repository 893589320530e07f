package service

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestAIChatClientUsesExtendedTimeout(t *testing.T) {
	t.Parallel()

	client := newAIChatClient("gpt-4o-mini", "deepseek-chat")

	httpClient, ok := client.http.(*http.Client)
	if !ok {
		t.Fatalf("expected *http.Client, got %T", client.http)
	}
	if httpClient.Timeout < aiChatTimeout {
		t.Fatalf("default timeout should be at least %v, got %v", aiChatTimeout, httpClient.Timeout)
	}

	client.SetHTTPClient(nil)
	httpClient, ok = client.http.(*http.Client)
	if !ok {
		t.Fatalf("expected *http.Client after reset, got %T", client.http)
	}
	if httpClient.Timeout < aiChatTimeout {
		t.Fatalf("reset timeout should be at least %v, got %v", aiChatTimeout, httpClient.Timeout)
	}
}

func TestAIChatClientReportsProviderError(t *testing.T) {
	t.Parallel()

	client := newAIChatClient("gpt-4o-mini", "deepseek-chat")
	client.SetModel(AIProviderDeepSeek, "deepseek-reasoner")
	client.SetHTTPClient(fakeHTTPClient{handler: func(r *http.Request) (*http.Response, error) {
		if !strings.HasPrefix(r.URL.String(), "https://api.deepseek.com/v1/") {
			t.Fatalf("unexpected url %s", r.URL.String())
		}
		body := `{"error":{"message":"quota exceeded"}}`
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Status:     "429 Too Many Requests",
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
		}, nil
	}})

	settings := SystemSettings{AIProvider: AIProviderDeepSeek, DeepSeekAPIKey: "ds"}
	_, err := client.call(context.Background(), settings, aiChatRequest{UserPrompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") || !strings.Contains(err.Error(), "DeepSeek") {
		t.Fatalf("expected deepseek quota error, got %v", err)
	}
}

func TestAIChatClientRejectsEmptyChoices(t *testing.T) {
	t.Parallel()

	client := newAIChatClient("gpt-4o-mini", "deepseek-chat")
	client.SetHTTPClient(fakeHTTPClient{handler: func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{"choices":[]}`)), Header: make(http.Header)}, nil
	}})

	_, err := client.call(context.Background(), SystemSettings{OpenAIAPIKey: "sk"}, aiChatRequest{UserPrompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "未返回结果") {
		t.Fatalf("expected empty choices error, got %v", err)
	}
}
