package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/athletetrack/internal/db"
)

func chatResponse(t *testing.T, content string) *http.Response {
	t.Helper()
	response := chatCompletionResponse{
		Choices: []struct {
			Message chatMessage "json:\"message\""
		}{{Message: chatMessage{Role: "assistant", Content: content}}},
		Usage: struct {
			PromptTokens     int "json:\"prompt_tokens\""
			CompletionTokens int "json:\"completion_tokens\""
		}{PromptTokens: 120, CompletionTokens: 480},
	}
	buf, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(buf)),
		Header:     make(http.Header),
	}
}

func TestTrainingPlanServiceGenerate(t *testing.T) {
	gdb := openServiceTestDB(t)
	user := createTestUser(t, gdb, "xia", "soccer", "UTC")
	ctx := context.Background()

	progress := NewSkillProgressService(gdb)
	node := findSkillNode(t, gdb, "sc_first_touch")
	progress.ApplySkillProgress(ctx, user.ID, []uint{node.ID}, 200)
	if _, err := NewProgressionService(gdb).ApplyXP(ctx, user.ID, 450, CalendarDay(time.Now()), SourceDrill); err != nil {
		t.Fatalf("seed xp: %v", err)
	}

	system := NewSystemSettingService(gdb, AIDefaults{})
	if _, err := system.UpdateSettings(ctx, SystemSettingsInput{
		AIProvider:   AIProviderOpenAI,
		OpenAIAPIKey: strPtr("sk-test"),
		PlanPrompt:   strPtr("你是一名青少年足球教练"),
	}); err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}

	svc := NewTrainingPlanService(gdb, system, nil)
	svc.SetBaseURL(AIProviderOpenAI, "https://openai.test/v1")
	svc.SetHTTPClient(fakeHTTPClient{handler: func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Fatalf("unexpected authorization header %s", got)
		}

		var payload chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if payload.Model != defaultOpenAIPlanModel {
			t.Fatalf("unexpected model %q", payload.Model)
		}
		if len(payload.Messages) != 2 || payload.Messages[0].Content != "你是一名青少年足球教练" {
			t.Fatalf("unexpected system prompt: %#v", payload.Messages)
		}
		prompt := payload.Messages[1].Content
		for _, want := range []string{"Sport: soccer", "Athlete level: 3", "First Touch", "Goal: improve weak foot", "2 weeks, 3 sessions"} {
			if !strings.Contains(prompt, want) {
				t.Fatalf("prompt missing %q: %s", want, prompt)
			}
		}
		return chatResponse(t, "## Week 1\n- Wall passes"), nil
	}})

	plan, err := svc.Generate(ctx, user.ID, PlanInput{Goal: "improve weak foot", Weeks: 2})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if plan.Content != "## Week 1\n- Wall passes" || plan.Provider != AIProviderOpenAI || plan.SessionsPerWeek != defaultPlanSessions {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if plan.PromptTokens != 120 || plan.CompletionTokens != 480 {
		t.Fatalf("unexpected usage: %+v", plan)
	}

	plans, err := svc.List(ctx, user.ID)
	if err != nil || len(plans) != 1 {
		t.Fatalf("List: %v (%d)", err, len(plans))
	}
	if _, err := svc.Get(ctx, user.ID+1, plan.ID); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound for other user, got %v", err)
	}
}

func TestTrainingPlanServiceRequiresAPIKey(t *testing.T) {
	gdb := openServiceTestDB(t)
	user := createTestUser(t, gdb, "yan", "basketball", "UTC")
	svc := NewTrainingPlanService(gdb, NewSystemSettingService(gdb, AIDefaults{}), nil)
	svc.SetHTTPClient(fakeHTTPClient{handler: func(r *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected without api key")
		return nil, nil
	}})

	if _, err := svc.Generate(context.Background(), user.ID, PlanInput{Goal: "dribbling"}); !errors.Is(err, ErrAIAPIKeyMissing) {
		t.Fatalf("expected ErrAIAPIKeyMissing, got %v", err)
	}
	if _, err := svc.Generate(context.Background(), user.ID, PlanInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing goal, got %v", err)
	}
	if _, err := svc.Generate(context.Background(), user.ID, PlanInput{Goal: "x", Weeks: 20}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for too many weeks, got %v", err)
	}

	var count int64
	gdb.Model(&db.TrainingPlan{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no plans to be stored, got %d", count)
	}
}
