package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/bizgenius/api/internal/client"
	"github.com/bizgenius/api/internal/model"
)

type fakeModelClient struct {
	payload json.RawMessage
	err     error
	lastReq client.ChatRequest
}

func (f *fakeModelClient) CompleteJSON(_ context.Context, req client.ChatRequest) (json.RawMessage, error) {
	f.lastReq = req
	return f.payload, f.err
}

func TestQuestionGenerate_NilClientUsesCannedSet(t *testing.T) {
	svc := NewQuestionService(nil, "fast-model")

	resp, err := svc.Generate(context.Background(), &model.QuestionGenerateRequest{
		BusinessIdea: "A mobile app for dog walking services",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Questions) != 4 {
		t.Fatalf("expected 4 canned questions, got %d", len(resp.Questions))
	}
	if resp.Questions[0].ID != "target_customer" {
		t.Errorf("expected first canned question target_customer, got %q", resp.Questions[0].ID)
	}
}

func TestQuestionGenerate_ModelFailureUsesCannedSet(t *testing.T) {
	mc := &fakeModelClient{err: errors.New("provider down")}
	svc := NewQuestionService(mc, "fast-model")

	resp, err := svc.Generate(context.Background(), &model.QuestionGenerateRequest{
		BusinessIdea: "A mobile app for dog walking services",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Questions) != 4 {
		t.Fatalf("expected 4 canned questions, got %d", len(resp.Questions))
	}
}

func TestQuestionGenerate_ModelSuccess(t *testing.T) {
	mc := &fakeModelClient{payload: json.RawMessage(`{
		"questions": [
			{
				"id": "walker_vetting",
				"question": "How will you vet dog walkers?",
				"why_important": "Trust is the core purchase barrier for pet services",
				"category": "operational",
				"mece_dimension": "operational",
				"options": [
					{"value": "background_checks", "label": "Background checks"},
					{"value": "other", "label": "Other"}
				],
				"allow_custom_input": true
			}
		]
	}`)}
	svc := NewQuestionService(mc, "fast-model")

	resp, err := svc.Generate(context.Background(), &model.QuestionGenerateRequest{
		BusinessIdea: "A mobile app for dog walking services",
		Count:        1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(resp.Questions))
	}
	if resp.Questions[0].ID != "walker_vetting" {
		t.Errorf("expected model question, got %q", resp.Questions[0].ID)
	}

	if mc.lastReq.Model != "fast-model" {
		t.Errorf("expected the fast model, got %q", mc.lastReq.Model)
	}
	if !strings.Contains(mc.lastReq.User, "A mobile app for dog walking services") {
		t.Error("prompt does not reference the business idea")
	}
}

func TestQuestionGenerate_TruncatesToCount(t *testing.T) {
	var questions []model.SmartQuestion
	for _, id := range []string{"q1", "q2", "q3", "q4", "q5", "q6"} {
		questions = append(questions, model.SmartQuestion{ID: id, Question: "?"})
	}
	payload, err := json.Marshal(model.QuestionGenerateResponse{Questions: questions})
	if err != nil {
		t.Fatal(err)
	}

	svc := NewQuestionService(&fakeModelClient{payload: payload}, "fast-model")

	resp, err := svc.Generate(context.Background(), &model.QuestionGenerateRequest{
		BusinessIdea: "A subscription coffee service",
		Count:        3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Questions) != 3 {
		t.Errorf("expected 3 questions after truncation, got %d", len(resp.Questions))
	}
}

func TestQuestionGenerate_UnusableResponseUsesCannedSet(t *testing.T) {
	svc := NewQuestionService(&fakeModelClient{payload: json.RawMessage(`{"questions": []}`)}, "fast-model")

	resp, err := svc.Generate(context.Background(), &model.QuestionGenerateRequest{
		BusinessIdea: "A subscription coffee service",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Questions) != 4 {
		t.Fatalf("expected canned fallback, got %d questions", len(resp.Questions))
	}
}
