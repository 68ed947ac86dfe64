package generation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bizgenius/api/internal/client"
)

// scriptedModelClient returns one scripted outcome per call and records every
// request it receives.
type scriptedModelClient struct {
	outcomes []scriptedOutcome
	requests []client.ChatRequest
}

type scriptedOutcome struct {
	payload json.RawMessage
	err     error
}

func (c *scriptedModelClient) CompleteJSON(_ context.Context, req client.ChatRequest) (json.RawMessage, error) {
	c.requests = append(c.requests, req)
	if len(c.outcomes) == 0 {
		return nil, errors.New("no scripted outcome left")
	}
	next := c.outcomes[0]
	c.outcomes = c.outcomes[1:]
	return next.payload, next.err
}

func newTestExecutor(mc ModelClient, sleeps *[]time.Duration) *StageExecutor {
	e := NewStageExecutor(mc, "primary-model", "fallback-model", 3, time.Second)
	e.sleep = func(_ context.Context, d time.Duration) error {
		if sleeps != nil {
			*sleeps = append(*sleeps, d)
		}
		return nil
	}
	return e
}

var testStage = StageDefinition{ID: "market", DisplayName: "Market Research", MaxOutputTokens: 2500}

func testGenCtx() *GenerationContext {
	return &GenerationContext{
		BusinessIdea: "A mobile app for dog walking services",
		PriorResults: map[string]json.RawMessage{},
	}
}

func TestGenerateStage_FirstAttemptSuccess(t *testing.T) {
	payload := json.RawMessage(`{"tam":{"value":"$4.2B"}}`)
	mc := &scriptedModelClient{outcomes: []scriptedOutcome{{payload: payload}}}

	var sleeps []time.Duration
	executor := newTestExecutor(mc, &sleeps)

	got, err := executor.GenerateStage(context.Background(), testStage, testGenCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("expected payload %s, got %s", payload, got)
	}

	if len(mc.requests) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(mc.requests))
	}
	if mc.requests[0].Model != "primary-model" {
		t.Errorf("first attempt should use the primary model, got %q", mc.requests[0].Model)
	}
	if mc.requests[0].MaxTokens != 2500 {
		t.Errorf("expected stage token budget 2500, got %d", mc.requests[0].MaxTokens)
	}
	if len(sleeps) != 0 {
		t.Errorf("no backoff expected on success, got %v", sleeps)
	}
}

func TestGenerateStage_FallbackModelOnRetry(t *testing.T) {
	payload := json.RawMessage(`{"ok":true}`)
	mc := &scriptedModelClient{outcomes: []scriptedOutcome{
		{err: &client.APIError{StatusCode: 500, Body: "upstream error"}},
		{payload: payload},
	}}

	var sleeps []time.Duration
	executor := newTestExecutor(mc, &sleeps)

	got, err := executor.GenerateStage(context.Background(), testStage, testGenCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("expected payload %s, got %s", payload, got)
	}

	if len(mc.requests) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(mc.requests))
	}
	if mc.requests[0].Model != "primary-model" {
		t.Errorf("attempt 0 should use the primary model, got %q", mc.requests[0].Model)
	}
	if mc.requests[1].Model != "fallback-model" {
		t.Errorf("attempt 1 should use the fallback model, got %q", mc.requests[1].Model)
	}

	if len(sleeps) != 1 || sleeps[0] != time.Second {
		t.Errorf("expected a single 1s backoff, got %v", sleeps)
	}
}

func TestGenerateStage_ExponentialBackoff(t *testing.T) {
	mc := &scriptedModelClient{outcomes: []scriptedOutcome{
		{err: errors.New("attempt 1 failed")},
		{err: errors.New("attempt 2 failed")},
		{err: errors.New("attempt 3 failed")},
	}}

	var sleeps []time.Duration
	executor := newTestExecutor(mc, &sleeps)

	_, err := executor.GenerateStage(context.Background(), testStage, testGenCtx())
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}

	// Two sleeps between three attempts, none after the final one.
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(sleeps) != len(want) {
		t.Fatalf("expected %d backoffs, got %v", len(want), sleeps)
	}
	for i, d := range want {
		if sleeps[i] != d {
			t.Errorf("backoff %d: expected %v, got %v", i, d, sleeps[i])
		}
	}
}

func TestGenerateStage_ExhaustionReturnsTypedError(t *testing.T) {
	lastErr := &client.ParseError{Snippet: "not json"}
	mc := &scriptedModelClient{outcomes: []scriptedOutcome{
		{err: errors.New("attempt 1 failed")},
		{err: errors.New("attempt 2 failed")},
		{err: lastErr},
	}}

	executor := newTestExecutor(mc, nil)

	_, err := executor.GenerateStage(context.Background(), testStage, testGenCtx())

	var exhausted *StageExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *StageExhaustedError, got %T: %v", err, err)
	}
	if exhausted.StageID != "market" {
		t.Errorf("expected stage id market, got %q", exhausted.StageID)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", exhausted.Attempts)
	}

	var parseErr *client.ParseError
	if !errors.As(err, &parseErr) {
		t.Error("exhaustion error should wrap the last attempt's error")
	}
}

func TestGenerateStage_ParseFailureThenSuccess(t *testing.T) {
	payload := json.RawMessage(`{"recovered":true}`)
	mc := &scriptedModelClient{outcomes: []scriptedOutcome{
		{err: &client.ParseError{Snippet: "I think the market is..."}},
		{payload: payload},
	}}

	executor := newTestExecutor(mc, nil)

	got, err := executor.GenerateStage(context.Background(), testStage, testGenCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("expected payload %s, got %s", payload, got)
	}
}

func TestGenerateStage_CancelledDuringBackoff(t *testing.T) {
	mc := &scriptedModelClient{outcomes: []scriptedOutcome{
		{err: errors.New("attempt 1 failed")},
		{payload: json.RawMessage(`{"never":"reached"}`)},
	}}

	executor := NewStageExecutor(mc, "primary-model", "fallback-model", 3, time.Second)
	executor.sleep = sleepContext

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := executor.GenerateStage(ctx, testStage, testGenCtx())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(mc.requests) != 1 {
		t.Errorf("expected no further attempts after cancellation, got %d calls", len(mc.requests))
	}
}
