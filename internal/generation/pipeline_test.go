package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bizgenius/api/internal/client"
	"github.com/bizgenius/api/internal/model"
)

// memorySessionStore holds one session in memory and records every update in
// call order.
type memorySessionStore struct {
	session *model.GenerationSession
	updates []model.SessionUpdate
}

func newMemorySessionStore(idea string, answers map[string]string) *memorySessionStore {
	return &memorySessionStore{
		session: &model.GenerationSession{
			SessionID:    "sess_1700000000000_abcdefabcdefa",
			UserID:       "user-1",
			BusinessIdea: idea,
			Answers:      answers,
			Status:       model.SessionStatusPending,
		},
	}
}

func (s *memorySessionStore) ReadSession(_ context.Context, sessionID string) (*model.GenerationSession, error) {
	if sessionID != s.session.SessionID {
		return nil, errors.New("not found")
	}
	copied := *s.session
	return &copied, nil
}

func (s *memorySessionStore) WriteSessionStatus(_ context.Context, _ string, update model.SessionUpdate) error {
	s.updates = append(s.updates, update)
	if update.Status != nil {
		s.session.Status = *update.Status
	}
	if update.CurrentStep != nil {
		s.session.CurrentStep = *update.CurrentStep
	}
	if update.Progress != nil {
		s.session.Progress = *update.Progress
	}
	if update.Result != nil {
		s.session.Result = update.Result
	}
	if update.ErrorMessage != nil {
		s.session.ErrorMessage = update.ErrorMessage
	}
	return nil
}

// stagePayloadClient succeeds every call, returning a distinct payload per
// stage, except for the stages listed in failOn which always error.
type stagePayloadClient struct {
	requests []client.ChatRequest
	failOn   map[string]bool
	calls    int
}

func (c *stagePayloadClient) CompleteJSON(_ context.Context, req client.ChatRequest) (json.RawMessage, error) {
	c.requests = append(c.requests, req)
	c.calls++
	for stageID := range c.failOn {
		if strings.Contains(req.User, stageMarker(stageID)) {
			return nil, fmt.Errorf("provider rejected %s", stageID)
		}
	}
	return json.RawMessage(fmt.Sprintf(`{"stagePayload":%d}`, c.calls)), nil
}

// stageMarker identifies a stage by a phrase unique to its prompt body.
func stageMarker(stageID string) string {
	markers := map[string]string{
		"market":       "market opportunity",
		"customers":    "customer personas",
		"competitors":  "competitive landscape",
		"businessPlan": "comprehensive business plan",
		"goToMarket":   "go-to-market strategy",
		"financial":    "5-year financial model",
		"pitchDeck":    "investor pitch deck",
		"team":         "team structure",
	}
	return markers[stageID]
}

// recordingNotifier captures every notification in order.
type recordingNotifier struct {
	progress []int
	steps    []string
	complete bool
	errorMsg string
}

func (n *recordingNotifier) NotifyProgress(_ string, progress int, _ model.SessionStatus, step string) {
	n.progress = append(n.progress, progress)
	n.steps = append(n.steps, step)
}

func (n *recordingNotifier) NotifyComplete(_ string, _ map[string]json.RawMessage) {
	n.complete = true
}

func (n *recordingNotifier) NotifyError(_ string, message string) {
	n.errorMsg = message
}

func newTestOrchestrator(store SessionStore, mc ModelClient, notifier Notifier) *Orchestrator {
	executor := NewStageExecutor(mc, "primary-model", "fallback-model", 3, time.Second)
	executor.sleep = func(context.Context, time.Duration) error { return nil }
	return NewOrchestrator(store, executor, DefaultRegistry(), notifier)
}

func TestOrchestrator_FullRunCompletes(t *testing.T) {
	store := newMemorySessionStore("A mobile app for dog walking services", map[string]string{
		"target_customer": "urban dog owners",
	})
	mc := &stagePayloadClient{}
	notifier := &recordingNotifier{}

	orchestrator := newTestOrchestrator(store, mc, notifier)

	if err := orchestrator.Run(context.Background(), store.session.SessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.session.Status != model.SessionStatusCompleted {
		t.Errorf("expected completed status, got %q", store.session.Status)
	}
	if store.session.Progress != 100 {
		t.Errorf("expected progress 100, got %d", store.session.Progress)
	}
	if len(store.session.Result) != 8 {
		t.Errorf("expected 8 result sections, got %d", len(store.session.Result))
	}
	for _, stage := range DefaultRegistry().Stages() {
		if _, ok := store.session.Result[stage.ID]; !ok {
			t.Errorf("result missing section %q", stage.ID)
		}
	}
	if !notifier.complete {
		t.Error("expected a completion notification")
	}
}

func TestOrchestrator_StepsFollowRegistryOrder(t *testing.T) {
	store := newMemorySessionStore("A subscription coffee service", nil)
	orchestrator := newTestOrchestrator(store, &stagePayloadClient{}, nil)

	if err := orchestrator.Run(context.Background(), store.session.SessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var steps []string
	for _, update := range store.updates {
		if update.CurrentStep != nil && update.Status == nil {
			steps = append(steps, *update.CurrentStep)
		}
	}

	stages := DefaultRegistry().Stages()
	if len(steps) != len(stages) {
		t.Fatalf("expected %d step writes, got %d: %v", len(stages), len(steps), steps)
	}
	for i, stage := range stages {
		if steps[i] != stage.ID {
			t.Errorf("step write %d: expected %q, got %q", i, stage.ID, steps[i])
		}
	}
}

func TestOrchestrator_ProgressMonotonic(t *testing.T) {
	store := newMemorySessionStore("A subscription coffee service", nil)
	orchestrator := newTestOrchestrator(store, &stagePayloadClient{}, nil)

	if err := orchestrator.Run(context.Background(), store.session.SessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var progress []int
	for _, update := range store.updates {
		if update.Progress != nil {
			progress = append(progress, *update.Progress)
		}
	}

	if len(progress) == 0 {
		t.Fatal("no progress writes recorded")
	}
	if progress[0] != 0 {
		t.Errorf("expected first progress write 0, got %d", progress[0])
	}
	if progress[len(progress)-1] != 100 {
		t.Errorf("expected final progress write 100, got %d", progress[len(progress)-1])
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Errorf("progress regressed from %d to %d at write %d", progress[i-1], progress[i], i)
		}
	}
}

func TestOrchestrator_ProgressWrittenBeforeStageWork(t *testing.T) {
	store := newMemorySessionStore("A subscription coffee service", nil)
	orchestrator := newTestOrchestrator(store, &stagePayloadClient{}, nil)

	if err := orchestrator.Run(context.Background(), store.session.SessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Each stage's progress reflects stages completed before it: i/8 of 100.
	want := []int{0, 13, 25, 38, 50, 63, 75, 88}
	var got []int
	for _, update := range store.updates {
		if update.Progress != nil && update.Status == nil {
			got = append(got, *update.Progress)
		}
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d per-stage progress writes, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("stage %d: expected progress %d, got %d", i, want[i], got[i])
		}
	}
}

func TestOrchestrator_ContextChainsBetweenStages(t *testing.T) {
	store := newMemorySessionStore("A mobile app for dog walking services", nil)
	mc := &stagePayloadClient{}
	orchestrator := newTestOrchestrator(store, mc, nil)

	if err := orchestrator.Run(context.Background(), store.session.SessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mc.requests) != 8 {
		t.Fatalf("expected 8 model calls, got %d", len(mc.requests))
	}

	// The first stage's payload is {"stagePayload":1}; the second stage's
	// prompt must embed it.
	if !strings.Contains(mc.requests[1].User, `"stagePayload": 1`) {
		t.Errorf("customers prompt does not embed the market payload:\n%s", mc.requests[1].User)
	}
}

func TestOrchestrator_StageFailureFailsSession(t *testing.T) {
	store := newMemorySessionStore("A subscription coffee service", nil)
	mc := &stagePayloadClient{failOn: map[string]bool{"competitors": true}}
	notifier := &recordingNotifier{}

	orchestrator := newTestOrchestrator(store, mc, notifier)

	err := orchestrator.Run(context.Background(), store.session.SessionID)
	if err == nil {
		t.Fatal("expected error from failed run")
	}

	var exhausted *StageExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *StageExhaustedError, got %T: %v", err, err)
	}
	if exhausted.StageID != "competitors" {
		t.Errorf("expected failure on competitors, got %q", exhausted.StageID)
	}

	if store.session.Status != model.SessionStatusFailed {
		t.Errorf("expected failed status, got %q", store.session.Status)
	}
	if store.session.ErrorMessage == nil || *store.session.ErrorMessage == "" {
		t.Error("expected a non-empty error message")
	}
	if notifier.errorMsg == "" {
		t.Error("expected an error notification")
	}
}

func TestOrchestrator_NoPartialResultOnFailure(t *testing.T) {
	store := newMemorySessionStore("A subscription coffee service", nil)
	mc := &stagePayloadClient{failOn: map[string]bool{"financial": true}}

	orchestrator := newTestOrchestrator(store, mc, nil)

	if err := orchestrator.Run(context.Background(), store.session.SessionID); err == nil {
		t.Fatal("expected error from failed run")
	}

	// Five stages succeeded before the failure, but none of their output may
	// be persisted.
	for _, update := range store.updates {
		if update.Result != nil {
			t.Fatalf("result written for a failed run: %v", update.Result)
		}
	}
	if store.session.Result != nil {
		t.Errorf("expected nil result, got %d sections", len(store.session.Result))
	}
}

func TestOrchestrator_NoWritesAfterTerminalState(t *testing.T) {
	store := newMemorySessionStore("A subscription coffee service", nil)
	mc := &stagePayloadClient{failOn: map[string]bool{"market": true}}

	orchestrator := newTestOrchestrator(store, mc, nil)

	if err := orchestrator.Run(context.Background(), store.session.SessionID); err == nil {
		t.Fatal("expected error from failed run")
	}

	// The last update is the terminal one; nothing may follow it.
	last := store.updates[len(store.updates)-1]
	if last.Status == nil || *last.Status != model.SessionStatusFailed {
		t.Errorf("expected the final write to set failed status, got %+v", last)
	}
	for i, update := range store.updates[:len(store.updates)-1] {
		if update.Status != nil && (*update.Status == model.SessionStatusCompleted || *update.Status == model.SessionStatusFailed) {
			t.Errorf("terminal status written at update %d before the final write", i)
		}
	}
}

func TestOrchestrator_UnknownSession(t *testing.T) {
	store := newMemorySessionStore("A subscription coffee service", nil)
	orchestrator := newTestOrchestrator(store, &stagePayloadClient{}, nil)

	if err := orchestrator.Run(context.Background(), "sess_missing"); err == nil {
		t.Fatal("expected error for unknown session")
	}
	if len(store.updates) != 0 {
		t.Errorf("expected no writes for unknown session, got %d", len(store.updates))
	}
}
