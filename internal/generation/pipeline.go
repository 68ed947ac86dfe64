package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"

	"github.com/bizgenius/api/internal/model"
)

// genericFailureMessage is shown when a failure carries no message of its own.
const genericFailureMessage = "Generation failed. Please try again."

// SessionStore is the persistence collaborator for one session's run. Writes
// for a given session are applied in call order.
type SessionStore interface {
	ReadSession(ctx context.Context, sessionID string) (*model.GenerationSession, error)
	WriteSessionStatus(ctx context.Context, sessionID string, update model.SessionUpdate) error
}

// Notifier receives the same transitions the store persists, for real-time
// push. May be nil.
type Notifier interface {
	NotifyProgress(sessionID string, progress int, status model.SessionStatus, step string)
	NotifyComplete(sessionID string, result map[string]json.RawMessage)
	NotifyError(sessionID string, message string)
}

// Orchestrator drives the full ordered pipeline for one session from pending
// to a terminal state. Stages run strictly sequentially: stage i+1's prompt
// embeds stage i's completed output.
type Orchestrator struct {
	store    SessionStore
	executor *StageExecutor
	registry *Registry
	notifier Notifier
}

// NewOrchestrator creates a pipeline orchestrator. notifier may be nil.
func NewOrchestrator(store SessionStore, executor *StageExecutor, registry *Registry, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		store:    store,
		executor: executor,
		registry: registry,
		notifier: notifier,
	}
}

// Run executes one full pipeline run for a session. Any stage exhaustion moves
// the session straight to failed; no partial result is persisted.
func (o *Orchestrator) Run(ctx context.Context, sessionID string) error {
	session, err := o.store.ReadSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	stages := o.registry.Stages()
	if len(stages) == 0 {
		return fmt.Errorf("empty stage registry")
	}

	generating := model.SessionStatusGenerating
	firstStep := stages[0].ID
	zero := 0
	if err := o.store.WriteSessionStatus(ctx, sessionID, model.SessionUpdate{
		Status:      &generating,
		CurrentStep: &firstStep,
		Progress:    &zero,
	}); err != nil {
		return fmt.Errorf("failed to mark session generating: %w", err)
	}

	genCtx := &GenerationContext{
		BusinessIdea: session.BusinessIdea,
		Answers:      session.Answers,
		PriorResults: make(map[string]json.RawMessage, len(stages)),
	}
	result := make(map[string]json.RawMessage, len(stages))

	for i := range stages {
		stage := stages[i]

		// Progress reflects stages fully completed so far, written before the
		// stage's own work begins.
		progress := stagePercent(i, len(stages))
		step := stage.ID
		if err := o.store.WriteSessionStatus(ctx, sessionID, model.SessionUpdate{
			CurrentStep: &step,
			Progress:    &progress,
		}); err != nil {
			return o.failSession(ctx, sessionID, err)
		}
		if o.notifier != nil {
			o.notifier.NotifyProgress(sessionID, progress, model.SessionStatusGenerating, stage.ID)
		}

		payload, err := o.executor.GenerateStage(ctx, stage, genCtx)
		if err != nil {
			return o.failSession(ctx, sessionID, err)
		}

		// Merge before the next stage starts: later prompts must see this
		// stage's output.
		result[stage.ID] = payload
		genCtx.PriorResults[stage.ID] = payload
		log.Printf("Session %s: stage %s completed (%d/%d)", sessionID, stage.ID, i+1, len(stages))
	}

	completed := model.SessionStatusCompleted
	full := 100
	if err := o.store.WriteSessionStatus(ctx, sessionID, model.SessionUpdate{
		Status:   &completed,
		Progress: &full,
		Result:   result,
	}); err != nil {
		return fmt.Errorf("failed to mark session completed: %w", err)
	}
	if o.notifier != nil {
		o.notifier.NotifyComplete(sessionID, result)
	}

	log.Printf("Session %s: generation completed", sessionID)
	return nil
}

func (o *Orchestrator) failSession(ctx context.Context, sessionID string, cause error) error {
	message := genericFailureMessage
	if cause != nil && cause.Error() != "" {
		message = cause.Error()
	}

	failed := model.SessionStatusFailed
	if err := o.store.WriteSessionStatus(ctx, sessionID, model.SessionUpdate{
		Status:       &failed,
		ErrorMessage: &message,
	}); err != nil {
		log.Printf("Session %s: failed to persist failure: %v", sessionID, err)
	}
	if o.notifier != nil {
		o.notifier.NotifyError(sessionID, message)
	}

	log.Printf("Session %s: generation failed: %v", sessionID, cause)
	return cause
}

func stagePercent(index, total int) int {
	return int(math.Round(float64(index) / float64(total) * 100))
}
