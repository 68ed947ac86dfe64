package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/bizgenius/api/internal/client"
)

// ModelClient performs one JSON-mode chat completion. Implemented by
// client.OpenRouterClient; faked in tests.
type ModelClient interface {
	CompleteJSON(ctx context.Context, req client.ChatRequest) (json.RawMessage, error)
}

// stageTemperature is fixed for all pipeline stages.
const stageTemperature = 0.7

// StageExhaustedError means every attempt for one stage failed. It wraps the
// last underlying error and is fatal to the whole session.
type StageExhaustedError struct {
	StageID  string
	Attempts int
	Err      error
}

func (e *StageExhaustedError) Error() string {
	return fmt.Sprintf("failed to generate %s after %d attempts: %v", e.StageID, e.Attempts, e.Err)
}

func (e *StageExhaustedError) Unwrap() error {
	return e.Err
}

// StageExecutor generates a single stage's output with bounded retries.
// Attempt 0 uses the primary model; all later attempts use the fallback model.
// Failed attempts back off exponentially: backoffBase * 2^attempt.
type StageExecutor struct {
	modelClient   ModelClient
	primaryModel  string
	fallbackModel string
	maxRetries    int
	backoffBase   time.Duration

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewStageExecutor creates a stage executor.
func NewStageExecutor(modelClient ModelClient, primaryModel, fallbackModel string, maxRetries int, backoffBase time.Duration) *StageExecutor {
	return &StageExecutor{
		modelClient:   modelClient,
		primaryModel:  primaryModel,
		fallbackModel: fallbackModel,
		maxRetries:    maxRetries,
		backoffBase:   backoffBase,
		sleep:         sleepContext,
	}
}

// GenerateStage produces one stage's parsed JSON payload. A stage either fully
// succeeds or returns a *StageExhaustedError; no partial output is accepted.
func (e *StageExecutor) GenerateStage(ctx context.Context, stage StageDefinition, genCtx *GenerationContext) (json.RawMessage, error) {
	systemPrompt, userPrompt := BuildPrompts(stage.ID, genCtx)

	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		model := e.primaryModel
		if attempt > 0 {
			model = e.fallbackModel
		}

		payload, err := e.modelClient.CompleteJSON(ctx, client.ChatRequest{
			Model:       model,
			System:      systemPrompt,
			User:        userPrompt,
			MaxTokens:   stage.MaxOutputTokens,
			Temperature: stageTemperature,
		})
		if err == nil {
			return payload, nil
		}

		lastErr = err
		log.Printf("Stage %s attempt %d/%d failed with model %s: %v", stage.ID, attempt+1, e.maxRetries, model, err)

		if attempt < e.maxRetries-1 {
			delay := e.backoffBase << uint(attempt)
			if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
				return nil, sleepErr
			}
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("exhausted retries")
	}
	return nil, &StageExhaustedError{StageID: stage.ID, Attempts: e.maxRetries, Err: lastErr}
}

// sleepContext waits for d without blocking other sessions' pipelines; it
// returns early if the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
