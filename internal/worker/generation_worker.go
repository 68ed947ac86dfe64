package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/bizgenius/api/internal/generation"
	"github.com/bizgenius/api/internal/model"
	"github.com/bizgenius/api/internal/service"
	"github.com/bizgenius/api/internal/websocket"
)

// GenerationWorker processes queued pipeline runs. Each task drives one full
// session through the orchestrator; sessions run concurrently across asynq
// workers, but each session's stages run strictly in order.
type GenerationWorker struct {
	orchestrator *generation.Orchestrator
}

// NewGenerationWorker creates a generation worker.
func NewGenerationWorker(store generation.SessionStore, executor *generation.StageExecutor, registry *generation.Registry, hub *websocket.Hub) *GenerationWorker {
	return &GenerationWorker{
		orchestrator: generation.NewOrchestrator(store, executor, registry, &hubNotifier{hub: hub}),
	}
}

// ProcessTask handles one generation:run task.
func (w *GenerationWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.GenerationTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	log.Printf("Starting generation for session %s", payload.SessionID)
	if err := w.orchestrator.Run(ctx, payload.SessionID); err != nil {
		// The orchestrator has already moved the session to failed; the task
		// itself is done (re-runs go through the retry endpoint).
		log.Printf("Generation for session %s ended in failure: %v", payload.SessionID, err)
	}
	return nil
}

// hubNotifier bridges orchestrator transitions onto the WebSocket hub.
type hubNotifier struct {
	hub *websocket.Hub
}

func (n *hubNotifier) NotifyProgress(sessionID string, progress int, status model.SessionStatus, step string) {
	n.hub.BroadcastProgress(sessionID, progress, status, step)
}

func (n *hubNotifier) NotifyComplete(sessionID string, result map[string]json.RawMessage) {
	n.hub.BroadcastComplete(sessionID, result)
}

func (n *hubNotifier) NotifyError(sessionID string, message string) {
	n.hub.BroadcastError(sessionID, "GENERATION_FAILED", message)
}
