package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lectern-app/lectern/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuditPrune is the task type for trimming old audit entries.
	TaskTypeAuditPrune = "audit:prune"
)

// AuditPrunePayload carries the retention window for a prune run.
type AuditPrunePayload struct {
	RetainFor time.Duration `json:"retain_for"`
}

// NewAuditPruneTask constructs an Asynq task.
func NewAuditPruneTask(payload AuditPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditPrune, data), nil
}

// NewAuditPruneHandler returns the handler for TaskTypeAuditPrune tasks.
func NewAuditPruneHandler(logger *slog.Logger, trail *audit.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.RetainFor <= 0 {
			return asynq.SkipRetry
		}
		cutoff := time.Now().Add(-payload.RetainFor)
		removed, err := trail.Prune(ctx, cutoff)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("audit prune", slog.Int64("removed", removed), slog.Time("cutoff", cutoff))
		}
		return nil
	}
}
