package engine

import (
	"context"
	"log/slog"

	"github.com/careline-io/careline/internal/domain"
)

// Worker resumes claimed executions from the queue until the context is
// cancelled.
func Worker(ctx context.Context, id int, runner *Runner, queue <-chan domain.WorkflowExecution) {
	for {
		select {
		case <-ctx.Done():
			return
		case ex := <-queue:
			slog.Info("Worker resuming execution", "worker_id", id, "execution_id", ex.ID)
			runner.Resume(ctx, &ex)
			slog.Info("Worker finished execution", "worker_id", id, "execution_id", ex.ID)
		}
	}
}
