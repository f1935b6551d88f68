package service

import (
	"context"
	"log/slog"
	"time"

	apperrors "donetasker/internal/errors"
	"donetasker/internal/model"
)

// SessionStore is the persistence the timer needs. CloseSession targets one
// session by id and reports whether it was still open.
type SessionStore interface {
	InsertSession(ctx context.Context, session *model.WorkSession) error
	CloseSession(ctx context.Context, sessionID string, endTime time.Time) (bool, error)
	GetOpenSession(ctx context.Context, taskID string) (*model.WorkSession, error)
	ListClosedSessions(ctx context.Context, taskID string) ([]model.WorkSession, error)
	ListByTask(ctx context.Context, taskID string, limit int) ([]model.WorkSession, error)
}

// TaskLookup resolves a task by id. Missing tasks return repository.ErrNotFound.
type TaskLookup interface {
	GetByID(ctx context.Context, id string) (*model.Task, error)
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// storeFailure logs err and maps it to 503. The caller must not retry.
func storeFailure(ctx context.Context, logger *slog.Logger, op, taskID string, err error) *apperrors.APIError {
	logger.ErrorContext(ctx, "store_failure", "op", op, "task_id", taskID, "error", err.Error())
	return apperrors.Unavailable("")
}
