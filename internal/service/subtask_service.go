package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	apperrors "donetasker/internal/errors"
	"donetasker/internal/model"
	"donetasker/internal/repository"
)

type SubtaskService struct {
	subtasks *repository.SubtaskRepository
	timer    *TimerService
	logger   *slog.Logger
}

type CreateSubtaskInput struct {
	Title       string
	Description string
}

func NewSubtaskService(subtasks *repository.SubtaskRepository, timer *TimerService, logger *slog.Logger) *SubtaskService {
	return &SubtaskService{subtasks: subtasks, timer: timer, logger: loggerOrDefault(logger)}
}

// Add creates a subtask in status new.
func (s *SubtaskService) Add(ctx context.Context, userID, taskID string, input CreateSubtaskInput) (*model.Subtask, *apperrors.APIError) {
	if _, apiErr := s.timer.accessibleTask(ctx, "add_subtask", userID, taskID); apiErr != nil {
		return nil, apiErr
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.BadRequest("invalid_title", "title is required")
	}

	subtask := model.Subtask{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      model.SubtaskNew,
		CreatedAt:   s.timer.clock.Now().UTC(),
	}
	if err := s.subtasks.Create(ctx, &subtask); err != nil {
		return nil, storeFailure(ctx, s.logger, "add_subtask", taskID, err)
	}
	return &subtask, nil
}

func (s *SubtaskService) List(ctx context.Context, userID, taskID string) ([]model.Subtask, *apperrors.APIError) {
	if _, apiErr := s.timer.accessibleTask(ctx, "list_subtasks", userID, taskID); apiErr != nil {
		return nil, apiErr
	}
	subtasks, err := s.subtasks.ListByTask(ctx, taskID)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "list_subtasks", taskID, err)
	}
	return subtasks, nil
}

// SetStatus moves a subtask between new, in-progress and completed.
// completed_at is stamped on entering completed and cleared on leaving it.
func (s *SubtaskService) SetStatus(ctx context.Context, userID, taskID, subtaskID string, status model.SubtaskStatus) (*model.Subtask, *apperrors.APIError) {
	if _, apiErr := s.timer.accessibleTask(ctx, "set_subtask_status", userID, taskID); apiErr != nil {
		return nil, apiErr
	}
	if !status.Valid() {
		return nil, apperrors.BadRequest("invalid_status", "status must be new, in-progress or completed")
	}

	subtask, err := s.subtasks.GetByID(ctx, subtaskID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, subtaskNotFound()
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "set_subtask_status", taskID, err)
	}
	if subtask.TaskID != taskID {
		return nil, subtaskNotFound()
	}
	if subtask.Status == status {
		return subtask, nil
	}

	subtask.Status = status
	subtask.CompletedAt = nil
	if status == model.SubtaskCompleted {
		now := s.timer.clock.Now().UTC()
		subtask.CompletedAt = &now
	}
	if err := s.subtasks.SetStatus(ctx, subtask.ID, subtask.Status, subtask.CompletedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, subtaskNotFound()
		}
		return nil, storeFailure(ctx, s.logger, "set_subtask_status", taskID, err)
	}
	return subtask, nil
}

func subtaskNotFound() *apperrors.APIError {
	return apperrors.NotFound(apperrors.CodeSubtaskNotFound, "subtask not found")
}
