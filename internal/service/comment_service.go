package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	apperrors "donetasker/internal/errors"
	"donetasker/internal/model"
	"donetasker/internal/repository"
)

const maxCommentLength = 4000

type CommentService struct {
	comments *repository.CommentRepository
	timer    *TimerService
	logger   *slog.Logger
}

func NewCommentService(comments *repository.CommentRepository, timer *TimerService, logger *slog.Logger) *CommentService {
	return &CommentService{comments: comments, timer: timer, logger: loggerOrDefault(logger)}
}

func (s *CommentService) Add(ctx context.Context, userID, taskID, content string) (*model.Comment, *apperrors.APIError) {
	if _, apiErr := s.timer.accessibleTask(ctx, "add_comment", userID, taskID); apiErr != nil {
		return nil, apiErr
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.BadRequest("invalid_content", "content is required")
	}
	if len(content) > maxCommentLength {
		return nil, apperrors.BadRequest("invalid_content", "content is too long")
	}

	comment := model.Comment{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		UserID:    userID,
		Content:   content,
		CreatedAt: s.timer.clock.Now().UTC(),
	}
	if err := s.comments.Create(ctx, &comment); err != nil {
		return nil, storeFailure(ctx, s.logger, "add_comment", taskID, err)
	}
	return &comment, nil
}

func (s *CommentService) List(ctx context.Context, userID, taskID string) ([]model.Comment, *apperrors.APIError) {
	if _, apiErr := s.timer.accessibleTask(ctx, "list_comments", userID, taskID); apiErr != nil {
		return nil, apiErr
	}
	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "list_comments", taskID, err)
	}
	return comments, nil
}
