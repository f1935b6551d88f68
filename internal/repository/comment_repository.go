package repository

import (
	"context"
	"fmt"

	"donetasker/internal/db"
	"donetasker/internal/model"
)

type CommentRepository struct {
	db *db.DB
}

func NewCommentRepository(database *db.DB) *CommentRepository {
	return &CommentRepository{db: database}
}

func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`INSERT INTO comments (id, task_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)`),
		comment.ID,
		comment.TaskID,
		comment.UserID,
		comment.Content,
		formatTime(comment.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) ListByTask(ctx context.Context, taskID string) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(
		ctx,
		r.db.Rebind(`SELECT id, task_id, user_id, content, created_at
		 FROM comments
		 WHERE task_id = ?
		 ORDER BY created_at ASC`),
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var comment model.Comment
		var createdAt string
		if err := rows.Scan(&comment.ID, &comment.TaskID, &comment.UserID, &comment.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if comment.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse comment created_at: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}
