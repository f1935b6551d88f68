package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"donetasker/internal/db"
	"donetasker/internal/model"
)

const subtaskColumns = `id, task_id, user_id, title, description, status, created_at, completed_at`

type SubtaskRepository struct {
	db *db.DB
}

func NewSubtaskRepository(database *db.DB) *SubtaskRepository {
	return &SubtaskRepository{db: database}
}

func (r *SubtaskRepository) Create(ctx context.Context, subtask *model.Subtask) error {
	_, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`INSERT INTO subtasks (`+subtaskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		subtask.ID,
		subtask.TaskID,
		subtask.UserID,
		subtask.Title,
		subtask.Description,
		string(subtask.Status),
		formatTime(subtask.CreatedAt),
		formatNullableTime(subtask.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("create subtask: %w", err)
	}
	return nil
}

func (r *SubtaskRepository) GetByID(ctx context.Context, id string) (*model.Subtask, error) {
	row := r.db.QueryRowContext(
		ctx,
		r.db.Rebind(`SELECT `+subtaskColumns+` FROM subtasks WHERE id = ?`),
		id,
	)
	subtask, err := scanSubtask(row)
	if err != nil {
		return nil, fmt.Errorf("get subtask: %w", err)
	}
	return subtask, nil
}

// ListByTask returns the task's subtasks oldest first.
func (r *SubtaskRepository) ListByTask(ctx context.Context, taskID string) ([]model.Subtask, error) {
	rows, err := r.db.QueryContext(
		ctx,
		r.db.Rebind(`SELECT `+subtaskColumns+`
		 FROM subtasks
		 WHERE task_id = ?
		 ORDER BY created_at ASC`),
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	subtasks := make([]model.Subtask, 0)
	for rows.Next() {
		subtask, scanErr := scanSubtask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		subtasks = append(subtasks, *subtask)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subtasks: %w", err)
	}
	return subtasks, nil
}

func (r *SubtaskRepository) SetStatus(ctx context.Context, id string, status model.SubtaskStatus, completedAt *time.Time) error {
	result, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`UPDATE subtasks SET status = ?, completed_at = ? WHERE id = ?`),
		string(status),
		formatNullableTime(completedAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("update subtask status: %w", err)
	}
	return requireAffected(result, "update subtask status")
}

func scanSubtask(s scanner) (*model.Subtask, error) {
	subtask := model.Subtask{}
	var status, createdAt string
	var completedAt sql.NullString
	err := s.Scan(
		&subtask.ID,
		&subtask.TaskID,
		&subtask.UserID,
		&subtask.Title,
		&subtask.Description,
		&status,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan subtask: %w", err)
	}
	subtask.Status = model.SubtaskStatus(status)

	if subtask.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse subtask created_at: %w", err)
	}
	if subtask.CompletedAt, err = parseNullableTime(completedAt); err != nil {
		return nil, fmt.Errorf("parse subtask completed_at: %w", err)
	}
	return &subtask, nil
}
