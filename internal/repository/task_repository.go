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

const taskColumns = `id, user_id, assignee_id, category_id, title, description, notes, position, created_at, completed_at, updated_at`

type TaskRepository struct {
	db *db.DB
}

func NewTaskRepository(database *db.DB) *TaskRepository {
	return &TaskRepository{db: database}
}

// Create appends the task after the owner's last position and fills task.Position.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(
		ctx,
		r.db.Rebind(`SELECT COALESCE(MAX(position), -1) + 1 FROM tasks WHERE user_id = ?`),
		task.UserID,
	).Scan(&next); err != nil {
		return fmt.Errorf("next task position: %w", err)
	}
	task.Position = next

	_, err = tx.ExecContext(
		ctx,
		r.db.Rebind(`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		task.ID,
		task.UserID,
		nullableString(task.AssigneeID),
		nullableString(task.CategoryID),
		task.Title,
		task.Description,
		task.Notes,
		task.Position,
		formatTime(task.CreatedAt),
		formatNullableTime(task.CompletedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*model.Task, error) {
	row := r.db.QueryRowContext(
		ctx,
		r.db.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`),
		id,
	)
	task, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ListAccessible returns tasks the user owns or is assigned, in position order.
func (r *TaskRepository) ListAccessible(ctx context.Context, userID string) ([]model.Task, error) {
	return r.list(ctx, `SELECT `+taskColumns+`
		 FROM tasks
		 WHERE user_id = ? OR assignee_id = ?
		 ORDER BY position ASC, created_at ASC`, userID, userID)
}

// ListCompletedSince returns accessible tasks completed at or after since.
// A nil since means all completed tasks.
func (r *TaskRepository) ListCompletedSince(ctx context.Context, userID string, since *time.Time) ([]model.Task, error) {
	if since == nil {
		return r.list(ctx, `SELECT `+taskColumns+`
			 FROM tasks
			 WHERE (user_id = ? OR assignee_id = ?) AND completed_at IS NOT NULL
			 ORDER BY completed_at DESC`, userID, userID)
	}
	return r.list(ctx, `SELECT `+taskColumns+`
		 FROM tasks
		 WHERE (user_id = ? OR assignee_id = ?) AND completed_at IS NOT NULL AND completed_at >= ?
		 ORDER BY completed_at DESC`, userID, userID, formatTime(*since))
}

// Update writes the editable fields: title, description, notes and category.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`UPDATE tasks
		 SET title = ?, description = ?, notes = ?, category_id = ?, updated_at = ?
		 WHERE id = ?`),
		task.Title,
		task.Description,
		task.Notes,
		nullableString(task.CategoryID),
		formatTime(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireAffected(result, "update task")
}

func (r *TaskRepository) SetCompletedAt(ctx context.Context, id string, completedAt *time.Time, updatedAt time.Time) error {
	result, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`UPDATE tasks SET completed_at = ?, updated_at = ? WHERE id = ?`),
		formatNullableTime(completedAt),
		formatTime(updatedAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("update task completion: %w", err)
	}
	return requireAffected(result, "update task completion")
}

// Reorder assigns position = index for each id owned by userID, in one transaction.
func (r *TaskRepository) Reorder(ctx context.Context, userID string, ids []string, updatedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt := r.db.Rebind(`UPDATE tasks SET position = ?, updated_at = ? WHERE id = ? AND user_id = ?`)
	for index, id := range ids {
		result, err := tx.ExecContext(ctx, stmt, index, formatTime(updatedAt), id, userID)
		if err != nil {
			return fmt.Errorf("reorder task %s: %w", id, err)
		}
		if err := requireAffected(result, "reorder task "+id); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}

// Delete removes the task; sessions and comments go with it through ON DELETE CASCADE.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireAffected(result, "delete task")
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func requireAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

func scanTask(s scanner) (*model.Task, error) {
	task := model.Task{}
	var assigneeID, categoryID sql.NullString
	var createdAt, updatedAt string
	var completedAt sql.NullString
	err := s.Scan(
		&task.ID,
		&task.UserID,
		&assigneeID,
		&categoryID,
		&task.Title,
		&task.Description,
		&task.Notes,
		&task.Position,
		&createdAt,
		&completedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.AssigneeID = stringPointer(assigneeID)
	task.CategoryID = stringPointer(categoryID)

	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse task created_at: %w", err)
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse task updated_at: %w", err)
	}
	if task.CompletedAt, err = parseNullableTime(completedAt); err != nil {
		return nil, fmt.Errorf("parse task completed_at: %w", err)
	}
	return &task, nil
}
