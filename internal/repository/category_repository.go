package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"donetasker/internal/db"
	"donetasker/internal/model"
)

const categoryColumns = `id, user_id, name, color, position, created_at`

type CategoryRepository struct {
	db *db.DB
}

func NewCategoryRepository(database *db.DB) *CategoryRepository {
	return &CategoryRepository{db: database}
}

// Create appends the category after the user's last one and fills category.Position.
func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(
		ctx,
		r.db.Rebind(`SELECT COALESCE(MAX(position), -1) + 1 FROM categories WHERE user_id = ?`),
		category.UserID,
	).Scan(&next); err != nil {
		return fmt.Errorf("next category position: %w", err)
	}
	category.Position = next

	_, err = tx.ExecContext(
		ctx,
		r.db.Rebind(`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		category.ID,
		category.UserID,
		category.Name,
		category.Color,
		category.Position,
		formatTime(category.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*model.Category, error) {
	row := r.db.QueryRowContext(
		ctx,
		r.db.Rebind(`SELECT `+categoryColumns+` FROM categories WHERE id = ?`),
		id,
	)
	category, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID string) ([]model.Category, error) {
	rows, err := r.db.QueryContext(
		ctx,
		r.db.Rebind(`SELECT `+categoryColumns+`
		 FROM categories
		 WHERE user_id = ?
		 ORDER BY position ASC, created_at ASC`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		category, scanErr := scanCategory(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		categories = append(categories, *category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *model.Category) error {
	result, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`UPDATE categories SET name = ?, color = ? WHERE id = ?`),
		category.Name,
		category.Color,
		category.ID,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireAffected(result, "update category")
}

// Delete removes the category. Tasks that used it keep existing with no category.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireAffected(result, "delete category")
}

func scanCategory(s scanner) (*model.Category, error) {
	category := model.Category{}
	var createdAt string
	err := s.Scan(
		&category.ID,
		&category.UserID,
		&category.Name,
		&category.Color,
		&category.Position,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	if category.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse category created_at: %w", err)
	}
	return &category, nil
}
