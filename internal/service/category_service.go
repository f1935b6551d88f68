package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	apperrors "donetasker/internal/errors"
	"donetasker/internal/model"
	"donetasker/internal/repository"
)

const maxCategoryNameLength = 60

// CategoryService manages a user's task categories. Categories are private
// to their owner.
type CategoryService struct {
	categories *repository.CategoryRepository
	validate   *validator.Validate
	clock      clockwork.Clock
	logger     *slog.Logger
}

func NewCategoryService(categories *repository.CategoryRepository, clock clockwork.Clock, logger *slog.Logger) *CategoryService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CategoryService{
		categories: categories,
		validate:   validator.New(),
		clock:      clock,
		logger:     loggerOrDefault(logger),
	}
}

func (s *CategoryService) Create(ctx context.Context, userID, name, color string) (*model.Category, *apperrors.APIError) {
	if userID == "" {
		return nil, apperrors.Unauthorized("")
	}
	name, color, apiErr := s.clean(name, color)
	if apiErr != nil {
		return nil, apiErr
	}

	category := model.Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Color:     color,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.categories.Create(ctx, &category); err != nil {
		return nil, storeFailure(ctx, s.logger, "create_category", "", err)
	}
	return &category, nil
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]model.Category, *apperrors.APIError) {
	if userID == "" {
		return nil, apperrors.Unauthorized("")
	}
	categories, err := s.categories.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "list_categories", "", err)
	}
	return categories, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, id, name, color string) (*model.Category, *apperrors.APIError) {
	category, apiErr := s.owned(ctx, "update_category", userID, id)
	if apiErr != nil {
		return nil, apiErr
	}
	name, color, apiErr = s.clean(name, color)
	if apiErr != nil {
		return nil, apiErr
	}

	category.Name = name
	category.Color = color
	if err := s.categories.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, categoryNotFound()
		}
		return nil, storeFailure(ctx, s.logger, "update_category", "", err)
	}
	return category, nil
}

// Delete removes the category; its tasks are kept without a category.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) *apperrors.APIError {
	if _, apiErr := s.owned(ctx, "delete_category", userID, id); apiErr != nil {
		return apiErr
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return categoryNotFound()
		}
		return storeFailure(ctx, s.logger, "delete_category", "", err)
	}
	return nil
}

// owned loads a category, hiding other users' categories as not found.
func (s *CategoryService) owned(ctx context.Context, op, userID, id string) (*model.Category, *apperrors.APIError) {
	if userID == "" {
		return nil, apperrors.Unauthorized("")
	}
	category, err := s.categories.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, categoryNotFound()
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, op, "", err)
	}
	if category.UserID != userID {
		return nil, categoryNotFound()
	}
	return category, nil
}

func (s *CategoryService) clean(name, color string) (string, string, *apperrors.APIError) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", apperrors.BadRequest("invalid_name", "name is required")
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLength {
		return "", "", apperrors.BadRequest("invalid_name", "name is too long")
	}
	color = strings.TrimSpace(color)
	if err := s.validate.Var(color, "required,hexcolor"); err != nil {
		return "", "", apperrors.BadRequest("invalid_color", "color must be a hex color such as #3B82F6")
	}
	return name, strings.ToUpper(color), nil
}

func categoryNotFound() *apperrors.APIError {
	return apperrors.NotFound(apperrors.CodeCategoryNotFound, "category not found")
}
