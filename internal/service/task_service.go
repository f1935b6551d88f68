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
	"donetasker/internal/timeutil"
)

type TaskService struct {
	tasks      *repository.TaskRepository
	users      *repository.UserRepository
	categories *repository.CategoryRepository
	timer      *TimerService
	logger     *slog.Logger
}

type CreateTaskInput struct {
	Title       string
	Description string
	Notes       string
	AssigneeID  string
	CategoryID  string
}

// UpdateTaskInput carries the fields to change; nil leaves a field as is.
// An empty CategoryID removes the category.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Notes       *string
	CategoryID  *string
}

// TaskView is a task with its age since creation and tracked time.
// Age stops at completion.
type TaskView struct {
	model.Task
	Completed     bool               `json:"completed"`
	Age           timeutil.Elapsed   `json:"age"`
	AgeText       string             `json:"ageText"`
	Urgency       timeutil.Band      `json:"urgency"`
	Category      *model.Category    `json:"category,omitempty"`
	Total         *TotalView         `json:"total,omitempty"`
	ActiveSession *model.WorkSession `json:"activeSession,omitempty"`
}

func NewTaskService(
	tasks *repository.TaskRepository,
	users *repository.UserRepository,
	categories *repository.CategoryRepository,
	timer *TimerService,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{
		tasks:      tasks,
		users:      users,
		categories: categories,
		timer:      timer,
		logger:     loggerOrDefault(logger),
	}
}

func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (*TaskView, *apperrors.APIError) {
	if userID == "" {
		return nil, apperrors.Unauthorized("")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.BadRequest("invalid_title", "title is required")
	}

	now := s.timer.clock.Now().UTC()
	task := model.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Notes:       input.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if assigneeID := strings.TrimSpace(input.AssigneeID); assigneeID != "" {
		if _, err := s.users.GetByID(ctx, assigneeID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.BadRequest("invalid_assignee", "assignee does not exist")
			}
			return nil, storeFailure(ctx, s.logger, "create_task", "", err)
		}
		task.AssigneeID = &assigneeID
	}

	var category *model.Category
	if categoryID := strings.TrimSpace(input.CategoryID); categoryID != "" {
		found, apiErr := s.categoryFor(ctx, "create_task", userID, categoryID)
		if apiErr != nil {
			return nil, apiErr
		}
		category = found
		task.CategoryID = &categoryID
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		return nil, storeFailure(ctx, s.logger, "create_task", task.ID, err)
	}

	view := s.view(task)
	view.Category = category
	view.Total = &TotalView{TaskID: task.ID, Total: timeutil.FormatClock(0)}
	return &view, nil
}

func (s *TaskService) List(ctx context.Context, userID string) ([]TaskView, *apperrors.APIError) {
	if userID == "" {
		return nil, apperrors.Unauthorized("")
	}
	tasks, err := s.tasks.ListAccessible(ctx, userID)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "list_tasks", "", err)
	}
	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, s.view(task))
	}
	if err := s.attachCategories(ctx, views); err != nil {
		return nil, storeFailure(ctx, s.logger, "list_tasks", "", err)
	}
	return views, nil
}

// Get returns the task with its total tracked time and open session, if any.
func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*TaskView, *apperrors.APIError) {
	task, apiErr := s.timer.accessibleTask(ctx, "get_task", userID, taskID)
	if apiErr != nil {
		return nil, apiErr
	}

	total, apiErr := s.timer.total(ctx, taskID)
	if apiErr != nil {
		return nil, apiErr
	}
	open, err := s.timer.sessions.GetOpenSession(ctx, taskID)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "get_task", taskID, err)
	}

	views := []TaskView{s.view(*task)}
	if err := s.attachCategories(ctx, views); err != nil {
		return nil, storeFailure(ctx, s.logger, "get_task", taskID, err)
	}
	view := views[0]
	view.Total = total
	view.ActiveSession = open
	return &view, nil
}

// Update edits title, description, notes and category. Owners and assignees
// may edit; the category must belong to the task's owner.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (*TaskView, *apperrors.APIError) {
	task, apiErr := s.timer.accessibleTask(ctx, "update_task", userID, taskID)
	if apiErr != nil {
		return nil, apiErr
	}
	if input.Title == nil && input.Description == nil && input.Notes == nil && input.CategoryID == nil {
		return nil, apperrors.BadRequest("invalid_update", "no fields to update")
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.BadRequest("invalid_title", "title is required")
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.Notes != nil {
		task.Notes = strings.TrimSpace(*input.Notes)
	}
	if input.CategoryID != nil {
		categoryID := strings.TrimSpace(*input.CategoryID)
		if categoryID == "" {
			task.CategoryID = nil
		} else {
			if _, apiErr := s.categoryFor(ctx, "update_task", task.UserID, categoryID); apiErr != nil {
				return nil, apiErr
			}
			task.CategoryID = &categoryID
		}
	}
	task.UpdatedAt = s.timer.clock.Now().UTC()

	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, taskNotFound()
		}
		return nil, storeFailure(ctx, s.logger, "update_task", taskID, err)
	}
	return s.Get(ctx, userID, taskID)
}

// SetCompleted marks or unmarks completion. Completing first closes any open
// session; if that fails the task is left unchanged.
func (s *TaskService) SetCompleted(ctx context.Context, userID, taskID string, completed bool) (*TaskView, *apperrors.APIError) {
	task, apiErr := s.timer.accessibleTask(ctx, "set_completed", userID, taskID)
	if apiErr != nil {
		return nil, apiErr
	}

	now := s.timer.clock.Now().UTC()
	switch {
	case completed && !task.Completed():
		if apiErr := s.timer.ForceCloseOnCompletion(ctx, taskID); apiErr != nil {
			return nil, apiErr
		}
		task.CompletedAt = &now
	case !completed && task.Completed():
		task.CompletedAt = nil
	default:
		return s.Get(ctx, userID, taskID)
	}

	if err := s.tasks.SetCompletedAt(ctx, taskID, task.CompletedAt, now); err != nil {
		return nil, storeFailure(ctx, s.logger, "set_completed", taskID, err)
	}
	if completed {
		// A start that read the task before completed_at was written can
		// still have inserted a session; the store refuses any later one.
		if apiErr := s.timer.ForceCloseOnCompletion(ctx, taskID); apiErr != nil {
			return nil, apiErr
		}
	}
	return s.Get(ctx, userID, taskID)
}

// Delete removes a task the user owns, along with its sessions and comments.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) *apperrors.APIError {
	task, apiErr := s.timer.accessibleTask(ctx, "delete_task", userID, taskID)
	if apiErr != nil {
		return apiErr
	}
	if task.UserID != userID {
		return apperrors.Forbidden("only the owner can delete a task")
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return taskNotFound()
		}
		return storeFailure(ctx, s.logger, "delete_task", taskID, err)
	}
	return nil
}

// Reorder sets each owned task's position to its index in ids.
func (s *TaskService) Reorder(ctx context.Context, userID string, ids []string) *apperrors.APIError {
	if userID == "" {
		return apperrors.Unauthorized("")
	}
	if len(ids) == 0 {
		return apperrors.BadRequest("invalid_order", "ids are required")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			return apperrors.BadRequest("invalid_order", "ids must be unique and non-empty")
		}
		seen[id] = struct{}{}
	}

	if err := s.tasks.Reorder(ctx, userID, ids, s.timer.clock.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return taskNotFound()
		}
		return storeFailure(ctx, s.logger, "reorder_tasks", "", err)
	}
	return nil
}

// categoryFor loads a category that ownerID may file tasks under.
func (s *TaskService) categoryFor(ctx context.Context, op, ownerID, categoryID string) (*model.Category, *apperrors.APIError) {
	category, err := s.categories.GetByID(ctx, categoryID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.BadRequest("invalid_category", "category does not exist")
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, op, "", err)
	}
	if category.UserID != ownerID {
		return nil, apperrors.BadRequest("invalid_category", "category does not exist")
	}
	return category, nil
}

// attachCategories fills each view's Category, reading every distinct category once.
func (s *TaskService) attachCategories(ctx context.Context, views []TaskView) error {
	cache := make(map[string]*model.Category)
	for i := range views {
		id := views[i].CategoryID
		if id == nil {
			continue
		}
		category, seen := cache[*id]
		if !seen {
			found, err := s.categories.GetByID(ctx, *id)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			category = found
			cache[*id] = category
		}
		views[i].Category = category
	}
	return nil
}

func (s *TaskService) view(task model.Task) TaskView {
	end := s.timer.clock.Now()
	if task.CompletedAt != nil {
		end = *task.CompletedAt
	}
	age := timeutil.Since(task.CreatedAt, end)
	return TaskView{
		Task:      task,
		Completed: task.Completed(),
		Age:       age,
		AgeText:   age.String(),
		Urgency:   timeutil.UrgencyBand(age.HoursFloat()),
	}
}
