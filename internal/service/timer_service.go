package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	apperrors "donetasker/internal/errors"
	"donetasker/internal/model"
	"donetasker/internal/repository"
	"donetasker/internal/timeutil"
)

// TimerService starts and stops work sessions and sums tracked time.
type TimerService struct {
	sessions SessionStore
	tasks    TaskLookup
	clock    clockwork.Clock
	logger   *slog.Logger
}

// TotalView is the tracked time of a task over closed sessions only.
type TotalView struct {
	TaskID            string `json:"taskId"`
	TotalMilliseconds int64  `json:"totalMilliseconds"`
	Total             string `json:"total"`
	SessionCount      int    `json:"sessionCount"`
}

func NewTimerService(sessions SessionStore, tasks TaskLookup, clock clockwork.Clock, logger *slog.Logger) *TimerService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TimerService{
		sessions: sessions,
		tasks:    tasks,
		clock:    clock,
		logger:   loggerOrDefault(logger),
	}
}

func (s *TimerService) Clock() clockwork.Clock {
	return s.clock
}

func (s *TimerService) Start(ctx context.Context, userID, taskID string) (*model.WorkSession, *apperrors.APIError) {
	task, apiErr := s.accessibleTask(ctx, "start", userID, taskID)
	if apiErr != nil {
		return nil, apiErr
	}
	if task.Completed() {
		return nil, taskCompleted()
	}

	open, err := s.sessions.GetOpenSession(ctx, taskID)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "start", taskID, err)
	}
	if open != nil {
		return nil, timerRunning(open)
	}

	session := model.WorkSession{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		UserID:    userID,
		StartTime: s.clock.Now().UTC(),
	}
	if err := s.sessions.InsertSession(ctx, &session); err != nil {
		switch {
		case errors.Is(err, repository.ErrOpenSessionExists):
			// Lost the race to another start; report the winner.
			winner, getErr := s.sessions.GetOpenSession(ctx, taskID)
			if getErr != nil {
				return nil, storeFailure(ctx, s.logger, "start", taskID, getErr)
			}
			return nil, timerRunning(winner)
		case errors.Is(err, repository.ErrTaskClosed):
			// Completed or deleted after the check above.
			if _, apiErr := s.accessibleTask(ctx, "start", userID, taskID); apiErr != nil {
				return nil, apiErr
			}
			return nil, taskCompleted()
		default:
			return nil, storeFailure(ctx, s.logger, "start", taskID, err)
		}
	}

	s.logger.InfoContext(ctx, "timer_started", "task_id", taskID, "session_id", session.ID)
	return &session, nil
}

// Stop closes the task's open session. With nothing open it returns nil, nil.
func (s *TimerService) Stop(ctx context.Context, userID, taskID string) (*model.WorkSession, *apperrors.APIError) {
	if _, apiErr := s.accessibleTask(ctx, "stop", userID, taskID); apiErr != nil {
		return nil, apiErr
	}
	return s.closeOpen(ctx, "stop", taskID)
}

// ForceCloseOnCompletion closes any open session before a task is marked completed.
func (s *TimerService) ForceCloseOnCompletion(ctx context.Context, taskID string) *apperrors.APIError {
	_, apiErr := s.closeOpen(ctx, "force_close", taskID)
	return apiErr
}

func (s *TimerService) ActiveSession(ctx context.Context, userID, taskID string) (*model.WorkSession, *apperrors.APIError) {
	if _, apiErr := s.accessibleTask(ctx, "active_session", userID, taskID); apiErr != nil {
		return nil, apiErr
	}
	open, err := s.sessions.GetOpenSession(ctx, taskID)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "active_session", taskID, err)
	}
	return open, nil
}

func (s *TimerService) TotalTime(ctx context.Context, userID, taskID string) (*TotalView, *apperrors.APIError) {
	if _, apiErr := s.accessibleTask(ctx, "total_time", userID, taskID); apiErr != nil {
		return nil, apiErr
	}
	return s.total(ctx, taskID)
}

// History lists the task's sessions newest first, open ones included.
func (s *TimerService) History(ctx context.Context, userID, taskID string, limit int) ([]model.WorkSession, *apperrors.APIError) {
	if _, apiErr := s.accessibleTask(ctx, "history", userID, taskID); apiErr != nil {
		return nil, apiErr
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sessions, err := s.sessions.ListByTask(ctx, taskID, limit)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "history", taskID, err)
	}
	return sessions, nil
}

func (s *TimerService) total(ctx context.Context, taskID string) (*TotalView, *apperrors.APIError) {
	closed, err := s.sessions.ListClosedSessions(ctx, taskID)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "total_time", taskID, err)
	}
	view := SumSessions(closed)
	view.TaskID = taskID
	return &view, nil
}

// SumSessions totals closed sessions. Open sessions and negative spans add nothing.
func SumSessions(sessions []model.WorkSession) TotalView {
	var view TotalView
	var sum time.Duration
	for i := range sessions {
		if sessions[i].Open() {
			continue
		}
		sum += sessions[i].Duration()
		view.SessionCount++
	}
	view.TotalMilliseconds = sum.Milliseconds()
	view.Total = timeutil.FormatClock(sum)
	return view
}

func (s *TimerService) closeOpen(ctx context.Context, op, taskID string) (*model.WorkSession, *apperrors.APIError) {
	open, err := s.sessions.GetOpenSession(ctx, taskID)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, op, taskID, err)
	}
	if open == nil {
		return nil, nil
	}

	end := s.clock.Now().UTC()
	if end.Before(open.StartTime) {
		end = open.StartTime
	}
	closed, err := s.sessions.CloseSession(ctx, open.ID, end)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, op, taskID, err)
	}
	if !closed {
		return nil, nil
	}

	open.EndTime = &end
	s.logger.InfoContext(ctx, "timer_stopped", "op", op, "task_id", taskID, "session_id", open.ID)
	return open, nil
}

func (s *TimerService) accessibleTask(ctx context.Context, op, userID, taskID string) (*model.Task, *apperrors.APIError) {
	if userID == "" {
		return nil, apperrors.Unauthorized("")
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, taskNotFound()
	}
	if err != nil {
		return nil, storeFailure(ctx, s.logger, op, taskID, err)
	}
	if !task.AccessibleBy(userID) {
		return nil, taskNotFound()
	}
	return task, nil
}

func taskNotFound() *apperrors.APIError {
	return apperrors.NotFound(apperrors.CodeTaskNotFound, "task not found")
}

func taskCompleted() *apperrors.APIError {
	return apperrors.Conflict(apperrors.CodeTaskCompleted, "task is already completed", nil)
}

func timerRunning(open *model.WorkSession) *apperrors.APIError {
	var details interface{}
	if open != nil {
		details = map[string]interface{}{"session": open}
	}
	return apperrors.Conflict(apperrors.CodeTimerRunning, "a timer is already running for this task", details)
}
