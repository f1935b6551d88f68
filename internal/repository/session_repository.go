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

const sessionColumns = `id, task_id, user_id, start_time, end_time`

// SessionRepository stores work sessions. The partial unique index on
// work_sessions(task_id) WHERE end_time IS NULL is what keeps one open session per task.
type SessionRepository struct {
	db *db.DB
}

func NewSessionRepository(database *db.DB) *SessionRepository {
	return &SessionRepository{db: database}
}

// InsertSession adds the session only while its task exists and is not
// completed, checked in the same statement as the insert.
func (r *SessionRepository) InsertSession(ctx context.Context, session *model.WorkSession) error {
	result, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`INSERT INTO work_sessions (`+sessionColumns+`)
		 SELECT ?, ?, ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM tasks WHERE id = ? AND completed_at IS NULL)`),
		session.ID,
		session.TaskID,
		session.UserID,
		formatTime(session.StartTime),
		formatNullableTime(session.EndTime),
		session.TaskID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert session: %w", ErrOpenSessionExists)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert session rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("insert session: %w", ErrTaskClosed)
	}
	return nil
}

// CloseSession sets end_time on the session if it is still open. It reports
// false when the session was already closed or does not exist, so a session
// started after the caller read the open one is never touched.
func (r *SessionRepository) CloseSession(ctx context.Context, sessionID string, endTime time.Time) (bool, error) {
	result, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`UPDATE work_sessions
		 SET end_time = ?
		 WHERE id = ? AND end_time IS NULL`),
		formatTime(endTime),
		sessionID,
	)
	if err != nil {
		return false, fmt.Errorf("close session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close session rows: %w", err)
	}
	return affected > 0, nil
}

// GetOpenSession returns nil without error when the task has no open session.
func (r *SessionRepository) GetOpenSession(ctx context.Context, taskID string) (*model.WorkSession, error) {
	row := r.db.QueryRowContext(
		ctx,
		r.db.Rebind(`SELECT `+sessionColumns+`
		 FROM work_sessions
		 WHERE task_id = ? AND end_time IS NULL`),
		taskID,
	)
	session, err := scanSession(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) ListClosedSessions(ctx context.Context, taskID string) ([]model.WorkSession, error) {
	return r.list(ctx, `SELECT `+sessionColumns+`
		 FROM work_sessions
		 WHERE task_id = ? AND end_time IS NOT NULL
		 ORDER BY start_time ASC`, taskID)
}

// ListByTask returns open and closed sessions, newest first.
func (r *SessionRepository) ListByTask(ctx context.Context, taskID string, limit int) ([]model.WorkSession, error) {
	return r.list(ctx, `SELECT `+sessionColumns+`
		 FROM work_sessions
		 WHERE task_id = ?
		 ORDER BY start_time DESC
		 LIMIT ?`, taskID, limit)
}

func (r *SessionRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.WorkSession, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.WorkSession, 0)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(s scanner) (*model.WorkSession, error) {
	session := model.WorkSession{}
	var startTime string
	var endTime sql.NullString
	err := s.Scan(
		&session.ID,
		&session.TaskID,
		&session.UserID,
		&startTime,
		&endTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	parsedStart, err := parseTime(startTime)
	if err != nil {
		return nil, fmt.Errorf("parse session start_time: %w", err)
	}
	session.StartTime = parsedStart

	session.EndTime, err = parseNullableTime(endTime)
	if err != nil {
		return nil, fmt.Errorf("parse session end_time: %w", err)
	}
	return &session, nil
}
