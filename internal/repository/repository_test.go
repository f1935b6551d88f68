package repository

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donetasker/internal/db"
	"donetasker/internal/model"
)

var base = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

func migrationsDir() string {
	_, currentFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
}

func openSQLite(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database, migrationsDir()))
	return database
}

// openStores yields SQLite always and PostgreSQL when DONETASKER_TEST_POSTGRES_DSN is set.
func openStores(t *testing.T) map[string]*db.DB {
	t.Helper()
	stores := map[string]*db.DB{"sqlite": openSQLite(t)}

	dsn := os.Getenv("DONETASKER_TEST_POSTGRES_DSN")
	if dsn == "" {
		return stores
	}
	database, err := db.OpenPostgres(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database, migrationsDir()))
	stores["postgres"] = database
	return stores
}

func seedUser(t *testing.T, database *db.DB) model.User {
	t.Helper()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    base,
		UpdatedAt:    base,
	}
	require.NoError(t, NewUserRepository(database).Create(context.Background(), &user))
	return user
}

func seedTask(t *testing.T, database *db.DB, ownerID, title string) model.Task {
	t.Helper()
	task := model.Task{
		ID:        uuid.NewString(),
		UserID:    ownerID,
		Title:     title,
		CreatedAt: base,
		UpdatedAt: base,
	}
	require.NoError(t, NewTaskRepository(database).Create(context.Background(), &task))
	return task
}

func openSession(taskID, userID string, start time.Time) *model.WorkSession {
	return &model.WorkSession{ID: uuid.NewString(), TaskID: taskID, UserID: userID, StartTime: start}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	database := openSQLite(t)
	repo := NewUserRepository(database)
	ctx := context.Background()

	user := seedUser(t, database)
	dup := model.User{ID: uuid.NewString(), Email: user.Email, PasswordHash: "x", CreatedAt: base, UpdatedAt: base}
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrDuplicate)

	found, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepository_OneOpenSessionPerTask(t *testing.T) {
	for name, database := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewSessionRepository(database)
			user := seedUser(t, database)
			task := seedTask(t, database, user.ID, "write report")

			first := openSession(task.ID, user.ID, base)
			require.NoError(t, repo.InsertSession(ctx, first))
			err := repo.InsertSession(ctx, openSession(task.ID, user.ID, base.Add(time.Minute)))
			assert.ErrorIs(t, err, ErrOpenSessionExists)

			closed, err := repo.CloseSession(ctx, first.ID, base.Add(time.Hour))
			require.NoError(t, err)
			assert.True(t, closed)

			require.NoError(t, repo.InsertSession(ctx, openSession(task.ID, user.ID, base.Add(2*time.Hour))))
		})
	}
}

func TestSessionRepository_ConcurrentInsertsLeaveOneOpen(t *testing.T) {
	database := openSQLite(t)
	ctx := context.Background()
	repo := NewSessionRepository(database)
	user := seedUser(t, database)
	task := seedTask(t, database, user.ID, "race")

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.InsertSession(ctx, openSession(task.ID, user.ID, base))
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrOpenSessionExists)
	}
	assert.Equal(t, 1, succeeded)
}

func TestSessionRepository_CloseIsIdempotent(t *testing.T) {
	database := openSQLite(t)
	ctx := context.Background()
	repo := NewSessionRepository(database)
	user := seedUser(t, database)
	task := seedTask(t, database, user.ID, "close twice")

	closed, err := repo.CloseSession(ctx, "missing", base)
	require.NoError(t, err)
	assert.False(t, closed)

	session := openSession(task.ID, user.ID, base)
	require.NoError(t, repo.InsertSession(ctx, session))
	first, err := repo.CloseSession(ctx, session.ID, base.Add(30*time.Minute))
	require.NoError(t, err)
	second, err := repo.CloseSession(ctx, session.ID, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	sessions, err := repo.ListClosedSessions(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].EndTime)
	assert.True(t, sessions[0].EndTime.Equal(base.Add(30*time.Minute)))
}

func TestSessionRepository_CloseTargetsOneSession(t *testing.T) {
	for name, database := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewSessionRepository(database)
			user := seedUser(t, database)
			task := seedTask(t, database, user.ID, "restart")

			stale := openSession(task.ID, user.ID, base)
			require.NoError(t, repo.InsertSession(ctx, stale))
			closed, err := repo.CloseSession(ctx, stale.ID, base.Add(time.Minute))
			require.NoError(t, err)
			require.True(t, closed)

			fresh := openSession(task.ID, user.ID, base.Add(time.Hour))
			require.NoError(t, repo.InsertSession(ctx, fresh))

			// A late close for the earlier session must not end the new one,
			// even with an end time before the new start.
			closed, err = repo.CloseSession(ctx, stale.ID, base.Add(2*time.Minute))
			require.NoError(t, err)
			assert.False(t, closed)

			open, err := repo.GetOpenSession(ctx, task.ID)
			require.NoError(t, err)
			require.NotNil(t, open)
			assert.Equal(t, fresh.ID, open.ID)
		})
	}
}

func TestSessionRepository_InsertRejectsClosedTask(t *testing.T) {
	for name, database := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewSessionRepository(database)
			tasks := NewTaskRepository(database)
			user := seedUser(t, database)
			task := seedTask(t, database, user.ID, "done")

			done := base.Add(time.Hour)
			require.NoError(t, tasks.SetCompletedAt(ctx, task.ID, &done, done))

			err := repo.InsertSession(ctx, openSession(task.ID, user.ID, base.Add(2*time.Hour)))
			assert.ErrorIs(t, err, ErrTaskClosed)

			err = repo.InsertSession(ctx, openSession("missing", user.ID, base))
			assert.ErrorIs(t, err, ErrTaskClosed)

			open, err := repo.GetOpenSession(ctx, task.ID)
			require.NoError(t, err)
			assert.Nil(t, open)
		})
	}
}

func TestSessionRepository_OpenAndClosedListings(t *testing.T) {
	database := openSQLite(t)
	ctx := context.Background()
	repo := NewSessionRepository(database)
	user := seedUser(t, database)
	task := seedTask(t, database, user.ID, "history")

	open, err := repo.GetOpenSession(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, open)

	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		session := openSession(task.ID, user.ID, start)
		require.NoError(t, repo.InsertSession(ctx, session))
		_, err := repo.CloseSession(ctx, session.ID, start.Add(10*time.Minute))
		require.NoError(t, err)
	}
	current := openSession(task.ID, user.ID, base.Add(5*time.Hour))
	require.NoError(t, repo.InsertSession(ctx, current))

	open, err = repo.GetOpenSession(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, current.ID, open.ID)
	assert.True(t, open.StartTime.Equal(current.StartTime))

	closed, err := repo.ListClosedSessions(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, closed, 3)
	assert.True(t, closed[0].StartTime.Equal(base))

	history, err := repo.ListByTask(ctx, task.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, current.ID, history[0].ID)
}

func TestTaskRepository_PositionsAndReorder(t *testing.T) {
	database := openSQLite(t)
	ctx := context.Background()
	repo := NewTaskRepository(database)
	user := seedUser(t, database)

	a := seedTask(t, database, user.ID, "a")
	b := seedTask(t, database, user.ID, "b")
	c := seedTask(t, database, user.ID, "c")
	assert.Equal(t, []int{0, 1, 2}, []int{a.Position, b.Position, c.Position})

	require.NoError(t, repo.Reorder(ctx, user.ID, []string{c.ID, a.ID, b.ID}, base.Add(time.Minute)))

	tasks, err := repo.ListAccessible(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})

	other := seedUser(t, database)
	err = repo.Reorder(ctx, other.ID, []string{a.ID}, base)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepository_AssigneeCanSeeTask(t *testing.T) {
	database := openSQLite(t)
	ctx := context.Background()
	repo := NewTaskRepository(database)
	owner := seedUser(t, database)
	assignee := seedUser(t, database)

	task := model.Task{
		ID:         uuid.NewString(),
		UserID:     owner.ID,
		AssigneeID: &assignee.ID,
		Title:      "shared",
		CreatedAt:  base,
		UpdatedAt:  base,
	}
	require.NoError(t, repo.Create(ctx, &task))

	tasks, err := repo.ListAccessible(ctx, assignee.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].AssigneeID)
	assert.Equal(t, assignee.ID, *tasks[0].AssigneeID)
	assert.True(t, tasks[0].AccessibleBy(assignee.ID))
}

func TestTaskRepository_CompletedSince(t *testing.T) {
	database := openSQLite(t)
	ctx := context.Background()
	repo := NewTaskRepository(database)
	user := seedUser(t, database)

	old := seedTask(t, database, user.ID, "old")
	recent := seedTask(t, database, user.ID, "recent")
	seedTask(t, database, user.ID, "open")

	oldDone := base.Add(-10 * 24 * time.Hour)
	recentDone := base.Add(-2 * time.Hour)
	require.NoError(t, repo.SetCompletedAt(ctx, old.ID, &oldDone, base))
	require.NoError(t, repo.SetCompletedAt(ctx, recent.ID, &recentDone, base))

	since := base.Add(-24 * time.Hour)
	inDay, err := repo.ListCompletedSince(ctx, user.ID, &since)
	require.NoError(t, err)
	require.Len(t, inDay, 1)
	assert.Equal(t, recent.ID, inDay[0].ID)

	all, err := repo.ListCompletedSince(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.SetCompletedAt(ctx, recent.ID, nil, base))
	got, err := repo.GetByID(ctx, recent.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed())
}

func TestTaskRepository_DeleteCascades(t *testing.T) {
	database := openSQLite(t)
	ctx := context.Background()
	tasks := NewTaskRepository(database)
	sessions := NewSessionRepository(database)
	comments := NewCommentRepository(database)
	user := seedUser(t, database)
	task := seedTask(t, database, user.ID, "doomed")

	closedSession := openSession(task.ID, user.ID, base)
	require.NoError(t, sessions.InsertSession(ctx, closedSession))
	_, err := sessions.CloseSession(ctx, closedSession.ID, base.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, sessions.InsertSession(ctx, openSession(task.ID, user.ID, base.Add(2*time.Hour))))
	require.NoError(t, comments.Create(ctx, &model.Comment{
		ID: uuid.NewString(), TaskID: task.ID, UserID: user.ID, Content: "note", CreatedAt: base,
	}))

	require.NoError(t, tasks.Delete(ctx, task.ID))
	assert.ErrorIs(t, tasks.Delete(ctx, task.ID), ErrNotFound)

	_, err = tasks.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var remaining int
	require.NoError(t, database.QueryRow(`SELECT COUNT(1) FROM work_sessions WHERE task_id = ?`, task.ID).Scan(&remaining))
	assert.Zero(t, remaining)

	list, err := comments.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCommentRepository_OldestFirst(t *testing.T) {
	database := openSQLite(t)
	ctx := context.Background()
	repo := NewCommentRepository(database)
	user := seedUser(t, database)
	task := seedTask(t, database, user.ID, "discussed")

	for i, content := range []string{"second", "first"} {
		require.NoError(t, repo.Create(ctx, &model.Comment{
			ID:        uuid.NewString(),
			TaskID:    task.ID,
			UserID:    user.ID,
			Content:   content,
			CreatedAt: base.Add(time.Duration(1-i) * time.Minute),
		}))
	}

	list, err := repo.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)
	assert.Equal(t, "second", list[1].Content)
}

func TestCategoryRepository_PositionsAndDelete(t *testing.T) {
	for name, database := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			categories := NewCategoryRepository(database)
			tasks := NewTaskRepository(database)
			user := seedUser(t, database)

			work := model.Category{ID: uuid.NewString(), UserID: user.ID, Name: "Work", Color: "#3B82F6", CreatedAt: base}
			home := model.Category{ID: uuid.NewString(), UserID: user.ID, Name: "Home", Color: "#10B981", CreatedAt: base}
			require.NoError(t, categories.Create(ctx, &work))
			require.NoError(t, categories.Create(ctx, &home))
			assert.Less(t, work.Position, home.Position)

			home.Name = "House"
			require.NoError(t, categories.Update(ctx, &home))
			listed, err := categories.ListByUser(ctx, user.ID)
			require.NoError(t, err)
			require.Len(t, listed, 2)
			assert.Equal(t, "Work", listed[0].Name)
			assert.Equal(t, "House", listed[1].Name)

			task := model.Task{
				ID: uuid.NewString(), UserID: user.ID, Title: "filed", CategoryID: &work.ID,
				CreatedAt: base, UpdatedAt: base,
			}
			require.NoError(t, tasks.Create(ctx, &task))

			require.NoError(t, categories.Delete(ctx, work.ID))
			assert.ErrorIs(t, categories.Delete(ctx, work.ID), ErrNotFound)
			_, err = categories.GetByID(ctx, work.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			kept, err := tasks.GetByID(ctx, task.ID)
			require.NoError(t, err)
			assert.Nil(t, kept.CategoryID)
		})
	}
}

func TestTaskRepository_Update(t *testing.T) {
	database := openSQLite(t)
	ctx := context.Background()
	tasks := NewTaskRepository(database)
	user := seedUser(t, database)
	task := seedTask(t, database, user.ID, "before")

	task.Title = "after"
	task.Notes = "edited"
	task.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, tasks.Update(ctx, &task))

	stored, err := tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", stored.Title)
	assert.Equal(t, "edited", stored.Notes)
	assert.True(t, stored.UpdatedAt.Equal(base.Add(time.Hour)))

	missing := task
	missing.ID = "missing"
	assert.ErrorIs(t, tasks.Update(ctx, &missing), ErrNotFound)
}

func TestSubtaskRepository_StatusAndCascade(t *testing.T) {
	database := openSQLite(t)
	ctx := context.Background()
	subtasks := NewSubtaskRepository(database)
	user := seedUser(t, database)
	task := seedTask(t, database, user.ID, "parent")

	later := model.Subtask{ID: uuid.NewString(), TaskID: task.ID, UserID: user.ID, Title: "later", Status: model.SubtaskNew, CreatedAt: base.Add(time.Minute)}
	sooner := model.Subtask{ID: uuid.NewString(), TaskID: task.ID, UserID: user.ID, Title: "sooner", Status: model.SubtaskNew, CreatedAt: base}
	require.NoError(t, subtasks.Create(ctx, &later))
	require.NoError(t, subtasks.Create(ctx, &sooner))

	done := base.Add(time.Hour)
	require.NoError(t, subtasks.SetStatus(ctx, sooner.ID, model.SubtaskCompleted, &done))
	assert.ErrorIs(t, subtasks.SetStatus(ctx, "missing", model.SubtaskCompleted, &done), ErrNotFound)

	list, err := subtasks.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sooner", list[0].Title)
	assert.Equal(t, model.SubtaskCompleted, list[0].Status)
	require.NotNil(t, list[0].CompletedAt)
	assert.True(t, list[0].CompletedAt.Equal(done))
	assert.Nil(t, list[1].CompletedAt)

	_, err = database.Exec(`UPDATE subtasks SET status = 'done' WHERE id = ?`, later.ID)
	assert.Error(t, err)

	require.NoError(t, NewTaskRepository(database).Delete(ctx, task.ID))
	list, err = subtasks.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
