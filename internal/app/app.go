package app

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"donetasker/internal/db"
	"donetasker/internal/repository"
	"donetasker/internal/service"
)

// Services is the wired service layer shared by the HTTP server and the CLI.
type Services struct {
	Auth       *service.AuthService
	Timer      *service.TimerService
	Tasks      *service.TaskService
	Comments   *service.CommentService
	Subtasks   *service.SubtaskService
	Categories *service.CategoryService
	Stats      *service.StatsService
}

type Options struct {
	JWTSecret string
	TokenTTL  time.Duration
	Clock     clockwork.Clock
	Logger    *slog.Logger
}

func NewServices(database *db.DB, opts Options) *Services {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	users := repository.NewUserRepository(database)
	tasks := repository.NewTaskRepository(database)
	sessions := repository.NewSessionRepository(database)
	comments := repository.NewCommentRepository(database)
	subtasks := repository.NewSubtaskRepository(database)
	categories := repository.NewCategoryRepository(database)

	timer := service.NewTimerService(sessions, tasks, clock, logger)
	return &Services{
		Auth:       service.NewAuthService(users, opts.JWTSecret, opts.TokenTTL, clock, logger),
		Timer:      timer,
		Tasks:      service.NewTaskService(tasks, users, categories, timer, logger),
		Comments:   service.NewCommentService(comments, timer, logger),
		Subtasks:   service.NewSubtaskService(subtasks, timer, logger),
		Categories: service.NewCategoryService(categories, clock, logger),
		Stats:      service.NewStatsService(tasks, timer, logger),
	}
}
