package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"donetasker/internal/app"
	"donetasker/internal/handler"
	"donetasker/internal/middleware"
)

type Options struct {
	CORSOrigins  []string
	TickInterval time.Duration
	Logger       *slog.Logger
}

func New(services *app.Services, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandler := handler.NewAuthHandler(services.Auth)
	taskHandler := handler.NewTaskHandler(services.Tasks)
	timerHandler := handler.NewTimerHandler(services.Timer, opts.TickInterval)
	commentHandler := handler.NewCommentHandler(services.Comments)
	subtaskHandler := handler.NewSubtaskHandler(services.Subtasks)
	categoryHandler := handler.NewCategoryHandler(services.Categories)
	statsHandler := handler.NewStatsHandler(services.Stats)

	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(opts.CORSOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// EventSource cannot set headers, so only the stream accepts ?access_token=.
	api.GET("/tasks/:id/timer/stream", middleware.StreamAuth(services.Auth), timerHandler.Stream)

	protected := api.Group("")
	protected.Use(middleware.Auth(services.Auth))

	tasks := protected.Group("/tasks")
	tasks.GET("", taskHandler.List)
	tasks.POST("", taskHandler.Create)
	tasks.PUT("/order", taskHandler.Reorder)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PATCH("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete)
	tasks.PUT("/:id/completion", taskHandler.SetCompletion)

	tasks.GET("/:id/timer", timerHandler.Get)
	tasks.POST("/:id/timer/start", timerHandler.Start)
	tasks.POST("/:id/timer/stop", timerHandler.Stop)
	tasks.GET("/:id/sessions", timerHandler.History)

	tasks.GET("/:id/comments", commentHandler.List)
	tasks.POST("/:id/comments", commentHandler.Add)

	tasks.GET("/:id/subtasks", subtaskHandler.List)
	tasks.POST("/:id/subtasks", subtaskHandler.Add)
	tasks.PUT("/:id/subtasks/:subtaskId/status", subtaskHandler.SetStatus)

	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.List)
	categories.POST("", categoryHandler.Create)
	categories.PUT("/:id", categoryHandler.Update)
	categories.DELETE("/:id", categoryHandler.Delete)

	protected.GET("/stats/completion", statsHandler.Completion)

	return engine
}
