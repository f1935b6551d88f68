package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"donetasker/internal/app"
	"donetasker/internal/config"
	"donetasker/internal/db"
)

// App carries what every subcommand needs. Databases are opened per command.
type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Clock      clockwork.Clock
	IsTerminal func() bool
}

// NewRootCmd creates the top-level "donetasker" command and registers all
// subcommands against the provided App.
func NewRootCmd(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "donetasker",
		Short:         "Task tracker with per-task work timers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newWatchCmd(a),
	)
	return root
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (a *App) clock() clockwork.Clock {
	if a.Clock == nil {
		return clockwork.NewRealClock()
	}
	return a.Clock
}

func (a *App) interactive() bool {
	return a.IsTerminal != nil && a.IsTerminal()
}

// openStore connects and applies pending migrations.
func (a *App) openStore() (*db.DB, error) {
	database, err := db.Open(a.Config.DBDriver, a.Config.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(database, a.Config.MigrationsDir); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

func (a *App) services(database *db.DB) *app.Services {
	return app.NewServices(database, app.Options{
		JWTSecret: a.Config.JWTSecret,
		TokenTTL:  a.Config.TokenTTL,
		Clock:     a.clock(),
		Logger:    a.Logger,
	})
}
