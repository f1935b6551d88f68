package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"donetasker/internal/router"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer database.Close()

			gin.SetMode(gin.ReleaseMode)
			engine := router.New(a.services(database), router.Options{
				CORSOrigins:  a.Config.CORSOrigins,
				TickInterval: a.Config.TickInterval,
				Logger:       a.Logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Request contexts derive from ctx so open timer streams end on shutdown.
			server := &http.Server{
				Addr:              ":" + a.Config.Port,
				Handler:           engine,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}

			errCh := make(chan error, 1)
			go func() {
				a.Logger.Info("server_listening", "addr", server.Addr, "db_driver", database.Dialect.Name)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("run server: %w", err)
			case <-ctx.Done():
			}

			a.Logger.Info("server_shutting_down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			return nil
		},
	}
}
