package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "eventlottery/docs"
	"eventlottery/internal/adapters/auth"
	httpdelivery "eventlottery/internal/delivery/http"
	"eventlottery/internal/delivery/http/controllers"
	"eventlottery/internal/delivery/http/middleware"
)

const shutdownTimeout = 20 * time.Second

// NewServeCommand runs the HTTP API until SIGINT or SIGTERM.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is required to serve the API")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := NewApp(ctx, cfg, logger)
			if err != nil {
				return err
			}

			router := httpdelivery.NewRouter(httpdelivery.Controllers{
				Events:        controllers.NewEventController(logger, app.Events),
				Waitlist:      controllers.NewWaitlistController(logger, app.Waitlist),
				Lottery:       controllers.NewLotteryController(logger, app.Engine, app.Replacements, app.Invitations),
				Invitations:   controllers.NewInvitationController(logger, app.Invitations),
				Registrations: controllers.NewRegistrationController(logger, app.Ledger),
				Profiles:      controllers.NewProfileController(logger, app.Store.Profiles()),
			}, auth.NewJWTVerifier(cfg.JWTSecret), logger)

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSAllowedOrigins, router)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment, "store", cfg.Store)
				errCh <- srv.ListenAndServe()
			}()

			var serveErr error
			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					serveErr = fmt.Errorf("server: %w", err)
				}
			case <-ctx.Done():
				logger.Info("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown", "err", err)
			}
			if err := app.Close(shutdownCtx); err != nil {
				logger.Error("release resources", "err", err)
			}
			return serveErr
		},
	}
}
