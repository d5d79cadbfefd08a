package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ragoalert/internal/monitor"
	"ragoalert/internal/web"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring loops and the config API",
		Long: `Start both monitoring loops (intraday fluctuation polling and the
twice-daily trend analysis) together with the HTTP configuration API.
Runs until interrupted.`,
		Example: `  ragoalert serve
  ragoalert serve --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := monitor.NewManager(monitor.ManagerDeps{
				Config:   app.Config,
				Users:    app.Users,
				Prices:   app.Market,
				Candles:  app.Market,
				Ranker:   app.Market,
				Notifier: app.Notifier,
				Logger:   app.Logger,
			})
			manager.Start()
			defer manager.Stop()

			server := web.NewServer(app.Config, app.Users, manager, app.Logger)
			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Run()
			}()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case s := <-sig:
				app.Logger.Info().Str("signal", s.String()).Msg("shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}
}
