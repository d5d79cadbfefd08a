// Package cli provides the command-line interface for the monitoring
// application.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ragoalert/internal/config"
	"ragoalert/internal/market"
	"ragoalert/internal/notify"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Users    *config.UsersManager
	Market   *market.YahooClient
	Notifier notify.Notifier
	Logger   zerolog.Logger
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, users *config.UsersManager, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Users:  users,
		Market: market.NewYahooClient(logger),
		Logger: logger,
	}

	if cfg.SMTP.Server != "" {
		app.Notifier = notify.NewEmailNotifier(cfg.SMTP, logger)
	} else {
		logger.Warn().Msg("SMTP not configured, notifications disabled")
		app.Notifier = notify.NewNoOp()
	}

	rootCmd := &cobra.Command{
		Use:   "ragoalert",
		Short: "RagoAlert - multi-user stock monitoring and alerting",
		Long: `RagoAlert watches stock prices for multiple users and mails them
fluctuation alerts during the trading day plus pre and post market
trend digests.

Use 'ragoalert serve' to start the monitoring loops and the config API.
Use 'ragoalert analyze <symbols>' for a one-off trend analysis.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/ragoalert)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newUsersCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("ragoalert %s\n", Version)
		},
	}
}
