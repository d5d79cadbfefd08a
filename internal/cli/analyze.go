package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ragoalert/internal/analysis/indicators"
	"ragoalert/internal/analysis/scoring"
	"ragoalert/internal/monitor"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <symbol> [symbol...]",
		Short: "Run a one-off trend analysis",
		Long: `Fetch daily candles for the given symbols, compute the indicator
suite, and print the trend labels and signal for each. With --user,
run the user's full digest instead and mail it immediately, skipping
the session-window checks.`,
		Example: `  ragoalert analyze AAPL
  ragoalert analyze AAPL MSFT NVDA --days 120
  ragoalert analyze --user alice@example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			email, _ := cmd.Flags().GetString("user")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			if email != "" {
				return runUserDigest(ctx, app, email)
			}
			if len(args) == 0 {
				return fmt.Errorf("requires at least one symbol or --user")
			}

			cfg := app.Config.TrendAnalysis
			params := monitor.IndicatorParams(cfg)
			scorer := scoring.NewScorer(monitor.ScoringConfig(cfg))

			for _, symbol := range args {
				candles, err := app.Market.DailyCandles(ctx, symbol, days)
				if err != nil {
					cmd.PrintErrf("%-8s fetch failed: %v\n", symbol, err)
					continue
				}
				snaps, err := indicators.Snapshots(candles, params)
				if err != nil {
					cmd.PrintErrf("%-8s indicators: %v\n", symbol, err)
					continue
				}
				result, err := scorer.Evaluate(symbol, snaps)
				if err != nil {
					cmd.PrintErrf("%-8s scoring: %v\n", symbol, err)
					continue
				}
				cmd.Printf("%-8s trend=%-5s signal=%-4s buy=%.2f sell=%.2f close=%.2f rsi=%.1f\n",
					symbol, result.CurrentTrend(), result.Signal,
					result.BuyScore, result.SellScore,
					result.Indicators.Close, result.Indicators.RSI)
			}
			return nil
		},
	}
	cmd.Flags().Int("days", 120, "how many daily candles to fetch")
	cmd.Flags().String("user", "", "run this user's trend digest immediately")
	return cmd
}

func runUserDigest(ctx context.Context, app *App, email string) error {
	profile, ok := app.Users.Get(email)
	if !ok {
		return fmt.Errorf("unknown user %q", email)
	}
	mon := monitor.NewTrendMonitor(email, profile, monitor.TrendMonitorDeps{
		Pools:    app.Config.StockPools,
		Candles:  app.Market,
		Ranker:   app.Market,
		Analysis: app.Config.TrendAnalysis,
		Notifier: app.Notifier,
		Logger:   app.Logger,
	})
	return mon.RunOnce(ctx)
}
