package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cashmoo/internal/config"
	"cashmoo/internal/core"
	httpserver "cashmoo/internal/http"
	"cashmoo/internal/log"
	"cashmoo/internal/notify"
	"cashmoo/internal/services"
	"cashmoo/internal/storage"
)

func main() {
	root := &cobra.Command{
		Use:   "cashmoo",
		Short: "Recurring income and expense scheduler with card invoice cycles",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.AddCommand(serveCmd(), tickCmd(), dashboardCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg       *config.Config
	repo      *storage.SQLiteRepository
	notifier  notify.Notifier
	ledger    *services.Ledger
	scheduler *services.Scheduler
	dashboard *services.DashboardAggregator
	closers   []func() error
}

func setup() (*app, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a := &app{cfg: cfg, repo: repo}
	a.closers = append(a.closers, repo.Close)

	a.notifier = notify.LogNotifier{}
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Warn("AMQP unavailable, falling back to log notifier", "error", err)
		} else {
			a.notifier = amqpNotifier
			a.closers = append(a.closers, amqpNotifier.Close)
		}
	}

	a.ledger = services.NewLedger(repo, nil)
	a.scheduler = services.NewScheduler(repo, a.notifier, services.SchedulerOptions{
		Interval:    cfg.TickInterval,
		HorizonDays: cfg.AlertHorizonDays,
		FlushLimit:  cfg.FlushBatchSize,
	})
	a.dashboard = services.NewDashboardAggregator(repo)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Error("close", "error", err)
		}
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := httpserver.NewServer(a.cfg.Port, a.ledger, a.scheduler, a.dashboard, a.repo)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return server.Start(gctx) })
			g.Go(func() error { return a.scheduler.Start(gctx) })

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			slog.Info("shutdown complete")
			return nil
		},
	}
}

func tickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run a single scheduler tick and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()
			return a.scheduler.RunTick(cmd.Context())
		},
	}
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print the current dashboard snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			snap, err := a.dashboard.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
}

func printSnapshot(w io.Writer, snap services.DashboardSnapshot) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if snap.Empty {
		fmt.Fprintln(tw, "No records yet.")
		return
	}

	fmt.Fprintf(tw, "Balance:\t%s\n", core.Money{Cents: snap.Balance})
	fmt.Fprintf(tw, "Monthly projection:\t%s\n", core.Money{Cents: snap.MonthlyProjection})
	fmt.Fprintf(tw, "Saving rate:\t%d%%\n", snap.Health.SavingRate)
	fmt.Fprintf(tw, "Credit use:\t%d%%\n", snap.Health.CreditUse)

	if len(snap.Distribution) > 0 {
		fmt.Fprintln(tw, "\nExpense distribution:")
		for _, slice := range snap.Distribution {
			fmt.Fprintf(tw, "  %s:\t%s\n", slice.Kind, core.Money{Cents: slice.AmountCents})
		}
	}

	if len(snap.CardsUsage) > 0 {
		fmt.Fprintln(tw, "\nCards:")
		for _, u := range snap.CardsUsage {
			fmt.Fprintf(tw, "  %s:\tused %s of %s (available %s)\n",
				u.Name,
				core.Money{Cents: u.UsedCents},
				core.Money{Cents: u.LimitCents},
				core.Money{Cents: u.AvailableCents})
		}
	}

	fmt.Fprintln(tw, "\nSuggestions:")
	for _, s := range snap.Suggestions {
		fmt.Fprintf(tw, "  - %s\n", s)
	}
}
