package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/service/monitoring"
)

func newBackfillCmd(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Recompute farm summaries and cow statuses for a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := monitoring.RequireDate(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end, err := monitoring.RequireDate(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			if start.After(end) {
				return fmt.Errorf("%w: %s > %s", monitoring.ErrInvalidRange, from, to)
			}

			days := models.DaysBetween(start, end)
			dashboards := make([]models.Dashboard, len(days))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(a.cfg.Monitoring.StatusWorkers)
			for i, day := range days {
				g.Go(func() error {
					dash, err := a.monitor.Dashboard(ctx, day)
					if err != nil {
						return fmt.Errorf("backfill %s: %w", models.FormatDate(day), err)
					}
					dashboards[i] = dash
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, dash := range dashboards {
				fmt.Fprintf(out, "%s  cows=%d milk=%.2f feed=%.2f attention=%d\n",
					dash.Date, dash.TotalCows, dash.TotalMilk, dash.TotalFeed, dash.LowYieldCount)
			}
			a.logger.Info("backfill done", zap.String("from", from), zap.String("to", to), zap.Int("days", len(days)))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the farm summary of a day as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := a.monitor.ResolveDate(date)
			if err != nil {
				return err
			}
			summary, err := a.monitor.DailySummary(cmd.Context(), day)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to summarise, YYYY-MM-DD (default today)")
	return cmd
}
