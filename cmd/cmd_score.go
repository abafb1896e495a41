package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	service "github.com/groupscholar/cohort-early-warning/internal/app"
	"github.com/groupscholar/cohort-early-warning/internal/config"
	"github.com/groupscholar/cohort-early-warning/internal/domain/report"
)

func newScoreCmd(c *cli) *cobra.Command {
	var (
		scope scopeFlags
		limit int
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Print the highest risk scholars",
		Example: `  cohort-early-warning score
  cohort-early-warning score --cohort 2026 --since-days 14
  cohort-early-warning score --email avery.lee@groupscholar.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = c.cfg.Limit
			}
			q := scope.query(cmd.Flags(), c.cfg)

			return c.withService(cmd.Context(), func(svc *service.Service) error {
				scores, err := svc.Score(cmd.Context(), q)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(scores) == 0 {
					fmt.Fprintln(out, "No signals found for this window.")
					return nil
				}
				fmt.Fprintln(out, "Top scholars by risk score:")
				if limit > 0 {
					scores = scores[:min(len(scores), limit)]
				}
				for _, s := range scores {
					fmt.Fprintln(out, report.FormatScoreLine(s))
				}
				return nil
			})
		},
	}
	scope.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", config.New().Limit, "Number of scholars to print (default from config)")
	return cmd
}

func newReportCmd(c *cli) *cobra.Command {
	var (
		scope   scopeFlags
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the markdown early warning report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("out") {
				outPath = c.cfg.ReportPath
			}
			q := scope.query(cmd.Flags(), c.cfg)

			return c.withService(cmd.Context(), func(svc *service.Service) error {
				text, err := svc.Report(cmd.Context(), q)
				if err != nil {
					return err
				}
				if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s.\n", outPath)
				return nil
			})
		},
	}
	scope.register(cmd)
	cmd.Flags().StringVar(&outPath, "out", config.New().ReportPath, "Report destination (default from config)")
	return cmd
}
