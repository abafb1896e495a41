package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	service "github.com/groupscholar/cohort-early-warning/internal/app"
)

func newInitDBCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd.Context(), func(svc *service.Service) error {
				if _, err := svc.InitDB(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema ready.")
				return nil
			})
		},
	}
}

func newSeedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the reference scholars and signals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd.Context(), func(svc *service.Service) error {
				if _, err := svc.Seed(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Seed data inserted.")
				return nil
			})
		},
	}
}

func newImportCmd(c *cli) *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load signals from a CSV file",
		Long: `Load signals from a CSV file with a header row. Required columns are
full_name, email, cohort, signal_type, severity, note and occurred_at
(YYYY-MM-DD). source_key is optional. Rows whose source_key was already
imported are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", csvPath, err)
			}
			defer f.Close()

			return c.withService(cmd.Context(), func(svc *service.Service) error {
				res, err := svc.Import(cmd.Context(), f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d signals from %s.\n", res.Inserted, csvPath)
				if res.Duplicates > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d duplicate signals.\n", res.Duplicates)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "Path to the signals CSV")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}
