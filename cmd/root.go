package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/groupscholar/cohort-early-warning/internal/adapters/repository"
	service "github.com/groupscholar/cohort-early-warning/internal/app"
	"github.com/groupscholar/cohort-early-warning/internal/config"
	"github.com/groupscholar/cohort-early-warning/pkg/logger"
)

// storeOpener connects to the signal store described by cfg.
type storeOpener func(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error)

// cli carries state shared by every subcommand.
type cli struct {
	out        io.Writer
	configPath string
	cfg        *config.Config
	log        logger.Logger
	openStore  storeOpener
	serviceOpt []service.Option
}

func newCLI(out io.Writer) *cli {
	return &cli{out: out, openStore: openPostgres, log: logger.Nop()}
}

func openPostgres(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	store, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		QueryTimeout:    cfg.QueryTimeout,
	}, repository.WithLogger(log.Named("repository")), repository.WithImportDedupeSize(cfg.ImportDedupeSize))
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "cohort-early-warning",
		Short: "Risk scoring and reporting for scholar cohorts",
		Long: `cohort-early-warning scores scholars by the severity and recency of the
warning signals recorded against them and renders a markdown report for
program staff.

Configuration is read from the YAML file given by --config or CEW_CONFIG,
then from CEW_* environment variables. DATABASE_URL is honoured when
CEW_DATABASE_URL is not set.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.load,
	}
	root.SetOut(c.out)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to a YAML config file (overrides CEW_CONFIG)")

	root.AddCommand(
		newInitDBCmd(c),
		newSeedCmd(c),
		newImportCmd(c),
		newScoreCmd(c),
		newReportCmd(c),
		newServeCmd(c),
	)
	return root
}

// load reads configuration and initializes logging before any subcommand runs.
func (c *cli) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Context(), c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	if err := logger.Init(logger.WithJSON(cfg.LogJSON), logger.WithOutput(os.Stderr)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	c.log = logger.Get().With(logger.String("command", cmd.Name()))
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		c.log.Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// withService opens the store, runs fn against a service over it and closes
// the store afterwards.
func (c *cli) withService(ctx context.Context, fn func(*service.Service) error) error {
	store, err := c.openStore(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			c.log.Warn(ctx, "failed to close store", logger.Error(cerr))
		}
	}()

	opts := append([]service.Option{
		service.WithLogger(c.log.Named("service")),
		service.WithDefaultSinceDays(c.cfg.SinceDays),
	}, c.serviceOpt...)
	return fn(service.New(store, opts...))
}

// scopeFlags are the filters shared by score and report.
type scopeFlags struct {
	cohort    string
	email     string
	sinceDays int
}

func (s *scopeFlags) register(cmd *cobra.Command) {
	defaults := config.New()
	cmd.Flags().StringVar(&s.cohort, "cohort", "", "Restrict to one cohort")
	cmd.Flags().StringVar(&s.email, "email", "", "Restrict to one scholar by email")
	cmd.Flags().IntVar(&s.sinceDays, "since-days", defaults.SinceDays, "Lookback window in days (default from config)")
	cmd.MarkFlagsMutuallyExclusive("cohort", "email")
}

// query builds the service query, taking the window from config unless the
// flag was given explicitly.
func (s *scopeFlags) query(fs *pflag.FlagSet, cfg *config.Config) service.Query {
	sinceDays := s.sinceDays
	if !fs.Changed("since-days") {
		sinceDays = cfg.SinceDays
	}
	return service.Query{Cohort: s.cohort, Email: s.email, SinceDays: sinceDays}
}
