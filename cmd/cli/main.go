package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/portalsekolah/spmb/cmd/cli/commands"
	"github.com/portalsekolah/spmb/internal/config"
	"github.com/portalsekolah/spmb/pkg/lock"
	"github.com/portalsekolah/spmb/pkg/metrics"
	"github.com/portalsekolah/spmb/pkg/postgres"
	"github.com/portalsekolah/spmb/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}
	cleanup []func()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	app.Ctx = ctx

	rootCmd := &cobra.Command{
		Use:   "spmb",
		Short: "SPMB zonasi admission - rank applicants and manage acceptance",
		Long: `A CLI tool for ranking school applicants by zone, age and distance, committing
acceptance outcomes, publishing rankings and notifying guardians.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ListPeriodsCmd(app))
	rootCmd.AddCommand(commands.ListRunsCmd(app))
	rootCmd.AddCommand(commands.PreviewRankingCmd(app))
	rootCmd.AddCommand(commands.CommitAcceptanceCmd(app))
	rootCmd.AddCommand(commands.PublishRankingCmd(app))
	rootCmd.AddCommand(commands.NotifyResultsCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if app.Logger != nil {
			app.Logger.Error("Command failed", zap.Error(err))
		}
		shutdown()
		os.Exit(1)
	}
}

// initApp sets up logger, config, database, locker and metrics. Google clients are created
// by the commands that need them.
func initApp(ctx context.Context) error {
	var err error
	app.Env = env

	app.Logger, err = logging.InitLogger(env, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	cleanup = append(cleanup, func() { _ = app.Logger.Sync() })

	app.Logger.Debug("Starting application")

	app.Logger.Debug("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	secrets, err := config.LoadSecrets(env)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	app.Logger.Debug("Connecting to database")
	app.Database, err = postgres.NewDB(ctx, secrets.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	cleanup = append(cleanup, app.Database.Close)

	if secrets.RedisURL != "" {
		app.Logger.Debug("Connecting to redis for period locks")
		redisLocker, err := lock.NewRedisLockerFromURL(ctx, secrets.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to initialize redis locker: %w", err)
		}
		app.Locker = redisLocker
		cleanup = append(cleanup, func() { _ = redisLocker.Close() })
	} else {
		app.Logger.Debug("No REDIS_URL set, period locks are held in-process")
		app.Locker = lock.NewMemoryLocker()
	}

	app.Metrics = metrics.New()
	app.Logger.Debug("Application initialized")

	return nil
}

// shutdown pushes metrics and releases resources in reverse order of creation
func shutdown() {
	if app.Metrics != nil && app.Cfg != nil {
		if err := app.Metrics.Push(app.Cfg.MetricsPushURL, env); err != nil {
			app.Logger.Warn("Failed to push metrics", zap.Error(err))
		}
	}
	for i := len(cleanup) - 1; i >= 0; i-- {
		cleanup[i]()
	}
	cleanup = nil
}
