package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/config"
	"github.com/amoylab/taskflow/internal/notify"
	"github.com/amoylab/taskflow/pkg/helper"
	"github.com/amoylab/taskflow/pkg/logger"
	"github.com/amoylab/taskflow/pkg/version"
)

var (
	configPath string
	pidFile    string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of push-worker",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("push-worker version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "push-worker",
		Short: "Deliver queued push notifications",
		Long:  `push-worker drains the taskflow push queue and hands every job to a sender`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "conf", "c", cnst.PushWorkerYaml, "path to configuration file")
	rootCmd.Flags().StringVar(&pidFile, "pid", "", "write the process id to this file")
	rootCmd.AddCommand(versionCmd)
}

func run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, cfgPath, err := config.LoadConfig[config.PushWorkerConfig](configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration %s: %w", cfgPath, err)
	}
	lg, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer lg.Sync()

	if pidFile != "" {
		path := helper.GetPIDPath(pidFile)
		if err := helper.WritePID(path); err != nil {
			return err
		}
		defer func() { _ = helper.RemovePID(path) }()
	}

	client, err := notify.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	queue := notify.NewRedisQueue(client, cfg.Queue.Key)
	defer queue.Close()

	sender, err := newSender(cfg, lg)
	if err != nil {
		return err
	}
	lg.Info("starting push-worker",
		zap.String("version", version.Get()),
		zap.String("queue", queue.Key()),
		zap.Bool("dry_run", cfg.DryRun))

	return notify.NewWorker(queue, sender, cfg.Queue.PopTimeout, lg, nil).Run(ctx)
}

// newSender returns the delivery implementation. Only the dry-run sender
// exists; real delivery needs a web push client.
func newSender(cfg *config.PushWorkerConfig, lg *zap.Logger) (notify.Sender, error) {
	if !cfg.DryRun {
		lg.Warn("web push delivery is not available, falling back to dry run")
	}
	return notify.NewLogSender(lg), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
