package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/account"
	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/apiserver/handler"
	"github.com/amoylab/taskflow/internal/audit"
	"github.com/amoylab/taskflow/internal/auth/jwt"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/config"
	"github.com/amoylab/taskflow/internal/common/errorx"
	"github.com/amoylab/taskflow/internal/i18n"
	"github.com/amoylab/taskflow/internal/ident"
	"github.com/amoylab/taskflow/internal/notify"
	"github.com/amoylab/taskflow/internal/task"
	"github.com/amoylab/taskflow/internal/tenancy"
	"github.com/amoylab/taskflow/pkg/logger"
	"github.com/amoylab/taskflow/pkg/metrics"
	"github.com/amoylab/taskflow/pkg/trace"
	"github.com/amoylab/taskflow/pkg/version"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of taskflow",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("taskflow version %s\n", version.Get())
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	bootstrapCmd = &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the super admin account if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return bootstrap(cmd.Context())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "taskflow",
		Short: "Multi-company task scheduler",
		Long:  `taskflow assigns coded tasks to employees across companies and notifies them on their devices`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "conf", "c", cnst.TaskflowYaml, "path to configuration file")
	rootCmd.AddCommand(versionCmd, serveCmd, bootstrapCmd)
}

// app holds everything the API needs, built once from configuration
type app struct {
	cfg      *config.TaskflowConfig
	logger   *zap.Logger
	db       database.Database
	redis    redis.UniversalClient
	metrics  *metrics.Metrics
	accounts *account.Service
	push     *notify.Dispatcher
	handler  *handler.Handler
	closers  []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context) (*app, error) {
	cfg, cfgPath, err := config.LoadConfig[config.TaskflowConfig](configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration %s: %w", cfgPath, err)
	}

	lg, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	a := &app{cfg: cfg, logger: lg}
	a.closers = append(a.closers, func() { _ = lg.Sync() })
	lg.Info("loaded configuration", zap.String("path", cfgPath))

	if cfg.Metrics.Enabled {
		a.metrics = metrics.New(cfg.Metrics)
	}

	a.db, err = database.NewDatabase(&cfg.Database)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.db.Close() })
	lg.Info("database ready", zap.String("dialect", a.db.Dialect()))

	a.redis, err = notify.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.redis.Close() })

	counter, err := newCounter(ctx, cfg, a.db, a.redis)
	if err != nil {
		a.close()
		return nil, err
	}

	tokens, err := jwt.NewService(cfg.JWT)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize jwt: %w", err)
	}

	a.push, err = notify.NewDispatcher(a.db, notify.NewRedisQueue(a.redis, cfg.Push.Queue.Key), cfg.Push, cfg.Server.BaseURL, lg, a.metrics)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize push dispatcher: %w", err)
	}

	rec := audit.NewRecorder(a.db, lg, a.metrics)
	guard := tenancy.NewGuard(a.db, rec, lg)
	a.accounts = account.NewService(a.db, guard, rec, tokens, lg)
	alloc := ident.NewAllocator(counter, lg, a.metrics)
	tasks := task.NewService(a.db, guard, rec, alloc, a.push, lg,
		task.WithMaxBatch(cfg.Tasks.MaxBatch),
		task.WithMetrics(a.metrics))

	a.handler = handler.NewHandler(handler.Deps{
		Accounts: a.accounts,
		Tasks:    tasks,
		Guard:    guard,
		Catalog:  tenancy.NewCatalog(a.db, guard, lg),
		Audit:    rec,
		Push:     a.push,
		Errors:   errorx.NewErrorHandler(lg),
		Server:   cfg.Server,
		TokenTTL: cfg.JWT.Duration,
		Logger:   lg,
	})
	return a, nil
}

// newCounter picks the task number source. A redis counter starts above
// the highest number already stored.
func newCounter(ctx context.Context, cfg *config.TaskflowConfig, db database.Database, client redis.UniversalClient) (ident.Counter, error) {
	switch cfg.Tasks.CounterStore {
	case cnst.CounterStoreDatabase:
		return ident.CounterFunc(db.NextTaskNum), nil
	case cnst.CounterStoreRedis:
		floor, err := db.MaxTaskNum(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read highest task number: %w", err)
		}
		return ident.NewRedisCounter(client, cfg.Tasks.CounterKey, floor), nil
	default:
		return nil, fmt.Errorf("unsupported counter store: %s", cfg.Tasks.CounterStore)
	}
}

func (a *app) bootstrapSuperAdmin(ctx context.Context) error {
	b := a.cfg.Bootstrap
	created, err := a.accounts.BootstrapSuperAdmin(ctx, b.Username, b.DisplayName, b.CredentialsFile)
	if err != nil {
		return fmt.Errorf("failed to bootstrap super admin: %w", err)
	}
	if created {
		a.logger.Warn("super admin created, credentials written to file",
			zap.String("username", b.Username),
			zap.String("file", b.CredentialsFile))
	}
	return nil
}

func bootstrap(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return a.bootstrapSuperAdmin(ctx)
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	lg := a.logger

	shutdownTracing, err := trace.InitTracing(ctx, &a.cfg.Tracing, lg)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(tctx)
	}()

	if err := a.bootstrapSuperAdmin(ctx); err != nil {
		return err
	}

	translator, err := i18n.Load(a.cfg.I18n.Path)
	if err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}

	go a.push.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(a.handler, handler.RouterOptions{
		Translator:  translator,
		Metrics:     a.metrics,
		MetricsPath: a.cfg.Metrics.Path,
		Tracing:     a.cfg.Tracing.Enabled,
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("starting taskflow",
			zap.String("version", version.Get()),
			zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	lg.Info("shutting down taskflow")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		lg.Error("failed to shutdown server", zap.Error(err))
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
