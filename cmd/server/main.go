package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/quackscience/copilot-extension-duckdb/internal/ai"
	"github.com/quackscience/copilot-extension-duckdb/internal/config"
	"github.com/quackscience/copilot-extension-duckdb/internal/engine"
	"github.com/quackscience/copilot-extension-duckdb/internal/github"
	"github.com/quackscience/copilot-extension-duckdb/internal/handler"
	"github.com/quackscience/copilot-extension-duckdb/internal/job"
	"github.com/quackscience/copilot-extension-duckdb/internal/middleware"
	"github.com/quackscience/copilot-extension-duckdb/internal/repo"
	"github.com/quackscience/copilot-extension-duckdb/internal/schedule"
	"github.com/quackscience/copilot-extension-duckdb/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "copilot-extension-duckdb",
		Short: "DuckDB agent for GitHub Copilot chat",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the agent server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("data_dir", cfg.DataDir),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	client := &http.Client{Timeout: 15 * time.Second}
	ghClient := github.NewClient(cfg.GitHub.APIBase, client)
	keys := github.NewKeyCache(cfg.GitHub.APIBase, client, time.Duration(cfg.GitHub.KeyCacheTTLMin)*time.Minute)
	verifier := github.NewVerifier(keys)

	eng, err := engine.New(cfg.DataDir, cfg.Engine.MaxOpen)
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}
	defer eng.Close()
	history := repo.NewHistoryRepo(eng, cfg.Engine.HistoryKeep)

	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	querySvc := service.NewQueryService(
		eng, ghClient, provider, history,
		cfg.AI.Model, time.Duration(cfg.AI.TimeoutSec)*time.Second,
	)

	deps := handler.RouterDeps{
		Agent:    handler.NewAgentHandler(querySvc),
		Verifier: verifier,
	}
	web, err := webapi.NewEngine(
		"/",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	cleanup := job.NewEngineCleanupJob(eng, time.Duration(cfg.Engine.IdleCloseMin)*time.Minute)
	if err := scheduler.AddJob(cleanup, "*/10 * * * *"); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := web.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
