package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/traidnet/wificore/internal/common/config"
	"github.com/traidnet/wificore/internal/database"
	"github.com/traidnet/wificore/internal/deploy"
	"github.com/traidnet/wificore/internal/router"
	"github.com/traidnet/wificore/pkg/helper"
	logging "github.com/traidnet/wificore/pkg/logger"
	"github.com/traidnet/wificore/pkg/trace"
	"github.com/traidnet/wificore/pkg/utils"
	"github.com/traidnet/wificore/pkg/version"
)

var (
	configPath string
	pidFile    string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of deploy-worker",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("deploy-worker version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "deploy-worker",
		Short: "WifiCore deployment worker",
		Long:  `Consumes queued deployment jobs and applies configuration scripts to MikroTik routers`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "configs/wificore.yaml", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&pidFile, "pid", "", "path to PID file")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	cfg, cfgPath, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	logger, err := logging.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	logger.Info("Starting deploy-worker",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

	if pidFile == "" {
		pidFile = helper.GetPIDPath("deploy-worker.pid")
	}
	pm := utils.NewPIDManager(pidFile)
	if err := pm.WritePID(); err != nil {
		logger.Fatal("Failed to write PID file",
			zap.String("path", pidFile),
			zap.Error(err))
	}
	defer func() {
		_ = pm.RemovePID()
	}()

	if cfg.Tracing.Enabled {
		shutdown, err := trace.InitTracing(context.Background(), &cfg.Tracing, logger)
		if err != nil {
			logger.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = database.Close(db)
	}()

	cipher, err := router.NewCipher(cfg.Router.SecretKey)
	if err != nil {
		logger.Fatal("Failed to initialize credential cipher", zap.Error(err))
	}

	queue, err := deploy.NewQueue(logger, cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to connect to deployment queue", zap.Error(err))
	}
	defer func() {
		_ = queue.Close()
	}()

	executor := deploy.NewExecutor(logger, cfg.Router, cfg.Radius, db, cipher)
	pool := deploy.NewPool(logger, executor.Deploy, cfg.Router.Workers, cfg.Router.CallTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down")
		cancel()
	}()

	pool.Run(ctx, queue.Watch(ctx))
	logger.Info("Worker stopped")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to execute command: %v", err)
	}
}
