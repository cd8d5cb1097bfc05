package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/traidnet/wificore/internal/apiserver"
	"github.com/traidnet/wificore/internal/apiserver/handler"
	"github.com/traidnet/wificore/internal/auth/jwt"
	"github.com/traidnet/wificore/internal/common/config"
	"github.com/traidnet/wificore/internal/database"
	"github.com/traidnet/wificore/internal/deploy"
	"github.com/traidnet/wificore/internal/ipam"
	"github.com/traidnet/wificore/internal/provisioning"
	"github.com/traidnet/wificore/internal/radius"
	"github.com/traidnet/wificore/internal/router"
	"github.com/traidnet/wificore/internal/script"
	"github.com/traidnet/wificore/internal/subscriber"
	tenantpkg "github.com/traidnet/wificore/internal/tenant"
	logging "github.com/traidnet/wificore/pkg/logger"
	"github.com/traidnet/wificore/pkg/metrics"
	"github.com/traidnet/wificore/pkg/trace"
	"github.com/traidnet/wificore/pkg/version"
)

var (
	configPath string

	tokenTenant string
	tokenUser   string
	tokenRole   string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of wificore",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wificore version %s\n", version.Get())
		},
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Mint an API token from the configured signing key",
		Long:  `Mints an API token without a running server. Use it once to bootstrap the first admin token; further tokens come from the API.`,
		Run: func(cmd *cobra.Command, args []string) {
			mintToken()
		},
	}

	rootCmd = &cobra.Command{
		Use:   "wificore",
		Short: "WifiCore API Server",
		Long:  `WifiCore provisions hotspot and PPPoE subscribers, keeps RADIUS in sync and rolls configuration out to MikroTik routers`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "configs/wificore.yaml", "path to configuration file")
	tokenCmd.Flags().StringVar(&tokenTenant, "tenant", "", "tenant id the token is scoped to")
	tokenCmd.Flags().StringVar(&tokenUser, "user", "admin", "username recorded in the token")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "admin", "role: admin or operator")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tokenCmd)
}

// tenantModels are the tables migrated into every tenant schema.
func tenantModels() []any {
	return []any{
		&subscriber.NetworkUser{}, &subscriber.Package{},
		&ipam.Pool{}, &ipam.ServiceVlan{},
		&router.Router{}, &router.RouterService{},
	}
}

func mintToken() {
	cfg, cfgPath, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}
	svc, err := jwt.NewService(jwt.Config{SecretKey: cfg.JWT.SecretKey, Duration: cfg.JWT.Duration})
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}
	if tokenRole == "operator" && tokenTenant == "" {
		log.Fatal("operator tokens need --tenant")
	}
	token, err := svc.GenerateToken("bootstrap", tokenUser, tokenTenant, tokenRole)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
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
	logger.Info("Starting wificore",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

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

	// shared tables live in the public schema
	if err := db.AutoMigrate(
		&tenantpkg.Tenant{},
		&radius.RadCheck{}, &radius.RadReply{}, &radius.UserSchemaMapping{},
	); err != nil {
		logger.Fatal("Failed to migrate shared tables", zap.Error(err))
	}

	jwtService, err := jwt.NewService(jwt.Config{SecretKey: cfg.JWT.SecretKey, Duration: cfg.JWT.Duration})
	if err != nil {
		logger.Fatal("Failed to initialize token service", zap.Error(err))
	}
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

	m := metrics.New(cfg.Metrics)
	builder := script.NewBuilder(logger, cfg.Radius)
	executor := deploy.NewExecutor(logger, cfg.Router, cfg.Radius, db, cipher).WithMetrics(m)
	orch := provisioning.NewOrchestrator(logger, db, builder, cipher, queue, executor, nil).WithMetrics(m)
	schemas := tenantpkg.NewSchemaManager(db, logger, tenantModels()...)

	h := handler.NewHandler(logger, db, orch, schemas, jwtService)
	engine := apiserver.NewRouter(logger, db, h, jwtService, m)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to execute command: %v", err)
	}
}
