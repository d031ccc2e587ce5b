package main

import (
	"context"
	"crypto/rsa"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/shatlykos/cafe-management-system/internal/api/middleware"
	v1 "github.com/shatlykos/cafe-management-system/internal/api/v1"
	"github.com/shatlykos/cafe-management-system/internal/event"
	"github.com/shatlykos/cafe-management-system/internal/metrics"
	"github.com/shatlykos/cafe-management-system/internal/repository/postgres"
	"github.com/shatlykos/cafe-management-system/internal/scheduler"
	schedulerjobs "github.com/shatlykos/cafe-management-system/internal/scheduler/jobs"
	"github.com/shatlykos/cafe-management-system/internal/service"
	"github.com/shatlykos/cafe-management-system/internal/sse"
	"github.com/shatlykos/cafe-management-system/internal/station"
	migrationfs "github.com/shatlykos/cafe-management-system/migrations"
	systemlog "github.com/shatlykos/cafe-management-system/pkg/logger"
	"github.com/shatlykos/cafe-management-system/pkg/telegram"
)

type Config struct {
	App struct {
		Env string `mapstructure:"env"`
	} `mapstructure:"app"`
	Server struct {
		Host            string        `mapstructure:"host"`
		Port            int           `mapstructure:"port"`
		PublicURL       string        `mapstructure:"public_url"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Database struct {
		URL         string        `mapstructure:"url"`
		MaxConns    int           `mapstructure:"max_conns"`
		PingTimeout time.Duration `mapstructure:"ping_timeout"`
		AutoMigrate bool          `mapstructure:"auto_migrate"`
	} `mapstructure:"database"`
	Log struct {
		Level    string `mapstructure:"level"`
		Encoding string `mapstructure:"encoding"`
	} `mapstructure:"log"`
	Security struct {
		StationHMACSecret     string `mapstructure:"station_hmac_secret"`
		StationHMACSecretFile string `mapstructure:"station_hmac_secret_file"`
		InternalToken         string `mapstructure:"internal_token"`
		InternalTokenFile     string `mapstructure:"internal_token_file"`
	} `mapstructure:"security"`
	Telegram struct {
		BotToken      string  `mapstructure:"bot_token"`
		BotTokenFile  string  `mapstructure:"bot_token_file"`
		WebhookSecret string  `mapstructure:"webhook_secret"`
		AdminChatIDs  []int64 `mapstructure:"admin_chat_ids"`
	} `mapstructure:"telegram"`
	CORS struct {
		AllowOrigins []string `mapstructure:"allow_origins"`
	} `mapstructure:"cors"`
	Debug struct {
		PprofEnabled bool `mapstructure:"pprof_enabled"`
	} `mapstructure:"debug"`
}

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "healthcheck":
			os.Exit(runHealthcheck())
		case "migrate":
			if err := runMigrateCommand(); err != nil {
				fmt.Fprintln(os.Stderr, sanitizeCLIError(err))
				os.Exit(1)
			}
			return
		case "create-admin":
			if err := runCreateAdminCommand(os.Args[2:]); err != nil {
				fmt.Fprintln(os.Stderr, sanitizeCLIError(err))
				os.Exit(1)
			}
			return
		case "cli":
			if err := runConsole(os.Args[2:]); err != nil {
				fmt.Fprintln(os.Stderr, sanitizeCLIError(err))
				os.Exit(1)
			}
			return
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}

	logger, systemLogStore, err := newLogger(cfg)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer logger.Sync() //nolint:errcheck

	isDebugMode := strings.EqualFold(cfg.App.Env, "development")
	if !isDebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Database.AutoMigrate {
		if err := runMigrateUp(cfg.Database.URL); err != nil {
			logger.Fatal("apply migrations failed", zap.Error(err))
		}
		logger.Info("migrations applied")
	}

	dbPool, err := newDBPool(context.Background(), cfg)
	if err != nil {
		logger.Fatal("connect database failed", zap.Error(err))
	}
	defer dbPool.Close()

	clientRepo := postgres.NewClientRepository(dbPool)
	visitRepo := postgres.NewVisitRepository(dbPool)
	eventRepo := postgres.NewClientEventRepository(dbPool)
	staffRepo := postgres.NewStaffRepository(dbPool)
	ingredientRepo := postgres.NewIngredientRepository(dbPool)
	dishRepo := postgres.NewDishRepository(dbPool)
	expenseRepo := postgres.NewExpenseRepository(dbPool)
	saleRepo := postgres.NewSaleRepository(dbPool)

	sseHub := sse.NewHub(logger)
	defer sseHub.Close()

	eventBus := event.NewBus()

	clientSvc := service.NewClientService(clientRepo, eventRepo, dbPool, eventBus, sseHub, logger)
	scanSvc := service.NewScanService(clientRepo, visitRepo, dbPool, eventBus, sseHub, logger)
	menuSvc := service.NewMenuService(ingredientRepo, dishRepo, logger)
	financeSvc := service.NewFinanceService(expenseRepo, saleRepo, menuSvc, logger)
	exportSvc := service.NewExportService(menuSvc, financeSvc, logger)

	bot := telegram.NewBotClient(cfg.Telegram.BotToken, nil)
	telegramSvc := service.NewTelegramService(
		bot,
		clientSvc,
		scanSvc,
		eventBus,
		sseHub,
		cfg.Server.PublicURL,
		logger,
	)

	jwtPrivateKey, err := loadRSAPrivateKey()
	if err != nil {
		logger.Fatal("load jwt private key failed", zap.Error(err))
	}
	authSvc := service.NewAuthService(staffRepo, dbPool, jwtPrivateKey)

	gateway := station.NewGateway(scanSvc, sseHub, logger)
	defer gateway.Close()

	if repaired, err := clientSvc.RepairBarcodes(context.Background()); err != nil {
		logger.Warn("startup barcode repair failed", zap.Error(err))
	} else if repaired > 0 {
		logger.Info("startup barcode repair finished", zap.Int("repaired", repaired))
	}

	barcodeJob := schedulerjobs.NewBarcodeJob(clientSvc, logger)
	digestJob := schedulerjobs.NewDigestJob(telegramSvc, cfg.Telegram.AdminChatIDs, logger)

	cronRunner := scheduler.NewScheduler(scheduler.Deps{
		BarcodeJob: barcodeJob,
		DigestJob:  digestJob,
	}, logger)
	cronRunner.Start()
	defer func() {
		stopCtx := cronRunner.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(2 * time.Second):
		}
	}()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(buildCORSMiddleware(cfg))
	router.Use(middleware.RequestLogger(logger))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	readyHandler := func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Database.PingTimeout)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"error":  "database unavailable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler)
	router.GET("/api/v1/health", healthHandler)
	router.GET("/api/v1/health/ready", readyHandler)

	internalMetrics := router.Group("/internal")
	internalMetrics.Use(middleware.InternalTokenAuth(cfg.Security.InternalToken))
	internalMetrics.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if isDebugMode && cfg.Debug.PprofEnabled {
		registerPprofRoutes(router)
		logger.Info("pprof endpoint enabled", zap.String("path", "/debug/pprof/"))
	}

	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.MaintenanceMode())
	v1.RegisterAuthRoutes(apiV1, authSvc)
	v1.RegisterClientRoutes(apiV1, clientSvc, telegramSvc)
	v1.RegisterBarcodeRoutes(apiV1, clientSvc)
	v1.RegisterScanRoutes(apiV1, scanSvc)
	v1.RegisterMenuRoutes(apiV1, menuSvc)
	v1.RegisterFinanceRoutes(apiV1, financeSvc)
	v1.RegisterExportRoutes(apiV1, exportSvc)
	v1.RegisterTelegramRoutes(apiV1, telegramSvc, cfg.Telegram.WebhookSecret)
	v1.RegisterSystemRoutes(apiV1, systemLogStore)
	v1.RegisterSSERoutes(apiV1, sseHub)
	v1.RegisterStationRoutes(apiV1, gateway, cfg.Security.StationHMACSecret)
	if err := v1.RegisterPortalRoutes(router, clientSvc, scanSvc, logger); err != nil {
		logger.Fatal("register portal routes failed", zap.Error(err))
	}

	stopMetricsCollector := startMetricsCollector(gateway, sseHub)
	defer stopMetricsCollector()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	logger.Info("server started",
		zap.String("addr", srv.Addr),
		zap.String("version", Version),
		zap.String("commit", Commit),
		zap.String("build_time", BuildTime),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			logger.Fatal("server exited unexpectedly", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown server failed", zap.Error(err))
	}
}

func loadConfig() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CAFEHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database.url", "CAFEHUB_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("telegram.bot_token", "CAFEHUB_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")

	v.SetDefault("app.env", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.ping_timeout", "3s")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("security.station_hmac_secret", "")
	v.SetDefault("security.station_hmac_secret_file", "")
	v.SetDefault("security.internal_token", "")
	v.SetDefault("security.internal_token_file", "")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.bot_token_file", "")
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.admin_chat_ids", []int64{})
	v.SetDefault("cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("debug.pprof_enabled", false)

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return Config{}, fmt.Errorf("read config file failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config failed: %w", err)
	}

	if strings.TrimSpace(cfg.Security.StationHMACSecret) == "" && strings.TrimSpace(cfg.Security.StationHMACSecretFile) != "" {
		// #nosec G304 -- path is provided by operator config.
		raw, err := os.ReadFile(strings.TrimSpace(cfg.Security.StationHMACSecretFile))
		if err != nil {
			return Config{}, fmt.Errorf("read security.station_hmac_secret_file failed: %w", err)
		}
		cfg.Security.StationHMACSecret = strings.TrimSpace(string(raw))
	}
	if strings.TrimSpace(cfg.Security.InternalToken) == "" && strings.TrimSpace(cfg.Security.InternalTokenFile) != "" {
		// #nosec G304 -- path is provided by operator config.
		raw, err := os.ReadFile(strings.TrimSpace(cfg.Security.InternalTokenFile))
		if err != nil {
			return Config{}, fmt.Errorf("read security.internal_token_file failed: %w", err)
		}
		cfg.Security.InternalToken = strings.TrimSpace(string(raw))
	}
	if strings.TrimSpace(cfg.Telegram.BotToken) == "" && strings.TrimSpace(cfg.Telegram.BotTokenFile) != "" {
		// #nosec G304 -- path is provided by operator config.
		raw, err := os.ReadFile(strings.TrimSpace(cfg.Telegram.BotTokenFile))
		if err != nil {
			return Config{}, fmt.Errorf("read telegram.bot_token_file failed: %w", err)
		}
		cfg.Telegram.BotToken = strings.TrimSpace(string(raw))
	}

	if cfg.Database.URL == "" {
		return Config{}, errors.New("database.url is required")
	}

	if cfg.Database.MaxConns <= 0 {
		return Config{}, errors.New("database.max_conns must be greater than 0")
	}

	if cfg.Database.PingTimeout <= 0 {
		return Config{}, errors.New("database.ping_timeout must be greater than 0")
	}

	if len(cfg.CORS.AllowOrigins) == 0 {
		return Config{}, errors.New("cors.allow_origins must not be empty")
	}
	for _, origin := range cfg.CORS.AllowOrigins {
		if strings.TrimSpace(origin) == "*" {
			return Config{}, errors.New("cors.allow_origins must not contain wildcard *")
		}
	}

	return cfg, nil
}

func newLogger(cfg Config) (*zap.Logger, *systemlog.SystemLogStore, error) {
	var zapCfg zap.Config
	if strings.EqualFold(cfg.App.Env, "development") {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			return nil, nil, fmt.Errorf("invalid log.level: %w", err)
		}
	}

	if cfg.Log.Encoding != "" {
		zapCfg.Encoding = cfg.Log.Encoding
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build zap logger failed: %w", err)
	}

	logStore := systemlog.NewSystemLogStore(1000)
	logger = systemlog.WrapZapLogger(logger, logStore)
	return logger, logStore, nil
}

func newDBPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database.url failed: %w", err)
	}

	const maxInt32 = int(^uint32(0) >> 1)
	if cfg.Database.MaxConns > maxInt32 {
		return nil, fmt.Errorf("database.max_conns must be <= %d", maxInt32)
	}

	poolCfg.MaxConns = int32(cfg.Database.MaxConns) // #nosec G115 -- validated upper bound above.

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.PingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database failed: %w", err)
	}

	return pool, nil
}

func buildCORSMiddleware(cfg Config) gin.HandlerFunc {
	origins := make([]string, 0, len(cfg.CORS.AllowOrigins))
	for _, origin := range cfg.CORS.AllowOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		origins = append(origins, trimmed)
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Type", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func registerPprofRoutes(router *gin.Engine) {
	pprofGroup := router.Group("/debug/pprof")
	pprofGroup.GET("/", gin.WrapF(pprof.Index))
	pprofGroup.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	pprofGroup.GET("/profile", gin.WrapF(pprof.Profile))
	pprofGroup.GET("/symbol", gin.WrapF(pprof.Symbol))
	pprofGroup.POST("/symbol", gin.WrapF(pprof.Symbol))
	pprofGroup.GET("/trace", gin.WrapF(pprof.Trace))
	pprofGroup.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
	pprofGroup.GET("/block", gin.WrapH(pprof.Handler("block")))
	pprofGroup.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	pprofGroup.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	pprofGroup.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
	pprofGroup.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
}

func startMetricsCollector(gateway *station.Gateway, sseHub *sse.Hub) func() {
	stopCh := make(chan struct{})

	collect := func() {
		if gateway != nil {
			metrics.SetStationConnections(gateway.ConnectedCount())
		}
		if sseHub != nil {
			metrics.SetSSEClients(sseHub.ConnectedCount())
		}
	}

	collect()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				collect()
			}
		}
	}()

	return func() {
		close(stopCh)
	}
}

func loadRSAPrivateKey() (*rsa.PrivateKey, error) {
	pem := strings.TrimSpace(os.Getenv("CAFEHUB_JWT_PRIVATE_KEY"))
	if pem == "" {
		path := strings.TrimSpace(os.Getenv("CAFEHUB_JWT_PRIVATE_KEY_FILE"))
		if path != "" {
			// #nosec G304,G703 -- path is provided by operator environment variable.
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			pem = string(raw)
		}
	}
	if pem == "" {
		return nil, errors.New("jwt private key not configured")
	}
	return jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
}

func runMigrateCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config failed: %w", err)
	}

	if err := runMigrateUp(cfg.Database.URL); err != nil {
		return err
	}

	fmt.Println("migrations applied successfully")
	return nil
}

func runMigrateUp(databaseURL string) error {
	source, err := iofs.New(migrationfs.FS, ".")
	if err != nil {
		return fmt.Errorf("open embedded migrations failed: %w", err)
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer migrator.Close() //nolint:errcheck

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations failed: %w", err)
	}
	return nil
}

func runCreateAdminCommand(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config failed: %w", err)
	}

	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var username string
	var password string

	fs.StringVar(&username, "username", "admin", "admin username")
	fs.StringVar(&password, "password", "", "admin password")

	if err := fs.Parse(args); err != nil {
		return err
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}
	if !isStrongPassword(password) {
		return errors.New("password must be >=12 chars and include upper/lowercase letters and digits")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("parse database config failed: %w", err)
	}
	poolCfg.MaxConns = 2

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect database failed: %w", err)
	}
	defer pool.Close()

	var existingID uuid.UUID
	err = pool.QueryRow(ctx, `SELECT id FROM staff WHERE username = $1`, username).Scan(&existingID)
	if err == nil {
		fmt.Printf("admin account '%s' already exists, skip\n", username)
		return nil
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("query staff failed: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return fmt.Errorf("hash password failed: %w", err)
	}

	_, err = pool.Exec(
		ctx,
		`INSERT INTO staff (id, username, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, 'admin', NOW(), NOW())`,
		uuid.New(),
		username,
		string(hashed),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			fmt.Printf("admin account '%s' already exists, skip\n", username)
			return nil
		}
		return fmt.Errorf("create admin failed: %w", err)
	}

	fmt.Printf("admin account '%s' created successfully\n", username)
	return nil
}

func isStrongPassword(password string) bool {
	if len(password) < 12 {
		return false
	}
	hasLower := regexp.MustCompile(`[a-z]`).MatchString(password)
	hasUpper := regexp.MustCompile(`[A-Z]`).MatchString(password)
	hasDigit := regexp.MustCompile(`[0-9]`).MatchString(password)
	return hasLower && hasUpper && hasDigit
}

func runHealthcheck() int {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get("http://localhost:8080/readyz")
	if err != nil {
		return 1
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}

func sanitizeCLIError(err error) string {
	if err == nil {
		return ""
	}

	text := strings.ReplaceAll(err.Error(), "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.TrimSpace(text)
}
