package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "github.com/sairamarava/CodeTogether/internal/handler/http"
	wsHandler "github.com/sairamarava/CodeTogether/internal/handler/websocket"
	"github.com/sairamarava/CodeTogether/internal/hub"
	gormpersistence "github.com/sairamarava/CodeTogether/internal/infra/persistence/gorm"
	"github.com/sairamarava/CodeTogether/internal/infra/setup"
	redisstate "github.com/sairamarava/CodeTogether/internal/infra/state/redis"
	"github.com/sairamarava/CodeTogether/internal/middleware"
	"github.com/sairamarava/CodeTogether/internal/service"
	"github.com/sairamarava/CodeTogether/internal/tasks"
	"github.com/sairamarava/CodeTogether/internal/worker"
)

// Config holds everything read from the environment at startup.
type Config struct {
	DBUser          string
	DBPassword      string
	DBHost          string
	DBPort          string
	DBName          string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	JWTSecret       string
	JWTExpiryHours  int
	ServerPort      string
	LogLevel        string
	AppEnv          string
	KeyPrefix       string
	RunnerURL       string
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// LoadConfig reads configuration from the environment, with a .env file as
// an optional overlay for development.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBHost:          os.Getenv("DB_HOST"),
		DBPort:          os.Getenv("DB_PORT"),
		DBName:          os.Getenv("DB_NAME"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		ServerPort:      os.Getenv("SERVER_PORT"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		AppEnv:          os.Getenv("APP_ENV"),
		KeyPrefix:       os.Getenv("REDIS_KEY_PREFIX"),
		RunnerURL:       os.Getenv("RUNNER_URL"),
		JWTExpiryHours:  24,
		RateLimitMax:    100,
		RateLimitWindow: 1 * time.Second,
	}
	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB"))

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ct:"
	}
	if cfg.RunnerURL == "" {
		cfg.RunnerURL = "https://emkc.org/api/v2/piston"
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// App wires every component and owns their lifecycles.
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	Worker      *worker.Server
	Mux         *hub.Multiplexer
	HTTPServer  *http.Server
}

// NewApp loads config and builds the full dependency graph.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	log := logrus.StandardLogger()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	log.Info("Configuration loaded")

	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Infrastructure initialized")

	userRepo := gormpersistence.NewGormUserRepository(db)
	roomRepo := gormpersistence.NewGormRoomRepository(db)
	fileRepo := gormpersistence.NewGormFileRepository(db)
	messageRepo := gormpersistence.NewGormMessageRepository(db)
	presenceRepo := redisstate.NewRedisPresenceRepository(redisClient, cfg.KeyPrefix)
	rateLimitRepo := redisstate.NewRedisRateLimitRepository(redisClient, cfg.KeyPrefix)

	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	roomService := service.NewRoomService(roomRepo)
	presenceManager := service.NewPresenceManager(roomRepo, presenceRepo)
	fileService := service.NewFileService(fileRepo)
	chatService := service.NewChatService(messageRepo)
	executionService := service.NewExecutionService(roomRepo, rateLimitRepo, cfg.RunnerURL)
	log.Info("Services initialized")

	mux := hub.NewMultiplexer(
		hub.NewRegistry(),
		presenceManager,
		fileService,
		chatService,
		tasks.NewStatReporter(asynqClient),
	)
	workerServer := worker.NewServer(redisClientOpt, roomRepo, presenceRepo, log)

	authH := httpHandler.NewAuthHandler(authService)
	roomH := httpHandler.NewRoomHandler(roomService, presenceManager, chatService)
	fileH := httpHandler.NewFileHandler(fileService, roomService)
	execH := httpHandler.NewExecuteHandler(executionService)
	socketH := wsHandler.NewHandler(mux)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(rateLimitRepo, cfg.RateLimitMax, cfg.RateLimitWindow))

	api := router.Group("/api")
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authH.Register)
		authRoutes.POST("/login", authH.Login)
	}
	authed := api.Group("")
	authed.Use(middleware.JWTAuth(cfg.JWTSecret))
	{
		authed.POST("/rooms", roomH.Create)
		authed.GET("/rooms", roomH.ListPublic)
		authed.GET("/rooms/:roomId", roomH.Get)
		authed.POST("/rooms/:roomId/join", roomH.Join)
		authed.GET("/rooms/:roomId/active", roomH.ActiveUsers)
		authed.GET("/rooms/:roomId/messages", roomH.Messages)

		authed.POST("/rooms/:roomId/files", fileH.Create)
		authed.GET("/rooms/:roomId/files", fileH.List)
		authed.GET("/rooms/:roomId/files/:fileId", fileH.Get)
		authed.PUT("/rooms/:roomId/files/:fileId", fileH.Rename)
		authed.PUT("/rooms/:roomId/files/:fileId/content", fileH.SaveContent)
		authed.DELETE("/rooms/:roomId/files/:fileId", fileH.Delete)

		authed.POST("/execute", execH.Execute)
		authed.GET("/execute/languages", execH.Languages)
	}
	router.GET("/ws", middleware.JWTAuth(cfg.JWTSecret), socketH.Serve)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	return &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		AsynqClient: asynqClient,
		Worker:      workerServer,
		Mux:         mux,
		HTTPServer:  httpServer,
	}, nil
}

// Start launches the worker and the HTTP server. Non-blocking.
func (a *App) Start() {
	go func() {
		if err := a.Worker.Start(); err != nil {
			a.Log.Fatalf("Failed to start worker server: %v", err)
		}
	}()
	go func() {
		a.Log.Infof("HTTP server listening on %s", a.HTTPServer.Addr)
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()
}

// Shutdown stops accepting requests, drains the worker and closes every
// connection pool.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Log.WithError(err).Warn("HTTP server shutdown incomplete")
	}
	a.Worker.Shutdown()
	if err := a.AsynqClient.Close(); err != nil {
		a.Log.WithError(err).Warn("Failed to close asynq client")
	}
	if err := a.RedisClient.Close(); err != nil {
		a.Log.WithError(err).Warn("Failed to close redis client")
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	a.Log.Info("Shutdown complete")
}

func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		// Websocket upgrades hold the handler open for the whole session;
		// logging them here would report multi-hour "requests".
		if c.IsWebsocket() {
			return
		}
		log.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}).Info("Request handled")
	}
}

func corsMiddleware() gin.HandlerFunc {
	allowedOrigin := os.Getenv("CORS_ALLOWED_ORIGIN")
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3000"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
