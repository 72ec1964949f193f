package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "music-controller/internal/handler/http"
	gormpersistence "music-controller/internal/infra/persistence/gorm"
	"music-controller/internal/infra/setup"
	redisstate "music-controller/internal/infra/state/redis"
	"music-controller/internal/middleware"
	"music-controller/internal/service"
	"music-controller/internal/worker"
)

// App 结构体包含应用的所有组件
type App struct {
	Config       *Config
	Log          *logrus.Logger
	DB           *gorm.DB
	RedisClient  *redis.Client
	WorkerServer *worker.WorkerServer
	HttpServer   *http.Server
}

// NewApp 加载配置并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		// logrus 此时还未配置，直接写 stderr
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := newLogger(cfg)
	log.Info("Configuration loaded successfully")

	// 3. 初始化基础设施: 数据库 (含迁移) 与 Redis
	db, err := setup.InitDB(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	// 4. 初始化 Repositories
	roomRepo := gormpersistence.NewGormRoomRepository(db)
	sessionStore := redisstate.NewRedisSessionStore(redisClient, cfg.KeyPrefix, cfg.SessionTTL)

	// 5. 初始化 Services
	codes := service.NewCodeGenerator(roomRepo, cfg.CodeMaxAttempts)
	roomService := service.NewRoomService(roomRepo, sessionStore, codes)
	sessionService := service.NewSessionService(sessionStore)

	// 6. 初始化会话 Cookie 与 Handlers
	cookie := middleware.NewSessionCookie(cfg.SessionSecret, cfg.SessionTTL, cfg.SessionCookieSecure)
	roomHandler := httpHandler.NewRoomHandler(roomService, sessionService, cookie)

	// 7. 初始化 Worker Server，与会话存储共用同一个 Redis
	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	workerServer := worker.NewWorkerServer(redisClientOpt, roomRepo, sessionStore, cfg.JanitorSchedule, log)

	// 8. 初始化路由与 HTTP Server
	router := newRouter(cfg, log, cookie, roomHandler)
	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Application assembled successfully")
	return &App{
		Config:       cfg,
		Log:          log,
		DB:           db,
		RedisClient:  redisClient,
		WorkerServer: workerServer,
		HttpServer:   httpServer,
	}, nil
}

// newLogger 生产环境使用 JSON 格式，其他环境使用带完整时间戳的文本格式
func newLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	var formatter logrus.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if cfg.AppEnv == "production" {
		formatter = &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)

	log.SetFormatter(formatter)
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	// Service 层使用 logrus 标准 logger，保持格式与级别一致
	logrus.SetFormatter(formatter)
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)
	return log
}

// newRouter 创建 Gin Engine，挂载中间件并注册路由
func newRouter(cfg *Config, log *logrus.Logger, cookie *middleware.SessionCookie, rooms *httpHandler.RoomHandler) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	// 方法不匹配时返回 405 而不是 404 (例如 GET /api/create-room)
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	// 会话中间件放在最后，Handler 执行前解析 Cookie
	router.Use(cookie.Middleware())

	httpHandler.RegisterRoutes(router, rooms)
	return router
}

// Start 在后台启动 Worker 服务端与 HTTP 服务器
func (a *App) Start() {
	// Worker 启动失败不影响 HTTP 服务，只是孤儿房间不会被清理
	if err := a.WorkerServer.Start(); err != nil {
		a.Log.WithError(err).Error("Worker server failed to start, orphan rooms will not be purged")
	}

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 优雅地关闭应用，先关闭 HTTP 服务器，避免请求访问已关闭的存储
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 优雅关闭 HTTP 服务器
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 2. 关闭 Worker Server 与调度器
	if a.WorkerServer != nil {
		a.WorkerServer.Shutdown()
	}

	// 3. 关闭 Redis 连接
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}

	// 4. 关闭数据库连接池
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Errorf("Error closing database connection: %v", err)
			}
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  time.Since(startTime).Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			entry.Error(errorMessage)
			return
		}
		// 区分状态码记录日志级别
		switch {
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
