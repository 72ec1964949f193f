package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"music-controller/internal/infra/setup"
)

// janitorOff 关闭孤儿房间周期清理
const janitorOff = "off"

// Config 结构体用于存储从环境变量或 .env 文件加载的配置
type Config struct {
	AppEnv     string
	LogLevel   string
	ServerPort string

	DB setup.DBConfig

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string

	SessionSecret       string
	SessionTTL          time.Duration
	SessionCookieSecure bool

	CORSAllowedOrigin string
	CodeMaxAttempts   int
	// JanitorSchedule asynq cron 表达式，为空表示关闭
	JanitorSchedule string
}

// LoadConfig 优先加载 .env 文件 (如果存在)，再从环境变量读取配置
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // 忽略错误，允许只使用环境变量

	cfg := &Config{
		AppEnv:     getEnv("APP_ENV", "development"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		ServerPort: getEnv("SERVER_PORT", "8000"),
		DB: setup.DBConfig{
			Driver:   getEnv("DB_DRIVER", setup.DriverMySQL),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			Name:     os.Getenv("DB_NAME"),
		},
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		KeyPrefix:         getEnv("REDIS_KEY_PREFIX", "mc:"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		JanitorSchedule:   getEnv("JANITOR_SCHEDULE", "@every 10m"),
	}

	// 必填项检查
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("environment variable SESSION_SECRET must be set")
	}

	// 解析数值与布尔类型的配置
	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	ttlHours, err := getEnvInt("SESSION_TTL_HOURS", 336)
	if err != nil {
		return nil, err
	}
	if ttlHours <= 0 {
		return nil, fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", ttlHours)
	}
	cfg.SessionTTL = time.Duration(ttlHours) * time.Hour
	if cfg.CodeMaxAttempts, err = getEnvInt("CODE_MAX_ATTEMPTS", 10); err != nil {
		return nil, err
	}
	if raw := os.Getenv("SESSION_COOKIE_SECURE"); raw != "" {
		if cfg.SessionCookieSecure, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("invalid SESSION_COOKIE_SECURE %q: %w", raw, err)
		}
	}
	// JANITOR_SCHEDULE=off 关闭周期清理
	if strings.EqualFold(strings.TrimSpace(cfg.JanitorSchedule), janitorOff) {
		cfg.JanitorSchedule = ""
	}

	// 验证日志级别，非法值回退为 info
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// getEnv 读取环境变量，为空时使用默认值
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt 读取整数类型的环境变量
func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
