package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// EngineConfig 預訂引擎的可調參數
type EngineConfig struct {
	// LockTTL 座位鎖的存活時間，pending booking 超過即視為過期
	LockTTL time.Duration
	// SweepInterval 回收器掃描間隔，只影響回收延遲，不影響正確性
	SweepInterval time.Duration
	// SweepBatch 單次掃描的最大筆數
	SweepBatch int
	// QueueBackend 出票隊列後端："memory" 或 "redis"
	QueueBackend string
	// ConvenienceFeeRate / PlatformFeeRate 以基本金額計算的費率
	ConvenienceFeeRate decimal.Decimal
	PlatformFeeRate    decimal.Decimal
}

var AppConfig *Config

func LoadConfig() *Config {
	// .env 不存在時忽略，直接讀環境變數
	_ = godotenv.Load()

	AppConfig = &Config{
		Server:   GetServerConfig(),
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
		Engine:   GetEngineConfig(),
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	testConfig := &DatabaseConfig{
		Host:     "localhost",
		Port:     "5433", // 測試 DB 用 5433 port
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	testRedisConfig := RedisConfig{
		Host:     "localhost",
		Port:     "6380", // 測試 Redis 用 6380 port
		Password: "",
		DB:       1,
	}

	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: *testConfig,
		Redis:    testRedisConfig,
		Engine: EngineConfig{
			LockTTL:            time.Second,
			SweepInterval:      100 * time.Millisecond,
			SweepBatch:         100,
			QueueBackend:       "memory",
			ConvenienceFeeRate: decimal.NewFromFloat(0.05),
			PlatformFeeRate:    decimal.NewFromFloat(0.02),
		},
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port: getEnv("SERVER_PORT", "8080"),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func GetEngineConfig() EngineConfig {
	return EngineConfig{
		LockTTL:            getDurationEnv("LOCK_TTL", 10*time.Minute),
		SweepInterval:      getDurationEnv("SWEEP_INTERVAL", 30*time.Second),
		SweepBatch:         getIntEnv("SWEEP_BATCH", 100),
		QueueBackend:       getEnv("QUEUE_BACKEND", "memory"),
		ConvenienceFeeRate: getDecimalEnv("CONVENIENCE_FEE_RATE", "0.05"),
		PlatformFeeRate:    getDecimalEnv("PLATFORM_FEE_RATE", "0.02"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		panic(err)
	}
	return n
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(err)
	}
	return d
}

func getDecimalEnv(key, fallback string) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		value = fallback
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}
