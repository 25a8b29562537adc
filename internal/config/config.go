package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL string // 指定があればPOSTGRES_*より優先

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	JWTSecret string // JWT署名シークレット（発行は認証サービス側）

	GoEnv string // dev/prod

	RedisAddr    string   // 空なら注文キャッシュなし
	KafkaBrokers []string // outbox relay用
	OTLPEndpoint string   // 空ならトレース送信なし

	ShippingFee           int64 // 固定送料
	FreeShippingThreshold int64 // この金額以上で送料無料

	OrderCacheTTL      time.Duration
	OutboxPollInterval time.Duration
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		GoEnv:     os.Getenv("GO_ENV"),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	var err error
	if cfg.PostgresPort, err = intEnv("POSTGRES_PORT", 5432); err != nil {
		return Config{}, err
	}
	if cfg.ShippingFee, err = int64Env("SHIPPING_FEE", 30000); err != nil {
		return Config{}, err
	}
	if cfg.FreeShippingThreshold, err = int64Env("FREE_SHIPPING_THRESHOLD", 200000); err != nil {
		return Config{}, err
	}
	if cfg.OrderCacheTTL, err = durationEnv("ORDER_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = durationEnv("OUTBOX_POLL_INTERVAL", time.Second); err != nil {
		return Config{}, err
	}

	//必須チェック
	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.ShippingFee < 0 || cfg.FreeShippingThreshold < 0 {
		return Config{}, fmt.Errorf("SHIPPING_FEE and FREE_SHIPPING_THRESHOLD must not be negative")
	}

	return cfg, nil
}

// DSN はgorm/pgxに渡す接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func int64Env(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
