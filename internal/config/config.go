package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/currency"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod/test

	DBDriver         string // postgres / sqlite
	DatabaseURL      string // あれば最優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string
	SQLitePath       string

	JWTSecret    string        // JWT署名シークレット
	SessionTTL   time.Duration // セッションcookieの有効期限
	CookieSecure bool
	BcryptCost   int

	BaseURL  string // success/cancel URL の組み立てに使う
	Currency string // 価格の通貨（ISO 4217 小文字）

	StripeSecretKey  string
	StripeAPIURL     string // stripe-mock などに向けるとき
	GatewayTimeout   time.Duration
	PriceSyncOnStart bool

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// IsDev は開発環境かどうか
func (c Config) IsDev() bool {
	return c.GoEnv == "" || c.GoEnv == "dev"
}

// Loadは .env と環境変数から設定を読む
func Load() (Config, error) {
	//.env は無くてもよい
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "dev")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "cafeshop")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "cafes.db")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("BASE_URL", "http://127.0.0.1:8080")
	v.SetDefault("CURRENCY", "gbp")
	v.SetDefault("GATEWAY_TIMEOUT", "15s")
	v.SetDefault("PRICE_SYNC_ON_START", true)
	v.SetDefault("ADMIN_NAME", "Admin")

	return v
}

// FromViperはviperの値からConfigを組み立てて検証する
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:  v.GetString("PORT"),
		GoEnv: v.GetString("GO_ENV"),

		DBDriver:         strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresPort:     v.GetInt("POSTGRES_PORT"),
		PostgresSSLMode:  v.GetString("POSTGRES_SSLMODE"),
		SQLitePath:       v.GetString("SQLITE_PATH"),

		JWTSecret:    v.GetString("JWT_SECRET"),
		SessionTTL:   v.GetDuration("SESSION_TTL"),
		CookieSecure: v.GetBool("COOKIE_SECURE"),
		BcryptCost:   v.GetInt("BCRYPT_COST"),

		BaseURL:  strings.TrimRight(v.GetString("BASE_URL"), "/"),
		Currency: strings.ToLower(strings.TrimSpace(v.GetString("CURRENCY"))),

		StripeSecretKey:  v.GetString("STRIPE_SECRET_KEY"),
		StripeAPIURL:     v.GetString("STRIPE_API_URL"),
		GatewayTimeout:   v.GetDuration("GATEWAY_TIMEOUT"),
		PriceSyncOnStart: v.GetBool("PRICE_SYNC_ON_START"),

		AdminEmail:    strings.TrimSpace(v.GetString("ADMIN_EMAIL")),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
		AdminName:     v.GetString("ADMIN_NAME"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.DBDriver {
	case "postgres":
		if cfg.DatabaseURL == "" && cfg.PostgresHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			return Config{}, fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be postgres or sqlite: %q", cfg.DBDriver)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive")
	}
	if _, err := currency.ParseISO(cfg.Currency); err != nil {
		return Config{}, fmt.Errorf("CURRENCY must be an ISO 4217 code: %w", err)
	}

	return cfg, nil
}

// RequireGateway は決済が必要なコマンドで呼ぶ
func (c Config) RequireGateway() error {
	if c.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	return nil
}
