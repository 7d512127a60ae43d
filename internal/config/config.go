package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API         *APIConfig         `mapstructure:"api"`
	Gin         *GinConfig         `mapstructure:"gin"`
	Postgres    *PostgresConfig    `mapstructure:"postgres"`
	Payment     *PaymentConfig     `mapstructure:"payment"`
	Reservation *ReservationConfig `mapstructure:"reservation"`
	Redis       *RedisConfig       `mapstructure:"redis"`
	AMQP        *AMQPConfig        `mapstructure:"amqp"`
}

type APIConfig struct {
	Port               string   `mapstructure:"port"`
	BaseURL            string   `mapstructure:"base_url"`
	Environment        string   `mapstructure:"environment"`
	JWTSigningKey      string   `mapstructure:"jwt_signing_key"`
	AdminSecret        string   `mapstructure:"admin_secret"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode)
}

type PaymentConfig struct {
	// Provider is one of mercadopago, stripe or sandbox.
	Provider        string        `mapstructure:"provider"`
	AccessToken     string        `mapstructure:"access_token"`
	BaseURL         string        `mapstructure:"base_url"`
	NotificationURL string        `mapstructure:"notification_url"`
	Currency        string        `mapstructure:"currency"`
	Expiration      time.Duration `mapstructure:"expiration"`
}

type ReservationConfig struct {
	GracePeriod   time.Duration `mapstructure:"grace_period"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type RedisConfig struct {
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	NotificationTTL time.Duration `mapstructure:"notification_ttl"`
}

type AMQPConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

// Load reads the yaml file at path. Environment variables override it, with dots
// turned into underscores, so API_PORT overrides api.port.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Info("config file changed, restart to apply", zap.String("file", e.Name), zap.String("op", e.Op.String()))
	})
	v.WatchConfig()

	return conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.admin_secret", "")
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("payment.provider", "sandbox")
	v.SetDefault("payment.access_token", "")
	v.SetDefault("payment.base_url", "")
	v.SetDefault("payment.notification_url", "")
	v.SetDefault("payment.currency", "brl")
	v.SetDefault("payment.expiration", "5m")
	v.SetDefault("reservation.grace_period", "15m")
	v.SetDefault("reservation.sweep_interval", "1m")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.notification_ttl", "24h")
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.queue", "quota.events")
}
