package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки приложения.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Payment PaymentConfig `mapstructure:"payment"`
	Orders  OrdersConfig  `mapstructure:"orders"`
	Files   FilesConfig   `mapstructure:"files"`
	Outbox  OutboxConfig  `mapstructure:"outbox"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	// MaxOpenConns/MaxIdleConns ограничивают пул подключений;
	// ноль оставляет значения по умолчанию хранилища.
	MaxOpenConns int `mapstructure:"max_open_conns"`
	MaxIdleConns int `mapstructure:"max_idle_conns"`
}

type KafkaConfig struct {
	// Brokers — список адресов через запятую; пустой выключает Kafka.
	Brokers string `mapstructure:"brokers"`
	// Topic перекрывает маршрутизацию событий по типу агрегата.
	Topic string `mapstructure:"topic"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type PaymentConfig struct {
	// Secret — общий HMAC-секрет для подписи платежей и вебхуков.
	Secret   string `mapstructure:"secret"`
	Currency string `mapstructure:"currency"`
}

type OrdersConfig struct {
	StrictTransitions bool `mapstructure:"strict_transitions"`
}

type FilesConfig struct {
	Root    string `mapstructure:"root"`
	BaseURL string `mapstructure:"base_url"`
}

type OutboxConfig struct {
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	BatchSize      int           `mapstructure:"batch_size"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// BrokerList разбирает список брокеров Kafka.
func (c KafkaConfig) BrokerList() []string {
	if c.Brokers == "" {
		return nil
	}
	parts := strings.Split(c.Brokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

// LoadConfig читает конфигурацию из YAML-файла (если указан) и переменных
// окружения с префиксом SONICA (например SONICA_SERVER_HTTP_ADDR).
func LoadConfig(configPath string) (Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SONICA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig возвращает конфигурацию по умолчанию (in-memory, без Kafka).
func DefaultConfig() Config {
	cfg, err := LoadConfig("")
	if err != nil {
		// Дефолты всегда валидны.
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("storage.driver", StorageDriverMemory)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.auto_migrate", true)
	v.SetDefault("storage.max_open_conns", 25)
	v.SetDefault("storage.max_idle_conns", 25)

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "")

	v.SetDefault("auth.jwt_secret", "dev-jwt-secret")
	v.SetDefault("payment.secret", "dev-payment-secret")
	v.SetDefault("payment.currency", "INR")

	v.SetDefault("orders.strict_transitions", true)

	v.SetDefault("files.root", "./uploads")
	v.SetDefault("files.base_url", "http://localhost:8080/files")

	v.SetDefault("outbox.poll_interval", time.Second)
	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.max_attempts", 5)
	v.SetDefault("outbox.retry_base_delay", 100*time.Millisecond)

	v.SetDefault("log.level", "info")
}

// Validate проверяет согласованность конфигурации.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for driver %q", StorageDriverPostgres)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Payment.Secret == "" {
		return fmt.Errorf("payment.secret is required")
	}
	if c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox.batch_size must be positive")
	}
	if c.Outbox.MaxAttempts <= 0 {
		return fmt.Errorf("outbox.max_attempts must be positive")
	}
	return nil
}
