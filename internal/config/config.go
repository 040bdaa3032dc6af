package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port    string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	Storage string `envconfig:"STORAGE" default:"postgres" validate:"oneof=postgres memory"`

	DBHost          string        `envconfig:"DB_HOST" default:"localhost" validate:"required"`
	DBPort          string        `envconfig:"DB_PORT" default:"5432" validate:"required,numeric"`
	DBUser          string        `envconfig:"DB_USER" default:"postgres" validate:"required"`
	DBPassword      string        `envconfig:"DB_PASSWORD"`
	DBName          string        `envconfig:"DB_NAME" default:"car_rental" validate:"required"`
	DBSSLMode       string        `envconfig:"DB_SSLMODE" default:"disable" validate:"oneof=disable require verify-ca verify-full"`
	DBMaxOpenConns  int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25" validate:"gt=0"`
	DBMaxIdleConns  int           `envconfig:"DB_MAX_IDLE_CONNS" default:"25" validate:"gte=0"`
	DBConnLifetime  time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m" validate:"gt=0"`
	DBConnectTries  int           `envconfig:"DB_CONNECT_RETRIES" default:"10" validate:"gt=0"`
	DBRetryInterval time.Duration `envconfig:"DB_RETRY_INTERVAL" default:"2s" validate:"gt=0"`

	RedisHost      string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort      string        `envconfig:"REDIS_PORT" default:"6379"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
	CarsCacheTTL   time.Duration `envconfig:"CARS_CACHE_TTL" default:"30s" validate:"gt=0"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h" validate:"gt=0"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"car.booked"`

	JWTSecret string `envconfig:"JWT_SECRET" validate:"required,min=16"`

	ReservationTimeout time.Duration `envconfig:"RESERVATION_TIMEOUT" default:"5s" validate:"gt=0"`
	AuditTimeout       time.Duration `envconfig:"AUDIT_TIMEOUT" default:"3s" validate:"gt=0"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s" validate:"gt=0"`
	ReadTimeout        time.Duration `envconfig:"READ_TIMEOUT" default:"5s" validate:"gt=0"`
	WriteTimeout       time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s" validate:"gt=0"`
	IdleTimeout        time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s" validate:"gt=0"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s" validate:"gt=0"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
}

// Load reads .env (when present) and then the process environment.
func Load(envFile string) (*Config, error) {
	loadEnv(envFile)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return errors.Errorf("configuration validation failed: %s", strings.Join(msgs, "; "))
		}
		return errors.Wrap(err, "configuration validation failed")
	}

	if c.ReservationTimeout >= c.RequestTimeout {
		return errors.Errorf("RESERVATION_TIMEOUT (%s) must be shorter than REQUEST_TIMEOUT (%s)", c.ReservationTimeout, c.RequestTimeout)
	}

	return nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) Fields() log.Fields {
	return log.Fields{
		"port":                c.Port,
		"storage":             c.Storage,
		"db_host":             c.DBHost,
		"db_port":             c.DBPort,
		"db_name":             c.DBName,
		"db_password_set":     c.DBPassword != "",
		"redis_addr":          c.RedisAddr(),
		"kafka_brokers":       c.KafkaBrokers,
		"kafka_topic":         c.KafkaTopic,
		"reservation_timeout": c.ReservationTimeout,
		"request_timeout":     c.RequestTimeout,
		"cars_cache_ttl":      c.CarsCacheTTL,
		"idempotency_ttl":     c.IdempotencyTTL,
	}
}

func loadEnv(filepath string) {
	if filepath == "" {
		return
	}

	file, err := os.Open(filepath)
	if err != nil {
		return
	}

	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		if _, set := os.LookupEnv(key); set {
			continue
		}

		os.Setenv(key, strings.Trim(strings.TrimSpace(value), `"`))
	}
}
