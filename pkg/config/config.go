package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is passed to envconfig; variable names carry the full
	// CAMPUSLINK_ prefix in their tags instead.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	OTP          OTPConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CAMPUSLINK_APP_ENV" required:"true"`
	Port         string `envconfig:"CAMPUSLINK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CAMPUSLINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAMPUSLINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CAMPUSLINK_DB_DSN"`
	Driver string `envconfig:"CAMPUSLINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAMPUSLINK_DB_HOST"`
	LegacyPort     int    `envconfig:"CAMPUSLINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAMPUSLINK_DB_USER"`
	LegacyPassword string `envconfig:"CAMPUSLINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAMPUSLINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAMPUSLINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAMPUSLINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAMPUSLINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAMPUSLINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAMPUSLINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN backfills the DSN from individual host/user/password variables
// when no explicit DSN is configured.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either CAMPUSLINK_DB_DSN or host/user/name variables are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   d.LegacyName,
	}
	q := u.Query()
	q.Set("sslmode", d.LegacySSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPUSLINK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CAMPUSLINK_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPUSLINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPUSLINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPUSLINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPUSLINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPUSLINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPUSLINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPUSLINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CAMPUSLINK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CAMPUSLINK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CAMPUSLINK_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CAMPUSLINK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CAMPUSLINK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CAMPUSLINK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CAMPUSLINK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CAMPUSLINK_ARGON_KEY_LEN" default:"32"`
}

type OTPConfig struct {
	TTL    time.Duration `envconfig:"CAMPUSLINK_OTP_TTL" default:"5m"`
	Length int           `envconfig:"CAMPUSLINK_OTP_LENGTH" default:"6"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CAMPUSLINK_AUTO_MIGRATE" default:"false"`
}
