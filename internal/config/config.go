package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"

	ProvisioningLog    = "log"
	ProvisioningStream = "stream"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type StoreConfig struct {
	Driver  string
	Timeout time.Duration
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
	KeyPrefix  string
}

type SecurityConfig struct {
	PasswordAlgorithm string
	BcryptCost        int
	PasskeyLength     int
}

type ProvisioningConfig struct {
	Mode          string
	Stream        string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
	// MaxDeliveries bounds how often a failing message is retried before
	// it is parked on DeadLetter.
	MaxDeliveries int64
	DeadLetter    string
}

type JobsConfig struct {
	SweepSchedule string
}

// BootstrapConfig seeds the first administrator at startup when
// AdminEmail is set. Existing accounts are never modified.
type BootstrapConfig struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

type AppConfig struct {
	Environment  string
	HTTP         HTTPConfig
	Store        StoreConfig
	Mongo        MongoConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Session      SessionConfig
	Security     SecurityConfig
	Provisioning ProvisioningConfig
	Jobs         JobsConfig
	Bootstrap    BootstrapConfig
}

func Load() (*AppConfig, error) {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("USERADMIN")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("config: session.secret is required")
	}
	if c.Session.TTL <= 0 {
		return errors.New("config: session.ttl must be positive")
	}

	switch c.Store.Driver {
	case DriverMongo:
		if c.Mongo.URI == "" {
			return errors.New("config: mongo.uri is required for the mongo driver")
		}
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("config: postgres.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}

	if c.Bootstrap.AdminEmail != "" && c.Bootstrap.AdminPassword == "" {
		return errors.New("config: bootstrap.adminpassword is required with bootstrap.adminemail")
	}

	switch c.Provisioning.Mode {
	case ProvisioningLog, ProvisioningStream:
	default:
		return fmt.Errorf("config: unknown provisioning mode %q", c.Provisioning.Mode)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("store.driver", DriverMongo)
	v.SetDefault("store.timeout", "5s")

	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.database", "userManagementSystem")
	v.SetDefault("mongo.collection", "users")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.cookiename", "sid")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.secure", false)
	v.SetDefault("session.keyprefix", "session")

	v.SetDefault("security.passwordalgorithm", "bcrypt")
	v.SetDefault("security.bcryptcost", 10)
	v.SetDefault("security.passkeylength", 6)

	v.SetDefault("provisioning.mode", ProvisioningLog)
	v.SetDefault("provisioning.stream", "accounts:provisioning")
	v.SetDefault("provisioning.group", "provisioning-workers")
	v.SetDefault("provisioning.consumer", "worker-1")
	v.SetDefault("provisioning.claiminterval", "30s")
	v.SetDefault("provisioning.maxdeliveries", 5)
	v.SetDefault("provisioning.deadletter", "accounts:provisioning:dead")

	v.SetDefault("jobs.sweepschedule", "0 */15 * * * *")

	v.SetDefault("bootstrap.adminname", "Administrator")
	v.SetDefault("bootstrap.adminemail", "")
	v.SetDefault("bootstrap.adminpassword", "")
}
