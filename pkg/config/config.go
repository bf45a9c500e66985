package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is empty because every field names its variable in full.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "CPULSE_APP_ENV"
	EnvPort         = "CPULSE_APP_PORT"
	EnvRedisURL     = "CPULSE_REDIS_URL"
	EnvGCPProjectID = "CPULSE_GCP_PROJECT_ID"

	EnvDBDSN  = "CPULSE_DB_DSN"
	EnvDBHost = "CPULSE_DB_HOST"
	EnvDBUser = "CPULSE_DB_USER"
	EnvDBName = "CPULSE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Consumer     ConsumerConfig
	Ranking      RankingConfig
	Retention    RetentionConfig
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
	Env          string `envconfig:"CPULSE_APP_ENV" required:"true"`
	Port         string `envconfig:"CPULSE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CPULSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CPULSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CPULSE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CPULSE_DB_DSN"`
	Driver string `envconfig:"CPULSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CPULSE_DB_HOST"`
	LegacyPort     int    `envconfig:"CPULSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CPULSE_DB_USER"`
	LegacyPassword string `envconfig:"CPULSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CPULSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CPULSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CPULSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CPULSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CPULSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CPULSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CPULSE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"CPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CPULSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CPULSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CPULSE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CPULSE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CPULSE_GOOGLE_APPLICATION_CREDENTIALS"`
}

// PubSubConfig names one topic and one subscription per event family.
type PubSubConfig struct {
	LikeAddedTopic            string `envconfig:"CPULSE_PUBSUB_LIKE_ADDED_TOPIC" default:"cpulse-like-added"`
	LikeAddedSubscription     string `envconfig:"CPULSE_PUBSUB_LIKE_ADDED_SUBSCRIPTION" default:"cpulse-like-added-collector"`
	LikeRemovedTopic          string `envconfig:"CPULSE_PUBSUB_LIKE_REMOVED_TOPIC" default:"cpulse-like-removed"`
	LikeRemovedSubscription   string `envconfig:"CPULSE_PUBSUB_LIKE_REMOVED_SUBSCRIPTION" default:"cpulse-like-removed-collector"`
	ViewIncreasedTopic        string `envconfig:"CPULSE_PUBSUB_VIEW_INCREASED_TOPIC" default:"cpulse-view-increased"`
	ViewIncreasedSubscription string `envconfig:"CPULSE_PUBSUB_VIEW_INCREASED_SUBSCRIPTION" default:"cpulse-view-increased-collector"`
	OrderCreatedTopic         string `envconfig:"CPULSE_PUBSUB_ORDER_CREATED_TOPIC" default:"cpulse-order-created"`
	OrderCreatedSubscription  string `envconfig:"CPULSE_PUBSUB_ORDER_CREATED_SUBSCRIPTION" default:"cpulse-order-created-collector"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"CPULSE_OUTBOX_PUBLISH_BATCH_SIZE" default:"200"`
	PollInterval   time.Duration `envconfig:"CPULSE_OUTBOX_PUBLISH_POLL_INTERVAL" default:"3s"`
	MaxAttempts    int           `envconfig:"CPULSE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int           `envconfig:"CPULSE_OUTBOX_RETENTION_DAYS" default:"30"`
	RequeueEnabled bool          `envconfig:"CPULSE_OUTBOX_REQUEUE_ENABLED" default:"false"`
}

type ConsumerConfig struct {
	Parallelism   int           `envconfig:"CPULSE_CONSUMER_PARALLELISM" default:"3"`
	BatchSize     int           `envconfig:"CPULSE_CONSUMER_BATCH_SIZE" default:"200"`
	FlushInterval time.Duration `envconfig:"CPULSE_CONSUMER_FLUSH_INTERVAL" default:"250ms"`
}

type RankingConfig struct {
	LikeWeight      float64       `envconfig:"CPULSE_RANKING_WEIGHT_LIKE" default:"0.2"`
	ViewWeight      float64       `envconfig:"CPULSE_RANKING_WEIGHT_VIEW" default:"0.1"`
	OrderWeight     float64       `envconfig:"CPULSE_RANKING_WEIGHT_ORDER" default:"0.6"`
	TTLDays         int           `envconfig:"CPULSE_RANKING_TTL_DAYS" default:"2"`
	PromoteInterval time.Duration `envconfig:"CPULSE_RANKING_PROMOTE_INTERVAL" default:"5m"`
}

type RetentionConfig struct {
	DailyMetricsDays int           `envconfig:"CPULSE_RETENTION_DAILY_METRICS_DAYS" default:"10"`
	CleanupInterval  time.Duration `envconfig:"CPULSE_RETENTION_CLEANUP_INTERVAL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CPULSE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CPULSE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
