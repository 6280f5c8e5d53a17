package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every portal environment variable.
	EnvPrefix = "homestay"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "HOMESTAY_DB_DSN"
	EnvDBHost = "HOMESTAY_DB_HOST"
	EnvDBUser = "HOMESTAY_DB_USER"
	EnvDBName = "HOMESTAY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Districts     DistrictsConfig
	Fees          FeesConfig
	HimKosh       HimKoshConfig
	SMS           SMSConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"HOMESTAY_APP_ENV" required:"true"`
	Port         string `envconfig:"HOMESTAY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HOMESTAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HOMESTAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HOMESTAY_DB_DSN"`
	Driver string `envconfig:"HOMESTAY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HOMESTAY_DB_HOST"`
	LegacyPort     int    `envconfig:"HOMESTAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HOMESTAY_DB_USER"`
	LegacyPassword string `envconfig:"HOMESTAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"HOMESTAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"HOMESTAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOMESTAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HOMESTAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HOMESTAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOMESTAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HOMESTAY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HOMESTAY_REDIS_ADDR"`
	Password     string        `envconfig:"HOMESTAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOMESTAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOMESTAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOMESTAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOMESTAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOMESTAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOMESTAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"HOMESTAY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"HOMESTAY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"HOMESTAY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"HOMESTAY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HOMESTAY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HOMESTAY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HOMESTAY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HOMESTAY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HOMESTAY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"HOMESTAY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"HOMESTAY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"HOMESTAY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HOMESTAY_AUTO_MIGRATE" default:"false"`
}

// DistrictsConfig tunes the fuzzy district matcher used for officer scoping.
// District names arrive with inconsistent administrative suffixes, so the
// matcher strips the configured stop words before comparing tokens.
type DistrictsConfig struct {
	StopWords   []string `envconfig:"HOMESTAY_DISTRICT_STOP_WORDS" default:"district,division,hq,office,tourism,circle,zone,region,dept,department,the"`
	MinTokenLen int      `envconfig:"HOMESTAY_DISTRICT_MIN_TOKEN_LEN" default:"3"`
}

// FeesConfig carries the registration fee schedule as decimal strings.
type FeesConfig struct {
	DiamondBase   string `envconfig:"HOMESTAY_FEE_DIAMOND_BASE" default:"12000"`
	GoldBase      string `envconfig:"HOMESTAY_FEE_GOLD_BASE" default:"8000"`
	SilverBase    string `envconfig:"HOMESTAY_FEE_SILVER_BASE" default:"3000"`
	RuralRebatePC string `envconfig:"HOMESTAY_FEE_RURAL_REBATE_PCT" default:"50"`
}

type HimKoshConfig struct {
	BaseURL        string        `envconfig:"HOMESTAY_HIMKOSH_BASE_URL"`
	DepartmentCode string        `envconfig:"HOMESTAY_HIMKOSH_DEPARTMENT_CODE" default:"TSM"`
	ServiceCode    string        `envconfig:"HOMESTAY_HIMKOSH_SERVICE_CODE"`
	ChecksumKey    string        `envconfig:"HOMESTAY_HIMKOSH_CHECKSUM_KEY"`
	ReturnURL      string        `envconfig:"HOMESTAY_HIMKOSH_RETURN_URL"`
	Timeout        time.Duration `envconfig:"HOMESTAY_HIMKOSH_TIMEOUT" default:"30s"`
}

type SMSConfig struct {
	GatewayURL string        `envconfig:"HOMESTAY_SMS_GATEWAY_URL"`
	Username   string        `envconfig:"HOMESTAY_SMS_USERNAME"`
	Password   string        `envconfig:"HOMESTAY_SMS_PASSWORD"`
	SenderID   string        `envconfig:"HOMESTAY_SMS_SENDER_ID" default:"HPTOUR"`
	EntityID   string        `envconfig:"HOMESTAY_SMS_ENTITY_ID"`
	Timeout    time.Duration `envconfig:"HOMESTAY_SMS_TIMEOUT" default:"15s"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"HOMESTAY_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"HOMESTAY_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"HOMESTAY_PUBSUB_NOTIFICATION_TOPIC" default:"homestay-notification-events"`
	NotificationSubscription string `envconfig:"HOMESTAY_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"HOMESTAY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"HOMESTAY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"HOMESTAY_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
