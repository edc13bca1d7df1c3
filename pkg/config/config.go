package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	SMS           SMSConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"SMEAZY_APP_ENV" required:"true"`
	Port         string `envconfig:"SMEAZY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SMEAZY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SMEAZY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SMEAZY_DB_DSN"`
	Driver string `envconfig:"SMEAZY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SMEAZY_DB_HOST"`
	LegacyPort     int    `envconfig:"SMEAZY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SMEAZY_DB_USER"`
	LegacyPassword string `envconfig:"SMEAZY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SMEAZY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SMEAZY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SMEAZY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SMEAZY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SMEAZY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SMEAZY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SMEAZY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SMEAZY_REDIS_ADDR"`
	Password     string        `envconfig:"SMEAZY_REDIS_PASSWORD"`
	DB           int           `envconfig:"SMEAZY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SMEAZY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SMEAZY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SMEAZY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SMEAZY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SMEAZY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SMEAZY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SMEAZY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SMEAZY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SMEAZY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SMEAZY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SMEAZY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SMEAZY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SMEAZY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SMEAZY_ARGON_KEY_LEN" default:"32"`

	TempPasswordLength int `envconfig:"SMEAZY_TEMP_PASSWORD_LENGTH" default:"8"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SMEAZY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginPhoneLimit    int           `envconfig:"SMEAZY_AUTH_RATE_LIMIT_LOGIN_PHONE_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SMEAZY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SMEAZY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterPhoneLimit int           `envconfig:"SMEAZY_AUTH_RATE_LIMIT_REGISTER_PHONE_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SMEAZY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// SMSConfig carries the Africa's Talking gateway settings. Credentials come
// from the environment only; the channel stays off unless SMEAZY_SMS_ENABLED
// is set.
type SMSConfig struct {
	Enabled     bool          `envconfig:"SMEAZY_SMS_ENABLED" default:"false"`
	BaseURL     string        `envconfig:"SMEAZY_SMS_BASE_URL" default:"https://api.africastalking.com"`
	Username    string        `envconfig:"SMEAZY_SMS_USERNAME"`
	APIKey      string        `envconfig:"SMEAZY_SMS_API_KEY"`
	CountryCode string        `envconfig:"SMEAZY_SMS_COUNTRY_CODE" default:"+254"`
	Timeout     time.Duration `envconfig:"SMEAZY_SMS_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SMEAZY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SMEAZY_AUTO_MIGRATE" default:"false"`
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
