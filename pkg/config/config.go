package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "STYLEHAVEN"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STYLEHAVEN_DB_DSN"
	EnvDBHost = "STYLEHAVEN_DB_HOST"
	EnvDBUser = "STYLEHAVEN_DB_USER"
	EnvDBName = "STYLEHAVEN_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Commerce      CommerceConfig
	PayFast       PayFastConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Commerce.validate(); err != nil {
		return nil, err
	}
	if err := cfg.PayFast.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STYLEHAVEN_APP_ENV" required:"true"`
	Port         string `envconfig:"STYLEHAVEN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STYLEHAVEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STYLEHAVEN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STYLEHAVEN_DB_DSN"`
	Driver string `envconfig:"STYLEHAVEN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STYLEHAVEN_DB_HOST"`
	LegacyPort     int    `envconfig:"STYLEHAVEN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STYLEHAVEN_DB_USER"`
	LegacyPassword string `envconfig:"STYLEHAVEN_DB_PASSWORD"`
	LegacyName     string `envconfig:"STYLEHAVEN_DB_NAME"`
	LegacySSLMode  string `envconfig:"STYLEHAVEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STYLEHAVEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STYLEHAVEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STYLEHAVEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STYLEHAVEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STYLEHAVEN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STYLEHAVEN_REDIS_ADDR"`
	Password     string        `envconfig:"STYLEHAVEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"STYLEHAVEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STYLEHAVEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STYLEHAVEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STYLEHAVEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STYLEHAVEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STYLEHAVEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STYLEHAVEN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STYLEHAVEN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STYLEHAVEN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STYLEHAVEN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STYLEHAVEN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STYLEHAVEN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"STYLEHAVEN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STYLEHAVEN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"STYLEHAVEN_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"STYLEHAVEN_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"STYLEHAVEN_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STYLEHAVEN_AUTO_MIGRATE" default:"false"`
}

// CommerceConfig carries the storefront business rules. The defaults mirror
// the values the product launched with; operations can override any of them.
type CommerceConfig struct {
	TaxRate           string `envconfig:"STYLEHAVEN_TAX_RATE" default:"0.10"`
	CartMaxDistinct   int    `envconfig:"STYLEHAVEN_CART_MAX_DISTINCT" default:"4"`
	LowStockThreshold int    `envconfig:"STYLEHAVEN_LOW_STOCK_THRESHOLD" default:"10"`
}

// TaxRateDecimal parses the configured tax rate. validate() guarantees the
// string parses, so callers may ignore the error after Load.
func (c CommerceConfig) TaxRateDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(c.TaxRate))
}

func (c CommerceConfig) validate() error {
	rate, err := c.TaxRateDecimal()
	if err != nil {
		return fmt.Errorf("invalid tax rate %q: %w", c.TaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax rate %q must be in [0, 1)", c.TaxRate)
	}
	if c.CartMaxDistinct <= 0 {
		return fmt.Errorf("cart max distinct must be positive")
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("low stock threshold cannot be negative")
	}
	return nil
}

// PayFastConfig holds the gateway credentials and redirect endpoints. The
// signature passphrase is optional; when empty the payload is signed without
// the trailing passphrase pair.
type PayFastConfig struct {
	MerchantID  string `envconfig:"STYLEHAVEN_PAYFAST_MERCHANT_ID" required:"true"`
	MerchantKey string `envconfig:"STYLEHAVEN_PAYFAST_MERCHANT_KEY" required:"true"`
	Passphrase  string `envconfig:"STYLEHAVEN_PAYFAST_PASSPHRASE"`
	ProcessURL  string `envconfig:"STYLEHAVEN_PAYFAST_PROCESS_URL" default:"https://www.payfast.co.za/eng/process"`
	ReturnURL   string `envconfig:"STYLEHAVEN_PAYFAST_RETURN_URL" required:"true"`
	CancelURL   string `envconfig:"STYLEHAVEN_PAYFAST_CANCEL_URL" required:"true"`
	NotifyURL   string `envconfig:"STYLEHAVEN_PAYFAST_NOTIFY_URL" required:"true"`
}

func (p PayFastConfig) validate() error {
	for name, raw := range map[string]string{
		"process url": p.ProcessURL,
		"return url":  p.ReturnURL,
		"cancel url":  p.CancelURL,
		"notify url":  p.NotifyURL,
	} {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("payfast %s %q is not an absolute URL", name, raw)
		}
	}
	return nil
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
