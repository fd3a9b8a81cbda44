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
	EnvPrefix = "pizzastock"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	Orders  OrdersConfig
	Cart    CartConfig
	Cron    CronConfig
	Alerts  AlertsConfig
	Migrate MigrateConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Orders.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PIZZASTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"PIZZASTOCK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PIZZASTOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PIZZASTOCK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PIZZASTOCK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PIZZASTOCK_DB_DSN"`
	Driver string `envconfig:"PIZZASTOCK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PIZZASTOCK_DB_HOST"`
	Port     int    `envconfig:"PIZZASTOCK_DB_PORT" default:"5432"`
	User     string `envconfig:"PIZZASTOCK_DB_USER"`
	Password string `envconfig:"PIZZASTOCK_DB_PASSWORD"`
	Name     string `envconfig:"PIZZASTOCK_DB_NAME"`
	SSLMode  string `envconfig:"PIZZASTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PIZZASTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PIZZASTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PIZZASTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PIZZASTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either PIZZASTOCK_DB_DSN or host/user/name settings are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"PIZZASTOCK_REDIS_URL"`
	Address      string        `envconfig:"PIZZASTOCK_REDIS_ADDR"`
	Password     string        `envconfig:"PIZZASTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"PIZZASTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PIZZASTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PIZZASTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PIZZASTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PIZZASTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PIZZASTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// OrdersConfig carries the order lifecycle policy knobs.
type OrdersConfig struct {
	TaxRate         string        `envconfig:"PIZZASTOCK_ORDERS_TAX_RATE" default:"0.12"`
	PendingTTL      time.Duration `envconfig:"PIZZASTOCK_ORDERS_PENDING_TTL" default:"2h"`
	RestockOnCancel bool          `envconfig:"PIZZASTOCK_ORDERS_RESTOCK_ON_CANCEL" default:"false"`

	taxRate decimal.Decimal
}

func (o *OrdersConfig) validate() error {
	rate, err := decimal.NewFromString(o.TaxRate)
	if err != nil {
		return fmt.Errorf("invalid tax rate %q: %w", o.TaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax rate %q out of range [0,1]", o.TaxRate)
	}
	o.taxRate = rate
	return nil
}

// TaxRateDecimal returns the parsed tax rate. Zero value falls back to 12%.
func (o OrdersConfig) TaxRateDecimal() decimal.Decimal {
	if o.taxRate.IsZero() && o.TaxRate != "0" && o.TaxRate != "0.00" {
		if rate, err := decimal.NewFromString(o.TaxRate); err == nil {
			return rate
		}
		return decimal.RequireFromString("0.12")
	}
	return o.taxRate
}

type CartConfig struct {
	SessionTTL time.Duration `envconfig:"PIZZASTOCK_CART_SESSION_TTL" default:"24h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"PIZZASTOCK_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"PIZZASTOCK_CRON_LOCK_TTL" default:"50m"`
}

type AlertsConfig struct {
	LowStockEnabled bool `envconfig:"PIZZASTOCK_ALERTS_LOW_STOCK_ENABLED" default:"true"`
}

type MigrateConfig struct {
	AutoRun bool   `envconfig:"PIZZASTOCK_MIGRATE_AUTORUN" default:"false"`
	Dir     string `envconfig:"PIZZASTOCK_MIGRATE_DIR" default:"pkg/migrate/migrations"`
}
