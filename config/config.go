package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"luxvision/cli"
)

// EnvPrefix prefixes every environment variable read by the program.
const EnvPrefix = "LUXVISION"

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Mail providers.
const (
	MailNone     = "none"
	MailPostmark = "postmark"
	MailSendGrid = "sendgrid"
)

// JWTConfig configures token issuance.
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
}

// MailConfig configures transactional email.
type MailConfig struct {
	Provider string
	Token    string
	From     string
}

// Config is loaded once at startup and never re-read.
type Config struct {
	HTTPPort       int
	HTTPAddr       string
	Env            string
	CORSOrigin     string
	DBDriver       string
	SQLitePath     string
	MongoURI       string
	MongoDatabase  string
	JWT            JWTConfig
	ShippingCost   int64
	Mail           MailConfig
	LogLevel       string
	LogFormat      string
	MetricsEnabled bool
	CacheTTL       time.Duration
}

// legacyEnv maps the unprefixed variable names of existing deployments to ours.
var legacyEnv = map[string]string{
	"PORT":                 "LUXVISION_HTTP_PORT",
	"NODE_ENV":             "LUXVISION_ENV",
	"APP_ENV":              "LUXVISION_ENV",
	"CORS_ORIGIN":          "LUXVISION_CORS_ORIGIN",
	"JWT_SECRET":           "LUXVISION_JWT_ACCESS_SECRET",
	"REFRESH_TOKEN_SECRET": "LUXVISION_JWT_REFRESH_SECRET",
	"MONGO_URI":            "LUXVISION_MONGO_URI",
	"POSTMARK_API_TOKEN":   "LUXVISION_MAIL_TOKEN",
	"SENDGRID_API_KEY":     "LUXVISION_MAIL_TOKEN",
	"EMAIL_SENDER":         "LUXVISION_MAIL_FROM",
}

// LoadEnv loads .env when present and copies legacy variables to their prefixed names.
// It reports whether a .env file was found.
func LoadEnv(files ...string) bool {
	found := godotenv.Load(files...) == nil

	for legacy, name := range legacyEnv {
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if v, ok := os.LookupEnv(legacy); ok {
			os.Setenv(name, v)
		}
	}
	return found
}

// Opts returns the options bound to the serve command. Defaults match a local
// development setup.
func (c *Config) Opts() []cli.Opt {
	return append(c.StoreOpts(),
		cli.NewOpt(&c.HTTPPort, "http-port", 5000, "port the HTTP server listens on"),
		cli.NewOpt(&c.HTTPAddr, "http-addr", "", "address the HTTP server binds, overrides http-port"),
		cli.NewOpt(&c.CORSOrigin, "cors-origin", "http://localhost:5173", "origin allowed by CORS"),
		cli.NewOpt(&c.JWT.AccessSecret, "jwt-access-secret", "", "secret signing access tokens"),
		cli.NewOpt(&c.JWT.RefreshSecret, "jwt-refresh-secret", "", "secret signing refresh tokens"),
		cli.NewOpt(&c.JWT.AccessTTL, "jwt-access-ttl", 15*time.Minute, "access token lifetime"),
		cli.NewOpt(&c.JWT.RefreshTTL, "jwt-refresh-ttl", 7*24*time.Hour, "refresh token lifetime"),
		cli.NewOpt(&c.JWT.Issuer, "jwt-issuer", "luxvision-api", "token issuer"),
		cli.NewOpt(&c.JWT.Audience, "jwt-audience", "luxvision-client", "token audience"),
		cli.NewOpt(&c.ShippingCost, "shipping-cost", int64(5000), "flat shipping cost in FCFA"),
		cli.NewOpt(&c.Mail.Provider, "mail-provider", MailNone, "transactional mail provider: none, postmark or sendgrid"),
		cli.NewOpt(&c.Mail.Token, "mail-token", "", "mail provider API token"),
		cli.NewOpt(&c.Mail.From, "mail-from", "no-reply@luxvision.cg", "sender address"),
		cli.NewOpt(&c.MetricsEnabled, "metrics-enabled", true, "expose prometheus metrics on /metrics"),
		cli.NewOpt(&c.CacheTTL, "cache-ttl", 5*time.Minute, "product cache lifetime, 0 disables the cache"),
	)
}

// StoreOpts returns the options shared by every command touching the database.
func (c *Config) StoreOpts() []cli.Opt {
	return []cli.Opt{
		cli.NewOpt(&c.Env, "env", EnvDevelopment, "runtime environment: development, production or test"),
		cli.NewOpt(&c.DBDriver, "db-driver", DriverSQLite, "storage backend: sqlite or mongo"),
		cli.NewOpt(&c.SQLitePath, "sqlite-path", "luxvision.sqlite", "path of the sqlite database"),
		cli.NewOpt(&c.MongoURI, "mongo-uri", "mongodb://localhost:27017/?replicaSet=rs0", "MongoDB connection string"),
		cli.NewOpt(&c.MongoDatabase, "mongo-database", "luxvision", "MongoDB database name"),
		cli.NewOpt(&c.LogLevel, "log-level", "info", "log level: debug, info, warn or error"),
		cli.NewOpt(&c.LogFormat, "log-format", "console", "log encoding: console or json"),
	}
}

// Addr returns the address the HTTP server listens on.
func (c *Config) Addr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return ":" + strconv.Itoa(c.HTTPPort)
}

// IsProduction reports whether internal error details must be hidden.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverMongo:
	default:
		return errors.New("db-driver must be sqlite or mongo")
	}
	switch c.Mail.Provider {
	case MailNone, MailPostmark, MailSendGrid:
	default:
		return errors.New("mail-provider must be none, postmark or sendgrid")
	}
	if c.Mail.Provider != MailNone && c.Mail.Token == "" {
		return errors.New("mail-token is required when a mail provider is set")
	}

	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		if c.IsProduction() {
			return errors.New("jwt secrets are required in production")
		}
		if c.JWT.AccessSecret == "" {
			c.JWT.AccessSecret = "dev-access-secret"
		}
		if c.JWT.RefreshSecret == "" {
			c.JWT.RefreshSecret = "dev-refresh-secret"
		}
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("access and refresh secrets must differ")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.ShippingCost < 0 {
		return errors.New("shipping-cost cannot be negative")
	}
	return nil
}
