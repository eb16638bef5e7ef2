package configuration

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/retailcloud/retail-sdk/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		panic(err)
	}
	return c
})

func Use() *Configuration {
	return singleton()
}

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}
	if len(existingFiles) == 0 {
		return 0, nil
	}
	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Name     string `env:"DB_NAME" envDefault:"retail_sdk"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

// SchemaConnectionString pins search_path for a dedicated per-schema
// connection used by the lifecycle manager. Never hand such a connection to
// the shared request pool.
func (d *DatabaseOptions) SchemaConnectionString(schema string) string {
	return fmt.Sprintf("%s search_path=%s", d.ConnectionString(), schema)
}

type TenancyOptions struct {
	// TenantHeader carries an explicit tenant slug or id set by operators
	// or trusted integrations.
	TenantHeader string `env:"TENANT_HEADER" envDefault:"X-Tenant-ID"`
	APIKeyHeader string `env:"API_KEY_HEADER" envDefault:"X-API-Key"`
	// BaseDomain is stripped from the request host when extracting the
	// subdomain segment, e.g. "example.com" for "acme.example.com".
	BaseDomain string `env:"TENANT_BASE_DOMAIN" envDefault:"example.com"`
	// PublicPaths may be served without a resolved tenant.
	PublicPaths   []string      `env:"TENANT_PUBLIC_PATHS" envSeparator:"," envDefault:"/health,/taxonomies,/admin,/members/invitations/accept,/debug/prometheus"`
	TrialDuration time.Duration `env:"TENANT_TRIAL_DURATION" envDefault:"720h"`
	BackupDir     string        `env:"TENANT_BACKUP_DIR" envDefault:"backups"`
	PgDumpPath    string        `env:"PG_DUMP_PATH" envDefault:"pg_dump"`
	PsqlPath      string        `env:"PSQL_PATH" envDefault:"psql"`
	MaxUsers      int           `env:"TENANT_DEFAULT_MAX_USERS" envDefault:"25"`
	MaxStores     int           `env:"TENANT_DEFAULT_MAX_STORES" envDefault:"5"`
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"retail-sdk"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	GlobalRPS int    `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"1000"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL  string `env:"RATE_LIMIT_REDIS_URL"`
}

func (r *RateLimitOptions) Validate() error {
	if r.GlobalRPS < 0 {
		return fmt.Errorf("rate limit GlobalRPS must be non-negative, got %d", r.GlobalRPS)
	}
	if r.Storage != "memory" && r.Storage != "redis" {
		return fmt.Errorf("rate limit Storage must be 'memory' or 'redis', got '%s'", r.Storage)
	}
	if r.Storage == "redis" && r.RedisURL == "" {
		return fmt.Errorf("rate limit RedisURL is required when Storage is 'redis'")
	}
	return nil
}

type Configuration struct {
	Database      DatabaseOptions
	Tenancy       TenancyOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions

	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	Domain           string `env:"DOMAIN" envDefault:"localhost"`
	Origin           string `env:"ORIGIN" envDefault:"http://localhost:3200"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	// LogFile switches logging to JSON lines in the given file; empty
	// keeps the console logger.
	LogFile string `env:"LOG_FILE"`
	// The SDK looks for this header in the request; when absent it
	// generates a random uuidv4.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	RealIPHeader    string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	logger  *logrus.Logger
	logFile *os.File
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) IsPublicPath(path string) bool {
	for _, p := range c.Tenancy.PublicPaths {
		if p == path || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func (c *Configuration) load(envFiles []string) error {
	if _, err := LoadEnv(envFiles); err != nil {
		return err
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.RateLimit.Validate(); err != nil {
		return err
	}
	c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	if c.LogFile != "" {
		logger, f, err := logging.FileLogger(c.LogrusLogLevel(), c.LogFile)
		if err != nil {
			return err
		}
		c.logger = logger
		c.logFile = f
	} else {
		c.logger = logging.ConsoleLogger(c.LogrusLogLevel())
	}
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("failed to close log file: %v", err)
		}
	}
}
