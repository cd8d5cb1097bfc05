package config

import (
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/traidnet/wificore/pkg/helper"
	"github.com/traidnet/wificore/pkg/trace"
)

type (
	// Config is the top-level configuration shared by the API server and
	// the deployment worker.
	Config struct {
		Port     int            `yaml:"port"`
		Logger   LoggerConfig   `yaml:"logger"`
		Database DatabaseConfig `yaml:"database"`
		Queue    QueueConfig    `yaml:"queue"`
		JWT      JWTConfig      `yaml:"jwt"`
		Router   RouterConfig   `yaml:"router"`
		Radius   RadiusConfig   `yaml:"radius"`
		Metrics  MetricsConfig  `yaml:"metrics"`
		Tracing  trace.Config   `yaml:"tracing"`
	}

	// MetricsConfig configures the prometheus registry.
	MetricsConfig struct {
		Namespace string    `yaml:"namespace"`
		Buckets   []float64 `yaml:"buckets"`
	}

	// LoggerConfig represents the logger configuration
	LoggerConfig struct {
		Level      string `yaml:"level"`       // debug, info, warn, error
		Format     string `yaml:"format"`      // json, console
		Output     string `yaml:"output"`      // stdout, file
		FilePath   string `yaml:"file_path"`   // path to log file when output is file
		MaxSize    int    `yaml:"max_size"`    // max size of log file in MB
		MaxBackups int    `yaml:"max_backups"` // max number of backup files
		MaxAge     int    `yaml:"max_age"`     // max age of backup files in days
		Compress   bool   `yaml:"compress"`    // whether to compress backup files
		Color      bool   `yaml:"color"`       // whether to use color in console output
		Stacktrace bool   `yaml:"stacktrace"`  // whether to include stacktrace in error logs
		TimeZone   string `yaml:"time_zone"`   // time zone for log timestamps
		TimeFormat string `yaml:"time_format"` // time format for log timestamps
	}

	// DatabaseConfig selects the relational store backing both the tenant
	// schemas and the shared AAA tables.
	DatabaseConfig struct {
		Type     string `yaml:"type"` // postgres, mysql or sqlite
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname"`
		SSLMode  string `yaml:"sslmode"`
	}

	// QueueConfig is the redis stream deployment jobs travel through.
	QueueConfig struct {
		Addr     string `yaml:"addr"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Stream   string `yaml:"stream"`
	}

	// JWTConfig configures API token validation.
	JWTConfig struct {
		SecretKey string        `yaml:"secret_key"`
		Duration  time.Duration `yaml:"duration"`
	}

	// RouterConfig bounds the device-facing side: the management API port,
	// per-call timeouts, retry policy and the discovery probe subnet.
	RouterConfig struct {
		APIPort         int           `yaml:"api_port"`
		ConnectTimeout  time.Duration `yaml:"connect_timeout"`
		CallTimeout     time.Duration `yaml:"call_timeout"`
		MaxRetries      int           `yaml:"max_retries"`
		RetryBackoff    time.Duration `yaml:"retry_backoff"`
		DiscoverySubnet string        `yaml:"discovery_subnet"`
		ProbeTimeout    time.Duration `yaml:"probe_timeout"`
		Workers         int           `yaml:"workers"`
		SecretKey       string        `yaml:"secret_key"` // AES key for credentials at rest
	}

	// RadiusConfig carries the defaults baked into generated router
	// configuration.
	RadiusConfig struct {
		ServerHost string `yaml:"server_host"`
		Secret     string `yaml:"secret"`
		AuthPort   int    `yaml:"auth_port"`
		AcctPort   int    `yaml:"acct_port"`
		PortalURL  string `yaml:"portal_url"`
	}
)

// GetDSN returns the driver DSN for the configured database type.
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case "mysql":
		return c.User + ":" + c.Password + "@tcp(" + c.Host + ":" + itoa(c.Port) + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local"
	case "sqlite":
		return c.DBName
	default:
		return "host=" + c.Host + " user=" + c.User + " password=" + c.Password +
			" dbname=" + c.DBName + " port=" + itoa(c.Port) + " sslmode=" + c.SSLMode
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// LoadConfig loads configuration from a YAML file with environment variable
// support. `${VAR}` and `${VAR:default}` placeholders are resolved before
// unmarshalling.
func LoadConfig(filename string) (*Config, string, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfgPath := helper.GetCfgPath(filename)
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, cfgPath, err
	}

	data = resolveEnv(data)
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, cfgPath, err
	}

	cfg.setDefaults()
	return &cfg, cfgPath, nil
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Queue.Stream == "" {
		c.Queue.Stream = "wificore:deploy"
	}
	if c.Router.APIPort == 0 {
		c.Router.APIPort = 8728
	}
	if c.Router.ConnectTimeout == 0 {
		c.Router.ConnectTimeout = 10 * time.Second
	}
	if c.Router.CallTimeout == 0 {
		c.Router.CallTimeout = 30 * time.Second
	}
	if c.Router.MaxRetries == 0 {
		c.Router.MaxRetries = 3
	}
	if c.Router.RetryBackoff == 0 {
		c.Router.RetryBackoff = 2 * time.Second
	}
	if c.Router.ProbeTimeout == 0 {
		c.Router.ProbeTimeout = time.Second
	}
	if c.Router.Workers == 0 {
		c.Router.Workers = 4
	}
	if c.Radius.AuthPort == 0 {
		c.Radius.AuthPort = 1812
	}
	if c.Radius.AcctPort == 0 {
		c.Radius.AcctPort = 1813
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "wificore"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "wificore"
	}
}

// resolveEnv replaces environment variable placeholders in YAML content
func resolveEnv(content []byte) []byte {
	regex := regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

	return regex.ReplaceAllFunc(content, func(match []byte) []byte {
		matches := regex.FindSubmatch(match)
		envKey := string(matches[1])
		var defaultValue string

		if len(matches) > 2 {
			defaultValue = string(matches[2])
		}

		if value, exists := os.LookupEnv(envKey); exists {
			return []byte(value)
		}
		return []byte(defaultValue)
	})
}
