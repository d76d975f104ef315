package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Lock      LockConfig
	Storage   StorageConfig
	Dispatch  DispatchConfig
	Telemetry TelemetryConfig
	Print     PrintConfig
	Devices   []DeviceConfig                    `validate:"dive"`
	Profiles  map[string]printing.DeviceProfile `validate:"-"`
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string `validate:"oneof=development testing staging production"`
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// DatabaseConfig holds the print job history database settings.
// History is optional; when disabled jobs are not recorded.
type DatabaseConfig struct {
	Enabled         bool
	Driver          string `validate:"oneof=postgres sqlite"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	AutoMigrate     bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LockConfig selects how device access is serialized
type LockConfig struct {
	Backend      string `validate:"oneof=local redis"`
	KeyPrefix    string
	TTL          time.Duration
	PollInterval time.Duration
	// RenewInterval is how often a held redis lock is extended
	RenewInterval time.Duration
}

// StorageConfig holds output file storage settings
type StorageConfig struct {
	Backend         string `validate:"oneof=filesystem s3"`
	BasePath        string
	BaseURL         string
	Retention       time.Duration // 0 keeps files forever
	CleanupInterval time.Duration
	S3              S3Config
}

// S3Config holds S3-compatible object storage settings
type S3Config struct {
	Bucket            string
	AccessKey         string
	SecretKey         string
	Endpoint          string
	Region            string
	UseSSL            bool
	UsePathStyle      bool
	Prefix            string
	PresignExpiration time.Duration
}

// DispatchConfig bounds how long a dispatch waits for a device
type DispatchConfig struct {
	AcquireTimeout      time.Duration `validate:"gt=0"`
	OpenAttempts        int           `validate:"min=1,max=20"`
	OpenInitialInterval time.Duration `validate:"gt=0"`
	OpenMaxInterval     time.Duration `validate:"gtefield=OpenInitialInterval"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsInterval   time.Duration
	DBTraceEnabled    bool
}

// PrintConfig names the profile used for each document kind and the
// clinic details printed on every document
type PrintConfig struct {
	BillTarget        string `validate:"required"`
	SummaryTarget     string `validate:"required"`
	ServiceCostTarget string `validate:"required"`
	ClinicName        string
	Footer            []string
	Timezone          string // IANA name or Local
}

// DeviceConfig declares one physical output device
type DeviceConfig struct {
	Name         string        `mapstructure:"name" validate:"required"`
	Transport    string        `mapstructure:"transport" validate:"oneof=spool file tcp"`
	Target       string        `mapstructure:"target" validate:"required"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PRINTSVC_ prefix (e.g., PRINTSVC_STORAGE_BASE_PATH)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/printsvc")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return load(v)
}

// LoadFile loads configuration from an explicit file path plus environment variables
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("PRINTSVC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("database.enabled"),
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Lock: LockConfig{
			Backend:       v.GetString("lock.backend"),
			KeyPrefix:     v.GetString("lock.key_prefix"),
			TTL:           v.GetDuration("lock.ttl"),
			PollInterval:  v.GetDuration("lock.poll_interval"),
			RenewInterval: v.GetDuration("lock.renew_interval"),
		},
		Storage: StorageConfig{
			Backend:         v.GetString("storage.backend"),
			BasePath:        v.GetString("storage.base_path"),
			BaseURL:         v.GetString("storage.base_url"),
			Retention:       v.GetDuration("storage.retention"),
			CleanupInterval: v.GetDuration("storage.cleanup_interval"),
			S3: S3Config{
				Bucket:            v.GetString("storage.s3.bucket"),
				AccessKey:         v.GetString("storage.s3.access_key"),
				SecretKey:         v.GetString("storage.s3.secret_key"),
				Endpoint:          v.GetString("storage.s3.endpoint"),
				Region:            v.GetString("storage.s3.region"),
				UseSSL:            v.GetBool("storage.s3.use_ssl"),
				UsePathStyle:      v.GetBool("storage.s3.use_path_style"),
				Prefix:            v.GetString("storage.s3.prefix"),
				PresignExpiration: v.GetDuration("storage.s3.presign_expiration"),
			},
		},
		Dispatch: DispatchConfig{
			AcquireTimeout:      v.GetDuration("dispatch.acquire_timeout"),
			OpenAttempts:        v.GetInt("dispatch.open_attempts"),
			OpenInitialInterval: v.GetDuration("dispatch.open_initial_interval"),
			OpenMaxInterval:     v.GetDuration("dispatch.open_max_interval"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
		Print: PrintConfig{
			BillTarget:        v.GetString("print.bill_target"),
			SummaryTarget:     v.GetString("print.summary_target"),
			ServiceCostTarget: v.GetString("print.service_cost_target"),
			ClinicName:        v.GetString("print.clinic_name"),
			Footer:            v.GetStringSlice("print.footer"),
			Timezone:          v.GetString("print.timezone"),
		},
	}

	if err := v.UnmarshalKey("devices", &cfg.Devices); err != nil {
		return nil, fmt.Errorf("decode devices: %w", err)
	}

	profiles := map[string]printing.DeviceProfile{}
	err := v.UnmarshalKey("profiles", &profiles, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	})
	if err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	cfg.Profiles = profiles

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "printsvc"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8000"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"http://localhost:3000", "https://app.binara.live"}
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/printsvc.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "printsvc"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Lock.Backend == "" {
		cfg.Lock.Backend = "local"
	}
	if cfg.Lock.KeyPrefix == "" {
		cfg.Lock.KeyPrefix = "printsvc:device:"
	}
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = 2 * time.Minute
	}
	if cfg.Lock.PollInterval == 0 {
		cfg.Lock.PollInterval = 50 * time.Millisecond
	}
	if cfg.Lock.RenewInterval == 0 {
		cfg.Lock.RenewInterval = cfg.Lock.TTL / 3
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "filesystem"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./data/prints"
	}
	if cfg.Storage.BaseURL == "" {
		cfg.Storage.BaseURL = "/api/v1/print/files"
	}
	if cfg.Storage.CleanupInterval == 0 {
		cfg.Storage.CleanupInterval = time.Hour
	}
	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = "us-east-1"
	}
	if cfg.Storage.S3.PresignExpiration == 0 {
		cfg.Storage.S3.PresignExpiration = 15 * time.Minute
	}

	if cfg.Dispatch.AcquireTimeout == 0 {
		cfg.Dispatch.AcquireTimeout = 30 * time.Second
	}
	if cfg.Dispatch.OpenAttempts == 0 {
		cfg.Dispatch.OpenAttempts = 3
	}
	if cfg.Dispatch.OpenInitialInterval == 0 {
		cfg.Dispatch.OpenInitialInterval = 200 * time.Millisecond
	}
	if cfg.Dispatch.OpenMaxInterval == 0 {
		cfg.Dispatch.OpenMaxInterval = 2 * time.Second
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 15 * time.Second
	}

	if cfg.Print.BillTarget == "" {
		cfg.Print.BillTarget = "lq310"
	}
	if cfg.Print.SummaryTarget == "" {
		cfg.Print.SummaryTarget = "a4-pdf"
	}
	if cfg.Print.ServiceCostTarget == "" {
		cfg.Print.ServiceCostTarget = "a4-pdf"
	}
	if cfg.Print.ClinicName == "" {
		cfg.Print.ClinicName = "BINARA MEDICAL CENTRE"
	}
	if len(cfg.Print.Footer) == 0 {
		cfg.Print.Footer = []string{
			"No.82, New Town, Kundasale.",
			"Tel: 0812424499/0706421421/0742666794, Fax:0812421942",
			"https://www.binara.live  binara82@gmail.com",
		}
	}
	if cfg.Print.Timezone == "" {
		cfg.Print.Timezone = "Local"
	}

	if len(cfg.Devices) == 0 {
		cfg.Devices = DefaultDevices()
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]printing.DeviceProfile{}
	}
	for name, p := range DefaultProfiles() {
		if _, ok := cfg.Profiles[name]; !ok {
			cfg.Profiles[name] = p
		}
	}
	for name, p := range cfg.Profiles {
		if p.Name == "" {
			p.Name = name
			cfg.Profiles[name] = p
		}
	}
}

var structValidator = validator.New()

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid configuration: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Storage.Backend == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket is required when storage.backend is s3")
	}
	if c.Storage.Retention < 0 {
		return fmt.Errorf("storage.retention cannot be negative")
	}
	if _, err := time.LoadLocation(c.Print.Timezone); err != nil {
		return fmt.Errorf("print.timezone: %w", err)
	}

	for name, p := range c.Profiles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profiles.%s: %w", name, err)
		}
	}
	for key, target := range map[string]string{
		"print.bill_target":         c.Print.BillTarget,
		"print.summary_target":      c.Print.SummaryTarget,
		"print.service_cost_target": c.Print.ServiceCostTarget,
	} {
		if _, ok := c.Profiles[target]; !ok {
			return fmt.Errorf("%s: unknown profile %q", key, target)
		}
	}

	if c.App.Env == "production" {
		if c.Database.Enabled && c.Database.Driver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}
	return nil
}

// Location returns the time zone used for printed timestamps
func (p PrintConfig) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Addr returns the Redis host:port address
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
