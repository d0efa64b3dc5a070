package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the namespace for environment variables (EXPLORER_SERVER_PORT, ...)
const EnvPrefix = "EXPLORER"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Upload    UploadConfig    `yaml:"upload" envconfig:"UPLOAD"`
	Datasets  DatasetsConfig  `yaml:"datasets" envconfig:"DATASETS"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Explorer  ExplorerConfig  `yaml:"explorer" envconfig:"EXPLORER"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"60s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"120s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"2m"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/explorer.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// UploadConfig limits what the upload endpoint accepts
type UploadConfig struct {
	MaxBytes          int64    `yaml:"max_bytes" envconfig:"MAX_BYTES" default:"209715200"`
	AllowedExtensions []string `yaml:"allowed_extensions" envconfig:"ALLOWED_EXTENSIONS" default:".csv,.xlsx,.xls"`
}

// DatasetsConfig controls the in-memory dataset registry
type DatasetsConfig struct {
	TTL             time.Duration `yaml:"ttl" envconfig:"TTL" default:"2h"`
	MaxDatasets     int           `yaml:"max_datasets" envconfig:"MAX_DATASETS" default:"20"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" envconfig:"CLEANUP_INTERVAL" default:"5m"`
}

// CacheConfig controls the computation memo cache
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl" envconfig:"TTL" default:"30m"`
	MaxEntries int           `yaml:"max_entries" envconfig:"MAX_ENTRIES" default:"256"`
}

// ExplorerConfig holds pipeline parameters
type ExplorerConfig struct {
	PreviewRows      int   `yaml:"preview_rows" envconfig:"PREVIEW_ROWS" default:"500"`
	SampleSeed       int64 `yaml:"sample_seed" envconfig:"SAMPLE_SEED" default:"7"`
	MaxSampleRows    int   `yaml:"max_sample_rows" envconfig:"MAX_SAMPLE_ROWS" default:"100000"`
	MaxPCAComponents int   `yaml:"max_pca_components" envconfig:"MAX_PCA_COMPONENTS" default:"10"`
	ExportBOM        bool  `yaml:"export_bom" envconfig:"EXPORT_BOM" default:"false"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"data-explorer"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricExporter string `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs fills values the environment left at their defaults from the file.
// Env values that were explicitly set win.
func mergeConfigs(fileConfig, envConfig Config) Config {
	defaults := Default()

	if envConfig.Server.Port == defaults.Server.Port && fileConfig.Server.Port != 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == defaults.Server.ReadTimeout && fileConfig.Server.ReadTimeout != 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Server.WriteTimeout == defaults.Server.WriteTimeout && fileConfig.Server.WriteTimeout != 0 {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if envConfig.Server.RequestTimeout == defaults.Server.RequestTimeout && fileConfig.Server.RequestTimeout != 0 {
		envConfig.Server.RequestTimeout = fileConfig.Server.RequestTimeout
	}
	if len(fileConfig.Security.AllowedOrigins) > 0 && sameStrings(envConfig.Security.AllowedOrigins, defaults.Security.AllowedOrigins) {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	if envConfig.Logging.Level == defaults.Logging.Level && fileConfig.Logging.Level != "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if envConfig.Logging.Output == defaults.Logging.Output && fileConfig.Logging.Output != "" {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if envConfig.Logging.FilePath == defaults.Logging.FilePath && fileConfig.Logging.FilePath != "" {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if envConfig.Upload.MaxBytes == defaults.Upload.MaxBytes && fileConfig.Upload.MaxBytes != 0 {
		envConfig.Upload.MaxBytes = fileConfig.Upload.MaxBytes
	}
	if envConfig.Datasets.TTL == defaults.Datasets.TTL && fileConfig.Datasets.TTL != 0 {
		envConfig.Datasets.TTL = fileConfig.Datasets.TTL
	}
	if envConfig.Datasets.MaxDatasets == defaults.Datasets.MaxDatasets && fileConfig.Datasets.MaxDatasets != 0 {
		envConfig.Datasets.MaxDatasets = fileConfig.Datasets.MaxDatasets
	}
	if envConfig.Cache.TTL == defaults.Cache.TTL && fileConfig.Cache.TTL != 0 {
		envConfig.Cache.TTL = fileConfig.Cache.TTL
	}
	if envConfig.Cache.MaxEntries == defaults.Cache.MaxEntries && fileConfig.Cache.MaxEntries != 0 {
		envConfig.Cache.MaxEntries = fileConfig.Cache.MaxEntries
	}
	if envConfig.Explorer.PreviewRows == defaults.Explorer.PreviewRows && fileConfig.Explorer.PreviewRows != 0 {
		envConfig.Explorer.PreviewRows = fileConfig.Explorer.PreviewRows
	}
	if envConfig.Telemetry.TraceExporter == defaults.Telemetry.TraceExporter && fileConfig.Telemetry.TraceExporter != "" {
		envConfig.Telemetry.TraceExporter = fileConfig.Telemetry.TraceExporter
	}

	return envConfig
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive")
	}

	if c.Datasets.MaxDatasets <= 0 {
		return fmt.Errorf("max datasets must be positive")
	}

	if c.Explorer.PreviewRows <= 0 {
		return fmt.Errorf("preview rows must be positive")
	}

	if c.Explorer.MaxPCAComponents < 2 {
		return fmt.Errorf("max PCA components must be at least 2, got %d", c.Explorer.MaxPCAComponents)
	}

	for i, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Upload.AllowedExtensions[i] = ext
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  2 * time.Minute,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/explorer.log",
		},
		Upload: UploadConfig{
			MaxBytes:          DefaultMaxUploadBytes,
			AllowedExtensions: []string{".csv", ".xlsx", ".xls"},
		},
		Datasets: DatasetsConfig{
			TTL:             2 * time.Hour,
			MaxDatasets:     20,
			CleanupInterval: 5 * time.Minute,
		},
		Cache: CacheConfig{
			TTL:        30 * time.Minute,
			MaxEntries: 256,
		},
		Explorer: ExplorerConfig{
			PreviewRows:      DefaultPreviewRows,
			SampleSeed:       DefaultSampleSeed,
			MaxSampleRows:    DefaultMaxSampleRows,
			MaxPCAComponents: DefaultMaxPCAComponents,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TraceExporter:  "none",
			MetricExporter: "prometheus",
		},
	}
}
