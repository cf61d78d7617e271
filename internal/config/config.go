package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the filegate API.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Upload  UploadConfig
	Static  StaticConfig
	CORS    CORSConfig
	Log     LogConfig
	Metrics MetricsConfig
	Tracing TracingConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Store drivers.
const (
	DriverS3    = "s3"
	DriverMinIO = "minio"
)

// StoreConfig carries object store connection and bucket information.
type StoreConfig struct {
	Driver          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	PathStyle       bool
	UseSSL          bool
	EnsureBucket    bool
}

// UploadConfig groups upload, listing and receipt settings.
type UploadConfig struct {
	TempDir      string
	FieldName    string
	MaxBytes     int64
	ListPageSize int
	PublicScheme string
	Developer    string
	StrictFetch  bool
}

// StaticConfig points at pre-built assets.
type StaticConfig struct {
	Dir string
}

// CORSConfig lists browser origins allowed to call the API. Empty disables CORS.
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
	ServiceName string
}

const (
	defaultMaxBytes     = 50 * 1024 * 1024
	defaultListPageSize = 1000
)

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("HOST", "0.0.0.0"),
			Port:         getInt("PORT", 3000),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 0),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 0),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Store: StoreConfig{
			Driver:          strings.ToLower(getString("STORE_DRIVER", DriverS3)),
			Endpoint:        getString("CLOUDFLARE_ENDPOINT", ""),
			AccessKeyID:     getString("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getString("AWS_SECRET_ACCESS_KEY", ""),
			Region:          getString("AWS_REGION", "auto"),
			Bucket:          getString("BUCKET_NAME", ""),
			PathStyle:       getBool("S3_FORCE_PATH_STYLE", false),
			UseSSL:          getBool("MINIO_USE_SSL", true),
			EnsureBucket:    getBool("STORE_ENSURE_BUCKET", false),
		},
		Upload: UploadConfig{
			TempDir:      getString("UPLOAD_TMP_DIR", "public/tmp"),
			FieldName:    getString("UPLOAD_FIELD", "fileInput"),
			MaxBytes:     getInt64("UPLOAD_MAX_BYTES", defaultMaxBytes),
			ListPageSize: getInt("LIST_PAGE_SIZE", defaultListPageSize),
			PublicScheme: getString("PUBLIC_SCHEME", "https"),
			Developer:    getString("RECEIPT_DEVELOPER", "Sazumi Viki"),
			StrictFetch:  getBool("STRICT_RETRIEVAL_ERRORS", false),
		},
		Static: StaticConfig{
			Dir: getString("STATIC_DIR", "public"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level: strings.ToLower(getString("LOG_LEVEL", "info")),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("METRICS_PATH", "/metrics"),
		},
		Tracing: TracingConfig{
			Enabled:     getBool("TRACING_ENABLED", false),
			Endpoint:    getString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			SampleRatio: getFloat("TRACING_SAMPLE_RATIO", 1),
			ServiceName: getString("SERVICE_NAME", "filegate"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverS3, DriverMinIO:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: want %q or %q", c.Store.Driver, DriverS3, DriverMinIO)
	}
	if strings.TrimSpace(c.Store.Bucket) == "" {
		return errors.New("BUCKET_NAME is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("invalid UPLOAD_MAX_BYTES %d", c.Upload.MaxBytes)
	}
	if c.Upload.ListPageSize < 1 || c.Upload.ListPageSize > defaultListPageSize {
		return fmt.Errorf("invalid LIST_PAGE_SIZE %d: must be within 1..%d", c.Upload.ListPageSize, defaultListPageSize)
	}
	if strings.TrimSpace(c.Upload.FieldName) == "" {
		return errors.New("UPLOAD_FIELD must not be empty")
	}
	return nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getList(key string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
