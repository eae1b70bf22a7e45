package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Realtime      RealtimeConfig
	Storage       StorageConfig
	Search        SearchConfig
	Features      FeatureConfig
	Webhooks      WebhookConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
	Cache         CacheConfig
}

type ServerConfig struct {
	Port                  string
	GinMode               string
	AppEnv                string
	AllowedOrigins        []string
	RequestTimeoutSeconds int
	MaxBodyBytes          int64
	RateLimitPerSecond    float64
	RateLimitBurst        int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int32
	MinConns       int32
	CACertPath     string
	TLSServerName  string
	MigrationsPath string
	AutoMigrate    bool
}

type AuthConfig struct {
	JWTSecret         string
	JWTIssuer         string
	TokenTTLHours     int
	RequireVerified   bool
	AllowQueryToken   bool
	TokenQueryParam   string
	DefaultPrincipalR string
}

type RealtimeConfig struct {
	NotifyChannel      string
	RedisURL           string
	NotificationPrefix string
	WSWriteTimeout     time.Duration
	WSPingInterval     time.Duration
	SubscriberBuffer   int
}

type StorageConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Endpoint        string
	Region          string
	PublicBaseURL   string
}

type SearchConfig struct {
	MeilisearchHost   string
	MeilisearchAPIKey string
	MentorsIndex      string
}

type FeatureConfig struct {
	MenteeSeesPending  bool
	EnableFallbackData bool
	MessagesPageSize   int
}

type WebhookConfig struct {
	SessionCreatedURL      string
	MessageSentURL         string
	RelationshipChangedURL string
	TimeoutSeconds         int
}

type LoggingConfig struct {
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
	TraceSampleRatio  float64
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

type CacheConfig struct {
	ProfileTTLSeconds   int
	DisableProfileCache bool
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 15)
	v.SetDefault("MAX_BODY_BYTES", 8*1024*1024)
	v.SetDefault("RATE_LIMIT_PER_SECOND", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MIGRATIONS_PATH", "file://./migrations")
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("JWT_ISSUER", "mentorconnect")
	v.SetDefault("TOKEN_TTL_HOURS", 24)
	v.SetDefault("AUTH_REQUIRE_VERIFIED_EMAIL", false)
	v.SetDefault("AUTH_ALLOW_QUERY_TOKEN", true)
	v.SetDefault("AUTH_TOKEN_QUERY_PARAM", "access_token")
	v.SetDefault("DEFAULT_ROLE", "mentee")

	v.SetDefault("NOTIFY_CHANNEL", "mentorconnect_changes")
	v.SetDefault("NOTIFICATION_CHANNEL_PREFIX", "user_notifications:")
	v.SetDefault("WS_WRITE_TIMEOUT_SECONDS", 10)
	v.SetDefault("WS_PING_INTERVAL_SECONDS", 30)
	v.SetDefault("SUBSCRIBER_BUFFER", 1)

	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("MEILISEARCH_MENTORS_INDEX", "mentors")

	v.SetDefault("MENTEE_SEES_PENDING", true)
	v.SetDefault("ENABLE_FALLBACK_DATA", false)
	v.SetDefault("MESSAGES_PAGE_SIZE", 20)
	v.SetDefault("WEBHOOK_TIMEOUT_SECONDS", 10)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 14)

	v.SetDefault("OTEL_EXPORTER_ENDPOINT", "")
	v.SetDefault("SERVICE_NAME", "mentorconnect-api")
	v.SetDefault("SERVICE_NAMESPACE", "mentorconnect")
	v.SetDefault("SERVICE_VERSION", "1.0.0")
	v.SetDefault("TRACE_SAMPLE_RATIO", 1.0)

	v.SetDefault("PROFILING_ENABLED", false)
	v.SetDefault("PROFILING_APP_NAME", "mentorconnect-api")
	v.SetDefault("PROFILING_SAMPLE_TYPES", "cpu,alloc_space,goroutines,mutex")
	v.SetDefault("PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	v.SetDefault("PROFILE_CACHE_TTL", 300)
	v.SetDefault("DISABLE_PROFILE_CACHE", false)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:                  v.GetString("PORT"),
			GinMode:               v.GetString("GIN_MODE"),
			AppEnv:                v.GetString("APP_ENV"),
			AllowedOrigins:        splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
			RequestTimeoutSeconds: v.GetInt("REQUEST_TIMEOUT_SECONDS"),
			MaxBodyBytes:          v.GetInt64("MAX_BODY_BYTES"),
			RateLimitPerSecond:    v.GetFloat64("RATE_LIMIT_PER_SECOND"),
			RateLimitBurst:        v.GetInt("RATE_LIMIT_BURST"),
		},
		Database: DatabaseConfig{
			URL:            v.GetString("DATABASE_URL"),
			MaxConns:       v.GetInt32("DB_MAX_CONNS"),
			MinConns:       v.GetInt32("DB_MIN_CONNS"),
			CACertPath:     v.GetString("DATABASE_CA_CERT"),
			TLSServerName:  v.GetString("DATABASE_TLS_SERVER_NAME"),
			MigrationsPath: v.GetString("MIGRATIONS_PATH"),
			AutoMigrate:    v.GetBool("DB_AUTO_MIGRATE"),
		},
		Auth: AuthConfig{
			JWTSecret:         v.GetString("JWT_SECRET"),
			JWTIssuer:         v.GetString("JWT_ISSUER"),
			TokenTTLHours:     v.GetInt("TOKEN_TTL_HOURS"),
			RequireVerified:   v.GetBool("AUTH_REQUIRE_VERIFIED_EMAIL"),
			AllowQueryToken:   v.GetBool("AUTH_ALLOW_QUERY_TOKEN"),
			TokenQueryParam:   v.GetString("AUTH_TOKEN_QUERY_PARAM"),
			DefaultPrincipalR: v.GetString("DEFAULT_ROLE"),
		},
		Realtime: RealtimeConfig{
			NotifyChannel:      v.GetString("NOTIFY_CHANNEL"),
			RedisURL:           v.GetString("REDIS_URL"),
			NotificationPrefix: v.GetString("NOTIFICATION_CHANNEL_PREFIX"),
			WSWriteTimeout:     time.Duration(v.GetInt("WS_WRITE_TIMEOUT_SECONDS")) * time.Second,
			WSPingInterval:     time.Duration(v.GetInt("WS_PING_INTERVAL_SECONDS")) * time.Second,
			SubscriberBuffer:   v.GetInt("SUBSCRIBER_BUFFER"),
		},
		Storage: StorageConfig{
			AccessKeyID:     v.GetString("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("STORAGE_SECRET_ACCESS_KEY"),
			BucketName:      v.GetString("STORAGE_BUCKET_NAME"),
			Endpoint:        v.GetString("STORAGE_ENDPOINT"),
			Region:          v.GetString("STORAGE_REGION"),
			PublicBaseURL:   v.GetString("STORAGE_PUBLIC_BASE_URL"),
		},
		Search: SearchConfig{
			MeilisearchHost:   v.GetString("MEILISEARCH_HOST"),
			MeilisearchAPIKey: v.GetString("MEILISEARCH_API_KEY"),
			MentorsIndex:      v.GetString("MEILISEARCH_MENTORS_INDEX"),
		},
		Features: FeatureConfig{
			MenteeSeesPending:  v.GetBool("MENTEE_SEES_PENDING"),
			EnableFallbackData: v.GetBool("ENABLE_FALLBACK_DATA"),
			MessagesPageSize:   v.GetInt("MESSAGES_PAGE_SIZE"),
		},
		Webhooks: WebhookConfig{
			SessionCreatedURL:      v.GetString("SESSION_CREATED_WEBHOOK_URL"),
			MessageSentURL:         v.GetString("MESSAGE_SENT_WEBHOOK_URL"),
			RelationshipChangedURL: v.GetString("RELATIONSHIP_CHANGED_WEBHOOK_URL"),
			TimeoutSeconds:         v.GetInt("WEBHOOK_TIMEOUT_SECONDS"),
		},
		Logging: LoggingConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Dir:        v.GetString("LOG_DIR"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("OTEL_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("SERVICE_NAME"),
			ServiceNamespace:  v.GetString("SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
			TraceSampleRatio:  v.GetFloat64("TRACE_SAMPLE_RATIO"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("PROFILING_ENABLED"),
			Endpoint:              v.GetString("PROFILING_ENDPOINT"),
			AppName:               v.GetString("PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
		Cache: CacheConfig{
			ProfileTTLSeconds:   v.GetInt("PROFILE_CACHE_TTL"),
			DisableProfileCache: v.GetBool("DISABLE_PROFILE_CACHE"),
		},
	}
}

func splitList(raw string) []string {
	out := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("DB_MAX_CONNS must be >= DB_MIN_CONNS")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < 32 && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	switch c.Auth.DefaultPrincipalR {
	case "mentee", "mentor", "both":
	default:
		return fmt.Errorf("DEFAULT_ROLE must be one of mentee, mentor, both")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	if c.Realtime.NotifyChannel == "" {
		return fmt.Errorf("NOTIFY_CHANNEL is required")
	}

	if c.Features.MessagesPageSize <= 0 || c.Features.MessagesPageSize > 200 {
		return fmt.Errorf("MESSAGES_PAGE_SIZE must be between 1 and 200")
	}

	if c.Storage.BucketName != "" && (c.Storage.AccessKeyID == "" || c.Storage.SecretAccessKey == "") {
		return fmt.Errorf("STORAGE_ACCESS_KEY_ID and STORAGE_SECRET_ACCESS_KEY are required when STORAGE_BUCKET_NAME is set")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}

// RequestTimeout is the per-request deadline applied to handlers
func (c *Config) RequestTimeout() time.Duration {
	if c.Server.RequestTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}
