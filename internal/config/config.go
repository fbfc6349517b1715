package config

import (
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	platform "github.com/vadim/socialops/internal/domain/platform/entity"
)

// Config holds all application configuration
type Config struct {
	Server     Server     `yaml:"server"`
	Log        Log        `yaml:"log"`
	Bluesky    Bluesky    `yaml:"bluesky"`
	Mastodon   Mastodon   `yaml:"mastodon"`
	Facebook   Facebook   `yaml:"facebook"`
	Instagram  Instagram  `yaml:"instagram"`
	LinkedIn   LinkedIn   `yaml:"linkedin"`
	Generation Generation `yaml:"generation"`
	Store      Store      `yaml:"store"`
	Database   Database   `yaml:"database"`
	BrandVoice BrandVoice `yaml:"brand_voice"`
	Analytics  Analytics  `yaml:"analytics"`
	S3         S3         `yaml:"s3"`
	MCP        MCP        `yaml:"mcp"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"120s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Log holds logging configuration
type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// SlogLevel maps the configured level name to a slog level, defaulting to info
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Bluesky holds AT Protocol credentials
type Bluesky struct {
	Handle      string `yaml:"handle" env:"BLUESKY_HANDLE"`
	AppPassword string `yaml:"app_password" env:"BLUESKY_APP_PASSWORD"`
	PDSURL      string `yaml:"pds_url" env:"BLUESKY_PDS_URL" env-default:"https://bsky.social"`
}

// Mastodon holds Mastodon API credentials
type Mastodon struct {
	Instance    string `yaml:"instance" env:"MASTODON_INSTANCE" env-default:"https://mastodon.social"`
	AccessToken string `yaml:"access_token" env:"MASTODON_ACCESS_TOKEN"`
}

// Facebook holds Graph API page credentials
type Facebook struct {
	AccessToken string `yaml:"access_token" env:"FACEBOOK_ACCESS_TOKEN"`
	PageID      string `yaml:"page_id" env:"FACEBOOK_PAGE_ID"`
}

// Instagram holds Instagram Graph API credentials
type Instagram struct {
	AccessToken string `yaml:"access_token" env:"INSTAGRAM_ACCESS_TOKEN"`
	AccountID   string `yaml:"account_id" env:"INSTAGRAM_ACCOUNT_ID"`
}

// LinkedIn holds LinkedIn API credentials
type LinkedIn struct {
	AccessToken string `yaml:"access_token" env:"LINKEDIN_ACCESS_TOKEN"`
	OrgID       string `yaml:"org_id" env:"LINKEDIN_ORG_ID"`
}

// Generation provider names
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Generation holds text completion configuration
type Generation struct {
	Provider      string `yaml:"provider" env:"GENERATION_PROVIDER" env-default:"openai"`
	OpenAIAPIKey  string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	OpenAIModel   string `yaml:"openai_model" env:"OPENAI_MODEL" env-default:"gpt-4o"`
	OpenAIBaseURL string `yaml:"openai_base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`
	GeminiAPIKey  string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	GeminiModel   string `yaml:"gemini_model" env:"GEMINI_MODEL" env-default:"gemini-2.5-flash"`
}

// Store backend names
const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Store holds queue and analytics table configuration
type Store struct {
	Backend         string `yaml:"backend" env:"STORE_BACKEND" env-default:"sheets"`
	SpreadsheetID   string `yaml:"spreadsheet_id" env:"CONTENT_QUEUE_SHEET_ID"`
	QueueTab        string `yaml:"queue_tab" env:"QUEUE_TAB" env-default:"Queue"`
	AnalyticsTab    string `yaml:"analytics_tab" env:"ANALYTICS_TAB" env-default:"Analytics"`
	CredentialsPath string `yaml:"credentials_path" env:"GOOGLE_CREDENTIALS_PATH"`
	SQLitePath      string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"socialops.db"`
}

// Database holds database configuration
type Database struct {
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_URL"`

	// Connection pool settings
	MaxConns        int32         `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"10"`
	MinConns        int32         `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"1"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" env-default:"5m"`
}

// BrandVoice holds the brand voice file location
type BrandVoice struct {
	Path string `yaml:"path" env:"BRAND_VOICE_PATH" env-default:"brand_voice.json"`
}

// Analytics holds the periodic metrics refresher configuration
type Analytics struct {
	RefreshEnabled  bool          `yaml:"refresh_enabled" env:"ANALYTICS_REFRESH_ENABLED" env-default:"false"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"ANALYTICS_REFRESH_INTERVAL" env-default:"1h"`
	RefreshLimit    int           `yaml:"refresh_limit" env:"ANALYTICS_REFRESH_LIMIT" env-default:"20"`
}

// S3 holds S3/MinIO storage configuration for media uploads
type S3 struct {
	Enabled         bool   `yaml:"enabled" env:"S3_ENABLED" env-default:"false"`
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET" env-default:"media"`
	Region          string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	PublicURL       string `yaml:"public_url" env:"S3_PUBLIC_URL" env-default:"http://localhost:9000/media"`
}

// MCP holds the tool server configuration
type MCP struct {
	// AuthToken, when set, is required as a bearer token on /mcp
	AuthToken string `yaml:"auth_token" env:"MCP_AUTH_TOKEN"`
}

// Configured reports whether credentials for p are present.
// Twitter has no live integration and is never configured.
func (c Config) Configured(p platform.Platform) bool {
	switch p {
	case platform.PlatformBluesky:
		return c.Bluesky.Handle != "" && c.Bluesky.AppPassword != ""
	case platform.PlatformMastodon:
		return c.Mastodon.AccessToken != ""
	case platform.PlatformFacebook:
		return c.Facebook.AccessToken != "" && c.Facebook.PageID != ""
	case platform.PlatformInstagram:
		return c.Instagram.AccessToken != "" && c.Instagram.AccountID != ""
	case platform.PlatformLinkedIn:
		return c.LinkedIn.AccessToken != ""
	default:
		return false
	}
}

// MustLoad loads configuration from environment and exits on error
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Load reads configuration from the environment, after a .env file if one exists
func Load() (Config, error) {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
