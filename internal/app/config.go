package app

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/sgjo/shop-api/internal/storage/blob"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), a .env file, flags, or YAML config
// files.
type Config struct {
	Addr           string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL    string `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL   string `default:"" usage:"Base URL prepended to relative image paths" flag:"image-base-url"`
	Upload         UploadConfig
	Blob           BlobConfig
	Auth           AuthConfig
	Log            LogConfig
	RateLimit      RateLimitConfig
	TrustedProxies []string `usage:"Proxy IPs or CIDRs allowed to set X-Forwarded-For" flag:"trusted-proxies"`
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// UploadConfig controls local media storage.
type UploadConfig struct {
	Dir  string `default:"uploads"  usage:"Directory for locally stored uploads"`
	Path string `default:"/uploads" usage:"URL path uploads are served under"`
}

// BlobConfig selects S3-compatible storage for media when credentials are set.
type BlobConfig struct {
	Endpoint  string `usage:"S3 endpoint URL (empty for AWS)"`
	Region    string `default:"us-east-1" usage:"S3 region"`
	Bucket    string `usage:"S3 bucket"`
	AccessKey string `usage:"S3 access key"`
	SecretKey string `usage:"S3 secret key"`
	PublicURL string `usage:"Public base URL of the bucket"`
}

// AuthConfig controls session tokens, the login limiter and the seeded admin.
type AuthConfig struct {
	TokenSecret   string        `usage:"HMAC secret for session tokens (SHOP_AUTH_TOKEN_SECRET)" flag:"token-secret"`
	TokenTTL      time.Duration `default:"120m" usage:"Session token lifetime"`
	AdminPassword string        `default:"admin1234" usage:"Initial password of the reserved admin account"`
	BcryptCost    int           `default:"10" usage:"bcrypt cost for password hashes"`
	MaxFailures   int           `default:"5" usage:"Consecutive failed logins before lockout"`
	Lockout       time.Duration `default:"5m" usage:"Login lockout duration"`
}

// LogConfig controls the JSON log file read by the admin log tail.
type LogConfig struct {
	Dir  string `default:"logs"    usage:"Directory for the application log file"`
	File string `default:"app.log" usage:"Application log file name"`
}

// Path returns the log file location.
func (c LogConfig) Path() string {
	return filepath.Join(c.Dir, c.File)
}

// RateLimitConfig controls the per-client request limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// S3 returns the bucket settings for the blob package.
func (c BlobConfig) S3() blob.S3Config {
	return blob.S3Config{
		Endpoint:  c.Endpoint,
		Region:    c.Region,
		Bucket:    c.Bucket,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		PublicURL: c.PublicURL,
	}
}

// LoadConfig loads a .env file when present, then configuration from
// environment variables and YAML config files, and applies platform defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/shop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
	case c.Auth.TokenSecret == "":
		return errors.New("token secret is required: set SHOP_AUTH_TOKEN_SECRET")
	case c.Auth.TokenTTL <= 0:
		return errors.New("token TTL must be positive")
	case c.Auth.MaxFailures <= 0 || c.Auth.Lockout <= 0:
		return errors.New("login limiter needs positive max failures and lockout")
	case c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0:
		return errors.New("rate limit needs positive max and window")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's SHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
