package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (CONTOSO_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	ImageBaseURL string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com)" flag:"image-base-url"`
	DirectLine   DirectLineConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
	Simulator    SimulatorConfig
}

// DirectLineConfig configures the chat bot upstream. With neither Secret nor
// TokenEndpoint set, the chat proxy is disabled.
type DirectLineConfig struct {
	BaseURL       string `default:"https://directline.botframework.com" usage:"Direct Line service base URL" flag:"directline-base-url"`
	Secret        string `usage:"Direct Line channel secret (CONTOSO_DIRECTLINE_SECRET)" flag:"directline-secret"`
	TokenEndpoint string `usage:"Copilot Studio token endpoint, preferred over the secret" flag:"directline-token-endpoint"`
}

// RateLimitConfig controls the per-client rate limiter.
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

// SimulatorConfig controls the background delivery simulator, which
// periodically advances every in-pipeline order one delivery stage.
type SimulatorConfig struct {
	Enabled  bool          `default:"false" usage:"Enable the background delivery simulator"`
	Interval time.Duration `default:"30s"   usage:"Delivery simulator tick interval"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CONTOSO",
		Files:     []string{"config.yaml", "/etc/contoso/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) to the CONTOSO_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
