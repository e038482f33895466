// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

// Duration is a time.Duration that unmarshals from the human-readable YAML
// form ("10s", "48h"); yaml.v3 cannot decode those into time.Duration itself.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type ServerConfig struct {
	Port          int    `yaml:"port"`
	PublicBaseURL string `yaml:"public_base_url"` // where the PSP redirects buyers back to
	SuccessURL    string `yaml:"success_url"`     // user-facing success page
	FailureURL    string `yaml:"failure_url"`     // user-facing failure page
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PSPConfig holds both credential sets. The OAuth set (client id/secret/
// version all present) wins; otherwise the legacy salt set (merchant id +
// salt key) is used; otherwise checkout runs in dummy-pay mode.
type PSPConfig struct {
	BaseURL string   `yaml:"base_url"`
	AuthURL string   `yaml:"auth_url"` // OAuth token endpoint
	Timeout Duration `yaml:"timeout"`

	MerchantID string `yaml:"merchant_id"`
	SaltKey    string `yaml:"salt_key"`
	SaltIndex  string `yaml:"salt_index"`

	ClientID      string `yaml:"client_id"`
	ClientSecret  string `yaml:"client_secret"`
	ClientVersion string `yaml:"client_version"`
}

type SecurityConfig struct {
	TokenSecret    string `yaml:"token_secret"` // HMAC secret for access tokens and tickets
	AdminKey       string `yaml:"admin_key"`
	AdminJWTSecret string `yaml:"admin_jwt_secret"`
}

type NotifyConfig struct {
	EmailEndpoint    string `yaml:"email_endpoint"`
	WhatsAppEndpoint string `yaml:"whatsapp_endpoint"`
	APIKey           string `yaml:"api_key"`
}

// ProductConfig overrides the built-in catalog defaults for one SKU.
type ProductConfig struct {
	PriceMinor   int64             `yaml:"price_minor"`
	Currency     string            `yaml:"currency"`
	TokenTTL     Duration          `yaml:"token_ttl"`
	MeetingURL   string            `yaml:"meeting_url"`
	UpsellURL    string            `yaml:"upsell_url"`
	ResourceURLs map[string]string `yaml:"resource_urls"` // resource title -> URL
}

type Config struct {
	Server   ServerConfig             `yaml:"server"`
	Log      LogConfig                `yaml:"log"`
	Database DatabaseConfig           `yaml:"database"`
	Redis    RedisConfig              `yaml:"redis"`
	PSP      PSPConfig                `yaml:"psp"`
	Security SecurityConfig           `yaml:"security"`
	Notify   NotifyConfig             `yaml:"notify"`
	Products map[string]ProductConfig `yaml:"products"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()

	if cfg.Security.TokenSecret == "" {
		return nil, fmt.Errorf("security.token_secret is required")
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.PSP.Timeout <= 0 {
		cfg.PSP.Timeout = Duration(10 * time.Second)
	}
	if cfg.PSP.SaltIndex == "" {
		cfg.PSP.SaltIndex = "1"
	}
}
