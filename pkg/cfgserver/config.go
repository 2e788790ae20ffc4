// Package cfgserver loads the server's own configuration: database
// connection, HTTP listen address, platform app credentials, and the
// list of organizations under management. This is distinct from
// pkg/cfgloader, which loads a single organization's desired-state
// documents from its config repository.
package cfgserver

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LogFormat selects the server's log output shape.
type LogFormat string

const (
	LogFormatJSON   LogFormat = "json"
	LogFormatPretty LogFormat = "pretty"
)

// Database holds a Postgres connection's parameters.
type Database struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders c as a libpq connection string for gorm's postgres driver.
func (c Database) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode)
}

// BasicAuth is the optional HTTP basic-auth guard in front of the
// non-webhook HTTP surface.
type BasicAuth struct {
	Enabled  bool   `mapstructure:"enabled"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// GitHubApp carries this CLOWarden deployment's GitHub App credentials.
type GitHubApp struct {
	AppID                 int64  `mapstructure:"app_id"`
	PrivateKey            string `mapstructure:"private_key"`
	WebhookSecret         string `mapstructure:"webhook_secret"`
	WebhookSecretFallback string `mapstructure:"webhook_secret_fallback"`
}

// Legacy locates an organization's permissions and people files within its
// configuration repository: SheriffPermissionsPath and CNCFPeoplePath
// replace the default permissions.yaml and people.yaml when set. Enabled is
// parsed but not consulted.
type Legacy struct {
	Enabled                bool   `mapstructure:"enabled"`
	SheriffPermissionsPath string `mapstructure:"sheriff_permissions_path"`
	CNCFPeoplePath         string `mapstructure:"cncf_people_path"`
}

// Organization is one managed GitHub organization.
type Organization struct {
	Name           string `mapstructure:"name"`
	InstallationID int64  `mapstructure:"installation_id"`
	Repository     string `mapstructure:"repository"`
	Branch         string `mapstructure:"branch"`
	Legacy         Legacy `mapstructure:"legacy"`
}

// Services toggles which services CLOWarden reconciles. Only the
// code-hosting (GitHub) service exists today; the struct stays separate
// from everything else so a later service slots in as one more field.
type Services struct {
	GitHub bool `mapstructure:"github"`
}

// Config is the server's full configuration, as loaded from a YAML file
// with CLOWARDEN_-prefixed environment overrides.
type Config struct {
	LogFormat     LogFormat      `mapstructure:"log_format"`
	Addr          string         `mapstructure:"addr"`
	StaticAssets  string         `mapstructure:"static_assets_path"`
	BasicAuth     BasicAuth      `mapstructure:"basic_auth"`
	DB            Database       `mapstructure:"db"`
	GitHubApp     GitHubApp      `mapstructure:"github_app"`
	Services      Services       `mapstructure:"services"`
	Organizations []Organization `mapstructure:"organizations"`
}

// Load reads configPath (a YAML file) and overlays any CLOWARDEN_-prefixed
// environment variable, following the teacher's own config/env layering.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CLOWARDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_format", string(LogFormatJSON))
	v.SetDefault("addr", ":8000")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("services.github", true)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Secrets returns every string that must never reach a log line, ready
// for a secretutil.Censorer's Refresh.
func (c Config) Secrets() []string {
	secrets := []string{c.GitHubApp.PrivateKey, c.GitHubApp.WebhookSecret, c.GitHubApp.WebhookSecretFallback, c.DB.Password}
	if c.BasicAuth.Enabled {
		secrets = append(secrets, c.BasicAuth.Password)
	}
	return secrets
}
