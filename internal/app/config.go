package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the docgate backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Identity    IdentityConfig    `mapstructure:"identity"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Bootstrap   BootstrapConfig   `mapstructure:"bootstrap"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	JWT     JWTSettings     `mapstructure:"jwt"`
	Session SessionSettings `mapstructure:"session"`
}

// JWTSettings configures signed session credentials.
type JWTSettings struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"access_token_ttl"`
}

// SessionSettings configures renewal credentials.
type SessionSettings struct {
	RenewalTTL    time.Duration `mapstructure:"renewal_token_ttl"`
	RenewalLength int           `mapstructure:"renewal_token_length"`

	// RevokeFamilyOnReuse escalates replay handling from rejecting the single
	// reused credential to revoking every outstanding credential of the actor.
	RevokeFamilyOnReuse bool `mapstructure:"revoke_family_on_reuse"`
}

// IdentityConfig describes the single trusted federated identity provider.
type IdentityConfig struct {
	Issuer        string        `mapstructure:"issuer"`
	ClientID      string        `mapstructure:"client_id"`
	ClientSecret  string        `mapstructure:"client_secret"`
	RedirectURL   string        `mapstructure:"redirect_url"`
	AllowedDomain string        `mapstructure:"allowed_domain"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// StorageConfig locates document content on disk.
type StorageConfig struct {
	Root string `mapstructure:"root"`
}

// BootstrapConfig seeds the initial administrator on fresh installs.
type BootstrapConfig struct {
	AdminEmail string `mapstructure:"admin_email"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MaintenanceConfig tunes the background cleanup jobs.
type MaintenanceConfig struct {
	CredentialSchedule string `mapstructure:"credential_schedule"`
	AuditSchedule      string `mapstructure:"audit_schedule"`
	AuditRetentionDays int    `mapstructure:"audit_retention_days"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("DOCGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// Validate rejects configurations that cannot yield a working server.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWT.Secret) == "" {
		return errors.New("config: auth.jwt.secret is required")
	}
	if strings.TrimSpace(c.Identity.Issuer) == "" {
		return errors.New("config: identity.issuer is required")
	}
	if strings.TrimSpace(c.Identity.ClientID) == "" {
		return errors.New("config: identity.client_id is required")
	}
	if strings.TrimSpace(c.Identity.AllowedDomain) == "" {
		return errors.New("config: identity.allowed_domain is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/docgate.sqlite")

	v.SetDefault("auth.jwt.issuer", "docgate")
	v.SetDefault("auth.jwt.access_token_ttl", "60m")
	v.SetDefault("auth.session.renewal_token_ttl", "720h") // 30 days
	v.SetDefault("auth.session.renewal_token_length", 48)
	v.SetDefault("auth.session.revoke_family_on_reuse", false)

	v.SetDefault("identity.timeout", "10s")

	v.SetDefault("storage.root", "./data/files")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("maintenance.credential_schedule", "@hourly")
	v.SetDefault("maintenance.audit_schedule", "@daily")
	v.SetDefault("maintenance.audit_retention_days", 90)
}
