package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete collector configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Network NetworkConfig `mapstructure:"network"`
	Logging LoggingConfig `mapstructure:"logging"`
	NATS    NATSConfig    `mapstructure:"nats"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig describes how the inventory server is reached.
// The server host itself is always typed by the operator.
type ServerConfig struct {
	DefaultPort   int           `mapstructure:"default_port"`
	APIPath       string        `mapstructure:"api_path"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"`
	UploadTimeout time.Duration `mapstructure:"upload_timeout"`
}

// NetworkConfig holds the keyword tables used to classify adapters
type NetworkConfig struct {
	VirtualKeywords  []string `mapstructure:"virtual_keywords"`
	PhysicalKeywords []string `mapstructure:"physical_keywords"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level        string `mapstructure:"level"`
	ConsoleLevel string `mapstructure:"console_level"`
	File         string `mapstructure:"file"`
	MaxSizeMB    int    `mapstructure:"max_size_mb"`
	MaxBackups   int    `mapstructure:"max_backups"`
}

// NATSConfig enables publishing of the uploaded record. Empty URL disables it.
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Auth          AuthConfig    `mapstructure:"auth"`
	TLS           TLSConfig     `mapstructure:"tls"`
}

// AuthConfig contains NATS authentication settings
type AuthConfig struct {
	Type      string `mapstructure:"type"` // "none", "token", "userpass", "creds"
	Token     string `mapstructure:"token"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	CredsFile string `mapstructure:"creds_file"`
}

// TLSConfig contains TLS settings for the NATS connection
type TLSConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	CertFile           string `mapstructure:"cert_file"`
	KeyFile            string `mapstructure:"key_file"`
	CAFile             string `mapstructure:"ca_file"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
}

// MetricsConfig enables the Prometheus textfile written after each run
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Load reads configuration from path. A missing file is not an error:
// the collector is usually started by double-click with no config at all.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ASSET_COLLECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.default_port", 80)
	v.SetDefault("server.api_path", "/api/assets")
	v.SetDefault("server.probe_timeout", 3*time.Second)
	v.SetDefault("server.upload_timeout", 10*time.Second)

	v.SetDefault("network.virtual_keywords", DefaultVirtualKeywords)
	v.SetDefault("network.physical_keywords", DefaultPhysicalKeywords)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console_level", "warn")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)

	// Optional keys get empty defaults so AutomaticEnv can override them
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "assets")
	v.SetDefault("nats.timeout", 5*time.Second)
	v.SetDefault("nats.auth.type", "none")
	v.SetDefault("nats.auth.token", "")
	v.SetDefault("nats.auth.username", "")
	v.SetDefault("nats.auth.password", "")
	v.SetDefault("nats.auth.creds_file", "")
	v.SetDefault("nats.tls.enabled", false)
	v.SetDefault("nats.tls.cert_file", "")
	v.SetDefault("nats.tls.key_file", "")
	v.SetDefault("nats.tls.ca_file", "")
	v.SetDefault("nats.tls.insecure_skip_verify", false)

	v.SetDefault("metrics.textfile", "")

	UpdateConfigDefaults(v)
}

func validate(cfg *Config) error {
	if cfg.Server.DefaultPort < 1 || cfg.Server.DefaultPort > 65535 {
		return fmt.Errorf("server.default_port must be between 1 and 65535, got %d", cfg.Server.DefaultPort)
	}
	if !strings.HasPrefix(cfg.Server.APIPath, "/") {
		return fmt.Errorf("server.api_path must start with '/'")
	}
	if cfg.Server.ProbeTimeout <= 0 {
		return fmt.Errorf("server.probe_timeout must be positive")
	}
	if cfg.Server.UploadTimeout <= 0 {
		return fmt.Errorf("server.upload_timeout must be positive")
	}

	if err := validateKeywords("network.virtual_keywords", cfg.Network.VirtualKeywords); err != nil {
		return err
	}
	if err := validateKeywords("network.physical_keywords", cfg.Network.PhysicalKeywords); err != nil {
		return err
	}

	if cfg.Logging.File == "" {
		return fmt.Errorf("logging.file is required")
	}

	if cfg.NATS.URL != "" {
		if err := validateNATS(&cfg.NATS); err != nil {
			return err
		}
	}

	return nil
}

// validateKeywords rejects blank entries; an empty keyword would match every adapter name
func validateKeywords(key string, keywords []string) error {
	for i, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("%s[%d] must not be blank", key, i)
		}
	}
	return nil
}

func validateNATS(cfg *NATSConfig) error {
	if cfg.SubjectPrefix == "" {
		return fmt.Errorf("nats.subject_prefix is required when nats.url is set")
	}
	if strings.ContainsAny(cfg.SubjectPrefix, " *>") {
		return fmt.Errorf("nats.subject_prefix contains invalid characters")
	}
	if strings.HasPrefix(cfg.SubjectPrefix, ".") || strings.HasSuffix(cfg.SubjectPrefix, ".") {
		return fmt.Errorf("nats.subject_prefix cannot start or end with a dot")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("nats.timeout must be positive")
	}

	switch cfg.Auth.Type {
	case "none", "":
	case "token":
		if cfg.Auth.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
	case "userpass":
		if cfg.Auth.Username == "" || cfg.Auth.Password == "" {
			return fmt.Errorf("username and password are required for userpass auth")
		}
	case "creds":
		if cfg.Auth.CredsFile == "" {
			return fmt.Errorf("creds_file is required for creds auth")
		}
	default:
		return fmt.Errorf("invalid auth type: %s", cfg.Auth.Type)
	}

	if cfg.TLS.Enabled && (cfg.TLS.CertFile == "") != (cfg.TLS.KeyFile == "") {
		return fmt.Errorf("nats.tls.cert_file and nats.tls.key_file must be set together")
	}

	return nil
}
