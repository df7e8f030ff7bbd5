package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("auto-xhr version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server          ServerConfig   `mapstructure:"server"`
	Logging         LoggingConfig  `mapstructure:"logging"`
	Client          ClientConfig   `mapstructure:"client"`
	Endpoint        EndpointConfig `mapstructure:"endpoint"`
	Metrics         MetricsConfig  `mapstructure:"metrics"`
	OAuth           OAuthConfig    `mapstructure:"oauth"`
	OpenAPIFile     string         `mapstructure:"openapi_file"`
	AdjustmentsFile string         `mapstructure:"adjustments_file"`
}

// AuthType represents the type of authentication to use
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "api_key"
	AuthTypeOAuth2 AuthType = "oauth2"
)

type EndpointConfig struct {
	BaseURL    string            `json:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	AuthType   AuthType          `json:"auth_type" mapstructure:"auth_type" validate:"omitempty,oneof=none basic bearer api_key oauth2"`
	AuthConfig map[string]string `json:"auth_config" mapstructure:"auth_config"`
	Headers    map[string]string `json:"headers" mapstructure:"headers"`
}

// ClientConfig holds the defaults applied to every request the adapter issues.
type ClientConfig struct {
	Timeout      time.Duration     `mapstructure:"timeout" validate:"gte=0"`
	Headers      map[string]string `mapstructure:"headers"`
	ResponseType string            `mapstructure:"response_type" validate:"omitempty,oneof=text json bytes"`
	Log          bool              `mapstructure:"log"`
}

type ServerMode string

const (
	ServerModeSSE   ServerMode = "sse"
	ServerModeSTDIO ServerMode = "stdio"
	ServerModeHTTP  ServerMode = "http"
)

type ServerConfig struct {
	Port    int        `mapstructure:"port" validate:"gte=0,lte=65535"`
	Host    string     `mapstructure:"host"`
	Mode    ServerMode `mapstructure:"mode" validate:"omitempty,oneof=sse stdio http"`
	Name    string     `mapstructure:"name"`
	Version string     `mapstructure:"version"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	Format            string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"omitempty,startswith=/"`
}

// OAuthConfig protects the HTTP server modes with an upstream identity
// provider. BaseURL is the public URL of this server as advertised in the
// discovery documents.
type OAuthConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Provider     string   `mapstructure:"provider" validate:"omitempty,oneof=google github"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Scopes       []string `mapstructure:"scopes"`
	BaseURL      string   `mapstructure:"base_url" validate:"omitempty,url"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// InitFlags initializes command line flags (without parsing)
func InitFlags(flags *pflag.FlagSet) {
	flags.String("mode", string(ServerModeSTDIO), "Server mode (stdio|sse|http)")
	flags.String("openapi-file", "", "Path to an OpenAPI/Swagger document")
	flags.String("adjustments-file", "", "Path to a YAML file selecting catalog operations")
	flags.String("base-url", "", "Base URL prepended to catalog operation paths")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", string(ServerModeSTDIO))
	v.SetDefault("server.name", "auto-xhr")
	v.SetDefault("server.version", version)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("client.timeout", 30*time.Second)
	v.SetDefault("client.response_type", "text")
	v.SetDefault("endpoint.auth_type", string(AuthTypeNone))
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("oauth.scopes", []string{"openid", "profile", "email"})
}

// Load reads configuration from config.yaml, AUTO_XHR_* environment variables
// and the given flags, in increasing order of precedence. A missing config
// file is not an error.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AUTO_XHR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/auto-xhr")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	//Loading additionals config files
	if _, err := os.Stat("/config/config.yaml"); err == nil {
		v.SetConfigFile("/config/config.yaml")
		if err := v.MergeInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		return flags != nil && flags.Changed(name)
	}
	if changed("mode") {
		config.Server.Mode = ServerMode(v.GetString("mode"))
	}
	if changed("openapi-file") {
		config.OpenAPIFile = v.GetString("openapi-file")
	}
	if changed("adjustments-file") {
		config.AdjustmentsFile = v.GetString("adjustments-file")
	}
	if changed("base-url") {
		config.Endpoint.BaseURL = v.GetString("base-url")
	}
	if changed("log-level") {
		config.Logging.Level = v.GetString("log-level")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.OAuth.Enabled {
		if config.OAuth.BaseURL == "" {
			return nil, errors.New("oauth.base_url is required when oauth is enabled, set it in the config or with AUTO_XHR_OAUTH_BASE_URL")
		}
		if config.OAuth.Provider == "" || config.OAuth.ClientID == "" {
			return nil, errors.New("oauth.provider and oauth.client_id are required when oauth is enabled")
		}
	}
	return &config, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of the whole configuration tree.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
