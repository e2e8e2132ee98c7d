package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Version returns the release version baked into the binary.
func Version() string { return version }

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("oauth-login version %s, commit %s, built at %s", version, commit, date)
}

const (
	envPrefix = "OAUTH_LOGIN"

	DefaultProviderName      = "kakao"
	DefaultProviderTimeout   = 10 * time.Second
	DefaultAccessTTL         = time.Hour
	DefaultRefreshTTL        = 14 * 24 * time.Hour
	DefaultPostLoginRedirect = "/"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Provider ProviderConfig `mapstructure:"provider"`
	Session  SessionConfig  `mapstructure:"session"`
	Store    StoreConfig    `mapstructure:"store"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	Host              string        `mapstructure:"host"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// ProviderConfig describes the identity provider the login flow talks to.
// It is loaded once at startup and never mutated afterwards.
type ProviderConfig struct {
	Name         string        `mapstructure:"name"`
	AuthURL      string        `mapstructure:"auth_url"`
	TokenURL     string        `mapstructure:"token_url"`
	ProfileURL   string        `mapstructure:"profile_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	RedirectURI  string        `mapstructure:"redirect_uri"` // sent verbatim, pre-encode reserved characters
	Timeout      time.Duration `mapstructure:"timeout"`
	Profile      ProfilePaths  `mapstructure:"profile"`
}

// ProfilePaths are gjson paths into the profile endpoint response.
type ProfilePaths struct {
	IDPath    string `mapstructure:"id_path"`
	EmailPath string `mapstructure:"email_path"`
	NamePath  string `mapstructure:"name_path"`
}

type SessionConfig struct {
	Secret            string        `mapstructure:"secret"`
	Issuer            string        `mapstructure:"issuer"`
	AccessTTL         time.Duration `mapstructure:"access_ttl"`
	RefreshTTL        time.Duration `mapstructure:"refresh_ttl"`
	PostLoginRedirect string        `mapstructure:"post_login_redirect"`
	CookieDomain      string        `mapstructure:"cookie_domain"`
}

// StoreDriver selects the UserStore backend.
type StoreDriver string

const (
	StoreDriverMemory   StoreDriver = "memory"
	StoreDriverBolt     StoreDriver = "bolt"
	StoreDriverSQLite   StoreDriver = "sqlite"
	StoreDriverPostgres StoreDriver = "postgres"
)

type StoreConfig struct {
	Driver StoreDriver `mapstructure:"driver"`
	DSN    string      `mapstructure:"dsn"` // file path for bolt/sqlite, connection URL for postgres
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// requiredKeys have no defaults and must be provided by file, env or flag.
var requiredKeys = []string{
	"provider.auth_url",
	"provider.token_url",
	"provider.profile_url",
	"provider.client_id",
	"provider.client_secret",
	"provider.redirect_uri",
	"session.secret",
}

// InitFlags registers the command line flags understood by Load (without parsing)
func InitFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a config file (defaults to ./config.yaml or /etc/oauth-login/config.yaml)")
	fs.String("env-file", ".env", "Optional dotenv file loaded before reading the environment")
	fs.Int("server.port", 8080, "Port to listen on")
	fs.String("logging.level", "info", "Log level (debug|info|warn|error)")
	fs.String("store.driver", string(StoreDriverMemory), "User store driver (memory|bolt|sqlite|postgres)")
	fs.String("store.dsn", "", "User store file path or connection URL")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("provider.name", DefaultProviderName)
	v.SetDefault("provider.timeout", DefaultProviderTimeout)
	v.SetDefault("provider.profile.id_path", "id")
	v.SetDefault("provider.profile.email_path", "kakao_account.email")
	v.SetDefault("provider.profile.name_path", "properties.nickname")

	v.SetDefault("session.issuer", "oauth-login")
	v.SetDefault("session.access_ttl", DefaultAccessTTL)
	v.SetDefault("session.refresh_ttl", DefaultRefreshTTL)
	v.SetDefault("session.post_login_redirect", DefaultPostLoginRedirect)
	v.SetDefault("session.cookie_domain", "")

	v.SetDefault("store.driver", string(StoreDriverMemory))
	v.SetDefault("store.dsn", "")

	v.SetDefault("cors.allow_origins", []string{})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads the configuration from (in increasing precedence) defaults, the config
// file, the environment and the given flag set. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	config, err := load(fs)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadStore is Load for commands that only open the user store. Provider and
// session settings are read but not required.
func LoadStore(fs *pflag.FlagSet) (*Config, error) {
	config, err := load(fs)
	if err != nil {
		return nil, err
	}
	if err := config.Store.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range requiredKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if fs != nil {
		if envFile, err := fs.GetString("env-file"); err == nil && envFile != "" {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
		}
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func readConfigFile(v *viper.Viper) error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		return v.ReadInConfig()
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/oauth-login")

	if err := v.ReadInConfig(); err != nil {
		// The file is optional, everything can come from the environment
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

// Validate checks that every required setting is present and coherent.
func (c *Config) Validate() error {
	missing := []string{}
	for key, value := range map[string]string{
		"provider.auth_url":      c.Provider.AuthURL,
		"provider.token_url":     c.Provider.TokenURL,
		"provider.profile_url":   c.Provider.ProfileURL,
		"provider.client_id":     c.Provider.ClientID,
		"provider.client_secret": c.Provider.ClientSecret,
		"provider.redirect_uri":  c.Provider.RedirectURI,
		"session.secret":         c.Session.Secret,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing required configuration: %s, please adjust the config or set the matching %s_* environment variables",
			strings.Join(missing, ", "), envPrefix)
	}

	if c.Provider.Timeout <= 0 {
		c.Provider.Timeout = DefaultProviderTimeout
	}

	return c.Store.Validate()
}

// Validate checks the driver name and that file and network drivers have a DSN.
func (s *StoreConfig) Validate() error {
	switch s.Driver {
	case StoreDriverMemory:
	case StoreDriverBolt, StoreDriverSQLite, StoreDriverPostgres:
		if s.DSN == "" {
			return fmt.Errorf("store.dsn is required for store driver %q", s.Driver)
		}
	default:
		return fmt.Errorf("unsupported store driver: %s", s.Driver)
	}
	return nil
}
