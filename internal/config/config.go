package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Upstream     UpstreamConfig     `mapstructure:"upstream"`
	Backend      BackendConfig      `mapstructure:"backend"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Events       EventsConfig       `mapstructure:"events"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	Notification NotificationConfig `mapstructure:"notification"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Log          LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Host                    string        `mapstructure:"host"`
	Port                    int           `mapstructure:"port"`
	Mode                    string        `mapstructure:"mode"`
	ReadTimeout             time.Duration `mapstructure:"read_timeout"`
	WriteTimeout            time.Duration `mapstructure:"write_timeout"`
	GracefulShutdownTimeout time.Duration `mapstructure:"graceful_shutdown_timeout"`
}

// UpstreamConfig points at the origin the agent fronts: the server that
// serves the web client's static assets and its API.
type UpstreamConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIPrefix string `mapstructure:"api_prefix"`
}

type BackendConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	SyncPath string        `mapstructure:"sync_path"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Auth     AuthConfig    `mapstructure:"auth"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	Issuer     string        `mapstructure:"issuer"`
	Subject    string        `mapstructure:"subject"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type CacheConfig struct {
	Backend              string        `mapstructure:"backend"` // "redis" | "memory"
	Version              string        `mapstructure:"version"`
	NetworkTimeout       time.Duration `mapstructure:"network_timeout"`
	StaticManifest       []string      `mapstructure:"static_manifest"`
	TakeControlOnInstall bool          `mapstructure:"take_control_on_install"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	DB              string        `mapstructure:"db"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type EventsConfig struct {
	Backend string `mapstructure:"backend"` // "postgres" | "memory"
}

type SyncConfig struct {
	Queue            string        `mapstructure:"queue"`
	MaxRetryAttempts int           `mapstructure:"max_retry_attempts"`
	BaseDelay        time.Duration `mapstructure:"base_delay"`
}

type ConnectivityConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"`
	ProbePath     string        `mapstructure:"probe_path"`
}

type NotificationConfig struct {
	AppName    string `mapstructure:"app_name"`
	Icon       string `mapstructure:"icon"`
	Badge      string `mapstructure:"badge"`
	Tag        string `mapstructure:"tag"`
	DefaultURL string `mapstructure:"default_url"`
}

type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config.yaml, overlays environment variables, and returns Config.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Environment variable override: BACKEND_BASE_URL -> backend.base_url
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("upstream.api_prefix", "/api/")
	v.SetDefault("backend.sync_path", "/events/sync")
	v.SetDefault("backend.timeout", "5s")
	v.SetDefault("backend.auth.subject", "edge-agent")
	v.SetDefault("backend.auth.token_ttl", "5m")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.network_timeout", "5s")
	v.SetDefault("cache.take_control_on_install", true)
	v.SetDefault("events.backend", "postgres")
	v.SetDefault("sync.queue", "events")
	v.SetDefault("sync.max_retry_attempts", 3)
	v.SetDefault("sync.base_delay", "1s")
	v.SetDefault("connectivity.probe_interval", "30s")
	v.SetDefault("connectivity.probe_timeout", "5s")
	v.SetDefault("connectivity.probe_path", "/healthz")
	v.SetDefault("notification.app_name", "SkyCamOS")
	v.SetDefault("notification.icon", "/icons/icon-192.png")
	v.SetDefault("notification.badge", "/icons/badge-72.png")
	v.SetDefault("notification.tag", "skycam-notification")
	v.SetDefault("notification.default_url", "#/dashboard")
}
