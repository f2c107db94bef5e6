package config

import (
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultPath is where the portal looks for its config file when none is given.
const DefaultPath = "config/config.json"

// AppConfig holds the portal configuration. It is loaded once in main and passed
// explicitly to every component that needs it.
// Secrets never have defaults inside code and must come from the config file, .env or the environment.
type AppConfig struct {
	App      AppSection      `mapstructure:"app"`
	Database DatabaseConfig  `mapstructure:"database"`
	Storage  StorageConfig   `mapstructure:"storage"`
	Session  SessionConfig   `mapstructure:"session"`
	Redis    RedisConfig     `mapstructure:"redis"`
	Log      LogConfig       `mapstructure:"log"`
	Jobs     JobsConfig      `mapstructure:"jobs"`
	Admin    BootstrapConfig `mapstructure:"admin"`
}

type AppSection struct {
	Port               string   `mapstructure:"port"`
	GinMode            string   `mapstructure:"gin_mode"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	MetricsEnabled     bool     `mapstructure:"metrics_enabled"`
	PostsPerPage       int      `mapstructure:"posts_per_page"`
	TitleSnippet       int      `mapstructure:"title_snippet"`
	ContentSnippet     int      `mapstructure:"content_snippet"`
	LoginMaxFailures   int      `mapstructure:"login_max_failures"`
	LoginLockMinutes   int      `mapstructure:"login_lock_minutes"`
}

// DatabaseConfig selects the gorm dialector. Driver is "sqlite" (default) or "mysql".
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	URI      string `mapstructure:"uri"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type StorageConfig struct {
	UploadDir       string `mapstructure:"upload_dir"`
	DeletedDir      string `mapstructure:"deleted_dir"`
	TempDir         string `mapstructure:"temp_dir"`
	MaxUploadSizeMB int64  `mapstructure:"max_upload_size_mb"`
	MaxFilesPerPost int    `mapstructure:"max_files_per_post"`
}

// MaxUploadBytes is the per-file ceiling in bytes.
func (s StorageConfig) MaxUploadBytes() int64 {
	return s.MaxUploadSizeMB * 1024 * 1024
}

type SessionConfig struct {
	Secret     string `mapstructure:"secret"`
	CookieName string `mapstructure:"cookie_name"`
	Secure     bool   `mapstructure:"secure"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	GinPath    string `mapstructure:"gin_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type JobsConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	BannerExpirySpec  string `mapstructure:"banner_expiry_spec"`
	TempCleanupSpec   string `mapstructure:"temp_cleanup_spec"`
	TempMaxAgeMinutes int    `mapstructure:"temp_max_age_minutes"`
	DBOptimizeSpec    string `mapstructure:"db_optimize_spec"`
}

// BootstrapConfig describes the administrator account created on first start.
type BootstrapConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	FullName string `mapstructure:"full_name"`
	Avatar   string `mapstructure:"avatar"`
}

// Load reads configuration with precedence: defaults -> config file -> .env / environment (PORTAL_*).
// A missing config file is not an error.
func Load(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, errors.Wrapf(err, "read config %s", path)
			}
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "3000")
	v.SetDefault("app.gin_mode", "release")
	v.SetDefault("app.rate_limit_per_minute", 30)
	v.SetDefault("app.allowed_origins", []string{})
	v.SetDefault("app.metrics_enabled", true)
	v.SetDefault("app.posts_per_page", 5)
	v.SetDefault("app.title_snippet", 100)
	v.SetDefault("app.content_snippet", 300)
	v.SetDefault("app.login_max_failures", 5)
	v.SetDefault("app.login_lock_minutes", 15)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "database.db")
	v.SetDefault("database.uri", "")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "docportal")

	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.deleted_dir", "deleted")
	v.SetDefault("storage.temp_dir", "tmp")
	v.SetDefault("storage.max_upload_size_mb", 500)
	v.SetDefault("storage.max_files_per_post", 10)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.cookie_name", "portal_session")
	v.SetDefault("session.secure", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "logs/portal.log")
	v.SetDefault("log.gin_path", "logs/gin.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", false)

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.banner_expiry_spec", "0 */10 * * * *")
	v.SetDefault("jobs.temp_cleanup_spec", "0 0 * * * *")
	v.SetDefault("jobs.temp_max_age_minutes", 60)
	v.SetDefault("jobs.db_optimize_spec", "@daily")

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "admin123")
	v.SetDefault("admin.full_name", "Quản trị viên")
	v.SetDefault("admin.avatar", "/images/admin-avatar.png")
}

func (c *AppConfig) validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return errors.New("session secret must be set (PORTAL_SESSION_SECRET)")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return errors.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.App.PostsPerPage <= 0 {
		c.App.PostsPerPage = 5
	}
	if c.Storage.MaxFilesPerPost <= 0 {
		c.Storage.MaxFilesPerPost = 10
	}
	if c.Storage.MaxUploadSizeMB <= 0 {
		c.Storage.MaxUploadSizeMB = 500
	}
	return nil
}
