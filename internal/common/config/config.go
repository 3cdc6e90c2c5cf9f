package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"room-passport/internal/common/logging"

	"github.com/spf13/viper"
)

// ============================================================
// Configuration
// ============================================================

const envPrefix = "PASSPORT"

type Config struct {
	Env      string         `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"db"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Template TemplateConfig `mapstructure:"template"`
	Document DocumentConfig `mapstructure:"document"`
	Log      logging.Config `mapstructure:"log"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type StorageConfig struct {
	Backend  string      `mapstructure:"backend"`
	MediaDir string      `mapstructure:"media_dir"`
	DocDir   string      `mapstructure:"doc_dir"`
	MinIO    MinIOConfig `mapstructure:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type TemplateConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

type DocumentConfig struct {
	ImageWidth int `mapstructure:"image_width"`
}

type SeedConfig struct {
	File string `mapstructure:"file"`
}

// AuthConfig: срок жизни bearer-токена; 0 означает бессрочный.
type AuthConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

const (
	BackendFS    = "fs"
	BackendMinIO = "minio"
)

// defaults регистрирует каждый ключ, иначе viper не свяжет его с переменной окружения.
var defaults = map[string]any{
	"env":                      "development",
	"server.port":              "3000",
	"server.read_timeout":      10 * time.Second,
	"server.write_timeout":     30 * time.Second,
	"server.body_limit":        20 * 1024 * 1024,
	"db.path":                  "./data/passport.db",
	"storage.backend":          BackendFS,
	"storage.media_dir":        "./data/media",
	"storage.doc_dir":          "./data/docs",
	"storage.minio.endpoint":   "",
	"storage.minio.access_key": "",
	"storage.minio.secret_key": "",
	"storage.minio.bucket":     "passports",
	"storage.minio.region":     "us-east-1",
	"storage.minio.use_ssl":    false,
	"template.path":            "./templates/passport.docx",
	"template.watch":           false,
	"document.image_width":     650,
	"log.level":                "info",
	"log.format":               "json",
	"seed.file":                "",
	"admin.email":              "admin@example.com",
	"admin.password":           "admin",
	"auth.session_ttl":         12 * time.Hour,
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	return v
}

// Load читает YAML-файл (если задан путь или PASSPORT_CONFIG), накладывает
// переменные окружения PASSPORT_* и проверяет результат.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG")
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate проверяет обязательные ключи.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Server.BodyLimit <= 0 {
		errs = append(errs, errors.New("server.body_limit must be positive"))
	}
	if c.DB.Path == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	if c.Storage.MediaDir == "" {
		errs = append(errs, errors.New("storage.media_dir is required"))
	}
	if c.Template.Path == "" {
		errs = append(errs, errors.New("template.path is required"))
	}
	if c.Document.ImageWidth <= 0 {
		errs = append(errs, errors.New("document.image_width must be positive"))
	}

	switch c.Storage.Backend {
	case BackendFS:
		if c.Storage.DocDir == "" {
			errs = append(errs, errors.New("storage.doc_dir is required for fs backend"))
		}
	case BackendMinIO:
		if c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "" {
			errs = append(errs, errors.New("storage.minio.endpoint and storage.minio.bucket are required for minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
