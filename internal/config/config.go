// Package config loads rxtable settings from defaults, an optional YAML file,
// a .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/thywilljoshua/rxtable/internal/logging"
	"github.com/thywilljoshua/rxtable/internal/publish"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Extractor string         `yaml:"extractor"` // fitz or pure
	FontPath  string         `yaml:"font_path"`
	FontSize  float64        `yaml:"font_size"`
	Publish   PublishConfig  `yaml:"publish"`
	AI        AIConfig       `yaml:"ai"`
	Log       logging.Config `yaml:"log"`
}

type PublishConfig struct {
	BlobStore   string                 `yaml:"blob_store"` // firebase or local
	UserStore   string                 `yaml:"user_store"` // firestore, postgres, redis or none
	Firebase    publish.FirebaseConfig `yaml:"firebase"`
	LocalDir    string                 `yaml:"local_dir"`
	PostgresDSN string                 `yaml:"postgres_dsn"`
	Redis       publish.RedisConfig    `yaml:"redis"`
}

type AIConfig struct {
	Provider string `yaml:"provider"` // off or gemini
	Model    string `yaml:"model"`
	APIKey   string `yaml:"-"`
}

func Default() *Config {
	return &Config{
		Extractor: "fitz",
		FontSize:  24,
		Publish: PublishConfig{
			BlobStore: "firebase",
			UserStore: "firestore",
			Firebase: publish.FirebaseConfig{
				CredentialsFile: "app.json",
				UsersCollection: publish.DefaultUsersCollection,
			},
			LocalDir: "out",
		},
		AI:  AIConfig{Provider: "off"},
		Log: logging.Config{Level: "info", Format: "console"},
	}
}

// Load reads path (if set) over the defaults, then loads envFiles (".env"
// when none are given; missing files are ignored) and applies environment
// overrides. The result is not validated; flags may still change it.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	_ = godotenv.Load(envFiles...) // Ignore error if .env doesn't exist
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RXTABLE_EXTRACTOR"); v != "" {
		cfg.Extractor = v
	}
	if v := os.Getenv("RXTABLE_FONT"); v != "" {
		cfg.FontPath = v
	}
	if v := os.Getenv("RXTABLE_BLOB_STORE"); v != "" {
		cfg.Publish.BlobStore = v
	}
	if v := os.Getenv("RXTABLE_USER_STORE"); v != "" {
		cfg.Publish.UserStore = v
	}
	if v := os.Getenv("RXTABLE_BUCKET"); v != "" {
		cfg.Publish.Firebase.Bucket = v
	}
	if v := os.Getenv("RXTABLE_LOCAL_DIR"); v != "" {
		cfg.Publish.LocalDir = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		cfg.Publish.Firebase.CredentialsFile = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		cfg.Publish.Firebase.ProjectID = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Publish.PostgresDSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Publish.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Publish.Redis.DB = n
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Publish.Redis.Password = v
	}
	if v := os.Getenv("RXTABLE_AI"); v != "" {
		cfg.AI.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// Validate checks backend names and the settings each backend needs.
// publishing is false for commands that never write anywhere.
func (c *Config) Validate(publishing bool) error {
	var errs []error
	switch c.Extractor {
	case "fitz", "pure":
	default:
		errs = append(errs, fmt.Errorf("extractor %q: want fitz|pure", c.Extractor))
	}
	switch c.AI.Provider {
	case "off", "":
	case "gemini":
		if c.AI.APIKey == "" {
			errs = append(errs, errors.New("ai gemini: GOOGLE_API_KEY not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("ai %q: want off|gemini", c.AI.Provider))
	}
	if publishing {
		errs = append(errs, c.Publish.validate()...)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (p *PublishConfig) validate() []error {
	var errs []error
	switch p.BlobStore {
	case "firebase":
		if p.Firebase.Bucket == "" {
			errs = append(errs, errors.New("blob store firebase: bucket not set"))
		}
	case "local":
	default:
		errs = append(errs, fmt.Errorf("blob store %q: want firebase|local", p.BlobStore))
	}
	switch p.UserStore {
	case "firestore":
		if p.Firebase.Bucket == "" && p.Firebase.ProjectID == "" {
			errs = append(errs, errors.New("user store firestore: project or bucket not set"))
		}
	case "postgres":
		if p.PostgresDSN == "" {
			errs = append(errs, errors.New("user store postgres: DATABASE_URL not set"))
		}
	case "redis":
		if p.Redis.Addr == "" {
			errs = append(errs, errors.New("user store redis: REDIS_URL not set"))
		}
	case "none":
	default:
		errs = append(errs, fmt.Errorf("user store %q: want firestore|postgres|redis|none", p.UserStore))
	}
	return errs
}
