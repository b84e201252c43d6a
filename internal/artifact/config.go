package artifact

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spigell/placement-readiness/internal/secrets"
)

// RedisPasswordEnv is read when no password file is configured.
const RedisPasswordEnv = "PLACEMENT_REDIS_PASSWORD"

// Config selects and configures the artifact backend.
type Config struct {
	Backend string       `mapstructure:"backend" yaml:"backend"`
	Path    string       `mapstructure:"path" yaml:"path"`
	Redis   *RedisConfig `mapstructure:"redis" yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr" yaml:"addr"`
	DB           int    `mapstructure:"db" yaml:"db"`
	Key          string `mapstructure:"key" yaml:"key"`
	PasswordFile string `mapstructure:"password-file" yaml:"password-file,omitempty"`
}

// NewStore builds the configured store. A nil config means a file store at DefaultPath.
func NewStore(cfg *Config) (Store, error) {
	if cfg == nil {
		return NewFileStore(""), nil
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendFile:
		return NewFileStore(cfg.Path), nil
	case BackendRedis:
		if cfg.Redis == nil || strings.TrimSpace(cfg.Redis.Addr) == "" {
			return nil, fmt.Errorf("artifact.redis.addr is required for the redis backend")
		}

		password := ""
		if strings.TrimSpace(cfg.Redis.PasswordFile) != "" || os.Getenv(RedisPasswordEnv) != "" {
			var err error
			password, err = secrets.Load(secrets.Source{
				Name: "redis password",
				File: cfg.Redis.PasswordFile,
				Env:  RedisPasswordEnv,
			})
			if err != nil {
				return nil, err
			}
		}

		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     password,
			DB:           cfg.Redis.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})

		return NewRedisStore(client, cfg.Redis.Key, cfg.Redis.Addr), nil
	default:
		return nil, fmt.Errorf("unsupported artifact backend: %s", cfg.Backend)
	}
}
