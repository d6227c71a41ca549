package config

import (
	"errors"
	"fmt"
	"os"
	"scheduleBoard/internal/models/task"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
	RPC        RPCConfig        `mapstructure:"rpc"`
	Purge      PurgeConfig      `mapstructure:"purge"`
	Users      []UserConfig     `mapstructure:"users"`
	Masters    MastersConfig    `mapstructure:"masters"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RateLimit      int           `mapstructure:"rate_limit"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MinConnections int           `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // "postgres" или "inmemory"
}

// RPCConfig - куда ходит клиент (schedulectl)
type RPCConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Email    string        `mapstructure:"email"`
}

type PurgeConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	Retention time.Duration `mapstructure:"retention"`
	BatchSize int           `mapstructure:"batch_size"`
}

// UserConfig - почта и роль; списком, потому что viper режет ключи по точкам
type UserConfig struct {
	Email string    `mapstructure:"email"`
	Role  task.Role `mapstructure:"role"`
}

type MastersConfig struct {
	File string `mapstructure:"file"`
}

const envPrefix = "SCHEDULE"

// Load читает path (config.yml, если пусто) и переменные окружения SCHEDULE_*.
// Файл необязателен: без него работают значения по умолчанию.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG")
	}
	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.rate_limit", 300)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 1)
	v.SetDefault("database.idle_timeout", 5*time.Minute)

	v.SetDefault("logging.development", false)
	v.SetDefault("repository.type", "inmemory")

	v.SetDefault("rpc.endpoint", "http://localhost:8080/rpc")
	v.SetDefault("rpc.timeout", 30*time.Second)
	v.SetDefault("rpc.email", "")

	v.SetDefault("purge.enabled", true)
	v.SetDefault("purge.interval", time.Hour)
	v.SetDefault("purge.retention", 30*24*time.Hour)
	v.SetDefault("purge.batch_size", 100)

	v.SetDefault("masters.file", "masters.yml")
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case "inmemory":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url обязателен для repository.type=postgres")
		}
	default:
		return fmt.Errorf("неизвестный repository.type: %q", c.Repository.Type)
	}

	for _, u := range c.Users {
		if strings.TrimSpace(u.Email) == "" {
			return errors.New("users: пустая почта")
		}
		if !u.Role.Valid() {
			return fmt.Errorf("неизвестная роль %q у пользователя %s", u.Role, u.Email)
		}
	}
	return nil
}

// Roles - таблица почта -> роль для middleware.Identity
func (c *Config) Roles() map[string]task.Role {
	roles := make(map[string]task.Role, len(c.Users))
	for _, u := range c.Users {
		roles[strings.ToLower(strings.TrimSpace(u.Email))] = u.Role
	}
	return roles
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// LoadMasters читает справочники каналов, типов задач и статусов
func LoadMasters(path string) (task.MasterData, error) {
	file, err := os.Open(path)
	if err != nil {
		return task.MasterData{}, fmt.Errorf("не могу открыть %s: %w", path, err)
	}
	defer file.Close()

	var masters task.MasterData
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&masters); err != nil {
		return task.MasterData{}, fmt.Errorf("ошибка парсинга %s: %w", path, err)
	}

	if len(masters.ActiveChannels()) == 0 {
		return task.MasterData{}, fmt.Errorf("%s: нет ни одного активного канала", path)
	}
	return masters, nil
}
