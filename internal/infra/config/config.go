package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultPath = "config.yaml"

type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	API    APIConfig    `mapstructure:"api" yaml:"api"`
}

type ServerConfig struct {
	Host     string        `mapstructure:"host" yaml:"host"`
	Port     int           `mapstructure:"port" yaml:"port"`
	Username string        `mapstructure:"username" yaml:"username"`
	Password string        `mapstructure:"password" yaml:"password"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

type StoreConfig struct {
	Driver  string `mapstructure:"driver" yaml:"driver"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
	BlobDir string `mapstructure:"blob_dir" yaml:"blob_dir"`
}

type APIConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// Load reads the yaml config at path and overlays GONEWS_* environment
// variables. A missing file is only an error when the caller asked for a
// specific path; the default path may be absent and the whole config can
// then come from the environment.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()

	// Every key needs a default so AutomaticEnv is honoured by Unmarshal
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 119)
	v.SetDefault("server.username", "")
	v.SetDefault("server.password", "")
	v.SetDefault("server.timeout", "30s")
	v.SetDefault("log.path", "gonews.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "./data/gonews.db")
	v.SetDefault("store.blob_dir", "./data/bodies")
	v.SetDefault("api.listen", ":8119")

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Support Environment Variables
	v.SetEnvPrefix("GONEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// NNTPSERVER is the conventional news host variable for newsreaders
	if err := v.BindEnv("server.host", "GONEWS_SERVER_HOST", "NNTPSERVER"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 119
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	if c.Server.Password != "" && c.Server.Username == "" {
		return errors.New("server password set without a username")
	}

	if c.Server.Timeout <= 0 {
		c.Server.Timeout = 30 * time.Second
	}

	switch c.Store.Driver {
	case "":
		c.Store.Driver = "sqlite"
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("unsupported store driver %q (want sqlite or pgx)", c.Store.Driver)
	}

	return nil
}

// RequireHost reports a helpful error when no news server has been named
// in the file, GONEWS_SERVER_HOST or NNTPSERVER.
func (c *Config) RequireHost() error {
	if c.Server.Host == "" {
		return errors.New("server host is required: set server.host, GONEWS_SERVER_HOST or NNTPSERVER")
	}
	return nil
}
