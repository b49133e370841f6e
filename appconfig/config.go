package appconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration loaded from files and environment variables
type Config struct {
	Env         string  `mapstructure:"env"`          // development or production
	ProblemsDir string  `mapstructure:"problems_dir"` // directory with questions_N.json and image_N.png
	Server      Server  `mapstructure:"server"`
	Image       Image   `mapstructure:"image"`
	Results     Results `mapstructure:"results"`
	Session     Session `mapstructure:"session"`
	Ngrok       Ngrok   `mapstructure:"ngrok"`
}

// Server configures the HTTP listener
type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Image configures picture slicing
type Image struct {
	CanvasSize int `mapstructure:"canvas_size"` // 0 keeps native size
}

// Results configures the archive of finished games
type Results struct {
	Driver string `mapstructure:"driver"` // none, file, sqlite or postgres
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// Session configures session expiry
type Session struct {
	MaxAge          time.Duration `mapstructure:"max_age"`
	CleanupSchedule string        `mapstructure:"cleanup_schedule"`
}

// Ngrok configures the optional public tunnel
type Ngrok struct {
	Enabled   bool   `mapstructure:"enabled"`
	AuthToken string `mapstructure:"authtoken"`
	Domain    string `mapstructure:"domain"`
}

// Addr returns the host:port listen address
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from an optional obstacle.yaml and OBSTACLE_*
// environment variables. An explicit configFile must exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("obstacle")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetDefault("env", "development")
	v.SetDefault("problems_dir", "problems")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("image.canvas_size", 400)
	v.SetDefault("results.driver", "file")
	v.SetDefault("results.path", "results")
	v.SetDefault("results.dsn", "")
	v.SetDefault("session.max_age", "24h")
	v.SetDefault("session.cleanup_schedule", "@every 1h")
	v.SetDefault("ngrok.enabled", false)
	v.SetDefault("ngrok.authtoken", "")
	v.SetDefault("ngrok.domain", "")

	v.SetEnvPrefix("OBSTACLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional names used by hosting platforms and ngrok itself
	_ = v.BindEnv("server.port", "OBSTACLE_SERVER_PORT", "PORT")
	_ = v.BindEnv("ngrok.authtoken", "OBSTACLE_NGROK_AUTHTOKEN", "NGROK_AUTHTOKEN")
	_ = v.BindEnv("results.dsn", "OBSTACLE_RESULTS_DSN", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and cross-field requirements
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be between 1 and 65535, got %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.ProblemsDir == "" {
		return fmt.Errorf("%w: problems_dir is required", ErrInvalidConfig)
	}
	if c.Image.CanvasSize < 0 {
		return fmt.Errorf("%w: image.canvas_size must not be negative", ErrInvalidConfig)
	}

	switch c.Results.Driver {
	case "none":
	case "file", "sqlite":
		if c.Results.Path == "" {
			return fmt.Errorf("%w: results.path is required for the %s driver", ErrInvalidConfig, c.Results.Driver)
		}
	case "postgres":
		if c.Results.DSN == "" {
			return fmt.Errorf("%w: results.dsn is required for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown results.driver %q", ErrInvalidConfig, c.Results.Driver)
	}

	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("%w: session.max_age must be positive", ErrInvalidConfig)
	}
	if _, err := cron.ParseStandard(c.Session.CleanupSchedule); err != nil {
		return fmt.Errorf("%w: session.cleanup_schedule: %v", ErrInvalidConfig, err)
	}

	if c.Ngrok.Enabled && c.Ngrok.AuthToken == "" {
		return fmt.Errorf("%w: ngrok.authtoken is required when ngrok is enabled", ErrInvalidConfig)
	}
	return nil
}

// IsProduction reports whether the production environment is selected
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
