package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/verte-zerg/tuistat/internal/model"
)

// DefaultEndpoint is the hosted statistics service.
const DefaultEndpoint = "https://mon-api-flask-1mi6.onrender.com"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TUISTAT"

// Settings is the resolved configuration.
type Settings struct {
	Endpoint       string        `default:"https://mon-api-flask-1mi6.onrender.com" validate:"required,url"`
	Timeout        time.Duration `validate:"gte=0"`
	ExportDir      string        `default:"." validate:"required"`
	PersistHistory bool
	DBPath         string
	Charts         string
	LogLevel       string `default:"info" validate:"oneof=debug info warn error"`
	LogFormat      string `default:"console" validate:"oneof=console json"`
	LogFile        string
	ServeAddr      string `default:"127.0.0.1:8080" validate:"required,hostname_port"`
}

type envOverrides struct {
	Endpoint       *string        `envconfig:"ENDPOINT"`
	Timeout        *time.Duration `envconfig:"TIMEOUT"`
	ExportDir      *string        `envconfig:"EXPORT_DIR"`
	PersistHistory *bool          `envconfig:"PERSIST_HISTORY"`
	DBPath         *string        `envconfig:"DB_PATH"`
	Charts         *string        `envconfig:"CHARTS"`
	LogLevel       *string        `envconfig:"LOG_LEVEL"`
	LogFormat      *string        `envconfig:"LOG_FORMAT"`
	LogFile        *string        `envconfig:"LOG_FILE"`
	ServeAddr      *string        `envconfig:"SERVE_ADDR"`
}

var validate = validator.New()

// Load resolves settings from defaults, the TOML file at path, an optional
// .env file and TUISTAT_* environment variables, in that order.
func Load(path string) (Settings, error) {
	fileCfg, err := LoadConfig(path)
	if err != nil {
		return Settings{}, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return Resolve(fileCfg)
}

// Resolve applies fileCfg and the environment over the defaults.
func Resolve(fileCfg FileConfig) (Settings, error) {
	var s Settings
	if err := defaults.Set(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to apply defaults: %w", err)
	}
	s.DBPath = DefaultDBPath()
	if err := applyFileConfig(&s, fileCfg); err != nil {
		return Settings{}, err
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Settings{}, fmt.Errorf("failed to read environment: %w", err)
	}
	applyEnv(&s, env)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the resolved settings.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if _, err := model.ParseChartKinds(s.Charts); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// ChartKinds returns the configured default chart selection.
func (s Settings) ChartKinds() []model.ChartKind {
	kinds, _ := model.ParseChartKinds(s.Charts)
	return kinds
}

func applyFileConfig(s *Settings, cfg FileConfig) error {
	if cfg.API.Endpoint != nil {
		s.Endpoint = strings.TrimRight(*cfg.API.Endpoint, "/")
	}
	if cfg.API.Timeout != nil {
		timeout, err := time.ParseDuration(*cfg.API.Timeout)
		if err != nil {
			return fmt.Errorf("invalid api.timeout: %w", err)
		}
		s.Timeout = timeout
	}
	if cfg.Export.Dir != nil {
		s.ExportDir = *cfg.Export.Dir
	}
	if cfg.History.Persist != nil {
		s.PersistHistory = *cfg.History.Persist
	}
	if cfg.History.DBPath != nil {
		s.DBPath = *cfg.History.DBPath
	}
	if cfg.Charts.Default != nil {
		s.Charts = *cfg.Charts.Default
	}
	if cfg.Log.Level != nil {
		s.LogLevel = *cfg.Log.Level
	}
	if cfg.Log.Format != nil {
		s.LogFormat = *cfg.Log.Format
	}
	if cfg.Log.File != nil {
		s.LogFile = *cfg.Log.File
	}
	if cfg.Serve.Addr != nil {
		s.ServeAddr = *cfg.Serve.Addr
	}
	return nil
}

func applyEnv(s *Settings, env envOverrides) {
	if env.Endpoint != nil {
		s.Endpoint = strings.TrimRight(*env.Endpoint, "/")
	}
	if env.Timeout != nil {
		s.Timeout = *env.Timeout
	}
	if env.ExportDir != nil {
		s.ExportDir = *env.ExportDir
	}
	if env.PersistHistory != nil {
		s.PersistHistory = *env.PersistHistory
	}
	if env.DBPath != nil {
		s.DBPath = *env.DBPath
	}
	if env.Charts != nil {
		s.Charts = *env.Charts
	}
	if env.LogLevel != nil {
		s.LogLevel = *env.LogLevel
	}
	if env.LogFormat != nil {
		s.LogFormat = *env.LogFormat
	}
	if env.LogFile != nil {
		s.LogFile = *env.LogFile
	}
	if env.ServeAddr != nil {
		s.ServeAddr = *env.ServeAddr
	}
}

// DefaultConfigTemplate is written by `tuistat config` when no file exists.
const DefaultConfigTemplate = `# tuistat configuration

[api]
# endpoint = "https://mon-api-flask-1mi6.onrender.com"
# timeout = "30s"

[export]
# dir = "."

[history]
# persist = false
# db-path = "~/.local/share/tuistat/history.db"

[charts]
# default = "histogramme,boxplot"

[log]
# level = "info"
# format = "console"
# file = ""

[serve]
# addr = "127.0.0.1:8080"
`
