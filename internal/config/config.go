// Package config loads service settings from configs/config.yml, an
// optional .env file and THERMAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"thermal_telemetry/internal/alert"
	"thermal_telemetry/internal/logger"
	"thermal_telemetry/internal/models"
	"thermal_telemetry/internal/sensor"
)

const (
	EnvPrefix = "THERMAL"

	SourceLMSensors = "lmsensors"
	SourceSynthetic = "synthetic"
)

type Config struct {
	PollIntervalMs   int `mapstructure:"poll_interval_ms"`
	SeriesCapacity   int `mapstructure:"series_capacity"`
	AcquireTimeoutMs int `mapstructure:"acquire_timeout_ms"`
	EventsBuffer     int `mapstructure:"events_buffer"`

	Log        LogConfig        `mapstructure:"log"`
	Source     SourceConfig     `mapstructure:"source"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	DB         DBConfig         `mapstructure:"db"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type SourceConfig struct {
	Kind      string          `mapstructure:"kind"`
	Command   string          `mapstructure:"command"`
	Args      []string        `mapstructure:"args"`
	Synthetic SyntheticConfig `mapstructure:"synthetic"`
}

type SyntheticConfig struct {
	Sensors []SyntheticSensor `mapstructure:"sensors"`
}

type SyntheticSensor struct {
	Kind    string  `mapstructure:"kind"`
	Chip    string  `mapstructure:"chip"`
	Feature string  `mapstructure:"feature"`
	Ambient float64 `mapstructure:"ambient"`
	Peak    float64 `mapstructure:"peak"`
}

type ThresholdsConfig struct {
	Default   models.AlertThreshold            `mapstructure:"default"`
	Kinds     map[string]models.AlertThreshold `mapstructure:"kinds"`
	Overrides []OverrideConfig                 `mapstructure:"overrides"`
}

type OverrideConfig struct {
	Chip       string  `mapstructure:"chip"`
	Feature    string  `mapstructure:"feature"`
	Warning    float64 `mapstructure:"warning"`
	Critical   float64 `mapstructure:"critical"`
	Hysteresis float64 `mapstructure:"hysteresis"`
}

type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type DBConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c *Config) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutMs) * time.Millisecond
}

// Addr is the listen address of the local HTTP adapter.
func (c *Config) Addr() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}

// ToThresholds builds the evaluator's threshold table.
func (c *Config) ToThresholds() (*alert.Thresholds, error) {
	kinds := make(map[models.SensorKind]models.AlertThreshold, len(c.Thresholds.Kinds))
	for name, th := range c.Thresholds.Kinds {
		k, err := models.ParseSensorKind(name)
		if err != nil {
			return nil, models.NewConfigurationError("thresholds.kinds."+name, "%v", err)
		}
		kinds[k] = th
	}
	overrides := make([]alert.Override, 0, len(c.Thresholds.Overrides))
	for _, o := range c.Thresholds.Overrides {
		overrides = append(overrides, alert.Override{
			Chip:    o.Chip,
			Feature: o.Feature,
			Threshold: models.AlertThreshold{
				Warning:    o.Warning,
				Critical:   o.Critical,
				Hysteresis: o.Hysteresis,
			},
		})
	}
	return alert.NewThresholds(c.Thresholds.Default, kinds, overrides)
}

// SyntheticSensors converts the synthetic source section. Sensors without
// an explicit kind are classified by chip name.
func (c *Config) SyntheticSensors() []sensor.SyntheticSensor {
	out := make([]sensor.SyntheticSensor, 0, len(c.Source.Synthetic.Sensors))
	for _, s := range c.Source.Synthetic.Sensors {
		kind := sensor.ClassifyChip(s.Chip)
		if k, err := models.ParseSensorKind(s.Kind); s.Kind != "" && err == nil {
			kind = k
		}
		out = append(out, sensor.SyntheticSensor{
			Identity: models.SensorIdentity{Kind: kind, Chip: s.Chip, Feature: s.Feature},
			AmbientC: s.Ambient,
			PeakC:    s.Peak,
		})
	}
	return out
}

// Validate reports the first setting that would make monitoring
// meaningless as a *models.ConfigurationError.
func (c *Config) Validate() error {
	positive := []struct {
		field string
		v     int
	}{
		{"poll_interval_ms", c.PollIntervalMs},
		{"series_capacity", c.SeriesCapacity},
		{"acquire_timeout_ms", c.AcquireTimeoutMs},
		{"events_buffer", c.EventsBuffer},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return models.NewConfigurationError(p.field, "must be > 0, got %d", p.v)
		}
	}

	switch c.Log.Level {
	case logger.DebugLevel, logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel:
	default:
		return models.NewConfigurationError("log.level", "unknown level %q", c.Log.Level)
	}
	switch c.Log.Encoding {
	case logger.ConsoleEncoding, logger.JSONEncoding:
	default:
		return models.NewConfigurationError("log.encoding", "unknown encoding %q", c.Log.Encoding)
	}

	switch c.Source.Kind {
	case SourceLMSensors:
		if strings.TrimSpace(c.Source.Command) == "" {
			return models.NewConfigurationError("source.command", "must not be empty")
		}
	case SourceSynthetic:
		if len(c.Source.Synthetic.Sensors) == 0 {
			return models.NewConfigurationError("source.synthetic.sensors", "at least one sensor is required")
		}
		for i, s := range c.Source.Synthetic.Sensors {
			field := fmt.Sprintf("source.synthetic.sensors[%d]", i)
			if s.Chip == "" || s.Feature == "" {
				return models.NewConfigurationError(field, "chip and feature are required")
			}
			if s.Kind != "" {
				if _, err := models.ParseSensorKind(s.Kind); err != nil {
					return models.NewConfigurationError(field, "%v", err)
				}
			}
			if s.Peak < s.Ambient {
				return models.NewConfigurationError(field, "peak %.1f below ambient %.1f", s.Peak, s.Ambient)
			}
		}
	default:
		return models.NewConfigurationError("source.kind", "want %q or %q, got %q", SourceLMSensors, SourceSynthetic, c.Source.Kind)
	}

	if _, err := c.ToThresholds(); err != nil {
		return err
	}

	if port, err := strconv.Atoi(c.HTTP.Port); err != nil || port <= 0 || port > 65535 {
		return models.NewConfigurationError("http.port", "invalid port %q", c.HTTP.Port)
	}
	if c.DB.Enabled && strings.TrimSpace(c.DB.Path) == "" {
		return models.NewConfigurationError("db.path", "must be set when db.enabled is true")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("poll_interval_ms", 2000)
	v.SetDefault("series_capacity", 3600)
	v.SetDefault("acquire_timeout_ms", 10000)
	v.SetDefault("events_buffer", 256)
	v.SetDefault("log.level", logger.InfoLevel)
	v.SetDefault("log.encoding", logger.ConsoleEncoding)
	v.SetDefault("source.kind", SourceLMSensors)
	v.SetDefault("source.command", "sensors")
	v.SetDefault("source.args", []string{"-j"})
	v.SetDefault("thresholds.default.warning", 70.0)
	v.SetDefault("thresholds.default.critical", 85.0)
	v.SetDefault("thresholds.default.hysteresis", 5.0)
	v.SetDefault("http.host", "127.0.0.1")
	v.SetDefault("http.port", "8080")
	v.SetDefault("db.enabled", true)
	v.SetDefault("db.path", "telemetry.db")
}

// Loader reads one config file and can watch it for changes.
type Loader struct {
	v   *viper.Viper
	log *logger.Logger
}

// NewLoader prepares a loader for the given file. A .env file in the
// working directory is applied to the process environment first.
func NewLoader(path string, log *logger.Logger) *Loader {
	log = logger.OrNop(log)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnw("dotenv_load_failed", "err", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v, log: log}
}

// SetLogger replaces the loader's logger once the real one is configured.
func (l *Loader) SetLogger(log *logger.Logger) { l.log = logger.OrNop(log) }

// Load reads the file, decodes it and validates the result.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.v.ConfigFileUsed(), err)
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch re-reads the file whenever it changes. onChange receives either
// the new validated config or the reason it was rejected.
func (l *Loader) Watch(onChange func(*Config, error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		l.log.Infow("config_changed", "file", e.Name, "op", e.Op.String())
		onChange(l.decode())
	})
	l.v.WatchConfig()
}

// Load is a one-shot NewLoader(path).Load().
func Load(path string, log *logger.Logger) (*Config, error) {
	return NewLoader(path, log).Load()
}
