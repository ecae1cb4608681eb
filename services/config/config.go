package config

import (
	"errors"
	"time"

	"gopkg.in/yaml.v3"

	"envlog-go/errcode"
)

// -----------------------------------------------------------------------------
// Defaults (mirrors the shipped logger firmware)
// -----------------------------------------------------------------------------

const (
	DefaultDataPath         = "weather.csv"
	DefaultErrorPath        = "errors.log"
	DefaultHealthPath       = "health.csv"
	DefaultRetainedPath     = ".retained"
	DefaultThrottlePath     = "throttle.bin"
	DefaultFlushRowLimit    = 12
	DefaultErrorRowLimit    = 500
	DefaultErrorAvgRowBytes = 60
	DefaultErrorRetention   = 5
	DefaultThrottle         = time.Hour
	DefaultLoopThrottle     = 5 * time.Minute
	DefaultMaxThrottleKinds = 8
	DefaultRevalidateCycles = 12
	DefaultErrorTailBytes   = 2048
	DefaultSampleInterval   = 5 * time.Minute
	DefaultRetainedBytes    = 256
)

// DefaultFields is the CSV schema: timestamp then one column per reading.
var DefaultFields = []string{
	"timestamp",
	"bmp_temp", "bmp_press",
	"aht_temp", "aht_hum",
	"ds18b20_temp",
	"sht_temp", "sht_hum",
	"pm1_0", "pm2_5", "pm10",
}

// -----------------------------------------------------------------------------
// Config
// -----------------------------------------------------------------------------

// Config is everything the logging engine and the wake loop consume.
// Durations accept Go syntax ("5m", "1h") in YAML.
type Config struct {
	Device string `yaml:"device" mapstructure:"device"`
	Debug  bool   `yaml:"debug" mapstructure:"debug"`

	DataPath     string   `yaml:"data_path" mapstructure:"data_path"`
	ErrorPath    string   `yaml:"error_path" mapstructure:"error_path"`
	HealthPath   string   `yaml:"health_path" mapstructure:"health_path"`
	RetainedPath string   `yaml:"retained_path" mapstructure:"retained_path"`
	ThrottlePath string   `yaml:"throttle_path" mapstructure:"throttle_path"`
	Fields       []string `yaml:"fields" mapstructure:"fields"`
	AbsentMarker string   `yaml:"absent_marker" mapstructure:"absent_marker"`

	FlushRowLimit    int `yaml:"flush_row_limit" mapstructure:"flush_row_limit"`
	ErrorRowLimit    int `yaml:"error_row_limit" mapstructure:"error_row_limit"`
	ErrorAvgRowBytes int `yaml:"error_avg_row_bytes" mapstructure:"error_avg_row_bytes"`
	ErrorRetention   int `yaml:"error_retention" mapstructure:"error_retention"`
	ErrorTailBytes   int `yaml:"error_tail_bytes" mapstructure:"error_tail_bytes"`
	MaxThrottleKinds int `yaml:"max_throttle_kinds" mapstructure:"max_throttle_kinds"`
	RevalidateCycles int `yaml:"revalidate_cycles" mapstructure:"revalidate_cycles"`
	RetainedBytes    int `yaml:"retained_bytes" mapstructure:"retained_bytes"`

	DefaultThrottle time.Duration `yaml:"default_throttle" mapstructure:"default_throttle"`
	LoopThrottle    time.Duration `yaml:"loop_throttle" mapstructure:"loop_throttle"`
	SampleInterval  time.Duration `yaml:"sample_interval" mapstructure:"sample_interval"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		DataPath:         DefaultDataPath,
		ErrorPath:        DefaultErrorPath,
		HealthPath:       DefaultHealthPath,
		RetainedPath:     DefaultRetainedPath,
		ThrottlePath:     DefaultThrottlePath,
		Fields:           append([]string(nil), DefaultFields...),
		FlushRowLimit:    DefaultFlushRowLimit,
		ErrorRowLimit:    DefaultErrorRowLimit,
		ErrorAvgRowBytes: DefaultErrorAvgRowBytes,
		ErrorRetention:   DefaultErrorRetention,
		ErrorTailBytes:   DefaultErrorTailBytes,
		MaxThrottleKinds: DefaultMaxThrottleKinds,
		RevalidateCycles: DefaultRevalidateCycles,
		RetainedBytes:    DefaultRetainedBytes,
		DefaultThrottle:  DefaultThrottle,
		LoopThrottle:     DefaultLoopThrottle,
		SampleInterval:   DefaultSampleInterval,
	}
}

// Validate rejects configurations the engine cannot honour.
func (c Config) Validate() error {
	switch {
	case c.DataPath == "" || c.ErrorPath == "":
		return invalid("data_path and error_path are required")
	case c.DataPath == c.ErrorPath:
		return invalid("data_path and error_path must differ")
	case len(c.Fields) < 2 || c.Fields[0] == "":
		return invalid("fields needs a timestamp column and at least one reading")
	case c.FlushRowLimit < 1:
		return invalid("flush_row_limit must be >= 1")
	case c.ErrorRowLimit < 1:
		return invalid("error_row_limit must be >= 1")
	case c.ErrorAvgRowBytes < 1:
		return invalid("error_avg_row_bytes must be >= 1")
	case c.ErrorRetention < 0:
		return invalid("error_retention must be >= 0")
	case c.DefaultThrottle < 0 || c.LoopThrottle < 0:
		return invalid("throttle windows must not be negative")
	case c.FlushRowLimit > 0xFFFF:
		return invalid("flush_row_limit must fit the retained counter")
	case c.RevalidateCycles < 0 || c.RevalidateCycles > 0xFFFF:
		return invalid("revalidate_cycles must be within 0..65535")
	case c.ThrottlePath != "" && (c.ThrottlePath == c.DataPath || c.ThrottlePath == c.ErrorPath):
		return invalid("throttle_path must differ from the log files")
	}
	return nil
}

func invalid(msg string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: msg}
}

// -----------------------------------------------------------------------------
// Loading
// -----------------------------------------------------------------------------

// Parse overlays a YAML document on base. Keys absent from the document keep
// base's value.
func Parse(base Config, raw []byte) (Config, error) {
	cfg := base
	cfg.Fields = append([]string(nil), base.Fields...)
	if len(raw) == 0 {
		return cfg, cfg.Validate()
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return base, &errcode.E{C: errcode.InvalidParams, Op: "config", Err: err}
	}
	return cfg, cfg.Validate()
}

// ErrNoConfig is returned by ForDevice when no embedded config matches.
var ErrNoConfig = errors.New("no embedded config for device")

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// ForDevice returns Default() overlaid with the embedded document for device.
func ForDevice(device string) (Config, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok {
		return Default(), ErrNoConfig
	}
	cfg, err := Parse(Default(), raw)
	if err != nil {
		return Default(), err
	}
	cfg.Device = device
	return cfg, nil
}
