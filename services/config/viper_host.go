//go:build !(rp2040 || rp2350)

package config

import (
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"envlog-go/errcode"
)

// EnvPrefix namespaces environment overrides, e.g. ENVLOG_FLUSH_ROW_LIMIT.
const EnvPrefix = "ENVLOG"

// NewViper returns a viper instance reading ENVLOG_* variables and, when
// path is set, a YAML config file.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errcode.New(errcode.InvalidParams, "config", path, err)
		}
	}
	return v, nil
}

// FromViper resolves base overlaid with whatever v holds (file, env,
// flags). Every key of base is registered as a default so environment
// variables are seen even when no file mentions the key.
func FromViper(v *viper.Viper, base Config) (Config, error) {
	raw, err := yaml.Marshal(base)
	if err != nil {
		return base, &errcode.E{C: errcode.InvalidParams, Op: "config", Err: err}
	}
	var keys map[string]any
	if err := yaml.Unmarshal(raw, &keys); err != nil {
		return base, &errcode.E{C: errcode.InvalidParams, Op: "config", Err: err}
	}
	for k, val := range keys {
		v.SetDefault(k, val)
	}
	cfg := base
	cfg.Fields = nil
	if err := v.Unmarshal(&cfg); err != nil {
		return base, &errcode.E{C: errcode.InvalidParams, Op: "config", Err: err}
	}
	return cfg, cfg.Validate()
}
