package config

import (
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	scipperrors "github.com/scipp/scipp-sub001/pkg/errors"
)

// envRef matches ${VAR_NAME} references in a configuration document.
var envRef = regexp.MustCompile(`\$\{(\w+)\}`)

// Load reads a YAML document into config. ${VAR_NAME} references are
// replaced from the environment before parsing; references to unset
// variables are left as written, so a typo surfaces as a parse error
// instead of a silent zero value.
func Load(path string, config interface{}) error {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: path is caller-controlled
	if err != nil {
		return scipperrors.Wrap(err, scipperrors.KindNotFound, "reading config "+path)
	}
	expanded := envRef.ReplaceAllStringFunc(string(raw), func(ref string) string {
		if value, ok := os.LookupEnv(ref[2 : len(ref)-1]); ok {
			return value
		}
		return ref
	})
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return scipperrors.Wrap(err, scipperrors.KindInternal, "parsing config "+path)
	}
	return nil
}

// LoadEngine reads an engine configuration and applies defaulting and
// validation in one step. Fields absent from the file keep their defaults.
func LoadEngine(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	if err := Load(path, &cfg); err != nil {
		return EngineConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

// Save writes config to path as YAML.
func Save(path string, config interface{}) error {
	raw, err := yaml.Marshal(config)
	if err != nil {
		return scipperrors.Wrap(err, scipperrors.KindInternal, "encoding config")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil { //nolint:gosec
		return scipperrors.Wrap(err, scipperrors.KindInternal, "writing config "+path)
	}
	return nil
}
