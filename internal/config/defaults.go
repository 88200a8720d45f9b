package config

import (
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// setDefaults registers every leaf of DefaultConfig as a viper default, so
// nested keys such as generation.max_retries can be overridden from the
// environment (COURSEFORGE_GENERATION_MAX_RETRIES).
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("failed to unmarshal defaults: %w", err)
	}
	setLeaves(v, "", tree)
	return nil
}

func setLeaves(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok && len(sub) > 0 {
			setLeaves(v, key, sub)
			continue
		}
		v.SetDefault(key, value)
	}
}

// DefaultKeys returns every default key with its value, for display.
func DefaultKeys() (map[string]any, error) {
	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}
	out := make(map[string]any)
	for _, key := range v.AllKeys() {
		out[key] = v.Get(key)
	}
	return out, nil
}
