package main

import (
	"fmt"

	"github.com/spf13/viper"
)

// loadConfigFile reads the client's settings file into a flat string map.
// Format is whatever viper can sniff from the extension (YAML, TOML, INI,
// env); nesting is not part of the settings this client consumes, so a
// flat document is all Resolve ever sees.
func loadConfigFile(path string) (map[string]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	out := make(map[string]string, len(v.AllSettings()))
	for _, key := range v.AllKeys() {
		out[key] = v.GetString(key)
	}
	return out, nil
}
