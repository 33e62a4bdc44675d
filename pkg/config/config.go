package config

import (
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for wsmerge
type Config struct {
	W3Dir          string   `mapstructure:"w3dir"`
	Editor         string   `mapstructure:"editor"`
	DiffCommand    string   `mapstructure:"diff_command"`
	ScriptPatterns []string `mapstructure:"script_patterns"`
	MergedModName  string   `mapstructure:"merged_mod_name"`
}

var defaultConfig = Config{
	W3Dir:          "/games/Steam/steamapps/common/The Witcher 3",
	Editor:         "vim",
	DiffCommand:    "",
	ScriptPatterns: []string{"**/*.ws"},
	MergedModName:  "mod0000_merged",
}

// Load returns the effective configuration: built-in defaults, overridden by
// an optional .wsmerge.yaml in the working directory, overridden by the
// EDITOR environment variable. Flag-level overrides are applied by the
// commands themselves.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("w3dir", defaultConfig.W3Dir)
	v.SetDefault("editor", defaultConfig.Editor)
	v.SetDefault("diff_command", defaultConfig.DiffCommand)
	v.SetDefault("script_patterns", defaultConfig.ScriptPatterns)
	v.SetDefault("merged_mod_name", defaultConfig.MergedModName)

	if err := v.BindEnv("editor", "EDITOR"); err != nil {
		return nil, err
	}

	for _, configFile := range []string{".wsmerge.yaml", ".wsmerge.yml"} {
		if _, err := os.Stat(configFile); err == nil {
			v.SetConfigFile(configFile)
			if err := v.ReadInConfig(); err != nil {
				continue // Try next config file
			}
			break
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Default returns a copy of the built-in defaults.
func Default() Config {
	return defaultConfig
}
