package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty,
// uses DefaultConfigPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	// No default for config_version: the key must come from the file so
	// the version check below can reject configs that omit it.
	v.SetDefault("project.idf_setup_path", cfg.Project.IdfSetupPath)
	v.SetDefault("project.kconfig_path", cfg.Project.KconfigPath)
	v.SetDefault("project.sdkconfig_path", cfg.Project.SdkconfigPath)
	v.SetDefault("project.menu_name", cfg.Project.MenuName)
	v.SetDefault("project.library_menu", cfg.Project.LibraryMenu)
	v.SetDefault("project.example_menu", cfg.Project.ExampleMenu)
	v.SetDefault("monitor.baud", cfg.Monitor.Baud)
	v.SetDefault("monitor.fake", cfg.Monitor.Fake)
	v.SetDefault("sink.buffer_size", cfg.Sink.BufferSize)
	v.SetDefault("sink.flush_interval_ms", cfg.Sink.FlushIntervalMS)
	v.SetDefault("sink.max_lines", cfg.Sink.MaxLines)
	v.SetDefault("runner.run_timeout_seconds", cfg.Runner.RunTimeoutSeconds)
	v.SetDefault("runner.term_grace_seconds", cfg.Runner.TermGraceSeconds)
	v.SetDefault("runner.stop_wait_seconds", cfg.Runner.StopWaitSeconds)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return Config{}, err
			}
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	return cfg, nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Project.IdfSetupPath = expandPath(cfg.Project.IdfSetupPath)
	cfg.Project.KconfigPath = expandPath(cfg.Project.KconfigPath)
	cfg.Project.SdkconfigPath = expandPath(cfg.Project.SdkconfigPath)
}

// expandPath resolves $VARS and a leading ~ in file paths.
func expandPath(value string) string {
	if value == "" {
		return value
	}
	if value == "~" || len(value) > 1 && value[0] == '~' && value[1] == '/' {
		if home, err := os.UserHomeDir(); err == nil {
			value = filepath.Join(home, value[1:])
		}
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
