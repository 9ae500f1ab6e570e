package appconfig

import (
	"os"
	"path/filepath"
	"time"

	"pkt.systems/canflash/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	Project       ProjectConfig `mapstructure:"project" yaml:"project"`
	Monitor       MonitorConfig `mapstructure:"monitor" yaml:"monitor"`
	Sink          SinkConfig    `mapstructure:"sink" yaml:"sink"`
	Runner        RunnerConfig  `mapstructure:"runner" yaml:"runner"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ProjectConfig locates the firmware project files.
type ProjectConfig struct {
	IdfSetupPath  string `mapstructure:"idf_setup_path" yaml:"idf_setup_path"`
	KconfigPath   string `mapstructure:"kconfig_path" yaml:"kconfig_path"`
	SdkconfigPath string `mapstructure:"sdkconfig_path" yaml:"sdkconfig_path"`
	MenuName      string `mapstructure:"menu_name" yaml:"menu_name"`
	LibraryMenu   string `mapstructure:"library_menu" yaml:"library_menu"`
	ExampleMenu   string `mapstructure:"example_menu" yaml:"example_menu"`
}

// MonitorConfig controls serial monitor behavior.
type MonitorConfig struct {
	Baud int `mapstructure:"baud" yaml:"baud"`
	// Fake forces simulated monitors even for real serial ports.
	Fake bool `mapstructure:"fake" yaml:"fake"`
}

// SinkConfig tunes the buffered output sink.
type SinkConfig struct {
	BufferSize      int `mapstructure:"buffer_size" yaml:"buffer_size"`
	FlushIntervalMS int `mapstructure:"flush_interval_ms" yaml:"flush_interval_ms"`
	MaxLines        int `mapstructure:"max_lines" yaml:"max_lines"`
}

// RunnerConfig tunes process execution and termination.
type RunnerConfig struct {
	RunTimeoutSeconds int `mapstructure:"run_timeout_seconds" yaml:"run_timeout_seconds"`
	TermGraceSeconds  int `mapstructure:"term_grace_seconds" yaml:"term_grace_seconds"`
	StopWaitSeconds   int `mapstructure:"stop_wait_seconds" yaml:"stop_wait_seconds"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Project: ProjectConfig{
			IdfSetupPath:  schema.DefaultIdfSetupPath,
			KconfigPath:   schema.DefaultKconfigPath,
			SdkconfigPath: schema.DefaultSdkconfigPath,
			MenuName:      schema.DefaultMenuName,
			LibraryMenu:   schema.DefaultLibraryMenu,
			ExampleMenu:   schema.DefaultExampleMenu,
		},
		Monitor: MonitorConfig{
			Baud: schema.DefaultBaud,
			Fake: false,
		},
		Sink: SinkConfig{
			BufferSize:      schema.DefaultSinkCapacity,
			FlushIntervalMS: int(schema.DefaultFlushInterval / time.Millisecond),
			MaxLines:        schema.DefaultSinkMaxLines,
		},
		Runner: RunnerConfig{
			RunTimeoutSeconds: int(schema.DefaultRunTimeout / time.Second),
			TermGraceSeconds:  int(schema.DefaultTermGrace / time.Second),
			StopWaitSeconds:   int(schema.DefaultStopWait / time.Second),
		},
	}
}

// ServiceConfig converts the loaded config into the core's view.
func (c Config) ServiceConfig() schema.ServiceConfig {
	return schema.NormalizeServiceConfig(schema.ServiceConfig{
		IdfSetupPath:  c.Project.IdfSetupPath,
		KconfigPath:   c.Project.KconfigPath,
		SdkconfigPath: c.Project.SdkconfigPath,
		MenuName:      c.Project.MenuName,
		LibraryMenu:   c.Project.LibraryMenu,
		ExampleMenu:   c.Project.ExampleMenu,
		Baud:           c.Monitor.Baud,
		ForceSimulated: c.Monitor.Fake,
		RunTimeout:    time.Duration(c.Runner.RunTimeoutSeconds) * time.Second,
		TermGrace:     time.Duration(c.Runner.TermGraceSeconds) * time.Second,
		StopWait:      time.Duration(c.Runner.StopWaitSeconds) * time.Second,
	})
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".canflash", "config.yaml"), nil
}
