package schema

import (
	"os"
	"strings"
	"time"
)

// ServiceConfig defines defaults and limits for the flash service core.
type ServiceConfig struct {
	IdfSetupPath  string
	KconfigPath   string
	SdkconfigPath string
	MenuName      string
	LibraryMenu   string
	ExampleMenu   string
	Baud          int
	// ForceSimulated routes every monitor through the simulator, even
	// for real serial ports.
	ForceSimulated bool
	// SelfPath is the binary invoked for simulated monitor commands.
	SelfPath   string
	RunTimeout time.Duration
	TermGrace  time.Duration
	StopWait   time.Duration
}

const (
	// DefaultRunTimeout bounds one external command run.
	DefaultRunTimeout = 5 * time.Minute
	// DefaultTermGrace is the SIGTERM-to-SIGKILL escalation window.
	DefaultTermGrace = time.Second
	// DefaultStopWait bounds waiting for a monitor task after terminate.
	DefaultStopWait = 2 * time.Second
	// DefaultBaud is the serial monitor line rate.
	DefaultBaud = 115200
	// DefaultSinkCapacity is the output sink batch size.
	DefaultSinkCapacity = 10
	// DefaultFlushInterval is the output sink timer period.
	DefaultFlushInterval = 100 * time.Millisecond
	// DefaultSinkMaxLines caps display lines before the surface is reset.
	DefaultSinkMaxLines = 2000
)

// Default project file locations and menu prompts.
const (
	DefaultIdfSetupPath  = "~/esp/v5.4.1/esp-idf/export.sh"
	DefaultKconfigPath   = "./main/Kconfig.projbuild"
	DefaultSdkconfigPath = "./sdkconfig"
	DefaultMenuName      = "*** CAN bus examples  ***"
	DefaultLibraryMenu   = "Select CAN driver/library"
	DefaultExampleMenu   = "Select example"
)

// NormalizeServiceConfig applies defaults to unset fields.
func NormalizeServiceConfig(cfg ServiceConfig) ServiceConfig {
	if strings.TrimSpace(cfg.IdfSetupPath) == "" {
		cfg.IdfSetupPath = DefaultIdfSetupPath
	}
	if strings.TrimSpace(cfg.KconfigPath) == "" {
		cfg.KconfigPath = DefaultKconfigPath
	}
	if strings.TrimSpace(cfg.SdkconfigPath) == "" {
		cfg.SdkconfigPath = DefaultSdkconfigPath
	}
	if strings.TrimSpace(cfg.MenuName) == "" {
		cfg.MenuName = DefaultMenuName
	}
	if strings.TrimSpace(cfg.LibraryMenu) == "" {
		cfg.LibraryMenu = DefaultLibraryMenu
	}
	if strings.TrimSpace(cfg.ExampleMenu) == "" {
		cfg.ExampleMenu = DefaultExampleMenu
	}
	if cfg.Baud <= 0 {
		cfg.Baud = DefaultBaud
	}
	if strings.TrimSpace(cfg.SelfPath) == "" {
		if exe, err := os.Executable(); err == nil {
			cfg.SelfPath = exe
		} else {
			cfg.SelfPath = "canflash"
		}
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	if cfg.TermGrace <= 0 {
		cfg.TermGrace = DefaultTermGrace
	}
	if cfg.StopWait <= 0 {
		cfg.StopWait = DefaultStopWait
	}
	return cfg
}
