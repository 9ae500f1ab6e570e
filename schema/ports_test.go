package schema

import "testing"

func TestClassifyPort(t *testing.T) {
	cases := []struct {
		port PortID
		want PortClass
	}{
		{"ttyACM0", PortRealSerial},
		{"ttyUSB3", PortRealSerial},
		{"ttyUSB12", PortRealSerial},
		{"Port1", PortSimulated},
		{"Port4", PortSimulated},
		{"ttyS0", PortSimulated},
		{"ttyACM", PortSimulated},
	}
	for _, tc := range cases {
		if got := ClassifyPort(tc.port); got != tc.want {
			t.Fatalf("ClassifyPort(%q) = %q, want %q", tc.port, got, tc.want)
		}
	}
}

func TestDevicePath(t *testing.T) {
	if got := DevicePath("ttyUSB0"); got != "/dev/ttyUSB0" {
		t.Fatalf("unexpected device path: %s", got)
	}
}

func TestNormalizeServiceConfigDefaults(t *testing.T) {
	cfg := NormalizeServiceConfig(ServiceConfig{})
	if cfg.KconfigPath != DefaultKconfigPath {
		t.Fatalf("unexpected kconfig path: %s", cfg.KconfigPath)
	}
	if cfg.RunTimeout != DefaultRunTimeout {
		t.Fatalf("unexpected run timeout: %s", cfg.RunTimeout)
	}
	if cfg.Baud != DefaultBaud {
		t.Fatalf("unexpected baud: %d", cfg.Baud)
	}
	if cfg.SelfPath == "" {
		t.Fatalf("expected self path to be set")
	}
}

func TestNormalizeServiceConfigKeepsValues(t *testing.T) {
	cfg := NormalizeServiceConfig(ServiceConfig{
		KconfigPath: "/tmp/Kconfig",
		Baud:        9600,
	})
	if cfg.KconfigPath != "/tmp/Kconfig" {
		t.Fatalf("kconfig path overwritten: %s", cfg.KconfigPath)
	}
	if cfg.Baud != 9600 {
		t.Fatalf("baud overwritten: %d", cfg.Baud)
	}
}
