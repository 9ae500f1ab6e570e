package sdkconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/canflash/schema"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadParsesKeyValueLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdkconfig")
	writeFile(t, path, "# comment\nCONFIG_A=y\nCONFIG_B=n\n\nCONFIG_C=\"str\"\n")

	s, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 keys, got %d", s.Len())
	}
	if v, ok := s.Get("CONFIG_A"); !ok || v != "y" {
		t.Fatalf("unexpected CONFIG_A: %q %v", v, ok)
	}
	if v, ok := s.Get("B"); !ok || v != "n" {
		t.Fatalf("expected prefix-normalized lookup, got %q %v", v, ok)
	}
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing"), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d keys", s.Len())
	}
}

func TestAddMissingBoolKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdkconfig")
	writeFile(t, path, "CONFIG_A=y\n")

	s, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.AddMissingBoolKeys([]schema.OptionID{"A", "B", "C"})
	if s.Len() != 3 {
		t.Fatalf("expected 3 keys, got %d", s.Len())
	}
	if v, _ := s.Get("CONFIG_A"); v != "y" {
		t.Fatalf("existing key overwritten: %q", v)
	}
	if v, _ := s.Get("CONFIG_B"); v != "n" {
		t.Fatalf("missing key not defaulted to n: %q", v)
	}
}

func TestSetReportsChanges(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing"), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !s.Set("CONFIG_A", "y") {
		t.Fatalf("first set should report a change")
	}
	if s.Set("CONFIG_A", "y") {
		t.Fatalf("identical set should not report a change")
	}
	if !s.Set("CONFIG_A", "n") {
		t.Fatalf("value change should be reported")
	}
}

func TestWriteCreatesBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdkconfig")
	writeFile(t, path, "CONFIG_A=y\n")

	s, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Set("CONFIG_A", "n")
	if err := s.Write(); err != nil {
		t.Fatalf("first write: %v", err)
	}
	s.Set("CONFIG_A", "y")
	if err := s.Write(); err != nil {
		t.Fatalf("second write: %v", err)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !strings.Contains(string(backup), "CONFIG_A=n") {
		t.Fatalf("backup should hold the first write, got %q", backup)
	}
	current, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read current: %v", err)
	}
	if !strings.Contains(string(current), "CONFIG_A=y") {
		t.Fatalf("current file should hold the second write, got %q", current)
	}
}

func TestWritePreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdkconfig")
	writeFile(t, path, "CONFIG_B=y\nCONFIG_A=n\n")

	s, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.AddMissingBoolKeys([]schema.OptionID{"C"})
	if err := s.Write(); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "CONFIG_B=y\nCONFIG_A=n\nCONFIG_C=n\n"
	if string(data) != want {
		t.Fatalf("unexpected file contents:\nwant: %q\ngot:  %q", want, data)
	}
}
