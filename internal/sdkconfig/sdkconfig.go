// Package sdkconfig reads, mutates and rewrites the line-oriented
// KEY=value build configuration file, preserving insertion order and
// keeping a .bak copy of the previous version on every write.
package sdkconfig

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"pkt.systems/canflash/schema"
	"pkt.systems/pslog"
)

// Line is one configuration entry tracked for in-place updates.
type Line struct {
	Key   string
	Value string
}

// Store manages one sdkconfig file.
type Store struct {
	path string
	log  pslog.Logger

	mu    sync.Mutex
	lines map[string]*Line
	order []string
}

// Load parses the sdkconfig file at path. A missing file yields an empty
// store; keys are then synthesized via AddMissingBoolKeys before writes.
func Load(path string, logger pslog.Logger) (*Store, error) {
	s := &Store{
		path:  path,
		log:   logger,
		lines: make(map[string]*Line),
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			if logger != nil {
				logger.Warn("sdkconfig not found, starting empty", "path", path)
			}
			return s, nil
		}
		return nil, fmt.Errorf("open sdkconfig: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		s.put(key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read sdkconfig: %w", err)
	}
	if logger != nil {
		logger.Debug("sdkconfig loaded", "path", path, "keys", len(s.lines))
	}
	return s, nil
}

// NormalizeKey ensures the CONFIG_ prefix on a key.
func NormalizeKey(key string) string {
	if strings.HasPrefix(key, "CONFIG_") {
		return key
	}
	return "CONFIG_" + key
}

func (s *Store) put(key, value string) {
	if _, ok := s.lines[key]; !ok {
		s.order = append(s.order, key)
	}
	s.lines[key] = &Line{Key: key, Value: value}
}

// Get returns the value stored for key, if present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.lines[NormalizeKey(key)]
	if !ok {
		return "", false
	}
	return line.Value, true
}

// Set updates the value for key and reports whether it changed.
func (s *Store) Set(key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key = NormalizeKey(key)
	line, ok := s.lines[key]
	if !ok {
		s.put(key, value)
		return true
	}
	if line.Value == value {
		return false
	}
	line.Value = value
	return true
}

// AddMissingBoolKeys synthesizes absent boolean keys with the disabled
// value so later updates always find their line.
func (s *Store) AddMissingBoolKeys(keys []schema.OptionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		k := NormalizeKey(string(key))
		if _, ok := s.lines[k]; ok {
			continue
		}
		if s.log != nil {
			s.log.Debug("adding missing sdkconfig key", "key", k)
		}
		s.put(k, "n")
	}
}

// Len returns the number of tracked keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Write rewrites the sdkconfig file under a file lock, moving the
// previous version to <path>.bak first.
func (s *Store) Write() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock sdkconfig: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if _, err := os.Stat(s.path); err == nil {
		if err := os.Rename(s.path, s.path+".bak"); err != nil {
			return fmt.Errorf("backup sdkconfig: %w", err)
		}
	}

	var b strings.Builder
	for _, key := range s.order {
		line := s.lines[key]
		fmt.Fprintf(&b, "%s=%s\n", line.Key, line.Value)
	}
	if err := os.WriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write sdkconfig: %w", err)
	}
	if s.log != nil {
		s.log.Info("sdkconfig written", "path", s.path, "keys", len(s.order))
	}
	return nil
}
