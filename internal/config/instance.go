package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var defaultManager = &InstanceManager{}

// InstanceManager owns the process-wide configuration snapshot. Readers get
// clones; writers go through Apply so the snapshot is always validated.
type InstanceManager struct {
	path   string
	loaded bool
	cfg    *Config
	hash   string

	mu sync.RWMutex
}

func (ins *InstanceManager) Get() (*Config, error) {
	ins.mu.RLock()
	defer ins.mu.RUnlock()

	if !ins.loaded || ins.cfg == nil {
		return nil, fmt.Errorf("config is not loaded")
	}
	return ins.cfg.Clone()
}

func (ins *InstanceManager) Path() string {
	ins.mu.RLock()
	defer ins.mu.RUnlock()
	return ins.path
}

func (ins *InstanceManager) Hash() string {
	ins.mu.RLock()
	defer ins.mu.RUnlock()
	return ins.hash
}

func (ins *InstanceManager) Load(path string) (*Config, error) {
	ins.mu.Lock()
	defer ins.mu.Unlock()

	path = strings.TrimSpace(path)
	if path == "" {
		path = ins.path
	}
	if path == "" {
		return nil, fmt.Errorf("config path is required")
	}

	cfg, err := loadConfigFile(path)
	if err != nil {
		return nil, err
	}

	ins.path = path
	ins.cfg = cfg
	ins.hash = cfg.Hash()
	ins.loaded = true
	return cfg.Clone()
}

// Reload re-reads the loaded file. changed is false when the content hash
// matches the current snapshot.
func (ins *InstanceManager) Reload() (cfg *Config, changed bool, err error) {
	prev := ins.Hash()
	cfg, err = ins.Load("")
	if err != nil {
		return nil, false, err
	}
	return cfg, cfg.Hash() != prev, nil
}

func (ins *InstanceManager) Apply(name string, value any) error {
	ins.mu.Lock()
	defer ins.mu.Unlock()

	if !ins.loaded || ins.cfg == nil {
		return fmt.Errorf("config is not loaded")
	}

	draft, err := ins.cfg.Clone()
	if err != nil {
		return err
	}
	if err := draft.UpdateByName(name, value); err != nil {
		return err
	}
	if err := draft.Validate(); err != nil {
		return err
	}

	ins.cfg = draft
	ins.hash = draft.Hash()
	return nil
}

func loadConfigFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// WriteFile validates cfg and writes it to path atomically (tmp + rename).
func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}

func Load(path string) (*Config, error) {
	return defaultManager.Load(path)
}

func Get() (*Config, error) {
	return defaultManager.Get()
}

func Apply(name string, value any) error {
	return defaultManager.Apply(name, value)
}

func Default() *InstanceManager {
	return defaultManager
}
