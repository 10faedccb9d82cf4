package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Manager is a section/key configuration store mirrored to a JSON file.
// Every read checks the file's mtime and reloads when it advanced, so
// external edits are picked up without a background watcher.
type Manager struct {
	mu      sync.Mutex
	path    string
	data    map[string]map[string]any
	lastMod time.Time
}

// Default returns the built-in configuration.
func Default() map[string]map[string]any {
	return map[string]map[string]any{
		"app_settings": {
			"theme":      "pulse",
			"font_size":  9,
			"font_style": "Arial",
			"width":      1000,
			"height":     800,
		},
		"api_config": {
			"base_url":    "https://integrate.api.nvidia.com/v1",
			"api_key":     "",
			"model":       "",
			"temperature": 0.5,
			"top_p":       1,
			"max_tokens":  1024,
			"stream":      true,
		},
	}
}

// NewManager loads (or creates) the config file at path.
func NewManager(path string) (*Manager, error) {
	m := &Manager{
		path: path,
		data: Default(),
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := m.save(); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
		return m, nil
	}

	if err := m.reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns the value at section/key, or nil when absent.
func (m *Manager) Get(section, key string) any {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeReload()
	sec, ok := m.data[section]
	if !ok {
		return nil
	}
	return sec[key]
}

// Section returns a copy of an entire section, or nil when absent.
func (m *Manager) Section(section string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeReload()
	sec, ok := m.data[section]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(sec))
	for k, v := range sec {
		out[k] = v
	}
	return out
}

// Update sets section/key and persists immediately. Unknown sections
// or keys are ignored, matching the settings form which only edits
// known fields.
func (m *Manager) Update(section, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sec, ok := m.data[section]
	if !ok {
		return nil
	}
	if _, ok := sec[key]; !ok {
		return nil
	}
	sec[key] = value
	return m.save()
}

// maybeReload re-reads the file if it changed since the last load/save.
func (m *Manager) maybeReload() {
	info, err := os.Stat(m.path)
	if err != nil {
		return
	}
	if !info.ModTime().After(m.lastMod) {
		return
	}
	_ = m.reload()
}

func (m *Manager) reload() error {
	raw, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var fileData map[string]map[string]any
	if err := json.Unmarshal(raw, &fileData); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	// Merge over the defaults so keys missing from the file keep
	// their built-in values.
	for section, keys := range fileData {
		if _, ok := m.data[section]; !ok {
			m.data[section] = map[string]any{}
		}
		for k, v := range keys {
			m.data[section][k] = v
		}
	}

	if info, err := os.Stat(m.path); err == nil {
		m.lastMod = info.ModTime()
	}
	return nil
}

func (m *Manager) save() error {
	raw, err := json.MarshalIndent(m.data, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.path, raw, 0600); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	if info, err := os.Stat(m.path); err == nil {
		m.lastMod = info.ModTime()
	}
	return nil
}

// String reads section/key as a string, falling back when unset.
func (m *Manager) String(section, key, fallback string) string {
	if v, ok := m.Get(section, key).(string); ok {
		return v
	}
	return fallback
}

// Float reads section/key as a float. JSON numbers decode as float64;
// values set programmatically may still be ints.
func (m *Manager) Float(section, key string, fallback float64) float64 {
	switch v := m.Get(section, key).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// Int reads section/key as an integer.
func (m *Manager) Int(section, key string, fallback int) int {
	switch v := m.Get(section, key).(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

// Bool reads section/key as a bool.
func (m *Manager) Bool(section, key string, fallback bool) bool {
	if v, ok := m.Get(section, key).(bool); ok {
		return v
	}
	return fallback
}
