package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// System types understood by the integration registry.
const (
	SystemJira       = "jira"
	SystemRemedy     = "remedy"
	SystemSharepoint = "sharepoint"
)

// SystemConfig describes one external task tracker.
type SystemConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	URL      string `yaml:"url"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// List is the Sharepoint list name.
	List string `yaml:"list"`
	// Company is stamped on Jira bookings, which carry none of their own.
	Company string `yaml:"company"`
	// InProgress is the Sharepoint status treated as open work.
	InProgress string `yaml:"in_progress"`
}

// SyncFile is the document read from ERM_SYNC_CONFIG.
type SyncFile struct {
	Systems []SystemConfig `yaml:"systems"`
}

// LoadSyncFile reads and validates the synchronization file at path.
func LoadSyncFile(path string) (SyncFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SyncFile{}, fmt.Errorf("read sync config: %w", err)
	}
	return ParseSync(data)
}

// ParseSync decodes a synchronization document. Names must be unique and
// every system needs a known type and a URL.
func ParseSync(data []byte) (SyncFile, error) {
	var file SyncFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return SyncFile{}, fmt.Errorf("parse sync config: %w", err)
	}

	var errs []error
	seen := make(map[string]bool, len(file.Systems))
	for i := range file.Systems {
		system := &file.Systems[i]
		system.Type = strings.ToLower(strings.TrimSpace(system.Type))
		if system.Name == "" {
			system.Name = system.Type
		}
		switch system.Type {
		case SystemJira, SystemRemedy, SystemSharepoint:
		default:
			errs = append(errs, fmt.Errorf("system %d: unknown type %q", i, system.Type))
			continue
		}
		if system.URL == "" {
			errs = append(errs, fmt.Errorf("system %q: url is required", system.Name))
		}
		if seen[system.Name] {
			errs = append(errs, fmt.Errorf("system %q: duplicate name", system.Name))
		}
		seen[system.Name] = true
		if system.Type == SystemSharepoint && system.List == "" {
			errs = append(errs, fmt.Errorf("system %q: list is required", system.Name))
		}
	}
	if len(errs) > 0 {
		return SyncFile{}, fmt.Errorf("invalid sync config: %w", errors.Join(errs...))
	}
	return file, nil
}
