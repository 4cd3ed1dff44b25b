// Package config loads the forksync repository configuration.
//
// The configuration is an INI file with one section per repository. The
// section header is the repository title and the section must set url to the
// upstream clone URL:
//
//	[Repository Title]
//	url = git@example.com:upstream/repo.git
//
// Unknown keys are ignored. DEFAULT is reserved: keys outside any section
// land there, and a url in it is rejected rather than read as a repository.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"gopkg.in/ini.v1"
)

const (
	// DefaultFile is the configuration filename used when none is given
	DefaultFile = "config.ini"

	urlKey = "url"
)

// Manager loads the configuration file at a fixed path.
// Each call to Load re-reads the file; nothing is cached.
type Manager struct {
	configPath string
}

// NewManager creates a configuration manager for the given file
func NewManager(configPath string) *Manager {
	return &Manager{configPath: configPath}
}

// Load reads and validates the configuration from disk
func (m *Manager) Load() (*Registry, error) {
	return Load(m.configPath)
}

// GetConfigPath returns the configuration file path
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// Exists checks whether the configuration file is present
func (m *Manager) Exists() bool {
	info, err := os.Stat(m.configPath)
	return err == nil && !info.IsDir()
}

// ResolvePath works out where the configuration file lives. Paths starting
// with "/" or "." are used as given; anything else is relative to basedir.
func ResolvePath(configPath, basedir string) string {
	if configPath == "" {
		configPath = DefaultFile
	}
	if filepath.IsAbs(configPath) || strings.HasPrefix(configPath, ".") {
		return configPath
	}
	return filepath.Join(basedir, configPath)
}

// Load reads the configuration file at path
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("configuration file not found: %w", err)}
		}
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("failed to read config file: %w", err)}
	}
	return Parse(path, data)
}

// Parse parses configuration content. The path is only used for error messages.
func Parse(path string, data []byte) (*Registry, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowNonUniqueSections:   true,
		AllowShadows:             true,
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("malformed configuration: %w", err)}
	}

	registry := newRegistry(path)
	doc := make(map[string]interface{})

	for _, section := range file.Sections() {
		title := section.Name()
		if title == ini.DefaultSection {
			for _, key := range section.Keys() {
				if strings.EqualFold(key.Name(), urlKey) {
					return nil, &ConfigError{Path: path, Section: title, Err: ErrReservedTitle}
				}
			}
			continue
		}
		if _, dup := doc[title]; dup {
			return nil, &ConfigError{Path: path, Section: title, Err: ErrDuplicateTitle}
		}

		descriptor, keys, err := parseSection(section)
		if err != nil {
			return nil, &ConfigError{Path: path, Section: title, Err: err}
		}

		doc[title] = keys
		registry.add(descriptor)
	}

	if err := validateDocument(doc); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	for _, d := range registry.Descriptors() {
		if _, err := transport.NewEndpoint(d.UpstreamURL); err != nil {
			return nil, &ConfigError{Path: path, Section: d.Title, Err: fmt.Errorf("%w: %v", ErrInvalidURL, err)}
		}
	}

	return registry, nil
}

func parseSection(section *ini.Section) (Descriptor, map[string]interface{}, error) {
	d := Descriptor{Title: section.Name()}
	keys := make(map[string]interface{})
	found := false

	// Keys() only holds keys set in this section, so nothing is inherited
	// from parent or default sections.
	for _, key := range section.Keys() {
		name := strings.ToLower(key.Name())
		if name == urlKey {
			if found || len(key.ValueWithShadows()) > 1 {
				return d, nil, fmt.Errorf("%w: %s", ErrDuplicateKey, urlKey)
			}
			found = true
			d.UpstreamURL = strings.TrimSpace(key.String())
		}
		keys[name] = key.String()
	}

	if !found {
		return d, nil, ErrMissingURL
	}
	if d.UpstreamURL == "" {
		return d, nil, fmt.Errorf("%w: value is empty", ErrMissingURL)
	}

	return d, keys, nil
}

func normalizeURL(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}
