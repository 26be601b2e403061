// Package sharedcfg provides read and write access to the user's
// persisted configuration file, an INI document where each profile lives
// in its own section. Wizards read profile values during the plan phase
// and write whole profiles during the execute phase.
package sharedcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ini "gopkg.in/ini.v1"
)

// profilePrefix is how non-default profile sections are named in the
// config file: "profile staging" holds the staging profile.
const profilePrefix = "profile "

// ConfigAPI is the persisted-configuration capability consumed by
// sharedconfig steps and actions.
type ConfigAPI interface {
	// ListProfiles returns the profile names present in the config file,
	// in file order.
	ListProfiles() ([]string, error)
	// GetValue returns the named value from the given profile, or ""
	// when the profile or key is absent.
	GetValue(profile, key string) (string, error)
	// SetValues writes the given keys into the named profile, creating
	// the profile section and the file itself when missing.
	SetValues(profile string, values map[string]string) error
}

// FileAPI is a ConfigAPI over an INI file on disk. The file is reloaded
// on every read so concurrent writers are picked up; writes rewrite the
// whole file.
type FileAPI struct {
	Path string
	mu   sync.Mutex
}

// NewFileAPI creates a config API over the given file path.
func NewFileAPI(path string) *FileAPI {
	return &FileAPI{Path: path}
}

// ListProfiles implements ConfigAPI.
func (a *FileAPI) ListProfiles() ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfg, err := a.load()
	if err != nil {
		return nil, err
	}
	var profiles []string
	for _, section := range cfg.Sections() {
		name, ok := profileName(section.Name())
		if !ok {
			continue
		}
		profiles = append(profiles, name)
	}
	return profiles, nil
}

// GetValue implements ConfigAPI.
func (a *FileAPI) GetValue(profile, key string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfg, err := a.load()
	if err != nil {
		return "", err
	}
	section, err := cfg.GetSection(sectionName(profile))
	if err != nil {
		return "", nil
	}
	if !section.HasKey(key) {
		return "", nil
	}
	return section.Key(key).String(), nil
}

// SetValues implements ConfigAPI.
func (a *FileAPI) SetValues(profile string, values map[string]string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfg, err := a.load()
	if err != nil {
		return err
	}
	section, err := cfg.NewSection(sectionName(profile))
	if err != nil {
		return fmt.Errorf("config section %q: %w", profile, err)
	}
	for key, value := range values {
		section.Key(key).SetValue(value)
	}

	if dir := filepath.Dir(a.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := cfg.SaveTo(a.Path); err != nil {
		return fmt.Errorf("write config %s: %w", a.Path, err)
	}
	return nil
}

func (a *FileAPI) load() (*ini.File, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{Loose: true}, a.Path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", a.Path, err)
	}
	return cfg, nil
}

// sectionName maps a profile name to its section header. The default
// profile lives in a bare "default" section; everything else carries
// the "profile " prefix.
func sectionName(profile string) string {
	if profile == "" || profile == "default" {
		return "default"
	}
	return profilePrefix + profile
}

// profileName inverts sectionName, reporting false for sections that do
// not hold a profile (including the INI default section).
func profileName(section string) (string, bool) {
	if section == "default" {
		return "default", true
	}
	if strings.HasPrefix(section, profilePrefix) {
		return strings.TrimPrefix(section, profilePrefix), true
	}
	return "", false
}

// Memory is an in-memory ConfigAPI for tests and dry runs. Writes record
// the profiles touched in order.
type Memory struct {
	Profiles map[string]map[string]string
	Written  []string
}

// NewMemory creates an empty in-memory config API.
func NewMemory() *Memory {
	return &Memory{Profiles: map[string]map[string]string{}}
}

// ListProfiles implements ConfigAPI. Names come back sorted for
// deterministic assertions.
func (m *Memory) ListProfiles() ([]string, error) {
	var names []string
	for name := range m.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetValue implements ConfigAPI.
func (m *Memory) GetValue(profile, key string) (string, error) {
	return m.Profiles[profile][key], nil
}

// SetValues implements ConfigAPI.
func (m *Memory) SetValues(profile string, values map[string]string) error {
	if m.Profiles == nil {
		m.Profiles = map[string]map[string]string{}
	}
	section := m.Profiles[profile]
	if section == nil {
		section = map[string]string{}
		m.Profiles[profile] = section
	}
	for key, value := range values {
		section[key] = value
	}
	m.Written = append(m.Written, profile)
	return nil
}
