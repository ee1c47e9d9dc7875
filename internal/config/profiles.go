package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const appName = "novelgrab"

var ErrNoConfig = errors.New("no config selected")

// DefaultLabel names the profile created by `config init`. It cannot be removed.
const DefaultLabel = "Default"

// ConfigRoot is %APPDATA%/novelgrab on Windows, $XDG_CONFIG_HOME/novelgrab
// when set and ~/.config/novelgrab otherwise.
func ConfigRoot() string {
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, appName)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

func ConfigsDir() string { return filepath.Join(ConfigRoot(), "configs") }

func currentFile() string { return filepath.Join(ConfigRoot(), "current_config") }

func profilePath(label string) string {
	return filepath.Join(ConfigsDir(), label+".yaml")
}

// checkLabel rejects labels that are empty or would escape the configs dir.
func checkLabel(label string) error {
	switch {
	case strings.TrimSpace(label) == "":
		return errors.New("label cannot be empty")
	case label == "." || label == ".." || strings.ContainsAny(label, `/\`):
		return fmt.Errorf("invalid label %q", label)
	}
	return nil
}

func profileExists(label string) bool {
	_, err := os.Stat(profilePath(label))
	return err == nil
}

func ensureDirs() error {
	return os.MkdirAll(ConfigsDir(), 0755)
}

func setActive(label string) error {
	if err := ensureDirs(); err != nil {
		return err
	}
	return os.WriteFile(currentFile(), []byte(label), 0644)
}

func CurrentLabel() (string, error) {
	b, err := os.ReadFile(currentFile())
	if os.IsNotExist(err) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil || label == "" {
		return "", ErrNoConfig
	}
	return profilePath(label), nil
}

// ConfigPathByLabel returns the path of an existing profile.
func ConfigPathByLabel(label string) (string, error) {
	if err := checkLabel(label); err != nil {
		return "", err
	}
	if !profileExists(label) {
		return "", fmt.Errorf("config %q does not exist", label)
	}
	return profilePath(label), nil
}

// LoadProfile reads a profile with defaults filled in.
func LoadProfile(label string) (*Config, error) {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return nil, err
	}

	cfg, err := loadYAML(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	normalizeDefaults(cfg)
	return cfg, nil
}

// Profile is a saved config and the crawl settings shown when picking one.
type Profile struct {
	Label  string
	Path   string
	Active bool

	Format     string
	DefaultURL string
	Simplified bool

	// Err is set when the file could not be parsed.
	Err error
}

// Summary describes the profile in one line: output format, script and
// default novel URL.
func (p Profile) Summary() string {
	if p.Err != nil {
		return "unreadable: " + p.Err.Error()
	}

	script := "traditional"
	if p.Simplified {
		script = "simplified"
	}
	url := p.DefaultURL
	if url == "" {
		url = "no default url"
	}
	return fmt.Sprintf("%s, %s, %s", p.Format, script, url)
}

// ListProfiles returns every saved profile sorted by label.
func ListProfiles() ([]Profile, error) {
	if err := ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	active, _ := CurrentLabel()
	var out []Profile

	for _, e := range entries {
		label, ok := strings.CutSuffix(e.Name(), ".yaml")
		if e.IsDir() || !ok {
			continue
		}

		p := Profile{Label: label, Path: profilePath(label), Active: label == active}
		if cfg, err := LoadProfile(label); err != nil {
			p.Err = err
		} else {
			p.Format = cfg.Format
			p.DefaultURL = cfg.DefaultURL
			p.Simplified = cfg.Simplified()
		}
		out = append(out, p)
	}

	slices.SortFunc(out, func(a, b Profile) int { return strings.Compare(a.Label, b.Label) })
	return out, nil
}

func SwitchConfig(label string) error {
	if _, err := ConfigPathByLabel(label); err != nil {
		return err
	}
	return setActive(label)
}

// CreateProfile writes a new profile from seed, or from DefaultConfig when
// seed is nil.
func CreateProfile(label string, seed *Config) (string, error) {
	if err := checkLabel(label); err != nil {
		return "", err
	}
	if err := ensureDirs(); err != nil {
		return "", err
	}
	if profileExists(label) {
		return "", fmt.Errorf("config %q already exists", label)
	}

	if seed == nil {
		seed = DefaultConfig()
	}
	path := profilePath(label)
	if err := SaveYAML(seed, path); err != nil {
		return "", err
	}
	return path, nil
}

// InitDefaultConfig creates the Default profile from seed and makes it
// active. An existing Default profile is kept, activated and reported
// with os.ErrExist.
func InitDefaultConfig(seed *Config) (string, error) {
	path, err := CreateProfile(DefaultLabel, seed)
	if err != nil {
		if !profileExists(DefaultLabel) {
			return "", err
		}
		path, err = profilePath(DefaultLabel), os.ErrExist
	}

	if aerr := setActive(DefaultLabel); aerr != nil {
		return "", aerr
	}
	return path, err
}

// RenameConfig moves a profile to a new label, following it if active.
func RenameConfig(oldLabel, newLabel string) error {
	oldPath, err := ConfigPathByLabel(oldLabel)
	if err != nil {
		return err
	}
	if err := checkLabel(newLabel); err != nil {
		return err
	}
	if profileExists(newLabel) {
		return fmt.Errorf("config %q already exists", newLabel)
	}

	if err := os.Rename(oldPath, profilePath(newLabel)); err != nil {
		return err
	}

	if active, _ := CurrentLabel(); active == oldLabel {
		return setActive(newLabel)
	}
	return nil
}

// RemoveConfig deletes a profile. Removing the active one switches back
// to Default.
func RemoveConfig(label string) error {
	if label == DefaultLabel {
		return errors.New("cannot remove the Default config")
	}
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return err
	}

	if active, _ := CurrentLabel(); active == label {
		if err := SwitchConfig(DefaultLabel); err != nil {
			return fmt.Errorf("failed switching to Default: %w", err)
		}
	}

	return os.Remove(path)
}
