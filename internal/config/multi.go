package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrNoConfig     = errors.New("no config selected")
	ErrInvalidLabel = errors.New("invalid config label")
)

const (
	DefaultLabel = "Default"

	appDir  = "comicwalk"
	yamlExt = ".yaml"
)

// ConfigRoot prefers XDG_CONFIG_HOME, then the platform config dir.
func ConfigRoot() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDir)
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appDir)
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

func ProfilePath(label string) string {
	return filepath.Join(ConfigsDir(), label+yamlExt)
}

func validLabel(label string) error {
	label = strings.TrimSpace(label)
	if label == "" || strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return fmt.Errorf("%q: %w", label, ErrInvalidLabel)
	}

	return nil
}

func ensureDirs() error {
	return os.MkdirAll(ConfigsDir(), 0755)
}

func writeLabel(label string) error {
	return os.WriteFile(CurrentLabelFile(), []byte(label), 0644)
}

func CurrentLabel() (string, error) {
	b, err := os.ReadFile(CurrentLabelFile())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	label := strings.TrimSpace(string(b))
	if label == "" {
		return "", ErrNoConfig
	}

	return label, nil
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil {
		return "", err
	}

	return ProfilePath(label), nil
}

type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
}

func ListConfigs() ([]ConfigInfo, error) {
	if err := ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	active, _ := CurrentLabel()
	out := make([]ConfigInfo, 0, len(entries))

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, yamlExt) {
			continue
		}

		label := strings.TrimSuffix(name, yamlExt)
		out = append(out, ConfigInfo{
			Label:  label,
			Path:   filepath.Join(ConfigsDir(), name),
			Active: label == active,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func SwitchConfig(label string) error {
	if err := validLabel(label); err != nil {
		return err
	}
	if _, err := os.Stat(ProfilePath(label)); err != nil {
		return fmt.Errorf("config %q does not exist", label)
	}

	return writeLabel(label)
}

// CreateEmptyConfig writes a profile holding the defaults.
func CreateEmptyConfig(label string) (string, error) {
	if err := validLabel(label); err != nil {
		return "", err
	}
	if err := ensureDirs(); err != nil {
		return "", err
	}

	path := ProfilePath(label)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config %q already exists", label)
	}

	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}

	return path, nil
}

// InitDefaultConfig creates the Default profile and selects it. When the
// profile exists it is only selected, and os.ErrExist is returned.
func InitDefaultConfig() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	path := ProfilePath(DefaultLabel)
	if _, err := os.Stat(path); err == nil {
		if err := writeLabel(DefaultLabel); err != nil {
			return "", err
		}
		return path, os.ErrExist
	}

	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}

	return path, writeLabel(DefaultLabel)
}
