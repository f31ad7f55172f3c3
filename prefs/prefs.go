// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package prefs loads and saves the user preferences of the torch.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Skins are the available button skins.
var Skins = []string{"default", "classic", "minimal"}

// Preferences are the user settings.
type Preferences struct {
	// Turn the torch on when started.
	OnAtStart bool `yaml:"on_at_start"`

	// Dim the screen while the torch is on.
	DimScreen bool `yaml:"dim_screen"`

	// Toggle the torch with the volume rocker.
	VolumeRocker bool `yaml:"volume_rocker"`

	// Strobe rather than light continuously.
	Strobe bool `yaml:"strobe"`

	// The strobe period.
	StrobePeriod Duration `yaml:"strobe_period"`

	// The button skin.
	Skin string `yaml:"skin"`
}

// Default returns the default preferences.
func Default() Preferences {
	return Preferences{
		StrobePeriod: Duration(500 * time.Millisecond),
		Skin:         "default",
	}
}

// Validate checks the preferences are usable.
func (p Preferences) Validate() error {
	if p.StrobePeriod <= 0 {
		return fmt.Errorf("strobe_period (%s) must be positive", time.Duration(p.StrobePeriod))
	}
	for _, s := range Skins {
		if p.Skin == s {
			return nil
		}
	}
	return ErrUnknownSkin{p.Skin}
}

// Load reads the preferences from a YAML file.
//
// Settings missing from the file take their default value, and a missing file
// provides the defaults.
func Load(path string) (Preferences, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("read preferences: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("unmarshal preferences: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Default(), err
	}
	return p, nil
}

// Save writes the preferences to a YAML file.
//
// The file is written to a temporary file and renamed into place, so readers
// never see a partial file.
func Save(path string, p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(&p)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".prefs-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// DefaultPath returns the preferences file under the user config directory.
//
// Falls back to the working directory if the user config directory is
// unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "torch", "prefs.yaml")
}

// Duration is a time.Duration encoded in YAML as a duration string, e.g.
// "500ms".
type Duration time.Duration

// MarshalYAML encodes the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML decodes a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// ErrUnknownSkin indicates the skin is not one of the Skins.
type ErrUnknownSkin struct {
	Skin string
}

func (e ErrUnknownSkin) Error() string {
	return fmt.Sprintf("unknown skin '%s'", e.Skin)
}
