package assistant

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

//go:embed profile.yaml
var defaultProfileYAML []byte

// Profile is the assistant persona and operating rules baked into every
// system instruction.
type Profile struct {
	Name            string   `yaml:"name"`
	Persona         string   `yaml:"persona"`
	DefaultTimezone string   `yaml:"default_timezone"`
	Rules           []string `yaml:"rules"`
	Actions         struct {
		Schedule string `yaml:"schedule"`
		Cancel   string `yaml:"cancel"`
	} `yaml:"actions"`
}

func DefaultProfile() *Profile {
	p, err := parseProfile(defaultProfileYAML)
	if err != nil {
		panic(fmt.Sprintf("assistant: embedded profile: %v", err))
	}
	return p
}

// LoadProfile reads a profile from path. An empty path yields the embedded
// default; fields missing from the file keep their default values.
func LoadProfile(path string) (*Profile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultProfile(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assistant profile: %w", err)
	}
	p := DefaultProfile()
	if err := yaml.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("parse assistant profile %s: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("assistant profile %s: %w", path, err)
	}
	return p, nil
}

func parseProfile(b []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(p.Actions.Schedule) == "" || strings.TrimSpace(p.Actions.Cancel) == "" {
		return fmt.Errorf("both action shapes are required")
	}
	if _, err := time.LoadLocation(p.DefaultTimezone); err != nil {
		return fmt.Errorf("default_timezone: %w", err)
	}
	return nil
}

// Location resolves tz, falling back to the profile default when tz is blank.
func (p *Profile) Location(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		tz = p.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", tz)
	}
	return loc, nil
}
