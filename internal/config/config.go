// Package config handles configuration loading and shared data structures.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/woozymasta/dzmeasure/internal/geo"
	"github.com/woozymasta/dzmeasure/internal/measure"
	"github.com/woozymasta/dzmeasure/internal/units"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the configuration layout written by this release.
const CurrentVersion = 2

// Config represents the root configuration file structure.
type Config struct {
	Version     int     `yaml:"version" json:"version"`
	Attribution string  `yaml:"attribution,omitempty" json:"attribution,omitempty"`
	CRS         string  `yaml:"crs,omitempty" json:"crs,omitempty"`
	Radius      float64 `yaml:"radius,omitempty" json:"radius,omitempty"`
	Measure     Measure `yaml:"measure" json:"measure"`
	Maps        []Map   `yaml:"maps,omitempty" json:"maps,omitempty"`
}

// Measure holds the measurement control and formatting options.
// Pointer fields distinguish "unset" from an explicit empty string.
type Measure struct {
	Title         string `yaml:"title,omitempty" json:"title,omitempty"`
	Position      string `yaml:"position,omitempty" json:"position,omitempty"`
	Model         string `yaml:"model,omitempty" json:"model,omitempty"`
	Collapsed     *bool  `yaml:"collapsed,omitempty" json:"collapsed,omitempty"`
	Color         string `yaml:"color,omitempty" json:"color,omitempty"`
	PointColor    string `yaml:"point_color,omitempty" json:"point_color,omitempty"`
	Start         string `yaml:"start,omitempty" json:"start,omitempty"`
	DistanceLabel string `yaml:"distance_label,omitempty" json:"distance_label,omitempty"`
	AreaLabel     string `yaml:"area_label,omitempty" json:"area_label,omitempty"`

	DistanceUnits units.Table       `yaml:"distance_units,omitempty" json:"distance_units,omitempty"`
	AreaUnits     units.Table       `yaml:"area_units,omitempty" json:"area_units,omitempty"`
	Symbols       map[string]string `yaml:"symbols,omitempty" json:"symbols,omitempty"`
	Decimals      map[string]int    `yaml:"decimals,omitempty" json:"decimals,omitempty"`

	ThousandsSeparator *string `yaml:"thousands_separator,omitempty" json:"thousands_separator,omitempty"`
	DecimalPoint       *string `yaml:"decimal_point,omitempty" json:"decimal_point,omitempty"`
	MinusSign          *string `yaml:"minus_sign,omitempty" json:"minus_sign,omitempty"`
	UnitSpace          *string `yaml:"unit_space,omitempty" json:"unit_space,omitempty"`
}

// Map represents a single map context measurements are made on.
type Map struct {
	Index       *int     `yaml:"index,omitempty" json:"index,omitempty"`
	Name        string   `yaml:"name" json:"name"`
	Attribution string   `yaml:"attribution,omitempty" json:"attribution,omitempty"`
	Aliases     []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	CRS         string   `yaml:"crs,omitempty" json:"crs,omitempty"`
	Radius      float64  `yaml:"radius,omitempty" json:"radius,omitempty"`
	Units       string   `yaml:"units,omitempty" json:"units,omitempty"` // metric or imperial
	Size        float64  `yaml:"size,omitempty" json:"size,omitempty"`   // game map size, for game coordinates
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document of any supported version and
// returns it migrated to CurrentVersion and validated.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	var cfg *Config
	switch version := detectVersion(raw); version {
	case 1:
		legacy, err := fromLegacy(raw)
		if err != nil {
			return nil, err
		}
		cfg = legacy
	case CurrentVersion:
		cfg = &Config{}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config version %d", units.ErrInvalidConfig, version)
	}

	cfg.Version = CurrentVersion
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// detectVersion reads the "version" key. Documents without one are
// structured (v2) when they carry a measure or maps section, flat Leaflet
// style options (v1) otherwise.
func detectVersion(raw map[string]any) int {
	if v, ok := toFloat(raw["version"]); ok {
		return int(v)
	}
	if _, ok := raw["measure"]; ok {
		return CurrentVersion
	}
	if _, ok := raw["maps"]; ok {
		return CurrentVersion
	}
	return 1
}

// Validate checks every map resolves to a valid measurement configuration
// and that map names and aliases are unique.
func (c *Config) Validate() error {
	var errs []string

	if _, err := c.Measurement(nil); err != nil {
		errs = append(errs, err.Error())
	}
	if m := c.Measure.Model; m != "" && m != "user" && m != "distance" && m != "area" {
		errs = append(errs, fmt.Sprintf("measure.model must be user, distance or area, got %q", m))
	}

	seen := make(map[string]string)
	for i := range c.Maps {
		m := &c.Maps[i]
		if m.Name == "" {
			errs = append(errs, fmt.Sprintf("maps[%d].name is required", i))
			continue
		}
		for _, name := range append([]string{m.Name}, m.Aliases...) {
			if owner, dup := seen[name]; dup {
				errs = append(errs, fmt.Sprintf("maps[%d]: name %q already used by map %q", i, name, owner))
			}
			seen[name] = m.Name
		}
		if m.Units != "" && m.Units != "metric" && m.Units != "imperial" {
			errs = append(errs, fmt.Sprintf("maps[%d].units must be metric or imperial, got %q", i, m.Units))
		}
		if _, err := c.Measurement(m); err != nil {
			errs = append(errs, fmt.Sprintf("maps[%d]: %v", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: config validation failed:\n  - %s", units.ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}

// Measurement resolves the canonical measurement configuration for m, or
// for the global defaults when m is nil.
func (c *Config) Measurement(m *Map) (measure.Config, error) {
	out := measure.DefaultConfig()

	crsName, radius := c.CRS, c.Radius
	if m != nil && (m.CRS != "" || m.Radius != 0) {
		crsName, radius = m.CRS, m.Radius
	}
	crs, err := geo.ParseCRS(crsName, radius)
	if err != nil {
		return measure.Config{}, fmt.Errorf("%w: %v", units.ErrInvalidConfig, err)
	}
	out.CRS = crs

	if c.Measure.DistanceUnits != nil {
		out.DistanceUnits = c.Measure.DistanceUnits.Clone()
	}
	if c.Measure.AreaUnits != nil {
		out.AreaUnits = c.Measure.AreaUnits.Clone()
	}
	if m != nil && m.Units == "imperial" {
		out.DistanceUnits = units.ImperialDistance.Clone()
		out.AreaUnits = units.ImperialArea.Clone()
	} else if m != nil && m.Units == "metric" {
		out.DistanceUnits = units.MetricDistance.Clone()
		out.AreaUnits = units.MetricArea.Clone()
	}

	if c.Measure.Start != "" {
		out.StartLabel = c.Measure.Start
	}

	f := &out.Format
	for k, v := range c.Measure.Symbols {
		f.Symbols[k] = v
	}
	for k, v := range c.Measure.Decimals {
		f.Decimals[k] = v
	}
	setString(&f.ThousandsSeparator, c.Measure.ThousandsSeparator)
	setString(&f.DecimalPoint, c.Measure.DecimalPoint)
	setString(&f.MinusSign, c.Measure.MinusSign)
	setString(&f.UnitSpace, c.Measure.UnitSpace)

	if err := out.DistanceUnits.Validate(); err != nil {
		return measure.Config{}, fmt.Errorf("distance_units: %w", err)
	}
	if err := out.AreaUnits.Validate(); err != nil {
		return measure.Config{}, fmt.Errorf("area_units: %w", err)
	}
	if err := f.Validate(); err != nil {
		return measure.Config{}, err
	}

	return out, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
