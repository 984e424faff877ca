package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/woozymasta/dzmeasure/internal/units"
)

// renamedKeys maps option names of older plugin releases to current ones.
var renamedKeys = map[string]string{
	"linearMeasurement":        "distanceMeasurement",
	"squareKilometers":         "squareKilometer",
	"squareKilometersDecimals": "squareKilometerDecimals",
}

// legacyStrings are the flat options that are not unit symbols.
var legacyStrings = map[string]func(*Config, string){
	"title":               func(c *Config, v string) { c.Measure.Title = v },
	"position":            func(c *Config, v string) { c.Measure.Position = v },
	"model":               func(c *Config, v string) { c.Measure.Model = v },
	"color":               func(c *Config, v string) { c.Measure.Color = v },
	"pointColor":          func(c *Config, v string) { c.Measure.PointColor = v },
	"start":               func(c *Config, v string) { c.Measure.Start = v },
	"distanceMeasurement": func(c *Config, v string) { c.Measure.DistanceLabel = v },
	"areaMeasurement":     func(c *Config, v string) { c.Measure.AreaLabel = v },
	"thousandsSeparator":  func(c *Config, v string) { c.Measure.ThousandsSeparator = &v },
	"decimalPoint":        func(c *Config, v string) { c.Measure.DecimalPoint = &v },
	"minusSign":           func(c *Config, v string) { c.Measure.MinusSign = &v },
	"unitSpace":           func(c *Config, v string) { c.Measure.UnitSpace = &v },
	"attribution":         func(c *Config, v string) { c.Attribution = v },
	"crs":                 func(c *Config, v string) { c.CRS = v },
}

// fromLegacy converts flat Leaflet style measure options (version 1) into
// the structured layout. Unit symbols are keyed by unit name ("meter: m"),
// decimals by unit name plus "Decimals" ("meterDecimals: 0"); a null
// symbol hides the unit.
func fromLegacy(raw map[string]any) (*Config, error) {
	opts := make(map[string]any, len(raw))
	for k, v := range raw {
		opts[k] = v
	}
	for old, current := range renamedKeys {
		v, ok := opts[old]
		if !ok {
			continue
		}
		if _, exists := opts[current]; !exists {
			opts[current] = v
		}
		delete(opts, old)
	}
	delete(opts, "version")

	cfg := &Config{}
	var errs []string

	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := opts[key]

		switch key {
		case "distanceUnits", "areaUnits":
			table, err := toTable(value)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				continue
			}
			if key == "distanceUnits" {
				cfg.Measure.DistanceUnits = table
			} else {
				cfg.Measure.AreaUnits = table
			}
			continue

		case "collapsed":
			b, ok := value.(bool)
			if !ok {
				errs = append(errs, fmt.Sprintf("collapsed: expected bool, got %T", value))
				continue
			}
			cfg.Measure.Collapsed = &b
			continue

		case "radius":
			r, ok := toFloat(value)
			if !ok {
				errs = append(errs, fmt.Sprintf("radius: expected number, got %T", value))
				continue
			}
			cfg.Radius = r
			continue
		}

		if set, ok := legacyStrings[key]; ok {
			s, ok := value.(string)
			if !ok {
				errs = append(errs, fmt.Sprintf("%s: expected string, got %T", key, value))
				continue
			}
			set(cfg, s)
			continue
		}

		if unit, ok := strings.CutSuffix(key, "Decimals"); ok && unit != "" {
			d, ok := toFloat(value)
			if !ok || d != float64(int(d)) {
				errs = append(errs, fmt.Sprintf("%s: expected integer, got %v", key, value))
				continue
			}
			if cfg.Measure.Decimals == nil {
				cfg.Measure.Decimals = make(map[string]int)
			}
			cfg.Measure.Decimals[unit] = int(d)
			continue
		}

		switch v := value.(type) {
		case string:
			setSymbol(cfg, key, v)
		case nil:
			setSymbol(cfg, key, "")
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown option", key))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: legacy options:\n  - %s", units.ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return cfg, nil
}

func setSymbol(cfg *Config, unit, symbol string) {
	if cfg.Measure.Symbols == nil {
		cfg.Measure.Symbols = make(map[string]string)
	}
	cfg.Measure.Symbols[unit] = symbol
}

func toTable(v any) (units.Table, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a mapping, got %T", v)
	}
	table := make(units.Table, len(m))
	for name, size := range m {
		f, ok := toFloat(size)
		if !ok {
			return nil, fmt.Errorf("unit %q: expected number, got %T", name, size)
		}
		table[name] = f
	}
	return table, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
