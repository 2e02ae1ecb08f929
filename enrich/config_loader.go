package enrich

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the pipeline configuration from a YAML file. Unset fields
// keep the values from DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file not found: %s", ErrConfiguration, path)
		}
		return nil, configErrorf("reading config file", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, configErrorf("parsing config YAML", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
	}

	if c.Input.Train == "" {
		return invalid("input.train is required")
	}

	if c.Features.Metro && c.Reference.Metro.Path == "" {
		return invalid("reference.metro.path is required when distance_to_metro is enabled")
	}
	if c.Reference.Metro.Path != "" {
		if utf8.RuneCountInString(c.Reference.Metro.Delimiter) != 1 {
			return invalid("reference.metro.delimiter must be a single character, got %q", c.Reference.Metro.Delimiter)
		}
		if c.Reference.Metro.NameColumn == "" {
			return invalid("reference.metro.nameColumn is required")
		}
		if c.Reference.Metro.Lines < 0 {
			return invalid("reference.metro.lines must not be negative")
		}
	}
	if c.Features.Hospital && c.Reference.Hospitals == "" {
		return invalid("reference.hospitals is required when distance_to_hospital is enabled")
	}

	seen := make(map[string]bool)
	for i, d := range c.Reference.Districts {
		if d.Name == "" {
			return invalid("reference.districts[%d].name is required", i)
		}
		if d.Path == "" {
			return invalid("reference.districts[%d].path is required for %s", i, d.Name)
		}
		key := strings.ToLower(d.Name)
		if seen[key] {
			return invalid("reference.districts[%d]: duplicate district %s", i, d.Name)
		}
		seen[key] = true
	}

	named := map[string]LatLon{
		"locations.cityCenter":      c.Locations.CityCenter,
		"locations.stateUniversity": c.Locations.StateUniversity,
		"locations.techUniversity":  c.Locations.TechUniversity,
		"locations.ostozhenka":      c.Locations.Ostozhenka,
	}
	for key, ll := range named {
		if !ll.Valid() {
			return invalid("%s is out of range: (%g, %g)", key, ll.Lat, ll.Lon)
		}
	}
	if c.Features.Airport && len(c.Locations.Airports) == 0 {
		return invalid("locations.airports is empty but distance_to_airport is enabled")
	}
	for i, ll := range c.Locations.Airports {
		if !ll.Valid() {
			return invalid("locations.airports[%d] is out of range: (%g, %g)", i, ll.Lat, ll.Lon)
		}
	}

	for i, imp := range c.Imputation {
		if imp.Feature == "" {
			return invalid("imputation[%d].feature is required", i)
		}
		if imp.Decimals < 0 {
			return invalid("imputation[%d].decimals must not be negative", i)
		}
		switch imp.Strategy {
		case StrategyBin:
			if imp.BinFeature == "" {
				return invalid("imputation[%d].binFeature is required for %s", i, imp.Feature)
			}
			if imp.Bins < 0 {
				return invalid("imputation[%d].bins must be positive", i)
			}
		case StrategyNeighbor:
			if len(imp.NeighborFeatures) == 0 {
				return invalid("imputation[%d].neighborFeatures is required for %s", i, imp.Feature)
			}
			if imp.K <= 0 {
				return invalid("imputation[%d].k must be positive for %s", i, imp.Feature)
			}
		default:
			return invalid("imputation[%d].strategy must be %q or %q, got %q", i, StrategyBin, StrategyNeighbor, imp.Strategy)
		}
	}

	for i, e := range c.Encoders {
		if e.Source == "" {
			return invalid("encoders[%d].source is required", i)
		}
		if len(e.Categories) == 0 {
			return invalid("encoders[%d].categories is required for %s", i, e.Source)
		}
	}

	switch c.Render.Format {
	case "", "svg", "png":
	default:
		return invalid("render.format must be svg or png, got %q", c.Render.Format)
	}
	return nil
}

// MetroDelimiter returns the configured delimiter rune.
func (m MetroConfig) MetroDelimiter() rune {
	r, _ := utf8.DecodeRuneInString(m.Delimiter)
	return r
}
