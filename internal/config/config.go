package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"grid-constraints/internal/model"

	"gopkg.in/yaml.v3"
)

// Element kinds used in load factor keys.
const (
	KindLine        = "line"
	KindTransformer = "transformer"
)

// Keys of the allowed voltage deviations section.
const (
	KeyFeedInCaseLower           = "feed-in_case_lower"
	KeyLoadCaseUpper             = "load_case_upper"
	KeyHVMVTrafoOffset           = "hv_mv_trafo_offset"
	KeyHVMVTrafoControlDeviation = "hv_mv_trafo_control_deviation"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load a base config from a separate YAML first.
	// Values in this file override the base file key by key.
	BaseFile string `yaml:"base_file"`

	// LoadFactors maps "<voltage_level>_<case>_<kind>" to a load factor,
	// e.g. "mv_load_case_line: 0.5".
	LoadFactors map[string]float64 `yaml:"grid_expansion_load_factors"`

	// VoltageDeviations holds offsets and allowed deviations in p.u.
	VoltageDeviations map[string]float64 `yaml:"grid_expansion_allowed_voltage_deviations"`

	PowerModels PowerModelsConfig `yaml:"powermodels"`
}

type PowerModelsConfig struct {
	// SlackGenerator is the name of the generator that marks the slack bus.
	SlackGenerator string `yaml:"slack_generator"`
	// FlexibilityUseCases are passed to the flexibility band provider.
	FlexibilityUseCases []string `yaml:"flexibility_use_cases"`
}

// Default returns the stock grid expansion configuration.
func Default() *Config {
	return &Config{
		LoadFactors: map[string]float64{
			"mv_load_case_transformer":    0.5,
			"mv_load_case_line":           0.5,
			"mv_feed-in_case_transformer": 1.0,
			"mv_feed-in_case_line":        1.0,
			"lv_load_case_transformer":    1.0,
			"lv_load_case_line":           1.0,
			"lv_feed-in_case_transformer": 1.0,
			"lv_feed-in_case_line":        1.0,
		},
		VoltageDeviations: map[string]float64{
			KeyFeedInCaseLower:                           0.9,
			KeyLoadCaseUpper:                             1.1,
			KeyHVMVTrafoOffset:                           0.0,
			KeyHVMVTrafoControlDeviation:                 0.0,
			"mv_load_case_max_v_deviation":               0.015,
			"mv_feed-in_case_max_v_deviation":            0.05,
			"lv_load_case_max_v_deviation":               0.065,
			"lv_feed-in_case_max_v_deviation":            0.035,
			"mv_lv_station_load_case_max_v_deviation":    0.02,
			"mv_lv_station_feed-in_case_max_v_deviation": 0.015,
			"mv_lv_load_case_max_v_deviation":            0.1,
			"mv_lv_feed-in_case_max_v_deviation":         0.1,
		},
		PowerModels: PowerModelsConfig{
			SlackGenerator:      "Generator_slack",
			FlexibilityUseCases: []string{"home", "work"},
		},
	}
}

// LoadFactorKey builds the key for a load factor lookup.
func LoadFactorKey(level model.VoltageLevel, c model.Case, kind string) string {
	return fmt.Sprintf("%s_%s_%s", level, c, kind)
}

// RequiredLoadFactorKeys lists every key the checks may look up.
func RequiredLoadFactorKeys() []string {
	var out []string
	for _, level := range []model.VoltageLevel{model.MV, model.LV} {
		for _, c := range model.Cases {
			for _, kind := range []string{KindLine, KindTransformer} {
				out = append(out, LoadFactorKey(level, c, kind))
			}
		}
	}
	return out
}

// RequiredVoltageDeviationKeys lists every key the voltage limits may look up.
func RequiredVoltageDeviationKeys() []string {
	out := []string{KeyFeedInCaseLower, KeyLoadCaseUpper, KeyHVMVTrafoOffset, KeyHVMVTrafoControlDeviation}
	for _, prefix := range []string{"mv", "lv", "mv_lv", "mv_lv_station"} {
		for _, c := range model.Cases {
			out = append(out, MaxVDeviationKey(prefix, c))
		}
	}
	return out
}

// MaxVDeviationKey builds e.g. "lv_feed-in_case_max_v_deviation".
func MaxVDeviationKey(prefix string, c model.Case) string {
	return fmt.Sprintf("%s_%s_max_v_deviation", prefix, c)
}

// Load reads, merges and validates a config file.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if c.BaseFile != "" {
		basePath := c.BaseFile
		if !filepath.IsAbs(basePath) {
			// Prefer paths relative to the config file, fall back to cwd.
			cand := filepath.Join(filepath.Dir(path), basePath)
			if _, err := os.Stat(cand); err == nil {
				basePath = cand
			}
		}
		base, err := LoadUnchecked(basePath)
		if err != nil {
			return nil, fmt.Errorf("base_file: %w", err)
		}
		merged := Merge(base, &c)
		return merged, nil
	}
	return &c, nil
}

// Validate fails fast on missing keys and implausible values.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var missing []string
	for _, k := range RequiredLoadFactorKeys() {
		v, ok := c.LoadFactors[k]
		if !ok {
			missing = append(missing, "grid_expansion_load_factors."+k)
			continue
		}
		if v <= 0 {
			return fmt.Errorf("grid_expansion_load_factors.%s must be > 0, got %v", k, v)
		}
	}
	for _, k := range RequiredVoltageDeviationKeys() {
		if _, ok := c.VoltageDeviations[k]; !ok {
			missing = append(missing, "grid_expansion_allowed_voltage_deviations."+k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("config is missing required keys: %v", missing)
	}
	if c.VoltageDeviations[KeyFeedInCaseLower] >= c.VoltageDeviations[KeyLoadCaseUpper] {
		return errors.New("feed-in_case_lower must be below load_case_upper")
	}
	if c.PowerModels.SlackGenerator == "" {
		return errors.New("powermodels.slack_generator is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.PowerModels.SlackGenerator == "" {
		c.PowerModels.SlackGenerator = d.PowerModels.SlackGenerator
	}
	if len(c.PowerModels.FlexibilityUseCases) == 0 {
		c.PowerModels.FlexibilityUseCases = d.PowerModels.FlexibilityUseCases
	}
}

// LoadFactor returns the configured load factor. Validate guarantees presence.
func (c *Config) LoadFactor(level model.VoltageLevel, cs model.Case, kind string) float64 {
	return c.LoadFactors[LoadFactorKey(level, cs, kind)]
}

// VoltageDeviation returns a value from the allowed voltage deviations section.
func (c *Config) VoltageDeviation(key string) float64 {
	return c.VoltageDeviations[key]
}

// Merge overlays keys present in override onto base.
func Merge(base, override *Config) *Config {
	out := &Config{
		LoadFactors:       map[string]float64{},
		VoltageDeviations: map[string]float64{},
		PowerModels:       base.PowerModels,
	}
	for k, v := range base.LoadFactors {
		out.LoadFactors[k] = v
	}
	for k, v := range override.LoadFactors {
		out.LoadFactors[k] = v
	}
	for k, v := range base.VoltageDeviations {
		out.VoltageDeviations[k] = v
	}
	for k, v := range override.VoltageDeviations {
		out.VoltageDeviations[k] = v
	}
	if override.PowerModels.SlackGenerator != "" {
		out.PowerModels.SlackGenerator = override.PowerModels.SlackGenerator
	}
	if len(override.PowerModels.FlexibilityUseCases) > 0 {
		out.PowerModels.FlexibilityUseCases = override.PowerModels.FlexibilityUseCases
	}
	return out
}
