package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"namedprng/domain/core"
)

// Scenario describes a reproducible simulation run: the particle
// population, the seed-space bounds, and the random walk to drive over it.
type Scenario struct {
	NMax     int      `yaml:"n_max"`
	Purposes []string `yaml:"purposes"`
	Mode     string   `yaml:"mode"`
	UsedOnly bool     `yaml:"used_only"`
	TapeDir  string   `yaml:"tape_dir"`

	Types []ScenarioType `yaml:"types"`

	Realizations []uint64 `yaml:"realizations"`

	Walk ScenarioWalk `yaml:"walk"`
}

// ScenarioType declares one particle type, either as named particles or as
// a bare count that becomes ids "0".."count-1".
type ScenarioType struct {
	Name      string   `yaml:"name"`
	Count     int      `yaml:"count"`
	Particles []string `yaml:"particles"`
}

// ScenarioWalk configures the random walk the scenario drives.
type ScenarioWalk struct {
	Type      string   `yaml:"type"`
	Purpose   string   `yaml:"purpose"`
	Steps     int      `yaml:"steps"`
	SkipSteps int      `yaml:"skip_steps"`
	Sigma     float64  `yaml:"sigma"`
	Include   []string `yaml:"include"`
	Exclude   []string `yaml:"exclude"`
}

// LoadScenario reads a scenario file, rejecting unknown fields.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sc Scenario
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("error when parsing scenario: %w", err)
	}

	fillDefaults(&sc)
	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("error when validating scenario: %w", err)
	}
	return &sc, nil
}

func fillDefaults(sc *Scenario) {
	if sc.NMax == 0 {
		sc.NMax = 100
	}
	if sc.Mode == "" {
		sc.Mode = string(core.ModeAlgorithmic)
	}
	if sc.TapeDir == "" {
		sc.TapeDir = "./tapes"
	}
	if len(sc.Realizations) == 0 {
		sc.Realizations = []uint64{0}
	}
	if sc.Walk.Steps == 0 {
		sc.Walk.Steps = 1
	}
	if sc.Walk.Sigma == 0 {
		sc.Walk.Sigma = 1
	}
}

func validateScenario(sc *Scenario) error {
	if sc.NMax < 1 {
		return fmt.Errorf("n_max must be at least 1, got %d", sc.NMax)
	}
	if len(sc.Purposes) == 0 {
		return fmt.Errorf("at least one purpose is required")
	}
	if !core.StreamMode(sc.Mode).Valid() {
		return fmt.Errorf("unknown mode %q", sc.Mode)
	}
	if len(sc.Types) == 0 {
		return fmt.Errorf("at least one particle type is required")
	}
	for i, t := range sc.Types {
		if t.Name == "" {
			return fmt.Errorf("type %d has no name", i)
		}
		if t.Count > 0 && len(t.Particles) > 0 {
			return fmt.Errorf("type %s declares both count and particles", t.Name)
		}
		if t.Count <= 0 && len(t.Particles) == 0 {
			return fmt.Errorf("type %s declares no particles", t.Name)
		}
	}
	if sc.Walk.Type != "" {
		if !sc.hasType(sc.Walk.Type) {
			return fmt.Errorf("walk type %s is not declared", sc.Walk.Type)
		}
		if !sc.hasPurpose(sc.Walk.Purpose) {
			return fmt.Errorf("walk purpose %s is not declared", sc.Walk.Purpose)
		}
		if sc.Walk.Steps < 1 {
			return fmt.Errorf("walk steps must be at least 1, got %d", sc.Walk.Steps)
		}
		if sc.Walk.SkipSteps < 0 {
			return fmt.Errorf("walk skip_steps must not be negative, got %d", sc.Walk.SkipSteps)
		}
		if sc.Walk.Sigma <= 0 {
			return fmt.Errorf("walk sigma must be positive, got %v", sc.Walk.Sigma)
		}
		if len(sc.Walk.Include) > 0 && len(sc.Walk.Exclude) > 0 {
			return fmt.Errorf("walk declares both include and exclude filters")
		}
	}
	return nil
}

func (sc *Scenario) hasType(name string) bool {
	for _, t := range sc.Types {
		if t.Name == name {
			return true
		}
	}
	return false
}

func (sc *Scenario) hasPurpose(name string) bool {
	for _, p := range sc.Purposes {
		if p == name {
			return true
		}
	}
	return false
}

// CorePurposes returns the scenario purposes as domain values.
func (sc *Scenario) CorePurposes() []core.Purpose {
	purposes := make([]core.Purpose, len(sc.Purposes))
	for i, p := range sc.Purposes {
		purposes[i] = core.Purpose(p)
	}
	return purposes
}
