package scenario

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wonny/marketsim/internal/loader"
	"github.com/wonny/marketsim/internal/simulation"
)

// Scenario is a named, repeatable run description.
// Zero sizes, a missing seed and an empty tier mix fall back to the defaults passed to Config.
type Scenario struct {
	Name        string              `yaml:"name" json:"name"`
	Description string              `yaml:"description,omitempty" json:"description,omitempty"`
	Seed        *int64              `yaml:"seed,omitempty" json:"seed,omitempty"`
	Agents      int                 `yaml:"agents,omitempty" json:"agents,omitempty"`
	Stocks      int                 `yaml:"stocks,omitempty" json:"stocks,omitempty"`
	Days        int                 `yaml:"days,omitempty" json:"days,omitempty"`
	Tiers       *simulation.TierMix `yaml:"tiers,omitempty" json:"tiers,omitempty"`
	Data        Data                `yaml:"data,omitempty" json:"data,omitempty"`

	baseDir string
}

// Data points at the input tables. Both empty means the embedded tables.
type Data struct {
	Dir  string `yaml:"dir,omitempty" json:"dir,omitempty"`
	HTML string `yaml:"html,omitempty" json:"html,omitempty"`
}

// ValidationError 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads a YAML file and returns the scenario with its raw bytes.
// Relative data paths resolve against the file's directory.
// KnownFields(true): 오타/미사용 필드 즉시 실패
func Load(path string) (*Scenario, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read scenario: %w", err)
	}

	sc, err := Parse(data)
	if err != nil {
		return nil, data, fmt.Errorf("scenario %s: %w", path, err)
	}
	sc.baseDir = filepath.Dir(path)
	return sc, data, nil
}

// Parse decodes and validates one YAML document
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return ValidationError{"name", "required"}
	}
	if s.Agents < 0 || s.Stocks < 0 || s.Days < 0 {
		return ValidationError{"agents/stocks/days", "must not be negative"}
	}
	if s.Data.Dir != "" && s.Data.HTML != "" {
		return ValidationError{"data", "dir and html are mutually exclusive"}
	}
	if err := s.Config(simulation.DefaultConfig()).Validate(); err != nil {
		return ValidationError{"config", err.Error()}
	}
	return nil
}

// Config overlays the scenario on defaults
func (s *Scenario) Config(defaults simulation.Config) simulation.Config {
	cfg := defaults
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}
	if s.Agents > 0 {
		cfg.Agents = s.Agents
	}
	if s.Stocks > 0 {
		cfg.Stocks = s.Stocks
	}
	if s.Days > 0 {
		cfg.Days = s.Days
	}
	if s.Tiers != nil {
		cfg.Tiers = *s.Tiers
	}
	return cfg
}

// Source returns the loader for the scenario's tables
func (s *Scenario) Source() loader.Source {
	switch {
	case s.Data.Dir != "":
		return loader.NewCSVSource(s.resolve(s.Data.Dir))
	case s.Data.HTML != "":
		return loader.NewHTMLFile(s.resolve(s.Data.HTML))
	default:
		return loader.Embedded()
	}
}

func (s *Scenario) resolve(p string) string {
	if filepath.IsAbs(p) || s.baseDir == "" {
		return p
	}
	return filepath.Join(s.baseDir, p)
}

// Hash is the SHA-256 of the scenario's canonical JSON.
// struct 사용으로 필드 순서 고정, 해시 재현성 보장
func Hash(s *Scenario) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
