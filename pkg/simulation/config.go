package simulation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every configuration rejection.
var ErrInvalidConfig = errors.New("invalid simulation config")

// PerceptionShape selects the region used for neighbour queries.
type PerceptionShape string

const (
	// PerceptionCircle queries a disc of radius PerceptionRadius.
	PerceptionCircle PerceptionShape = "circle"
	// PerceptionSquare queries a box of half-extent PerceptionRadius.
	PerceptionSquare PerceptionShape = "square"
)

//go:embed config.schema.json
var configSchema string

const configSchemaURL = "config.schema.json"

type Config struct {
	// World Dimensions
	WorldWidth  float64 `json:"worldWidth" yaml:"worldWidth" toml:"worldWidth"`
	WorldHeight float64 `json:"worldHeight" yaml:"worldHeight" toml:"worldHeight"`

	// Population
	NumBoids        int     `json:"numBoids" yaml:"numBoids" toml:"numBoids"`
	MinInitialSpeed float64 `json:"minInitialSpeed" yaml:"minInitialSpeed" toml:"minInitialSpeed"`
	MaxInitialSpeed float64 `json:"maxInitialSpeed" yaml:"maxInitialSpeed" toml:"maxInitialSpeed"`
	SpawnMargin     float64 `json:"spawnMargin" yaml:"spawnMargin" toml:"spawnMargin"`
	Seed            uint64  `json:"seed" yaml:"seed" toml:"seed"` // 0 picks a random seed

	// Spatial index
	PerceptionRadius float64         `json:"perceptionRadius" yaml:"perceptionRadius" toml:"perceptionRadius"`
	PerceptionShape  PerceptionShape `json:"perceptionShape" yaml:"perceptionShape" toml:"perceptionShape"`
	Capacity         int             `json:"capacity" yaml:"capacity" toml:"capacity"`

	// Steering
	MaxForce              float64 `json:"maxForce" yaml:"maxForce" toml:"maxForce"`
	AlignmentSensitivity  float64 `json:"alignmentSensitivity" yaml:"alignmentSensitivity" toml:"alignmentSensitivity"`
	CohesionSensitivity   float64 `json:"cohesionSensitivity" yaml:"cohesionSensitivity" toml:"cohesionSensitivity"`
	SeparationSensitivity float64 `json:"separationSensitivity" yaml:"separationSensitivity" toml:"separationSensitivity"`
	AlignmentBlend        float64 `json:"alignmentBlend" yaml:"alignmentBlend" toml:"alignmentBlend"`
	CohesionBlend         float64 `json:"cohesionBlend" yaml:"cohesionBlend" toml:"cohesionBlend"`
	SeparationBlend       float64 `json:"separationBlend" yaml:"separationBlend" toml:"separationBlend"`
	SeparationSqrtFalloff bool    `json:"separationSqrtFalloff" yaml:"separationSqrtFalloff" toml:"separationSqrtFalloff"`

	// Execution
	Parallel bool `json:"parallel" yaml:"parallel" toml:"parallel"`
	Workers  int  `json:"workers" yaml:"workers" toml:"workers"` // 0 means GOMAXPROCS
}

func DefaultConfig() *Config {
	return &Config{
		WorldWidth:            1920 * .88,
		WorldHeight:           1080 * .88,
		NumBoids:              400,
		MinInitialSpeed:       2,
		MaxInitialSpeed:       4,
		SpawnMargin:           100,
		PerceptionRadius:      50,
		PerceptionShape:       PerceptionCircle,
		Capacity:              3,
		MaxForce:              0.3,
		AlignmentSensitivity:  1,
		CohesionSensitivity:   0.9,
		SeparationSensitivity: 0.8,
		AlignmentBlend:        1,
		CohesionBlend:         1,
		SeparationBlend:       1,
		SeparationSqrtFalloff: true,
	}
}

// Validate rejects a configuration the simulation cannot start with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.WorldWidth > 0, "worldWidth must be positive, got %v", c.WorldWidth)
	check(c.WorldHeight > 0, "worldHeight must be positive, got %v", c.WorldHeight)
	check(c.NumBoids >= 0, "numBoids must not be negative, got %d", c.NumBoids)
	check(c.MinInitialSpeed >= 0, "minInitialSpeed must not be negative, got %v", c.MinInitialSpeed)
	check(c.MaxInitialSpeed >= c.MinInitialSpeed, "maxInitialSpeed %v is below minInitialSpeed %v", c.MaxInitialSpeed, c.MinInitialSpeed)
	check(c.SpawnMargin >= 0, "spawnMargin must not be negative, got %v", c.SpawnMargin)
	check(c.PerceptionRadius > 0, "perceptionRadius must be positive, got %v", c.PerceptionRadius)
	check(c.PerceptionShape == PerceptionCircle || c.PerceptionShape == PerceptionSquare,
		"perceptionShape must be %q or %q, got %q", PerceptionCircle, PerceptionSquare, c.PerceptionShape)
	check(c.Capacity >= 1, "capacity must be at least 1, got %d", c.Capacity)
	check(c.MaxForce > 0, "maxForce must be positive, got %v", c.MaxForce)
	check(c.Workers >= 0, "workers must not be negative, got %d", c.Workers)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Sensitivity is the per-boid tuning carried by the config.
func (c *Config) Sensitivity() behavior.Sensitivity {
	return behavior.Sensitivity{
		Alignment:  c.AlignmentSensitivity,
		Cohesion:   c.CohesionSensitivity,
		Separation: c.SeparationSensitivity,
	}
}

// Rules are the flock wide blend factors carried by the config.
func (c *Config) Rules() behavior.Rules {
	return behavior.Rules{
		AlignmentBlend:        c.AlignmentBlend,
		CohesionBlend:         c.CohesionBlend,
		SeparationBlend:       c.SeparationBlend,
		SeparationSqrtFalloff: c.SeparationSqrtFalloff,
	}
}

// LoadConfig reads a JSON, YAML or TOML file, validates it against the
// embedded JSON schema and overlays it on DefaultConfig.
func LoadConfig(configFile string) (*Config, error) {
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(raw, filepath.Ext(configFile))
}

// ParseConfig is LoadConfig on an in-memory document. format is a file
// extension such as ".yaml".
func ParseConfig(raw []byte, format string) (*Config, error) {
	// 1. Decode whatever the format is into plain JSON
	doc, err := toJSON(raw, strings.ToLower(format))
	if err != nil {
		return nil, err
	}

	// 2. Validate against the schema
	sch, err := jsonschema.CompileString(configSchemaURL, configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	// 3. Overlay on the defaults
	cfg := DefaultConfig()
	if err := json.Unmarshal(doc, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func toJSON(raw []byte, format string) ([]byte, error) {
	var m map[string]interface{}
	switch format {
	case ".json", "json":
		return raw, nil
	case ".yaml", ".yml", "yaml", "yml":
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to decode config yaml: %w", err)
		}
	case ".toml", "toml":
		if err := toml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to decode config toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, format)
	}
	if m == nil {
		m = map[string]interface{}{}
	}
	doc, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to normalise config: %w", err)
	}
	return doc, nil
}
