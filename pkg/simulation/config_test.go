package simulation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, PerceptionCircle, cfg.PerceptionShape)
	assert.Equal(t, 3, cfg.Capacity)
	assert.Equal(t, 0.3, cfg.MaxForce)
	assert.Equal(t, 50.0, cfg.PerceptionRadius)
}

func TestParseConfig_SketchPerception(t *testing.T) {
	cfg, err := ParseConfig([]byte("perceptionShape: square\nperceptionRadius: 400\n"), ".yaml")
	require.NoError(t, err)

	sim, err := New(cfg, nil)
	require.NoError(t, err)
	pos := geometry.NewVector(100, 200)
	assert.Equal(t, geometry.Rectangle{X: 100, Y: 200, W: 400, H: 400}, sim.perception(pos))
}

func TestParseConfig_Formats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		doc    string
	}{
		{
			name:   "json",
			format: ".json",
			doc:    `{"numBoids": 10, "perceptionShape": "square", "capacity": 8, "separationSqrtFalloff": false}`,
		},
		{
			name:   "yaml",
			format: ".yaml",
			doc:    "numBoids: 10\nperceptionShape: square\ncapacity: 8\nseparationSqrtFalloff: false\n",
		},
		{
			name:   "yml",
			format: ".YML",
			doc:    "numBoids: 10\nperceptionShape: square\ncapacity: 8\nseparationSqrtFalloff: false\n",
		},
		{
			name:   "toml",
			format: ".toml",
			doc:    "numBoids = 10\nperceptionShape = \"square\"\ncapacity = 8\nseparationSqrtFalloff = false\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.doc), tt.format)
			require.NoError(t, err)

			assert.Equal(t, 10, cfg.NumBoids)
			assert.Equal(t, PerceptionSquare, cfg.PerceptionShape)
			assert.Equal(t, 8, cfg.Capacity)
			assert.False(t, cfg.SeparationSqrtFalloff)

			// untouched keys keep their defaults
			def := DefaultConfig()
			assert.Equal(t, def.WorldWidth, cfg.WorldWidth)
			assert.Equal(t, def.PerceptionRadius, cfg.PerceptionRadius)
			assert.Equal(t, def.CohesionSensitivity, cfg.CohesionSensitivity)
		})
	}
}

func TestParseConfig_EmptyDocumentIsDefault(t *testing.T) {
	cfg, err := ParseConfig([]byte(""), ".yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfig_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		format string
		doc    string
	}{
		{"unknown key", ".json", `{"numBirds": 10}`},
		{"wrong type", ".json", `{"numBoids": "many"}`},
		{"zero capacity", ".yaml", "capacity: 0\n"},
		{"fractional capacity", ".json", `{"capacity": 2.5}`},
		{"negative radius", ".toml", "perceptionRadius = -1.0\n"},
		{"bad shape", ".json", `{"perceptionShape": "hexagon"}`},
		{"speeds reversed", ".json", `{"minInitialSpeed": 5, "maxInitialSpeed": 1}`},
		{"unsupported format", ".ini", "numBoids=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.doc), tt.format)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseConfig_Malformed(t *testing.T) {
	_, err := ParseConfig([]byte("numBoids: [1"), ".yaml")
	require.Error(t, err)

	_, err = ParseConfig([]byte("numBoids = "), ".toml")
	require.Error(t, err)

	_, err = ParseConfig([]byte("{"), ".json")
	require.Error(t, err)
}

func TestValidate_CollectsEveryError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorldWidth = 0
	cfg.Capacity = 0
	cfg.MaxForce = -1

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "worldWidth")
	assert.Contains(t, err.Error(), "capacity")
	assert.Contains(t, err.Error(), "maxForce")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boids.yaml")
	require.NoError(t, os.WriteFile(path, []byte("numBoids: 42\nseed: 9\nparallel: true\nworkers: 2\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.NumBoids)
	assert.Equal(t, uint64(9), cfg.Seed)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, 2, cfg.Workers)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestConfig_Converters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AlignmentSensitivity = 0.5
	cfg.SeparationBlend = 2

	s := cfg.Sensitivity()
	assert.Equal(t, 0.5, s.Alignment)
	assert.Equal(t, cfg.CohesionSensitivity, s.Cohesion)

	r := cfg.Rules()
	assert.Equal(t, 2.0, r.SeparationBlend)
	assert.Equal(t, cfg.SeparationSqrtFalloff, r.SeparationSqrtFalloff)
}
