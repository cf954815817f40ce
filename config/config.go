// Package config loads the YAML configuration of the voxnav service and CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/o0olele/voxnav-go/builder"
	"github.com/o0olele/voxnav-go/geometry"
	"github.com/o0olele/voxnav-go/math32"
	"github.com/o0olele/voxnav-go/query"
	"github.com/o0olele/voxnav-go/voxel"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Config is the top-level configuration.
type Config struct {
	Navigation NavigationConfig `yaml:"navigation"`
	World      WorldConfig      `yaml:"world"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// NavigationConfig is the agent profile and hierarchy depth.
type NavigationConfig struct {
	Levels              int   `yaml:"levels" validate:"min=1,max=32"`
	MaxJumpHeight       int32 `yaml:"max_jump_height" validate:"min=0"`
	MaxFallHeight       int32 `yaml:"max_fall_height" validate:"min=0"`
	AgentHeight         int32 `yaml:"agent_height" validate:"min=1"`
	ProjectionCacheSize int   `yaml:"projection_cache_size" validate:"min=1"`
}

// WorldConfig describes the in-memory voxel world.
type WorldConfig struct {
	Size      math32.Vector3i   `yaml:"size"`
	VoxelSize float32           `yaml:"voxel_size" validate:"gt=0"`
	Origin    math32.Vector3    `yaml:"origin"`
	Solids    []geometry.IntBox `yaml:"solids"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns a 32x32x8 world with a solid floor.
func Default() *Config {
	return &Config{
		Navigation: NavigationConfig{
			Levels:              4,
			MaxJumpHeight:       1,
			MaxFallHeight:       2,
			AgentHeight:         2,
			ProjectionCacheSize: 4096,
		},
		World: WorldConfig{
			Size:      math32.Vector3i{X: 32, Y: 32, Z: 8},
			VoxelSize: 1,
			Solids: []geometry.IntBox{
				{Max: math32.Vector3i{X: 31, Y: 31}},
			},
		},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and that the world has a positive size.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := voxel.CheckSize(c.World.Size); err != nil {
		return fmt.Errorf("%w: world: %w", ErrInvalidConfig, err)
	}
	for i, box := range c.World.Solids {
		if !box.IsValid() {
			return fmt.Errorf("%w: solids[%d] %s has min above max", ErrInvalidConfig, i, box)
		}
	}
	return nil
}

// BuilderOptions returns the builder options for the navigation section.
func (c *Config) BuilderOptions(logger *slog.Logger) builder.Options {
	return builder.Options{
		Levels:        c.Navigation.Levels,
		MaxJumpHeight: c.Navigation.MaxJumpHeight,
		MaxFallHeight: c.Navigation.MaxFallHeight,
		AgentHeight:   c.Navigation.AgentHeight,
		Logger:        logger,
	}
}

// QueryOptions returns the navigation manager options.
func (c *Config) QueryOptions(logger *slog.Logger) query.Options {
	return query.Options{
		Builder:             c.BuilderOptions(logger),
		ProjectionCacheSize: c.Navigation.ProjectionCacheSize,
		Logger:              logger,
	}
}

// NewWorld creates the voxel grid and fills the configured solid boxes.
func (c *Config) NewWorld() (*voxel.Grid, error) {
	grid, err := voxel.NewGrid(c.World.Size, c.World.VoxelSize, c.World.Origin)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, box := range c.World.Solids {
		grid.FillBox(box, true)
	}
	return grid, nil
}

// SlogLevel maps the log level name to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
