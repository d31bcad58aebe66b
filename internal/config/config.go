package config

import (
	"fmt"
	"os"

	"github.com/claude/replog/internal/models"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// DataDir holds all persisted state: one directory per user with the
	// month-partitioned workout logs and the weight database, plus the
	// profile file with the last-used display name.
	DataDir string `yaml:"data_dir"`

	// DefaultUser is used when no profile file exists yet.
	DefaultUser string `yaml:"default_user"`

	// Tags seeds the keyword dictionaries at startup. The dictionaries are
	// runtime-extendable but never written back to disk.
	Tags TagsConfig `yaml:"tags"`
}

type TagsConfig struct {
	Modalities   map[string][]string `yaml:"modalities"`
	MuscleGroups map[string][]string `yaml:"muscle_groups"`
}

// Default returns the built-in configuration used when no config file is
// given: data under ~/.replog and the stock keyword dictionaries.
func Default() *Config {
	dataDir := ".replog"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = home + "/.replog"
	}
	return &Config{
		DataDir:     dataDir,
		DefaultUser: "athlete",
		Tags: TagsConfig{
			Modalities: map[string][]string{
				string(models.ModalityCardio):   {"run", "jog", "swim", "cycle", "spin", "rowing machine", "hiit"},
				string(models.ModalityStrength): {"lift", "squat", "bench", "deadlift", "press", "curl", "pull up", "push up"},
			},
			MuscleGroups: map[string][]string{
				string(models.MuscleLegs):           {"leg", "squat", "lunge", "calf"},
				string(models.MuscleChest):          {"chest", "bench", "push up", "fly"},
				string(models.MuscleBack):           {"back", "row", "pull up", "lat"},
				string(models.MuscleShoulders):      {"shoulder", "press", "raise"},
				string(models.MuscleArms):           {"arm", "curl", "tricep", "bicep"},
				string(models.MuscleCore):           {"core", "abs", "plank", "crunch"},
				string(models.MusclePosteriorChain): {"deadlift", "glute", "hamstring", "hip thrust"},
			},
		},
	}
}

// Load reads config from a YAML file, then applies environment variable
// overrides:
//
//	REPLOG_DATA_DIR, REPLOG_USER
//
// Tag sections left empty in the file fall back to the built-in dictionaries.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	def := Default()
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.DefaultUser == "" {
		cfg.DefaultUser = def.DefaultUser
	}
	if len(cfg.Tags.Modalities) == 0 {
		cfg.Tags.Modalities = def.Tags.Modalities
	}
	if len(cfg.Tags.MuscleGroups) == 0 {
		cfg.Tags.MuscleGroups = def.Tags.MuscleGroups
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REPLOG_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("REPLOG_USER"); v != "" {
		cfg.DefaultUser = v
	}
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.DefaultUser == "" {
		return fmt.Errorf("default_user is required")
	}
	seen := map[string]string{}
	for name, keywords := range c.Tags.Modalities {
		if _, err := models.ParseModality(name); err != nil {
			return err
		}
		for _, kw := range keywords {
			if kw == "" {
				return fmt.Errorf("modality %s has an empty keyword", name)
			}
			if prev, ok := seen[kw]; ok && prev != name {
				return fmt.Errorf("keyword %q assigned to both %s and %s", kw, prev, name)
			}
			seen[kw] = name
		}
	}
	for name, keywords := range c.Tags.MuscleGroups {
		if _, err := models.ParseMuscleGroup(name); err != nil {
			return err
		}
		for _, kw := range keywords {
			if kw == "" {
				return fmt.Errorf("muscle group %s has an empty keyword", name)
			}
		}
	}
	return nil
}
