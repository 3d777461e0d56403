// Package presets loads optional persona definitions from a YAML file and
// seeds them into the companion store at startup.
package presets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/kindred/internal/companion"
	"github.com/scrypster/kindred/internal/storage"
	"github.com/scrypster/kindred/pkg/types"
)

// Persona is one entry in personas.yaml.
type Persona struct {
	Name      string   `yaml:"name"`
	Archetype string   `yaml:"archetype"`
	Model     string   `yaml:"model"`
	Rules     []string `yaml:"rules"`
	Traits    struct {
		Warmth       *float64 `yaml:"warmth"`
		Humor        *float64 `yaml:"humor"`
		Intelligence *float64 `yaml:"intelligence"`
		Mystery      *float64 `yaml:"mystery"`
		Ambition     *float64 `yaml:"ambition"`
	} `yaml:"traits"`
}

// File is the top-level document shape.
type File struct {
	Personas []Persona `yaml:"personas"`
}

// Load parses a personas file. A missing file is not an error; presets are
// optional.
func Load(path string) ([]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading personas file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing personas file: %w", err)
	}
	return file.Personas, nil
}

// Seed creates a companion for each persona that does not already exist by
// name. Existing names are skipped so re-seeding is idempotent.
func Seed(ctx context.Context, store storage.CompanionStore, personas []Persona) (int, error) {
	if len(personas) == 0 {
		return 0, nil
	}

	existing, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing companions: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, summary := range existing {
		known[summary.Name] = true
	}

	seeded := 0
	for _, persona := range personas {
		if persona.Name == "" {
			log.Printf("WARNING: skipping persona with empty name")
			continue
		}
		if known[persona.Name] {
			continue
		}

		profile := companion.NewProfile(persona.Name, types.ParseArchetype(persona.Archetype), companion.TraitOverrides{
			Warmth:       persona.Traits.Warmth,
			Humor:        persona.Traits.Humor,
			Intelligence: persona.Traits.Intelligence,
			Mystery:      persona.Traits.Mystery,
			Ambition:     persona.Traits.Ambition,
		}, persona.Rules, persona.Model)

		if err := store.Create(ctx, profile); err != nil {
			return seeded, fmt.Errorf("seeding persona %q: %w", persona.Name, err)
		}
		known[persona.Name] = true
		seeded++
	}
	return seeded, nil
}
