package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a storyforge configuration from the given YAML file
// path. After parsing, it applies defaults to phases that don't specify
// their own values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches standard locations and loads the first config found.
// Search order: ./storyforge.yaml, ~/.storyforge/config.yaml. When none
// exists, the built-in pulp pipeline is returned.
func LoadDefault() (*Config, error) {
	candidates := []string{"storyforge.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".storyforge", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := Builtin()
	return cfg, nil
}

// applyDefaults fills pipeline-level defaults into declarations that leave
// them unset, and backstops the run-level limits.
func applyDefaults(cfg *Config) {
	p := &cfg.Pipeline

	if p.Defaults.Timeout == "" {
		p.Defaults.Timeout = "5m"
	}
	if p.Defaults.Retries <= 0 {
		p.Defaults.Retries = 3
	}
	if p.Defaults.Backoff == "" {
		p.Defaults.Backoff = "2s"
	}
	if p.Defaults.MaxConcurrent <= 0 {
		p.Defaults.MaxConcurrent = 1
	}

	for i := range p.Phases {
		ph := &p.Phases[i]
		if ph.Timeout == "" {
			ph.Timeout = p.Defaults.Timeout
		}
		if ph.Retries <= 0 {
			ph.Retries = p.Defaults.Retries
		}
	}
}

// Builtin returns the default pulp fiction pipeline: six phases mirroring
// the classic research-to-edit flow, each assigned to its own role.
func Builtin() *Config {
	cfg := &Config{
		Pipeline: Pipeline{
			Name: "pulp",
			Phases: []PhaseDecl{
				{ID: "research", Role: "researcher", Output: "research_brief"},
				{ID: "worldbuilding", Role: "worldbuilder", Output: "world_description", DependsOn: []string{"research"}},
				{ID: "characters", Role: "character_creator", Output: "character_profiles", DependsOn: []string{"research", "worldbuilding"}},
				{ID: "plot", Role: "plotter", Output: "plot_outline", DependsOn: []string{"worldbuilding", "characters"}},
				{ID: "draft", Role: "writer", Output: "chapter_text", DependsOn: []string{"worldbuilding", "characters", "plot"}},
				{ID: "final", Role: "editor", Output: "edited_chapter", DependsOn: []string{"draft"}},
			},
		},
		Models: map[string]ModelEndpoint{},
	}

	// All six roles default to a local OpenAI-compatible endpoint.
	for _, role := range []string{"researcher", "worldbuilder", "character_creator", "plotter", "writer", "editor"} {
		cfg.Models[role] = ModelEndpoint{
			Provider: "openai-compatible",
			BaseURL:  "http://localhost:11434/v1",
			Model:    "llama3",
		}
	}

	applyDefaults(cfg)
	return cfg
}

// DefaultStorageDir returns ~/.storyforge, creating it if needed.
func DefaultStorageDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".storyforge")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
