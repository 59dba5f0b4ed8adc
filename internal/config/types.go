package config

// Config is the top-level configuration structure parsed from storyforge YAML.
type Config struct {
	Pipeline Pipeline                 `yaml:"pipeline"`
	Models   map[string]ModelEndpoint `yaml:"models"`
	Storage  Storage                  `yaml:"storage"`
}

// Pipeline defines the generation pipeline: metadata, defaults, and phases.
type Pipeline struct {
	Name     string      `yaml:"name"`
	Defaults Defaults    `yaml:"defaults"`
	Phases   []PhaseDecl `yaml:"phases"`
}

// Defaults holds values applied to phases that don't specify their own,
// plus run-level execution limits. Resolved once at run start.
type Defaults struct {
	Timeout       string `yaml:"timeout"`        // per-phase wall-clock budget, e.g. "5m"
	Retries       int    `yaml:"retries"`        // attempt budget per phase
	Backoff       string `yaml:"backoff"`        // pause between attempts, e.g. "2s"
	MaxConcurrent int    `yaml:"max_concurrent"` // independent phases dispatched at once
}

// PhaseDecl declares one pipeline phase in configuration.
type PhaseDecl struct {
	ID        string   `yaml:"id"`
	Role      string   `yaml:"role"`
	Output    string   `yaml:"output"`
	DependsOn []string `yaml:"depends_on"`
	Timeout   string   `yaml:"timeout"`
	Retries   int      `yaml:"retries"`
}

// ModelEndpoint maps a role to a concrete model serving endpoint.
type ModelEndpoint struct {
	Provider  string   `yaml:"provider"` // "openai-compatible" is the only recognized value
	BaseURL   string   `yaml:"base_url"`
	Model     string   `yaml:"model"`
	APIKeyEnv string   `yaml:"api_key_env"` // env var holding the bearer token, optional
	MaxTokens int      `yaml:"max_tokens"`
	Temp      *float64 `yaml:"temperature"`
}

// Storage configures where run state lives.
type Storage struct {
	Dir string `yaml:"dir"` // defaults to ~/.storyforge
}
