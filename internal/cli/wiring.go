package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/storyforge/storyforge/internal/config"
	"github.com/storyforge/storyforge/internal/db"
	"github.com/storyforge/storyforge/internal/engine"
	"github.com/storyforge/storyforge/internal/llm"
	"github.com/storyforge/storyforge/internal/run"
	"github.com/storyforge/storyforge/internal/story"
)

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		lines := make([]string, 0, len(errs))
		for _, e := range errs {
			lines = append(lines, "  - "+e.Error())
		}
		return nil, fmt.Errorf("invalid configuration:\n%s", strings.Join(lines, "\n"))
	}
	return cfg, nil
}

func storageDir(cfg *config.Config) (string, error) {
	if cfg.Storage.Dir != "" {
		return cfg.Storage.Dir, nil
	}
	return config.DefaultStorageDir()
}

// newCoordinator wires config -> store -> model client -> engine ->
// coordinator. The returned cleanup closes the event journal.
func newCoordinator() (*run.Coordinator, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	set, err := run.BuildSet(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build phase set: %w", err)
	}

	dir, err := storageDir(cfg)
	if err != nil {
		return nil, nil, err
	}
	store := story.NewStore(dir)

	policy := engine.DefaultRetryPolicy()
	if cfg.Pipeline.Defaults.Retries > 0 {
		policy.Budget = cfg.Pipeline.Defaults.Retries
	}
	if cfg.Pipeline.Defaults.Backoff != "" {
		if d, err := time.ParseDuration(cfg.Pipeline.Defaults.Backoff); err == nil {
			policy.Backoff = d
		}
	}

	engOpts := []engine.Option{
		engine.WithRetryPolicy(policy),
		engine.WithProgress(os.Stdout),
	}
	if cfg.Pipeline.Defaults.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Pipeline.Defaults.Timeout); err == nil {
			engOpts = append(engOpts, engine.WithDefaultTimeout(d))
		}
	}
	eng := engine.New(llm.NewClient(cfg.Models), engOpts...)

	opts := []run.Option{}
	if cfg.Pipeline.Defaults.MaxConcurrent > 1 {
		opts = append(opts, run.WithMaxConcurrent(cfg.Pipeline.Defaults.MaxConcurrent))
	}

	cleanup := func() {}
	if journal, err := openJournal(); err == nil {
		opts = append(opts, run.WithEvents(journal))
		cleanup = func() { journal.Close() }
	} else {
		slog.Warn("event journal unavailable", "error", err)
	}

	return run.New(store, set, eng, opts...), cleanup, nil
}

func openJournal() (*db.DB, error) {
	path, err := db.DefaultDBPath()
	if err != nil {
		return nil, err
	}
	journal, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := journal.Migrate(); err != nil {
		journal.Close()
		return nil, err
	}
	return journal, nil
}

// parseInputs turns repeated key=value flags into a map.
func parseInputs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid input %q: want key=value", pair)
		}
		out[k] = v
	}
	return out, nil
}
