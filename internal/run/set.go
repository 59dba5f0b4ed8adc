package run

import (
	"fmt"
	"time"

	"github.com/storyforge/storyforge/internal/config"
	"github.com/storyforge/storyforge/internal/phase"
)

// BuildSet converts the configured phase declarations into a validated
// phase set. Defaults are assumed to be merged already (config.Load does
// this), so every declaration carries its effective timeout and budget.
func BuildSet(cfg *config.Config) (*phase.Set, error) {
	phases := make([]phase.Phase, 0, len(cfg.Pipeline.Phases))
	for _, d := range cfg.Pipeline.Phases {
		p := phase.Phase{
			ID:        d.ID,
			Role:      d.Role,
			Output:    d.Output,
			DependsOn: d.DependsOn,
			Retries:   d.Retries,
		}
		if d.Timeout != "" {
			t, err := time.ParseDuration(d.Timeout)
			if err != nil {
				return nil, fmt.Errorf("phase %s: parse timeout: %w", d.ID, err)
			}
			p.Timeout = t
		}
		phases = append(phases, p)
	}

	set, err := phase.NewSet(phases)
	if err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}
