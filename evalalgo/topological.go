package evalalgo

import (
	"context"

	"go.uber.org/zap"

	"github.com/gitrdm/neads/activation"
	"github.com/gitrdm/neads/evalstate"
)

// Topological drives every activation to MEMORY in dependency order and
// never spills — the "simpler, non-spilling alternative" spec.md §4.6
// allows alongside the reference complex algorithm.
type Topological struct {
	log *zap.Logger
}

// NewTopological builds a Topological algorithm.
func NewTopological(log *zap.Logger) *Topological {
	if log == nil {
		log = zap.NewNop()
	}
	return &Topological{log: log}
}

// Run drives every activation present once the graph is stable to MEMORY,
// re-scanning the (possibly trigger-grown) activation list until a full
// pass makes no further progress, then collects results.
func (t *Topological) Run(ctx context.Context, s *evalstate.EvaluationState) (map[activation.Activation]any, error) {
	processed := map[activation.Activation]struct{}{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		acts := s.Graph().Activations()
		progressed := false
		for _, act := range acts {
			if _, done := processed[act]; done {
				continue
			}
			if err := driveToMemory(s, act); err != nil {
				return nil, err
			}
			processed[act] = struct{}{}
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return collectResults(s)
}
