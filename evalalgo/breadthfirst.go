package evalalgo

import (
	"context"

	"go.uber.org/zap"

	"github.com/gitrdm/neads/activation"
	"github.com/gitrdm/neads/evalstate"
)

// BreadthFirst drives activations to MEMORY one Level() at a time, recovered
// from the original implementation's bttb_algorithm.py per spec.md §9: it
// never spills, and it advances its level counter only once no unprocessed
// activation remains at the current level.
type BreadthFirst struct {
	log *zap.Logger
}

// NewBreadthFirst builds a BreadthFirst algorithm.
func NewBreadthFirst(log *zap.Logger) *BreadthFirst {
	if log == nil {
		log = zap.NewNop()
	}
	return &BreadthFirst{log: log}
}

// Run processes every activation at level 0, then level 1, and so on,
// re-scanning the (possibly trigger-grown) activation list at each level
// until no unprocessed activation remains at the current or any higher
// level. An activation a trigger adds below the current level is not
// scanned; it reaches MEMORY only as a parent or through collectResults.
func (b *BreadthFirst) Run(ctx context.Context, s *evalstate.EvaluationState) (map[activation.Activation]any, error) {
	processed := map[activation.Activation]struct{}{}
	level := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frontier := false
		higherRemains := false
		for _, act := range s.Graph().Activations() {
			if _, done := processed[act]; done {
				continue
			}
			switch {
			case act.Level() == level:
				if err := driveToMemory(s, act); err != nil {
					return nil, err
				}
				processed[act] = struct{}{}
				frontier = true
			case act.Level() > level:
				higherRemains = true
			}
		}
		if frontier {
			continue // re-scan: this level may have grown via triggers
		}
		if !higherRemains {
			break
		}
		level++
	}
	return collectResults(s)
}
