package evalstate

import (
	"go.uber.org/zap"

	"github.com/gitrdm/neads/activation"
)

// Small named field constructors, the way teranos-QNTX's logger package
// wraps zap with its own field helpers — kept local to this package rather
// than importing that package wholesale, per spec.md §9's ambient-logging
// note.

func triggerFields(kind string, act activation.Activation, created int) []zap.Field {
	return []zap.Field{
		zap.String("trigger_kind", kind),
		zap.String("activation", act.String()),
		zap.Int("activations_created", created),
	}
}

func graphTriggerFields(created int) []zap.Field {
	return []zap.Field{
		zap.String("trigger_kind", "graph"),
		zap.Int("activations_created", created),
	}
}

func stateFields(act activation.Activation, from, to string) []zap.Field {
	return []zap.Field{
		zap.String("activation", act.String()),
		zap.String("from_state", from),
		zap.String("to_state", to),
	}
}
