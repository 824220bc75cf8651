package evalalgo

import (
	"go.uber.org/zap"

	"github.com/gitrdm/neads/activation"
)

// spillFields names the fields logged around a DataNode.store() call issued
// by the budget-aware algorithm, the way teranos-QNTX's logger package
// wraps zap with its own small field helpers rather than importing that
// package wholesale (spec.md §9 ambient-logging note, mirrored from
// evalstate/logger.go).
func spillFields(act activation.Activation, usedBytes, budgetBytes uint64) []zap.Field {
	return []zap.Field{
		zap.String("activation", act.String()),
		zap.Uint64("used_bytes", usedBytes),
		zap.Uint64("budget_bytes", budgetBytes),
	}
}
