// Package export defines the outbound port for monthly report export.
package export

import (
	"context"

	"github.com/NT912/FinWise-sub000/internal/core"
)

// SummaryWriter receives one monthly summary row per export.
type SummaryWriter interface {
	WriteMonthlySummary(ctx context.Context, s core.MonthlySummary) error
}
