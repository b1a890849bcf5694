// Package worker turns ledger events into monthly report exports. Events for
// the same (owner, year, month) are coalesced so a burst of edits produces
// one export.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/NT912/FinWise-sub000/internal/core"
	"github.com/NT912/FinWise-sub000/internal/events"
	"github.com/NT912/FinWise-sub000/internal/export"
	applog "github.com/NT912/FinWise-sub000/internal/log"
)

// SummarySource reads month totals from storage.
type SummarySource interface {
	SummarizeMonth(ctx context.Context, owner string, year, month int) (core.MonthlySummary, error)
}

type periodKey struct {
	owner string
	year  int
	month int
}

type ExportWorker struct {
	source   SummarySource
	writer   export.SummaryWriter
	debounce time.Duration
	logger   *applog.Logger

	mu      sync.Mutex
	pending map[periodKey]struct{}
}

func NewExportWorker(source SummarySource, writer export.SummaryWriter, debounce time.Duration, logger *applog.Logger) *ExportWorker {
	return &ExportWorker{
		source:   source,
		writer:   writer,
		debounce: debounce,
		logger:   logger.WithComponent(applog.ComponentWorker),
		pending:  make(map[periodKey]struct{}),
	}
}

// HandleEvent marks the event's month dirty. Safe for concurrent use; the
// consumer loop calls it per delivery.
func (w *ExportWorker) HandleEvent(ev events.LedgerEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[periodKey{owner: ev.OwnerID, year: ev.Year, month: ev.Month}] = struct{}{}
	return nil
}

// Run flushes dirty months on every debounce tick until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// flush exports every dirty month. A failed export is re-marked dirty and
// retried on the next tick.
func (w *ExportWorker) flush(ctx context.Context) {
	w.mu.Lock()
	dirty := w.pending
	w.pending = make(map[periodKey]struct{})
	w.mu.Unlock()

	for key := range dirty {
		summary, err := w.source.SummarizeMonth(ctx, key.owner, key.year, key.month)
		if err == nil {
			err = w.writer.WriteMonthlySummary(ctx, summary)
		}
		if err != nil {
			w.logger.OpError(ctx, applog.OpExport, err,
				applog.FieldOwnerID, key.owner,
				applog.FieldYear, key.year,
				applog.FieldMonth, key.month)
			w.mu.Lock()
			w.pending[key] = struct{}{}
			w.mu.Unlock()
			continue
		}
		w.logger.InfoContext(ctx, "month summary exported",
			applog.FieldOwnerID, key.owner,
			applog.FieldYear, key.year,
			applog.FieldMonth, key.month)
	}
}

// PendingCount reports how many months are waiting for export.
func (w *ExportWorker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
