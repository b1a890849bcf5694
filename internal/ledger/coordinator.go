// Package ledger coordinates the composite mutation of the transaction log,
// the per-category aggregates, and the derived balance. Every create, update,
// and delete runs as one atomic unit of work: the three writes commit
// together or not at all, and write contention is retried here, never by
// callers of the storage layer.
package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/NT912/FinWise-sub000/internal/core"
	"github.com/NT912/FinWise-sub000/internal/events"
	applog "github.com/NT912/FinWise-sub000/internal/log"
	"github.com/NT912/FinWise-sub000/internal/storage"
)

// Store is the slice of the storage layer the coordinator needs.
type Store interface {
	RunInTx(ctx context.Context, fn func(q *storage.Queries) error) error
	GetTransaction(ctx context.Context, owner string, id int64) (*core.Transaction, error)
	ListTransactions(ctx context.Context, owner string, f core.TransactionFilter) ([]core.Transaction, error)
}

// Publisher emits post-commit ledger events. May be nil.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, ev events.LedgerEvent) error
}

// Config holds the conflict-retry policy.
type Config struct {
	// MaxAttempts bounds total tries per operation, first attempt included.
	MaxAttempts int
	// RetryBase is the initial backoff between attempts.
	RetryBase time.Duration
	// CommitTimeout bounds one attempt; expiry counts as a conflict.
	CommitTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		RetryBase:     25 * time.Millisecond,
		CommitTimeout: 5 * time.Second,
	}
}

type Coordinator struct {
	store     Store
	publisher Publisher
	cfg       Config
	logger    *applog.Logger
}

// New creates a Coordinator. publisher may be nil to disable events.
func New(store Store, publisher Publisher, cfg Config, logger *applog.Logger) *Coordinator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Coordinator{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.WithComponent(applog.ComponentLedger),
	}
}

// CreateParams holds the caller-supplied fields of a new transaction.
type CreateParams struct {
	OwnerID    string
	Title      string
	Amount     decimal.Decimal
	OccurredOn core.Date
	CategoryID int64
	Kind       core.Kind
	Note       string
}

// Patch holds the fields an update may change; nil fields stay untouched.
type Patch struct {
	Title      *string
	Amount     *decimal.Decimal
	OccurredOn *core.Date
	CategoryID *int64
	Kind       *core.Kind
	Note       *string
}

// Create validates the input and atomically inserts the transaction, bumps
// the category aggregates by (+1, +amount), and applies the signed amount to
// the owner's balance.
func (c *Coordinator) Create(ctx context.Context, p CreateParams) (*core.Transaction, error) {
	t := &core.Transaction{
		OwnerID:    p.OwnerID,
		Title:      p.Title,
		Amount:     p.Amount,
		OccurredOn: p.OccurredOn,
		CategoryID: p.CategoryID,
		Kind:       p.Kind,
		Note:       p.Note,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	err := c.commit(ctx, applog.OpCreate, func(ctx context.Context, q *storage.Queries) error {
		cat, err := q.GetCategory(ctx, t.OwnerID, t.CategoryID)
		if err != nil {
			return err
		}
		if cat.Kind != t.Kind {
			return core.NewValidationError("category", "kind does not match transaction kind")
		}
		if err := q.InsertTransaction(ctx, t); err != nil {
			return err
		}
		if err := q.ApplyCategoryDelta(ctx, cat.ID, 1, t.Amount); err != nil {
			return err
		}
		return q.ApplyBalanceDelta(ctx, t.OwnerID, t.SignedAmount())
	})
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "transaction created",
		applog.FieldOwnerID, t.OwnerID,
		applog.FieldTransactionID, t.ID,
		applog.FieldKind, string(t.Kind),
		applog.FieldAmount, t.Amount.String())
	c.publish(ctx, events.OpCreate, t)
	return t, nil
}

// Update applies the patch atomically together with the category delta(s)
// and the balance delta newSigned-oldSigned. A category change decrements
// the old category by (-1, -oldAmount) and increments the new one by
// (+1, +newAmount); otherwise the single category moves by
// (0, newAmount-oldAmount).
func (c *Coordinator) Update(ctx context.Context, owner string, id int64, p Patch) (*core.Transaction, error) {
	var updated *core.Transaction

	err := c.commit(ctx, applog.OpUpdate, func(ctx context.Context, q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, owner, id)
		if err != nil {
			return err
		}

		next := *old
		if p.Title != nil {
			next.Title = *p.Title
		}
		if p.Amount != nil {
			next.Amount = *p.Amount
		}
		if p.OccurredOn != nil {
			next.OccurredOn = *p.OccurredOn
		}
		if p.CategoryID != nil {
			next.CategoryID = *p.CategoryID
		}
		if p.Kind != nil {
			next.Kind = *p.Kind
		}
		if p.Note != nil {
			next.Note = *p.Note
		}
		if err := next.Validate(); err != nil {
			return err
		}

		cat, err := q.GetCategory(ctx, owner, next.CategoryID)
		if err != nil {
			return err
		}
		if cat.Kind != next.Kind {
			return core.NewValidationError("category", "kind does not match transaction kind")
		}

		if next.CategoryID != old.CategoryID {
			if err := q.ApplyCategoryDelta(ctx, old.CategoryID, -1, old.Amount.Neg()); err != nil {
				return err
			}
			if err := q.ApplyCategoryDelta(ctx, next.CategoryID, 1, next.Amount); err != nil {
				return err
			}
		} else if !next.Amount.Equal(old.Amount) {
			if err := q.ApplyCategoryDelta(ctx, old.CategoryID, 0, next.Amount.Sub(old.Amount)); err != nil {
				return err
			}
		}

		balanceDelta := next.SignedAmount().Sub(old.SignedAmount())
		if !balanceDelta.IsZero() {
			if err := q.ApplyBalanceDelta(ctx, owner, balanceDelta); err != nil {
				return err
			}
		}

		if err := q.UpdateTransaction(ctx, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "transaction updated",
		applog.FieldOwnerID, owner,
		applog.FieldTransactionID, id)
	c.publish(ctx, events.OpUpdate, updated)
	return updated, nil
}

// Delete atomically removes the transaction and reverses its category and
// balance contributions.
func (c *Coordinator) Delete(ctx context.Context, owner string, id int64) error {
	var deleted *core.Transaction

	err := c.commit(ctx, applog.OpDelete, func(ctx context.Context, q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, owner, id)
		if err != nil {
			return err
		}
		if err := q.ApplyCategoryDelta(ctx, old.CategoryID, -1, old.Amount.Neg()); err != nil {
			return err
		}
		if err := q.ApplyBalanceDelta(ctx, owner, old.SignedAmount().Neg()); err != nil {
			return err
		}
		if err := q.DeleteTransaction(ctx, owner, id); err != nil {
			return err
		}
		deleted = old
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "transaction deleted",
		applog.FieldOwnerID, owner,
		applog.FieldTransactionID, id)
	c.publish(ctx, events.OpDelete, deleted)
	return nil
}

// Get returns one owned transaction.
func (c *Coordinator) Get(ctx context.Context, owner string, id int64) (*core.Transaction, error) {
	return c.store.GetTransaction(ctx, owner, id)
}

// List returns the owner's transactions, newest first.
func (c *Coordinator) List(ctx context.Context, owner string, f core.TransactionFilter) ([]core.Transaction, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From.Time) {
		return nil, core.NewValidationError("date range", "end before start")
	}
	return c.store.ListTransactions(ctx, owner, f)
}

// commit runs fn as one storage transaction, retrying conflicts with
// exponential backoff up to the configured attempt bound. Validation,
// not-found, and invariant failures stop immediately. Each attempt gets its
// own deadline; expiry is treated as contention.
func (c *Coordinator) commit(ctx context.Context, op string, fn func(ctx context.Context, q *storage.Queries) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.CommitTimeout)
		defer cancel()

		err := c.store.RunInTx(attemptCtx, func(q *storage.Queries) error {
			return fn(attemptCtx, q)
		})
		if err == nil {
			return nil
		}
		if core.IsConflict(err) {
			c.logger.WarnContext(ctx, "commit conflict",
				applog.FieldOperation, op,
				applog.FieldAttempt, attempt,
				applog.FieldError, err)
			return err
		}
		return backoff.Permanent(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.RetryBase
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.cfg.MaxAttempts-1)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		if core.IsConflict(err) {
			c.logger.OpError(ctx, op, err, applog.FieldAttempt, attempt)
		}
		return err
	}
	return nil
}

// publish emits a post-commit event. Best effort: failures are logged and
// swallowed, the committed write stands either way.
func (c *Coordinator) publish(ctx context.Context, op string, t *core.Transaction) {
	if c.publisher == nil || t == nil {
		return
	}
	year, month := t.OccurredOn.YearMonth()
	ev := events.NewLedgerEvent(t.OwnerID, op, t.ID, year, month)
	if err := c.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		c.logger.WarnContext(ctx, "publish ledger event failed",
			applog.FieldOperation, op,
			applog.FieldTransactionID, strconv.FormatInt(t.ID, 10),
			applog.FieldError, err)
	}
}
