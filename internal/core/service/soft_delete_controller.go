package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bornholm/paranoid/internal/core/callback"
	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/port"
	"github.com/bornholm/paranoid/internal/metrics"
	"github.com/pkg/errors"
)

type SoftDeleteControllerOptions[T model.Record] struct {
	Clock     func() time.Time
	Callbacks *callback.Chain[T]
}

type SoftDeleteControllerOptionFunc[T model.Record] func(opts *SoftDeleteControllerOptions[T])

func WithSoftDeleteControllerClock[T model.Record](clock func() time.Time) SoftDeleteControllerOptionFunc[T] {
	return func(opts *SoftDeleteControllerOptions[T]) {
		opts.Clock = clock
	}
}

func WithSoftDeleteControllerCallbacks[T model.Record](callbacks *callback.Chain[T]) SoftDeleteControllerOptionFunc[T] {
	return func(opts *SoftDeleteControllerOptions[T]) {
		opts.Callbacks = callbacks
	}
}

func NewSoftDeleteControllerOptions[T model.Record](funcs ...SoftDeleteControllerOptionFunc[T]) *SoftDeleteControllerOptions[T] {
	opts := &SoftDeleteControllerOptions[T]{
		Clock:     func() time.Time { return time.Now().UTC() },
		Callbacks: callback.NewChain[T](),
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// SoftDeleteController turns delete and destroy requests into deleted_at
// timestamp writes and exposes the scopes selecting live and deleted records.
// Record types that do not implement model.SoftDeletable keep the store
// physical deletion semantics.
type SoftDeleteController[T model.Record] struct {
	store         port.RecordStore[T]
	callbacks     *callback.Chain[T]
	clock         func() time.Time
	softDeletable bool
}

// IsSoftDeletable returns true if the controlled record type opted in to soft deletion.
func (c *SoftDeleteController[T]) IsSoftDeletable() bool {
	return c.softDeletable
}

// Callbacks returns the destroy hook chain of the controller.
func (c *SoftDeleteController[T]) Callbacks() *callback.Chain[T] {
	return c.callbacks
}

// Delete marks the record as deleted without running the destroy hooks.
func (c *SoftDeleteController[T]) Delete(ctx context.Context, record T) (Outcome, error) {
	softDeletable, ok := any(record).(model.SoftDeletable)
	if !ok {
		return c.DeletePermanently(ctx, record)
	}

	if record.IsNewRecord() || softDeletable.DeletedAt() != nil {
		slog.DebugContext(ctx, "ignoring delete of new or already deleted record", slog.String("kind", record.Kind()), slog.String("id", string(record.ID())))
		return OutcomeNotApplicable, nil
	}

	deletedAt := c.clock()

	updated, err := c.store.UpdateAttribute(ctx, record, model.AttrDeletedAt, deletedAt)
	if err != nil {
		return OutcomeFailed, errors.WithStack(err)
	}

	if !updated {
		slog.DebugContext(ctx, "deleted_at write did not update any record", slog.String("kind", record.Kind()), slog.String("id", string(record.ID())))
		return OutcomeFailed, nil
	}

	softDeletable.SetDeletedAt(&deletedAt)

	metrics.Transitions.WithLabelValues(record.Kind(), metrics.TransitionDelete).Inc()

	slog.DebugContext(ctx, "record soft deleted", slog.String("kind", record.Kind()), slog.String("id", string(record.ID())), slog.Time("deleted_at", deletedAt))

	return OutcomeApplied, nil
}

// Destroy runs the destroy hooks around Delete.
func (c *SoftDeleteController[T]) Destroy(ctx context.Context, record T) (Outcome, error) {
	outcome, err := c.runDestroyHooks(ctx, record, c.Delete)
	if err != nil {
		return outcome, errors.WithStack(err)
	}

	return outcome, nil
}

// DeleteStrict is Delete returning ErrNotDestroyed if the record was not deleted.
func (c *SoftDeleteController[T]) DeleteStrict(ctx context.Context, record T) error {
	return c.strict(ctx, "delete", record, c.Delete)
}

// DestroyStrict is Destroy returning ErrNotDestroyed if the record was not destroyed.
func (c *SoftDeleteController[T]) DestroyStrict(ctx context.Context, record T) error {
	return c.strict(ctx, "destroy", record, c.Destroy)
}

// DeletePermanently removes the record from the store, leaving the
// deleted_at timestamp out entirely. Destroy hooks are not executed.
func (c *SoftDeleteController[T]) DeletePermanently(ctx context.Context, record T) (Outcome, error) {
	if record.IsNewRecord() || record.IsRemoved() {
		slog.DebugContext(ctx, "ignoring permanent delete of new or removed record", slog.String("kind", record.Kind()), slog.String("id", string(record.ID())))
		return OutcomeNotApplicable, nil
	}

	deleted, err := c.store.PhysicalDelete(ctx, record)
	if err != nil {
		return OutcomeFailed, errors.WithStack(err)
	}

	if !deleted {
		return OutcomeFailed, nil
	}

	record.MarkRemoved()

	metrics.Transitions.WithLabelValues(record.Kind(), metrics.TransitionPurge).Inc()

	slog.DebugContext(ctx, "record permanently deleted", slog.String("kind", record.Kind()), slog.String("id", string(record.ID())))

	return OutcomeApplied, nil
}

// DestroyPermanently runs the destroy hooks around DeletePermanently.
func (c *SoftDeleteController[T]) DestroyPermanently(ctx context.Context, record T) (Outcome, error) {
	outcome, err := c.runDestroyHooks(ctx, record, c.DeletePermanently)
	if err != nil {
		return outcome, errors.WithStack(err)
	}

	return outcome, nil
}

// DeletePermanentlyStrict is DeletePermanently returning ErrNotDestroyed if the record was not removed.
func (c *SoftDeleteController[T]) DeletePermanentlyStrict(ctx context.Context, record T) error {
	return c.strict(ctx, "delete permanently", record, c.DeletePermanently)
}

// DestroyPermanentlyStrict is DestroyPermanently returning ErrNotDestroyed if the record was not removed.
func (c *SoftDeleteController[T]) DestroyPermanentlyStrict(ctx context.Context, record T) error {
	return c.strict(ctx, "destroy permanently", record, c.DestroyPermanently)
}

// Restore resets the deleted_at timestamp of the record. It returns false
// if the write did not update any stored record.
func (c *SoftDeleteController[T]) Restore(ctx context.Context, record T) (bool, error) {
	softDeletable, ok := any(record).(model.SoftDeletable)
	if !ok {
		return false, errors.Wrapf(ErrNotSoftDeletable, "could not restore %s '%s'", record.Kind(), record.ID())
	}

	updated, err := c.store.UpdateAttribute(ctx, record, model.AttrDeletedAt, nil)
	if err != nil {
		return false, errors.WithStack(err)
	}

	if !updated {
		return false, nil
	}

	softDeletable.SetDeletedAt(nil)

	metrics.Transitions.WithLabelValues(record.Kind(), metrics.TransitionRestore).Inc()

	slog.DebugContext(ctx, "record restored", slog.String("kind", record.Kind()), slog.String("id", string(record.ID())))

	return true, nil
}

// IsDeleted returns true if the record is soft deleted.
func (c *SoftDeleteController[T]) IsDeleted(record T) bool {
	return model.IsDeleted(record)
}

// IsPersisted ignores the deletion state of soft deletable records: a soft
// deleted record is still stored and must be treated as existing.
func (c *SoftDeleteController[T]) IsPersisted(record T) bool {
	if _, ok := any(record).(model.SoftDeletable); ok {
		return !record.IsNewRecord()
	}

	return c.store.Persisted(record)
}

// DefaultScope returns a query excluding soft deleted records.
func (c *SoftDeleteController[T]) DefaultScope() *port.Query {
	query := port.NewQuery()

	if c.softDeletable {
		query = query.WithDefaults(port.IsNull(model.AttrDeletedAt))
	}

	return query
}

// WithDeleted returns a query selecting both live and soft deleted records.
func (c *SoftDeleteController[T]) WithDeleted() *port.Query {
	return c.DefaultScope().Unscoped()
}

// OnlyDeleted returns a query selecting soft deleted records only.
func (c *SoftDeleteController[T]) OnlyDeleted() *port.Query {
	return c.WithDeleted().Where(port.IsNotNull(model.AttrDeletedAt))
}

// Deleted is an alias of OnlyDeleted.
func (c *SoftDeleteController[T]) Deleted() *port.Query {
	return c.OnlyDeleted()
}

// Find returns the records matching the given query, or the default scope if nil.
func (c *SoftDeleteController[T]) Find(ctx context.Context, query *port.Query) ([]T, error) {
	if query == nil {
		query = c.DefaultScope()
	}

	records, err := c.store.Find(ctx, query)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return records, nil
}

// Count returns the number of records matching the given query, or the default scope if nil.
func (c *SoftDeleteController[T]) Count(ctx context.Context, query *port.Query) (int64, error) {
	if query == nil {
		query = c.DefaultScope()
	}

	total, err := c.store.Count(ctx, query)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return total, nil
}

// Get finds a live record by its identity, or returns port.ErrNotFound.
func (c *SoftDeleteController[T]) Get(ctx context.Context, id model.RecordID) (T, error) {
	records, err := c.store.Find(ctx, c.DefaultScope().Where(port.Equals(model.AttrID, string(id))).Limit(1))
	if err != nil {
		return *new(T), errors.WithStack(err)
	}

	if len(records) == 0 {
		return *new(T), errors.Wrapf(port.ErrNotFound, "%s '%s'", c.kind(), id)
	}

	return records[0], nil
}

// GetWithDeleted finds a record by its identity, whatever its deletion state.
func (c *SoftDeleteController[T]) GetWithDeleted(ctx context.Context, id model.RecordID) (T, error) {
	record, err := c.store.Get(ctx, id)
	if err != nil {
		return *new(T), errors.WithStack(err)
	}

	return record, nil
}

func (c *SoftDeleteController[T]) runDestroyHooks(ctx context.Context, record T, op func(ctx context.Context, record T) (Outcome, error)) (Outcome, error) {
	outcome := OutcomeFailed

	succeeded, err := c.callbacks.Run(ctx, record, func(ctx context.Context) (bool, error) {
		o, err := op(ctx, record)
		if err != nil {
			return false, errors.WithStack(err)
		}

		outcome = o

		return o == OutcomeApplied, nil
	})
	if err != nil {
		return OutcomeFailed, errors.WithStack(err)
	}

	if succeeded {
		return OutcomeApplied, nil
	}

	return outcome, nil
}

func (c *SoftDeleteController[T]) strict(ctx context.Context, operation string, record T, op func(ctx context.Context, record T) (Outcome, error)) error {
	outcome, err := op(ctx, record)
	if err != nil {
		return errors.WithStack(err)
	}

	if outcome != OutcomeApplied {
		metrics.NotDestroyed.WithLabelValues(record.Kind(), operation).Inc()
		return errors.Wrapf(ErrNotDestroyed, "could not %s %s '%s' (%s)", operation, record.Kind(), record.ID(), outcome)
	}

	return nil
}

func (c *SoftDeleteController[T]) kind() string {
	var zero T
	if r, ok := any(zero).(model.Record); ok {
		return r.Kind()
	}

	return "record"
}

func NewSoftDeleteController[T model.Record](store port.RecordStore[T], funcs ...SoftDeleteControllerOptionFunc[T]) *SoftDeleteController[T] {
	opts := NewSoftDeleteControllerOptions[T](funcs...)

	return &SoftDeleteController[T]{
		store:         store,
		callbacks:     opts.Callbacks,
		clock:         opts.Clock,
		softDeletable: model.IsSoftDeletable[T](),
	}
}
