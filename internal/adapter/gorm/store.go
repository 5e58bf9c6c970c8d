package gorm

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/port"
	"github.com/bornholm/paranoid/internal/metrics"
	"github.com/ncruces/go-sqlite3"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Options struct {
	MaxRetries  int
	BaseBackoff time.Duration
}

type OptionFunc func(opts *Options)

func WithMaxRetries(maxRetries int) OptionFunc {
	return func(opts *Options) {
		opts.MaxRetries = maxRetries
	}
}

func WithBaseBackoff(backoff time.Duration) OptionFunc {
	return func(opts *Options) {
		opts.BaseBackoff = backoff
	}
}

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		MaxRetries:  10,
		BaseBackoff: 500 * time.Millisecond,
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// Store implements port.RecordStore for the record type T persisted as rows of type R.
type Store[T model.Record, R any] struct {
	getDatabase func(ctx context.Context) (*gorm.DB, error)
	kind        string
	attributes  []string
	toRow       func(record T) *R
	fromRow     func(row *R) T
	maxRetries  int
	baseBackoff time.Duration
}

// Insert implements port.RecordStore.
func (s *Store[T, R]) Insert(ctx context.Context, record T) error {
	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.Create(s.toRow(record)).Error; err != nil {
			if isDuplicateKeyError(err) {
				return errors.Wrapf(port.ErrAlreadyExists, "%s '%s'", s.kind, record.ID())
			}

			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
	if err != nil {
		return errors.WithStack(err)
	}

	record.MarkPersisted()

	return nil
}

// Get implements port.RecordStore.
func (s *Store[T, R]) Get(ctx context.Context, id model.RecordID) (T, error) {
	var row R

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		if err := db.First(&row, "id = ?", string(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrapf(port.ErrNotFound, "%s '%s'", s.kind, id)
			}

			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
	if err != nil {
		return *new(T), errors.WithStack(err)
	}

	return s.fromRow(&row), nil
}

// Find implements port.RecordStore.
func (s *Store[T, R]) Find(ctx context.Context, query *port.Query) ([]T, error) {
	var rows []*R

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		scoped, err := s.applyQuery(db.Model(new(R)), query, true)
		if err != nil {
			return errors.WithStack(err)
		}

		if err := scoped.Find(&rows).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	records := make([]T, 0, len(rows))
	for _, r := range rows {
		records = append(records, s.fromRow(r))
	}

	return records, nil
}

// Count implements port.RecordStore.
func (s *Store[T, R]) Count(ctx context.Context, query *port.Query) (int64, error) {
	var total int64

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		scoped, err := s.applyQuery(db.Model(new(R)), query, false)
		if err != nil {
			return errors.WithStack(err)
		}

		if err := scoped.Count(&total).Error; err != nil {
			return errors.WithStack(err)
		}

		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return total, nil
}

// UpdateAttribute implements port.RecordStore.
//
// The column is written with UpdateColumn: gorm hooks are skipped and
// updated_at is left untouched.
func (s *Store[T, R]) UpdateAttribute(ctx context.Context, record T, attr string, value any) (bool, error) {
	if !s.hasAttribute(attr) || attr == model.AttrID {
		return false, errors.Wrapf(model.ErrUnknownAttribute, "attribute '%s' cannot be set on %s", attr, s.kind)
	}

	var updated bool

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		result := db.Model(new(R)).Where("id = ?", string(record.ID())).UpdateColumn(attr, value)
		if result.Error != nil {
			return errors.WithStack(result.Error)
		}

		updated = result.RowsAffected > 0

		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
	if err != nil {
		return false, errors.WithStack(err)
	}

	return updated, nil
}

// PhysicalDelete implements port.RecordStore.
func (s *Store[T, R]) PhysicalDelete(ctx context.Context, record T) (bool, error) {
	var deleted bool

	err := s.withRetry(ctx, func(ctx context.Context, db *gorm.DB) error {
		result := db.Where("id = ?", string(record.ID())).Delete(new(R))
		if result.Error != nil {
			return errors.WithStack(result.Error)
		}

		deleted = result.RowsAffected > 0

		return nil
	}, sqlite3.BUSY, sqlite3.LOCKED)
	if err != nil {
		return false, errors.WithStack(err)
	}

	return deleted, nil
}

// Persisted implements port.RecordStore.
func (s *Store[T, R]) Persisted(record T) bool {
	return !record.IsNewRecord() && !record.IsRemoved()
}

func (s *Store[T, R]) hasAttribute(attr string) bool {
	return slices.Contains(s.attributes, attr)
}

func (s *Store[T, R]) applyQuery(db *gorm.DB, query *port.Query, paginate bool) (*gorm.DB, error) {
	for _, p := range query.Predicates() {
		if !s.hasAttribute(p.Attribute) {
			return nil, errors.Wrapf(model.ErrUnknownAttribute, "%s has no attribute '%s'", s.kind, p.Attribute)
		}

		column := clause.Column{Table: clause.CurrentTable, Name: p.Attribute}

		switch p.Operator {
		case port.OperatorIsNull:
			db = db.Where(clause.Eq{Column: column, Value: nil})
		case port.OperatorIsNotNull:
			db = db.Where(clause.Neq{Column: column, Value: nil})
		case port.OperatorEquals:
			db = db.Where(clause.Eq{Column: column, Value: p.Value})
		default:
			return nil, errors.Errorf("unsupported operator '%s'", p.Operator)
		}
	}

	if !paginate {
		return db, nil
	}

	for _, o := range query.Orders() {
		if !s.hasAttribute(o.Attribute) {
			return nil, errors.Wrapf(model.ErrUnknownAttribute, "%s has no attribute '%s'", s.kind, o.Attribute)
		}

		db = db.Order(clause.OrderByColumn{
			Column: clause.Column{Table: clause.CurrentTable, Name: o.Attribute},
			Desc:   o.Desc,
		})
	}

	limit, offset := query.Pagination()

	if limit != nil {
		db = db.Limit(*limit)
	}

	if offset != nil {
		db = db.Offset(*offset)
	}

	return db, nil
}

func (s *Store[T, R]) withRetry(ctx context.Context, fn func(ctx context.Context, db *gorm.DB) error, codes ...sqlite3.ErrorCode) error {
	db, err := s.getDatabase(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	backoff := s.baseBackoff
	retries := 0

	for {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := fn(ctx, tx); err != nil {
				return errors.WithStack(err)
			}

			return nil
		})
		if err != nil {
			if retries >= s.maxRetries {
				return errors.WithStack(err)
			}

			var code sqlite3.ErrorCode
			if errors.As(err, &code) {
				if !slices.Contains(codes, code) {
					return errors.WithStack(err)
				}

				slog.DebugContext(ctx, "transaction failed, will retry", slog.String("kind", s.kind), slog.Int("retries", retries), slog.Duration("backoff", backoff), slog.Any("error", errors.WithStack(err)))

				metrics.StoreRetries.WithLabelValues(s.kind).Inc()

				retries++

				select {
				case <-ctx.Done():
					return errors.WithStack(ctx.Err())
				case <-time.After(backoff):
				}

				backoff *= 2
				continue
			}

			return errors.WithStack(err)
		}

		return nil
	}
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var sqliteErr *sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.ExtendedCode() {
	case sqlite3.CONSTRAINT_PRIMARYKEY, sqlite3.CONSTRAINT_UNIQUE:
		return true
	default:
		return false
	}
}

func createGetDatabase(db *gorm.DB, models ...any) func(ctx context.Context) (*gorm.DB, error) {
	var (
		migrateOnce sync.Once
		migrateErr  error
	)

	return func(ctx context.Context) (*gorm.DB, error) {
		migrateOnce.Do(func() {
			if err := db.AutoMigrate(models...); err != nil {
				migrateErr = errors.WithStack(err)
				return
			}
		})
		if migrateErr != nil {
			return nil, errors.WithStack(migrateErr)
		}

		return db, nil
	}
}

func newStore[T model.Record, R any](db *gorm.DB, kind string, attributes []string, toRow func(T) *R, fromRow func(*R) T, funcs ...OptionFunc) *Store[T, R] {
	opts := NewOptions(funcs...)

	return &Store[T, R]{
		getDatabase: createGetDatabase(db, new(R)),
		kind:        kind,
		attributes:  attributes,
		toRow:       toRow,
		fromRow:     fromRow,
		maxRetries:  opts.MaxRetries,
		baseBackoff: opts.BaseBackoff,
	}
}
