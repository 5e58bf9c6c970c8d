package cache

import (
	"context"
	"time"

	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/port"
	"github.com/pkg/errors"
)

// RecordStore caches the records retrieved by identity. Queries always
// reach the backend.
type RecordStore[T Record[T]] struct {
	backend port.RecordStore[T]
	cache   *MultiIndexCache[*CacheableRecord[T]]
}

// Insert implements [port.RecordStore].
func (s *RecordStore[T]) Insert(ctx context.Context, record T) error {
	defer s.cache.Remove(getRecordCacheKey(record.Kind(), record.ID()))

	return s.backend.Insert(ctx, record)
}

// Get implements [port.RecordStore].
func (s *RecordStore[T]) Get(ctx context.Context, id model.RecordID) (T, error) {
	var zero T
	if cached, exists := s.cache.Get(getRecordCacheKey(zero.Kind(), id)); exists {
		return cached.Record(), nil
	}

	// A write completing during the backend read invalidates the fill
	generation := s.cache.Generation()

	record, err := s.backend.Get(ctx, id)
	if err != nil {
		return zero, errors.WithStack(err)
	}

	s.cache.AddIfUnchanged(NewCacheableRecord(record), generation)

	return record, nil
}

// Find implements [port.RecordStore].
func (s *RecordStore[T]) Find(ctx context.Context, query *port.Query) ([]T, error) {
	return s.backend.Find(ctx, query)
}

// Count implements [port.RecordStore].
func (s *RecordStore[T]) Count(ctx context.Context, query *port.Query) (int64, error) {
	return s.backend.Count(ctx, query)
}

// UpdateAttribute implements [port.RecordStore].
func (s *RecordStore[T]) UpdateAttribute(ctx context.Context, record T, attr string, value any) (bool, error) {
	defer s.cache.Remove(getRecordCacheKey(record.Kind(), record.ID()))

	return s.backend.UpdateAttribute(ctx, record, attr, value)
}

// PhysicalDelete implements [port.RecordStore].
func (s *RecordStore[T]) PhysicalDelete(ctx context.Context, record T) (bool, error) {
	defer s.cache.Remove(getRecordCacheKey(record.Kind(), record.ID()))

	return s.backend.PhysicalDelete(ctx, record)
}

// Persisted implements [port.RecordStore].
func (s *RecordStore[T]) Persisted(record T) bool {
	return s.backend.Persisted(record)
}

func NewRecordStore[T Record[T]](backend port.RecordStore[T], size int, ttl time.Duration) *RecordStore[T] {
	return &RecordStore[T]{
		backend: backend,
		cache:   NewMultiIndexCache[*CacheableRecord[T]](size, ttl),
	}
}

var _ port.RecordStore[*model.Note] = &RecordStore[*model.Note]{}
