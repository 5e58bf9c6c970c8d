package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/port"
	"github.com/pkg/errors"
)

type Record[T any] interface {
	model.Record
	model.Cloner[T]
}

// RecordStore keeps copies of the records in memory. Callers never share
// state with the stored values.
type RecordStore[T Record[T]] struct {
	mutex   sync.RWMutex
	records map[model.RecordID]T
	order   []model.RecordID
}

// Insert implements port.RecordStore.
func (s *RecordStore[T]) Insert(ctx context.Context, record T) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.records[record.ID()]; exists {
		return errors.Wrapf(port.ErrAlreadyExists, "%s '%s'", record.Kind(), record.ID())
	}

	record.MarkPersisted()

	s.records[record.ID()] = record.Clone()
	s.order = append(s.order, record.ID())

	return nil
}

// Get implements port.RecordStore.
func (s *RecordStore[T]) Get(ctx context.Context, id model.RecordID) (T, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return *new(T), errors.Wrapf(port.ErrNotFound, "record '%s'", id)
	}

	return record.Clone(), nil
}

// Find implements port.RecordStore.
func (s *RecordStore[T]) Find(ctx context.Context, query *port.Query) ([]T, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records, err := s.match(query)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := sortRecords(records, query.Orders()); err != nil {
		return nil, errors.WithStack(err)
	}

	limit, offset := query.Pagination()

	if offset != nil {
		if *offset >= len(records) {
			records = records[:0]
		} else {
			records = records[*offset:]
		}
	}

	if limit != nil && *limit < len(records) {
		records = records[:*limit]
	}

	clones := make([]T, 0, len(records))
	for _, r := range records {
		clones = append(clones, r.Clone())
	}

	return clones, nil
}

// Count implements port.RecordStore.
func (s *RecordStore[T]) Count(ctx context.Context, query *port.Query) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records, err := s.match(query)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return int64(len(records)), nil
}

// UpdateAttribute implements port.RecordStore.
func (s *RecordStore[T]) UpdateAttribute(ctx context.Context, record T, attr string, value any) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored, exists := s.records[record.ID()]
	if !exists {
		return false, nil
	}

	if err := stored.SetAttribute(attr, value); err != nil {
		return false, errors.WithStack(err)
	}

	return true, nil
}

// PhysicalDelete implements port.RecordStore.
func (s *RecordStore[T]) PhysicalDelete(ctx context.Context, record T) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.records[record.ID()]; !exists {
		return false, nil
	}

	delete(s.records, record.ID())

	s.order = slices.DeleteFunc(s.order, func(id model.RecordID) bool {
		return id == record.ID()
	})

	return true, nil
}

// Persisted implements port.RecordStore.
func (s *RecordStore[T]) Persisted(record T) bool {
	return !record.IsNewRecord() && !record.IsRemoved()
}

func (s *RecordStore[T]) match(query *port.Query) ([]T, error) {
	predicates := query.Predicates()
	records := make([]T, 0, len(s.order))

	for _, id := range s.order {
		record := s.records[id]

		matches, err := matchAll(record, predicates)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if matches {
			records = append(records, record)
		}
	}

	return records, nil
}

func matchAll(record model.Record, predicates []port.Predicate) (bool, error) {
	for _, p := range predicates {
		value, exists := record.Attribute(p.Attribute)
		if !exists {
			return false, errors.Wrapf(model.ErrUnknownAttribute, "%s has no attribute '%s'", record.Kind(), p.Attribute)
		}

		switch p.Operator {
		case port.OperatorIsNull:
			if value != nil {
				return false, nil
			}
		case port.OperatorIsNotNull:
			if value == nil {
				return false, nil
			}
		case port.OperatorEquals:
			if compareValues(value, p.Value) != 0 {
				return false, nil
			}
		default:
			return false, errors.Errorf("unsupported operator '%s'", p.Operator)
		}
	}

	return true, nil
}

func sortRecords[T model.Record](records []T, orders []port.Order) error {
	for _, o := range orders {
		for _, r := range records {
			if _, exists := r.Attribute(o.Attribute); !exists {
				return errors.Wrapf(model.ErrUnknownAttribute, "%s has no attribute '%s'", r.Kind(), o.Attribute)
			}
		}
	}

	slices.SortStableFunc(records, func(a, b T) int {
		for _, o := range orders {
			va, _ := a.Attribute(o.Attribute)
			vb, _ := b.Attribute(o.Attribute)

			result := compareValues(va, vb)
			if o.Desc {
				result = -result
			}

			if result != 0 {
				return result
			}
		}

		return 0
	})

	return nil
}

// compareValues orders nil values first, then compares values of the same
// supported type. Values of different types compare as unequal.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return cmp.Compare(va, vb)
		}
	case model.RecordID:
		if vb, ok := b.(model.RecordID); ok {
			return cmp.Compare(va, vb)
		}
	case int:
		if vb, ok := b.(int); ok {
			return cmp.Compare(va, vb)
		}
	case int64:
		if vb, ok := b.(int64); ok {
			return cmp.Compare(va, vb)
		}
	case bool:
		if vb, ok := b.(bool); ok && va == vb {
			return 0
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb)
		}
	}

	return 1
}

func NewRecordStore[T Record[T]]() *RecordStore[T] {
	return &RecordStore[T]{
		records: make(map[model.RecordID]T),
		order:   make([]model.RecordID, 0),
	}
}

var _ port.RecordStore[*model.Note] = NewRecordStore[*model.Note]()
