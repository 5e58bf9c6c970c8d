package port

import (
	"context"

	"github.com/bornholm/paranoid/internal/core/model"
)

// RecordStore is the persistence collaborator the soft deletion lifecycle
// is applied on top of.
type RecordStore[T model.Record] interface {
	// Insert saves a new record in the store, or returns ErrAlreadyExists
	Insert(ctx context.Context, record T) error

	// Get finds a record by its identity, whatever its deletion state, or returns ErrNotFound if not found
	Get(ctx context.Context, id model.RecordID) (T, error)

	// Find returns the records matching the query effective predicates
	Find(ctx context.Context, query *Query) ([]T, error)

	// Count returns the number of records matching the query effective predicates
	Count(ctx context.Context, query *Query) (int64, error)

	// UpdateAttribute writes a single attribute of the given record, bypassing
	// any validation or lifecycle hook. It returns false if no stored record was updated.
	UpdateAttribute(ctx context.Context, record T, attr string, value any) (bool, error)

	// PhysicalDelete removes the record from the store. It returns false
	// if no stored record was removed.
	PhysicalDelete(ctx context.Context, record T) (bool, error)

	// Persisted returns true if the record was saved and not removed since
	Persisted(record T) bool
}
