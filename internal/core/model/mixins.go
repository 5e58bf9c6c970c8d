package model

import (
	"time"

	"github.com/pkg/errors"
)

var ErrUnknownAttribute = errors.New("unknown attribute")

type WithID[T ~string] interface {
	ID() T
}

type WithLifecycle interface {
	CreatedAt() time.Time
	UpdatedAt() time.Time
}

// WithAttributes exposes record fields by their storage (column) name.
type WithAttributes interface {
	Attribute(name string) (any, bool)
	SetAttribute(name string, value any) error
}

// Cloner is implemented by records that can be copied, which stores
// holding records in memory need to avoid sharing state with callers.
type Cloner[T any] interface {
	Clone() T
}

// SoftDelete can be embedded in a record type to implement
// the SoftDeletable accessors.
type SoftDelete struct {
	deletedAt *time.Time
}

// DeletedAt implements SoftDeletable.
func (s *SoftDelete) DeletedAt() *time.Time {
	if s.deletedAt == nil {
		return nil
	}

	deletedAt := *s.deletedAt

	return &deletedAt
}

// SetDeletedAt implements SoftDeletable.
func (s *SoftDelete) SetDeletedAt(deletedAt *time.Time) {
	if deletedAt == nil {
		s.deletedAt = nil
		return
	}

	value := *deletedAt
	s.deletedAt = &value
}

func toNullableTime(value any) (*time.Time, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &v, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		t := *v
		return &t, nil
	default:
		return nil, errors.Errorf("unexpected value type '%T', expected time", value)
	}
}

func fromNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return *t
}
