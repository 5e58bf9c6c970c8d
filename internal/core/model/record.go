package model

import (
	"time"

	"github.com/rs/xid"
)

type RecordID string

func NewRecordID() RecordID {
	return RecordID(xid.New().String())
}

// Record is any persistable entity the soft deletion lifecycle can be
// applied to.
type Record interface {
	WithID[RecordID]
	WithAttributes

	// Kind returns the storage name of the record type (i.e. its table)
	Kind() string

	// IsNewRecord returns true if the record was never saved
	IsNewRecord() bool

	// IsRemoved returns true if the record was physically removed from its store
	IsRemoved() bool

	MarkPersisted()
	MarkRemoved()
}

// SoftDeletable is implemented by record types that opted in to soft
// deletion. A nil DeletedAt means the record is live.
type SoftDeletable interface {
	Record

	DeletedAt() *time.Time
	SetDeletedAt(deletedAt *time.Time)
}

// IsSoftDeletable reports whether the record type T opted in to soft deletion.
func IsSoftDeletable[T Record]() bool {
	var zero T
	_, ok := any(zero).(SoftDeletable)
	return ok
}

// IsDeleted returns true if the given record is soft deleted.
// Records that did not opt in to soft deletion are never considered deleted.
func IsDeleted(r Record) bool {
	sd, ok := r.(SoftDeletable)
	if !ok {
		return false
	}

	return sd.DeletedAt() != nil
}
