package model

import (
	"time"

	"github.com/pkg/errors"
)

const (
	KindTag = "tags"

	AttrTagLabel = "label"
)

// Tag is a plain record type: it does not opt in to soft deletion,
// deleting a tag removes it from its store.
type Tag struct {
	Persistence

	id        RecordID
	label     string
	createdAt time.Time
}

// ID implements Record.
func (t *Tag) ID() RecordID {
	return t.id
}

// Kind implements Record.
func (t *Tag) Kind() string {
	return KindTag
}

func (t *Tag) Label() string {
	return t.label
}

func (t *Tag) CreatedAt() time.Time {
	return t.createdAt
}

// Attribute implements WithAttributes.
func (t *Tag) Attribute(name string) (any, bool) {
	switch name {
	case AttrID:
		return string(t.id), true
	case AttrTagLabel:
		return t.label, true
	case AttrCreatedAt:
		return t.createdAt, true
	default:
		return nil, false
	}
}

// SetAttribute implements WithAttributes.
func (t *Tag) SetAttribute(name string, value any) error {
	if name != AttrTagLabel {
		return errors.Wrapf(ErrUnknownAttribute, "attribute '%s' cannot be set on %s", name, KindTag)
	}

	label, ok := value.(string)
	if !ok {
		return errors.Errorf("unexpected value type '%T' for attribute '%s'", value, name)
	}

	t.label = label

	return nil
}

// Clone implements Cloner.
func (t *Tag) Clone() *Tag {
	clone := *t
	return &clone
}

var (
	_ Record       = &Tag{}
	_ Cloner[*Tag] = &Tag{}
)

func NewTag(label string) *Tag {
	return &Tag{
		id:        NewRecordID(),
		label:     label,
		createdAt: time.Now().UTC(),
	}
}

// LoadTag builds a tag from persisted values.
func LoadTag(id RecordID, label string, createdAt time.Time) *Tag {
	tag := &Tag{
		id:        id,
		label:     label,
		createdAt: createdAt,
	}

	tag.MarkPersisted()

	return tag
}
