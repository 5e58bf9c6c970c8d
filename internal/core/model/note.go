package model

import (
	"time"

	"github.com/pkg/errors"
)

const (
	KindNote = "notes"

	AttrID        = "id"
	AttrCreatedAt = "created_at"
	AttrUpdatedAt = "updated_at"
	AttrDeletedAt = "deleted_at"

	AttrNoteTitle   = "title"
	AttrNoteContent = "content"
)

type Note struct {
	Persistence
	SoftDelete

	id        RecordID
	title     string
	content   string
	createdAt time.Time
	updatedAt time.Time
}

// ID implements Record.
func (n *Note) ID() RecordID {
	return n.id
}

// Kind implements Record.
func (n *Note) Kind() string {
	return KindNote
}

func (n *Note) Title() string {
	return n.title
}

func (n *Note) Content() string {
	return n.content
}

// CreatedAt implements WithLifecycle.
func (n *Note) CreatedAt() time.Time {
	return n.createdAt
}

// UpdatedAt implements WithLifecycle.
func (n *Note) UpdatedAt() time.Time {
	return n.updatedAt
}

// Attribute implements WithAttributes.
func (n *Note) Attribute(name string) (any, bool) {
	switch name {
	case AttrID:
		return string(n.id), true
	case AttrNoteTitle:
		return n.title, true
	case AttrNoteContent:
		return n.content, true
	case AttrCreatedAt:
		return n.createdAt, true
	case AttrUpdatedAt:
		return n.updatedAt, true
	case AttrDeletedAt:
		return fromNullableTime(n.deletedAt), true
	default:
		return nil, false
	}
}

// SetAttribute implements WithAttributes.
func (n *Note) SetAttribute(name string, value any) error {
	switch name {
	case AttrNoteTitle, AttrNoteContent:
		str, ok := value.(string)
		if !ok {
			return errors.Errorf("unexpected value type '%T' for attribute '%s'", value, name)
		}

		if name == AttrNoteTitle {
			n.title = str
		} else {
			n.content = str
		}

	case AttrUpdatedAt:
		t, err := toNullableTime(value)
		if err != nil {
			return errors.Wrapf(err, "could not set attribute '%s'", name)
		}

		if t == nil {
			n.updatedAt = time.Time{}
		} else {
			n.updatedAt = *t
		}

	case AttrDeletedAt:
		t, err := toNullableTime(value)
		if err != nil {
			return errors.Wrapf(err, "could not set attribute '%s'", name)
		}

		n.SetDeletedAt(t)

	default:
		return errors.Wrapf(ErrUnknownAttribute, "attribute '%s' cannot be set on %s", name, KindNote)
	}

	return nil
}

// Clone implements Cloner.
func (n *Note) Clone() *Note {
	clone := *n
	clone.SetDeletedAt(n.deletedAt)
	return &clone
}

var (
	_ SoftDeletable = &Note{}
	_ WithLifecycle = &Note{}
	_ Cloner[*Note] = &Note{}
)

func NewNote(title string, content string) *Note {
	now := time.Now().UTC()
	return &Note{
		id:        NewRecordID(),
		title:     title,
		content:   content,
		createdAt: now,
		updatedAt: now,
	}
}

// LoadNote builds a note from persisted values.
func LoadNote(id RecordID, title, content string, createdAt, updatedAt time.Time, deletedAt *time.Time) *Note {
	note := &Note{
		id:        id,
		title:     title,
		content:   content,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}

	note.SetDeletedAt(deletedAt)
	note.MarkPersisted()

	return note
}
