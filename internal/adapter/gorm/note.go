package gorm

import (
	"time"

	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/port"
	"gorm.io/gorm"
)

type Note struct {
	ID string `gorm:"primaryKey;autoIncrement:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`

	Title   string `gorm:"not null"`
	Content string
}

func (Note) TableName() string {
	return model.KindNote
}

var noteAttributes = []string{
	model.AttrID,
	model.AttrCreatedAt,
	model.AttrUpdatedAt,
	model.AttrDeletedAt,
	model.AttrNoteTitle,
	model.AttrNoteContent,
}

func fromNote(n *model.Note) *Note {
	return &Note{
		ID:        string(n.ID()),
		CreatedAt: n.CreatedAt(),
		UpdatedAt: n.UpdatedAt(),
		DeletedAt: n.DeletedAt(),
		Title:     n.Title(),
		Content:   n.Content(),
	}
}

func toNote(n *Note) *model.Note {
	return model.LoadNote(model.RecordID(n.ID), n.Title, n.Content, n.CreatedAt, n.UpdatedAt, n.DeletedAt)
}

type NoteStore = Store[*model.Note, Note]

func NewNoteStore(db *gorm.DB, funcs ...OptionFunc) *NoteStore {
	return newStore(db, model.KindNote, noteAttributes, fromNote, toNote, funcs...)
}

var _ port.RecordStore[*model.Note] = &NoteStore{}
