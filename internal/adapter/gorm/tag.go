package gorm

import (
	"time"

	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/port"
	"gorm.io/gorm"
)

type Tag struct {
	ID string `gorm:"primaryKey;autoIncrement:false"`

	CreatedAt time.Time

	Label string `gorm:"unique;not null"`
}

func (Tag) TableName() string {
	return model.KindTag
}

var tagAttributes = []string{
	model.AttrID,
	model.AttrCreatedAt,
	model.AttrTagLabel,
}

func fromTag(t *model.Tag) *Tag {
	return &Tag{
		ID:        string(t.ID()),
		CreatedAt: t.CreatedAt(),
		Label:     t.Label(),
	}
}

func toTag(t *Tag) *model.Tag {
	return model.LoadTag(model.RecordID(t.ID), t.Label, t.CreatedAt)
}

type TagStore = Store[*model.Tag, Tag]

func NewTagStore(db *gorm.DB, funcs ...OptionFunc) *TagStore {
	return newStore(db, model.KindTag, tagAttributes, fromTag, toTag, funcs...)
}

var _ port.RecordStore[*model.Tag] = &TagStore{}
