package memory

import (
	"net/url"

	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/port"
	"github.com/bornholm/paranoid/internal/setup"
)

func init() {
	setup.NoteStore.Register("memory", func(u *url.URL) (port.RecordStore[*model.Note], error) {
		return NewRecordStore[*model.Note](), nil
	})

	setup.TagStore.Register("memory", func(u *url.URL) (port.RecordStore[*model.Tag], error) {
		return NewRecordStore[*model.Tag](), nil
	})
}
