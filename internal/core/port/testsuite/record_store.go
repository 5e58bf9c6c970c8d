package testsuite

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/port"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

func TestRecordStore(t *testing.T, factory func(t *testing.T) (port.RecordStore[*model.Note], error)) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note]) error
	}

	var testCases []testCase = []testCase{
		{
			Name: "InsertAndGet",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note]) error {
				note := model.NewNote("groceries", "eggs, flour")

				if !note.IsNewRecord() {
					t.Errorf("note.IsNewRecord(): expected true, got false")
				}

				if err := store.Insert(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				if note.IsNewRecord() {
					t.Errorf("note.IsNewRecord(): expected false after insert, got true")
				}

				if !store.Persisted(note) {
					t.Errorf("store.Persisted(note): expected true, got false")
				}

				stored, err := store.Get(ctx, note.ID())
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := note.Title(), stored.Title(); e != g {
					t.Errorf("stored.Title(): expected %s, got %s", e, g)
				}

				if e, g := note.Content(), stored.Content(); e != g {
					t.Errorf("stored.Content(): expected %s, got %s", e, g)
				}

				if stored.IsNewRecord() {
					t.Errorf("stored.IsNewRecord(): expected false, got true")
				}

				if stored.DeletedAt() != nil {
					t.Errorf("stored.DeletedAt(): expected nil, got %v", stored.DeletedAt())
				}

				return nil
			},
		},
		{
			Name: "InsertDuplicate",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note]) error {
				note := model.NewNote("duplicate", "")

				if err := store.Insert(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				duplicate := model.LoadNote(note.ID(), "other", "", note.CreatedAt(), note.UpdatedAt(), nil)

				err := store.Insert(ctx, duplicate)
				if !errors.Is(err, port.ErrAlreadyExists) {
					t.Errorf("store.Insert(duplicate): expected error '%v', got '%+v'", port.ErrAlreadyExists, err)
				}

				return nil
			},
		},
		{
			Name: "GetNotFound",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note]) error {
				_, err := store.Get(ctx, model.NewRecordID())
				if !errors.Is(err, port.ErrNotFound) {
					t.Errorf("store.Get(): expected error '%v', got '%+v'", port.ErrNotFound, err)
				}

				return nil
			},
		},
		{
			Name: "UpdateAttribute",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note]) error {
				note := model.NewNote("to update", "")

				if err := store.Insert(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				deletedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

				updated, err := store.UpdateAttribute(ctx, note, model.AttrDeletedAt, deletedAt)
				if err != nil {
					return errors.WithStack(err)
				}

				if !updated {
					t.Fatalf("store.UpdateAttribute(): expected true, got false")
				}

				stored, err := store.Get(ctx, note.ID())
				if err != nil {
					return errors.WithStack(err)
				}

				if stored.DeletedAt() == nil {
					t.Fatalf("stored.DeletedAt(): expected %v, got nil", deletedAt)
				}

				if e, g := deletedAt, *stored.DeletedAt(); !e.Equal(g) {
					t.Errorf("stored.DeletedAt(): expected %v, got %v", e, g)
				}

				updated, err = store.UpdateAttribute(ctx, note, model.AttrDeletedAt, nil)
				if err != nil {
					return errors.WithStack(err)
				}

				if !updated {
					t.Fatalf("store.UpdateAttribute(nil): expected true, got false")
				}

				stored, err = store.Get(ctx, note.ID())
				if err != nil {
					return errors.WithStack(err)
				}

				if stored.DeletedAt() != nil {
					t.Errorf("stored.DeletedAt(): expected nil, got %v", stored.DeletedAt())
				}

				return nil
			},
		},
		{
			Name: "UpdateMissingRecord",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note]) error {
				note := model.LoadNote(model.NewRecordID(), "ghost", "", time.Now(), time.Now(), nil)

				updated, err := store.UpdateAttribute(ctx, note, model.AttrDeletedAt, time.Now())
				if err != nil {
					return errors.WithStack(err)
				}

				if updated {
					t.Errorf("store.UpdateAttribute(): expected false, got true")
				}

				return nil
			},
		},
		{
			Name: "UpdateUnknownAttribute",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note]) error {
				note := model.NewNote("unknown", "")

				if err := store.Insert(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				_, err := store.UpdateAttribute(ctx, note, "unknown", "value")
				if !errors.Is(err, model.ErrUnknownAttribute) {
					t.Errorf("store.UpdateAttribute(): expected error '%v', got '%+v'", model.ErrUnknownAttribute, err)
				}

				return nil
			},
		},
		{
			Name: "PhysicalDelete",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note]) error {
				note := model.NewNote("to remove", "")

				if err := store.Insert(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				deleted, err := store.PhysicalDelete(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if !deleted {
					t.Errorf("store.PhysicalDelete(): expected true, got false")
				}

				deleted, err = store.PhysicalDelete(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if deleted {
					t.Errorf("store.PhysicalDelete(): expected false on second call, got true")
				}

				if _, err := store.Get(ctx, note.ID()); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("store.Get(): expected error '%v', got '%+v'", port.ErrNotFound, err)
				}

				return nil
			},
		},
		{
			Name: "FindWithDefaults",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note]) error {
				notes, err := insertNotes(ctx, store, "first", "second", "third")
				if err != nil {
					return errors.WithStack(err)
				}

				if _, err := store.UpdateAttribute(ctx, notes[1], model.AttrDeletedAt, time.Now().UTC()); err != nil {
					return errors.WithStack(err)
				}

				live := port.NewQuery().WithDefaults(port.IsNull(model.AttrDeletedAt))

				found, err := store.Find(ctx, live)
				if err != nil {
					return errors.WithStack(err)
				}

				t.Logf("found: %s", spew.Sdump(found))

				if e, g := 2, len(found); e != g {
					t.Errorf("len(found): expected %d, got %d", e, g)
				}

				for _, n := range found {
					if n.ID() == notes[1].ID() {
						t.Errorf("found: unexpected deleted note '%s'", n.ID())
					}
				}

				total, err := store.Count(ctx, live.Unscoped())
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(3), total; e != g {
					t.Errorf("store.Count(unscoped): expected %d, got %d", e, g)
				}

				total, err = store.Count(ctx, live.Unscoped().Where(port.IsNotNull(model.AttrDeletedAt)))
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(1), total; e != g {
					t.Errorf("store.Count(deleted): expected %d, got %d", e, g)
				}

				return nil
			},
		},
		{
			Name: "FindEquals",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note]) error {
				notes, err := insertNotes(ctx, store, "alpha", "beta")
				if err != nil {
					return errors.WithStack(err)
				}

				found, err := store.Find(ctx, port.NewQuery().Where(port.Equals(model.AttrID, string(notes[1].ID()))))
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 1, len(found); e != g {
					t.Fatalf("len(found): expected %d, got %d", e, g)
				}

				if e, g := "beta", found[0].Title(); e != g {
					t.Errorf("found[0].Title(): expected %s, got %s", e, g)
				}

				return nil
			},
		},
		{
			Name: "FindOrderAndPagination",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note]) error {
				if _, err := insertNotes(ctx, store, "c", "a", "b"); err != nil {
					return errors.WithStack(err)
				}

				query := port.NewQuery().OrderBy(model.AttrNoteTitle, false)

				found, err := store.Find(ctx, query.Limit(2))
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := []string{"a", "b"}, titles(found); !slices.Equal(e, g) {
					t.Errorf("titles(found): expected %v, got %v", e, g)
				}

				found, err = store.Find(ctx, query.Offset(1).Limit(1))
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := []string{"b"}, titles(found); !slices.Equal(e, g) {
					t.Errorf("titles(found): expected %v, got %v", e, g)
				}

				found, err = store.Find(ctx, port.NewQuery().OrderBy(model.AttrNoteTitle, true))
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := []string{"c", "b", "a"}, titles(found); !slices.Equal(e, g) {
					t.Errorf("titles(found): expected %v, got %v", e, g)
				}

				return nil
			},
		},
		{
			Name: "FindUnknownAttribute",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note]) error {
				if _, err := insertNotes(ctx, store, "any"); err != nil {
					return errors.WithStack(err)
				}

				_, err := store.Find(ctx, port.NewQuery().Where(port.IsNull("unknown")))
				if !errors.Is(err, model.ErrUnknownAttribute) {
					t.Errorf("store.Find(): expected error '%v', got '%+v'", model.ErrUnknownAttribute, err)
				}

				return nil
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctx := context.Background()

			store, err := factory(t)
			if err != nil {
				t.Fatalf("could not create store: %+v", errors.WithStack(err))
			}

			if err := tc.Run(t, ctx, store); err != nil {
				t.Fatalf("could not run test: %+v", errors.WithStack(err))
			}
		})
	}
}

func insertNotes(ctx context.Context, store port.RecordStore[*model.Note], titles ...string) ([]*model.Note, error) {
	notes := make([]*model.Note, 0, len(titles))

	for _, title := range titles {
		note := model.NewNote(title, "")

		if err := store.Insert(ctx, note); err != nil {
			return nil, errors.WithStack(err)
		}

		notes = append(notes, note)
	}

	return notes, nil
}

func titles(notes []*model.Note) []string {
	titles := make([]string, 0, len(notes))
	for _, n := range notes {
		titles = append(titles, n.Title())
	}
	return titles
}
