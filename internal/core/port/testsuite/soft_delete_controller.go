package testsuite

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/bornholm/paranoid/internal/core/callback"
	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/port"
	"github.com/bornholm/paranoid/internal/core/service"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

var fixedNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

// TestSoftDeleteController runs the note lifecycle scenarios against
// a controller backed by the store returned by the factory.
func TestSoftDeleteController(t *testing.T, factory func(t *testing.T) (port.RecordStore[*model.Note], error)) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note], chain *callback.Chain[*model.Note], controller *service.SoftDeleteController[*model.Note]) error
	}

	var testCases []testCase = []testCase{
		{
			Name: "DeleteAndRestore",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note], chain *callback.Chain[*model.Note], controller *service.SoftDeleteController[*model.Note]) error {
				note := model.NewNote("lifecycle", "")

				if err := store.Insert(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				if err := expectIDs(ctx, t, controller, controller.DefaultScope(), note.ID()); err != nil {
					return errors.WithStack(err)
				}

				outcome, err := controller.Delete(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := service.OutcomeApplied, outcome; e != g {
					t.Fatalf("controller.Delete(): expected %s, got %s", e, g)
				}

				if !controller.IsDeleted(note) {
					t.Errorf("controller.IsDeleted(note): expected true, got false")
				}

				if e, g := fixedNow, note.DeletedAt(); g == nil || !e.Equal(*g) {
					t.Errorf("note.DeletedAt(): expected %v, got %v", e, g)
				}

				if err := expectIDs(ctx, t, controller, controller.DefaultScope()); err != nil {
					return errors.WithStack(err)
				}

				if err := expectIDs(ctx, t, controller, controller.OnlyDeleted(), note.ID()); err != nil {
					return errors.WithStack(err)
				}

				if err := expectIDs(ctx, t, controller, controller.WithDeleted(), note.ID()); err != nil {
					return errors.WithStack(err)
				}

				if _, err := controller.Get(ctx, note.ID()); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("controller.Get(): expected error '%v', got '%+v'", port.ErrNotFound, err)
				}

				stored, err := controller.GetWithDeleted(ctx, note.ID())
				if err != nil {
					return errors.WithStack(err)
				}

				if !controller.IsDeleted(stored) {
					t.Errorf("controller.IsDeleted(stored): expected true, got false")
				}

				restored, err := controller.Restore(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if !restored {
					t.Fatalf("controller.Restore(): expected true, got false")
				}

				if controller.IsDeleted(note) {
					t.Errorf("controller.IsDeleted(note): expected false after restore, got true")
				}

				if err := expectIDs(ctx, t, controller, controller.DefaultScope(), note.ID()); err != nil {
					return errors.WithStack(err)
				}

				if err := expectIDs(ctx, t, controller, controller.OnlyDeleted()); err != nil {
					return errors.WithStack(err)
				}

				return nil
			},
		},
		{
			Name: "DeleteIsIdempotent",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note], chain *callback.Chain[*model.Note], controller *service.SoftDeleteController[*model.Note]) error {
				note := model.NewNote("idempotent", "")

				if err := store.Insert(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				if _, err := controller.Delete(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				firstDeletedAt := note.DeletedAt()

				outcome, err := controller.Delete(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := service.OutcomeNotApplicable, outcome; e != g {
					t.Errorf("controller.Delete(): expected %s, got %s", e, g)
				}

				stored, err := controller.GetWithDeleted(ctx, note.ID())
				if err != nil {
					return errors.WithStack(err)
				}

				if g := stored.DeletedAt(); g == nil || !firstDeletedAt.Equal(*g) {
					t.Errorf("stored.DeletedAt(): expected %v, got %v", firstDeletedAt, g)
				}

				return nil
			},
		},
		{
			Name: "DeleteNewRecord",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note], chain *callback.Chain[*model.Note], controller *service.SoftDeleteController[*model.Note]) error {
				note := model.NewNote("never saved", "")

				outcome, err := controller.Delete(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := service.OutcomeNotApplicable, outcome; e != g {
					t.Errorf("controller.Delete(): expected %s, got %s", e, g)
				}

				if controller.IsDeleted(note) {
					t.Errorf("controller.IsDeleted(note): expected false, got true")
				}

				total, err := controller.Count(ctx, controller.WithDeleted())
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := int64(0), total; e != g {
					t.Errorf("controller.Count(): expected %d, got %d", e, g)
				}

				if err := controller.DeleteStrict(ctx, note); !errors.Is(err, service.ErrNotDestroyed) {
					t.Errorf("controller.DeleteStrict(): expected error '%v', got '%+v'", service.ErrNotDestroyed, err)
				}

				return nil
			},
		},
		{
			Name: "IsPersisted",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note], chain *callback.Chain[*model.Note], controller *service.SoftDeleteController[*model.Note]) error {
				note := model.NewNote("persisted", "")

				if controller.IsPersisted(note) {
					t.Errorf("controller.IsPersisted(note): expected false for a new record, got true")
				}

				if err := store.Insert(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				if !controller.IsPersisted(note) {
					t.Errorf("controller.IsPersisted(note): expected true before delete, got false")
				}

				if err := controller.DeleteStrict(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				if !controller.IsPersisted(note) {
					t.Errorf("controller.IsPersisted(note): expected true after delete, got false")
				}

				return nil
			},
		},
		{
			Name: "DestroyRunsHooks",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note], chain *callback.Chain[*model.Note], controller *service.SoftDeleteController[*model.Note]) error {
				calls := make([]string, 0)

				chain.
					Before(func(ctx context.Context, note *model.Note) (bool, error) {
						calls = append(calls, "before")
						return true, nil
					}).
					After(func(ctx context.Context, note *model.Note) error {
						if !model.IsDeleted(note) {
							t.Errorf("after hook: expected note to be deleted")
						}
						calls = append(calls, "after")
						return nil
					})

				note := model.NewNote("destroyed", "")

				if err := store.Insert(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				outcome, err := controller.Delete(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := service.OutcomeApplied, outcome; e != g {
					t.Errorf("controller.Delete(): expected %s, got %s", e, g)
				}

				if e, g := 0, len(calls); e != g {
					t.Errorf("len(calls): expected %d hook calls after delete, got %d", e, g)
				}

				if _, err := controller.Restore(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				if err := controller.DestroyStrict(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				t.Logf("calls: %s", spew.Sdump(calls))

				if e, g := 2, len(calls); e != g {
					t.Fatalf("len(calls): expected %d, got %d", e, g)
				}

				if e, g := "before", calls[0]; e != g {
					t.Errorf("calls[0]: expected %s, got %s", e, g)
				}

				if e, g := "after", calls[1]; e != g {
					t.Errorf("calls[1]: expected %s, got %s", e, g)
				}

				return nil
			},
		},
		{
			Name: "DestroyVetoed",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note], chain *callback.Chain[*model.Note], controller *service.SoftDeleteController[*model.Note]) error {
				afterCalled := false

				chain.
					Before(func(ctx context.Context, note *model.Note) (bool, error) {
						return false, nil
					}).
					After(func(ctx context.Context, note *model.Note) error {
						afterCalled = true
						return nil
					})

				note := model.NewNote("protected", "")

				if err := store.Insert(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				outcome, err := controller.Destroy(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := service.OutcomeFailed, outcome; e != g {
					t.Errorf("controller.Destroy(): expected %s, got %s", e, g)
				}

				if err := controller.DestroyStrict(ctx, note); !errors.Is(err, service.ErrNotDestroyed) {
					t.Errorf("controller.DestroyStrict(): expected error '%v', got '%+v'", service.ErrNotDestroyed, err)
				}

				if afterCalled {
					t.Errorf("after hook: expected not to be called")
				}

				if err := expectIDs(ctx, t, controller, controller.DefaultScope(), note.ID()); err != nil {
					return errors.WithStack(err)
				}

				return nil
			},
		},
		{
			Name: "DestroyAlreadyDeleted",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note], chain *callback.Chain[*model.Note], controller *service.SoftDeleteController[*model.Note]) error {
				calls := make([]string, 0)

				chain.
					Before(func(ctx context.Context, note *model.Note) (bool, error) {
						calls = append(calls, "before")
						return true, nil
					}).
					After(func(ctx context.Context, note *model.Note) error {
						calls = append(calls, "after")
						return nil
					})

				note := model.NewNote("deleted twice", "")

				if err := store.Insert(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				if err := controller.DeleteStrict(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				outcome, err := controller.Destroy(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := service.OutcomeNotApplicable, outcome; e != g {
					t.Errorf("controller.Destroy(): expected %s, got %s", e, g)
				}

				if e, g := []string{"before"}, calls; !slices.Equal(e, g) {
					t.Errorf("calls: expected %v, got %v", e, g)
				}

				if e, g := fixedNow, note.DeletedAt(); g == nil || !e.Equal(*g) {
					t.Errorf("note.DeletedAt(): expected %v, got %v", e, g)
				}

				return nil
			},
		},
		{
			Name: "DeleteConcurrentlyRemoved",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note], chain *callback.Chain[*model.Note], controller *service.SoftDeleteController[*model.Note]) error {
				note := model.NewNote("raced", "")

				if err := store.Insert(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				other, err := controller.GetWithDeleted(ctx, note.ID())
				if err != nil {
					return errors.WithStack(err)
				}

				if err := controller.DeletePermanentlyStrict(ctx, other); err != nil {
					return errors.WithStack(err)
				}

				outcome, err := controller.Delete(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := service.OutcomeFailed, outcome; e != g {
					t.Errorf("controller.Delete(): expected %s, got %s", e, g)
				}

				if err := controller.DeleteStrict(ctx, note); !errors.Is(err, service.ErrNotDestroyed) {
					t.Errorf("controller.DeleteStrict(): expected error '%v', got '%+v'", service.ErrNotDestroyed, err)
				}

				if controller.IsDeleted(note) {
					t.Errorf("controller.IsDeleted(note): expected false, got true")
				}

				return nil
			},
		},
		{
			Name: "DestroyPermanently",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note], chain *callback.Chain[*model.Note], controller *service.SoftDeleteController[*model.Note]) error {
				afterCalled := false

				chain.After(func(ctx context.Context, note *model.Note) error {
					afterCalled = true
					return nil
				})

				note := model.NewNote("purged", "")

				if err := store.Insert(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				if err := controller.DeleteStrict(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				if err := controller.DestroyPermanentlyStrict(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				if !afterCalled {
					t.Errorf("after hook: expected to be called")
				}

				if !note.IsRemoved() {
					t.Errorf("note.IsRemoved(): expected true, got false")
				}

				if err := expectIDs(ctx, t, controller, controller.WithDeleted()); err != nil {
					return errors.WithStack(err)
				}

				if _, err := controller.GetWithDeleted(ctx, note.ID()); !errors.Is(err, port.ErrNotFound) {
					t.Errorf("controller.GetWithDeleted(): expected error '%v', got '%+v'", port.ErrNotFound, err)
				}

				restored, err := controller.Restore(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if restored {
					t.Errorf("controller.Restore(): expected false after permanent deletion, got true")
				}

				outcome, err := controller.DestroyPermanently(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := service.OutcomeNotApplicable, outcome; e != g {
					t.Errorf("controller.DestroyPermanently(): expected %s, got %s", e, g)
				}

				return nil
			},
		},
		{
			Name: "FindAndCountScopes",
			Run: func(t *testing.T, ctx context.Context, store port.RecordStore[*model.Note], chain *callback.Chain[*model.Note], controller *service.SoftDeleteController[*model.Note]) error {
				notes, err := insertNotes(ctx, store, "kept", "dropped", "also kept")
				if err != nil {
					return errors.WithStack(err)
				}

				if err := controller.DeleteStrict(ctx, notes[1]); err != nil {
					return errors.WithStack(err)
				}

				live, err := controller.Find(ctx, nil)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := 2, len(live); e != g {
					t.Errorf("len(live): expected %d, got %d", e, g)
				}

				counts := []struct {
					Name     string
					Query    *port.Query
					Expected int64
				}{
					{Name: "nil", Query: nil, Expected: 2},
					{Name: "DefaultScope", Query: controller.DefaultScope(), Expected: 2},
					{Name: "WithDeleted", Query: controller.WithDeleted(), Expected: 3},
					{Name: "OnlyDeleted", Query: controller.OnlyDeleted(), Expected: 1},
					{Name: "Deleted", Query: controller.Deleted(), Expected: 1},
				}

				for _, c := range counts {
					total, err := controller.Count(ctx, c.Query)
					if err != nil {
						return errors.WithStack(err)
					}

					if e, g := c.Expected, total; e != g {
						t.Errorf("controller.Count(%s): expected %d, got %d", c.Name, e, g)
					}
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

			chain := callback.NewChain[*model.Note]()

			controller := service.NewSoftDeleteController(
				store,
				service.WithSoftDeleteControllerClock[*model.Note](func() time.Time { return fixedNow }),
				service.WithSoftDeleteControllerCallbacks(chain),
			)

			if err := tc.Run(t, ctx, store, chain, controller); err != nil {
				t.Fatalf("could not run test: %+v", errors.WithStack(err))
			}
		})
	}
}

func expectIDs(ctx context.Context, t *testing.T, controller *service.SoftDeleteController[*model.Note], query *port.Query, ids ...model.RecordID) error {
	t.Helper()

	found, err := controller.Find(ctx, query)
	if err != nil {
		return errors.WithStack(err)
	}

	if e, g := len(ids), len(found); e != g {
		t.Errorf("len(found): expected %d, got %d (%s)", e, g, spew.Sdump(found))
		return nil
	}

	for i, id := range ids {
		if e, g := id, found[i].ID(); e != g {
			t.Errorf("found[%d].ID(): expected %s, got %s", i, e, g)
		}
	}

	return nil
}
