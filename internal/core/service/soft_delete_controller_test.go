package service

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/bornholm/paranoid/internal/core/callback"
	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/port"
	"github.com/bornholm/paranoid/internal/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSoftDeleteControllerStoreFailures(t *testing.T) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, store *stubStore[*model.Note], controller *SoftDeleteController[*model.Note]) error
	}

	var testCases []testCase = []testCase{
		{
			Name: "WriteRejected",
			Run: func(t *testing.T, ctx context.Context, store *stubStore[*model.Note], controller *SoftDeleteController[*model.Note]) error {
				store.updateResult = false

				note := loadedNote()

				outcome, err := controller.Delete(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := OutcomeFailed, outcome; e != g {
					t.Errorf("controller.Delete(): expected %s, got %s", e, g)
				}

				if controller.IsDeleted(note) {
					t.Errorf("controller.IsDeleted(note): expected false, got true")
				}

				before := testutil.ToFloat64(metrics.NotDestroyed.WithLabelValues(model.KindNote, "delete"))

				err = controller.DeleteStrict(ctx, note)
				if !errors.Is(err, ErrNotDestroyed) {
					t.Errorf("controller.DeleteStrict(): expected error '%v', got '%+v'", ErrNotDestroyed, err)
				}

				after := testutil.ToFloat64(metrics.NotDestroyed.WithLabelValues(model.KindNote, "delete"))

				if e, g := before+1, after; e != g {
					t.Errorf("metrics.NotDestroyed: expected %v, got %v", e, g)
				}

				return nil
			},
		},
		{
			Name: "StoreErrorPropagates",
			Run: func(t *testing.T, ctx context.Context, store *stubStore[*model.Note], controller *SoftDeleteController[*model.Note]) error {
				storeErr := errors.New("constraint violation")
				store.updateErr = storeErr

				note := loadedNote()

				outcome, err := controller.Delete(ctx, note)
				if !errors.Is(err, storeErr) {
					t.Errorf("controller.Delete(): expected error '%v', got '%+v'", storeErr, err)
				}

				if e, g := OutcomeFailed, outcome; e != g {
					t.Errorf("controller.Delete(): expected %s, got %s", e, g)
				}

				err = controller.DeleteStrict(ctx, note)
				if !errors.Is(err, storeErr) {
					t.Errorf("controller.DeleteStrict(): expected error '%v', got '%+v'", storeErr, err)
				}

				if errors.Is(err, ErrNotDestroyed) {
					t.Errorf("controller.DeleteStrict(): store error should not be translated")
				}

				return nil
			},
		},
		{
			Name: "NewRecordNoWrite",
			Run: func(t *testing.T, ctx context.Context, store *stubStore[*model.Note], controller *SoftDeleteController[*model.Note]) error {
				note := model.NewNote("new", "")

				outcome, err := controller.Delete(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := OutcomeNotApplicable, outcome; e != g {
					t.Errorf("controller.Delete(): expected %s, got %s", e, g)
				}

				outcome, err = controller.DeletePermanently(ctx, note)
				if err != nil {
					return errors.WithStack(err)
				}

				if e, g := OutcomeNotApplicable, outcome; e != g {
					t.Errorf("controller.DeletePermanently(): expected %s, got %s", e, g)
				}

				if e, g := 0, store.writes; e != g {
					t.Errorf("store.writes: expected %d, got %d", e, g)
				}

				return nil
			},
		},
		{
			Name: "DeleteWritesClockValue",
			Run: func(t *testing.T, ctx context.Context, store *stubStore[*model.Note], controller *SoftDeleteController[*model.Note]) error {
				note := loadedNote()

				before := testutil.ToFloat64(metrics.Transitions.WithLabelValues(model.KindNote, metrics.TransitionDelete))

				if err := controller.DeleteStrict(ctx, note); err != nil {
					return errors.WithStack(err)
				}

				if e, g := model.AttrDeletedAt, store.lastAttr; e != g {
					t.Errorf("store.lastAttr: expected %s, got %s", e, g)
				}

				if e, g := any(testNow), store.lastValue; e != g {
					t.Errorf("store.lastValue: expected %v, got %v", e, g)
				}

				after := testutil.ToFloat64(metrics.Transitions.WithLabelValues(model.KindNote, metrics.TransitionDelete))

				if e, g := before+1, after; e != g {
					t.Errorf("metrics.Transitions: expected %v, got %v", e, g)
				}

				return nil
			},
		},
		{
			Name: "HookError",
			Run: func(t *testing.T, ctx context.Context, store *stubStore[*model.Note], controller *SoftDeleteController[*model.Note]) error {
				hookErr := errors.New("hook failure")

				controller.Callbacks().Before(func(ctx context.Context, note *model.Note) (bool, error) {
					return false, hookErr
				})

				note := loadedNote()

				outcome, err := controller.Destroy(ctx, note)
				if !errors.Is(err, hookErr) {
					t.Errorf("controller.Destroy(): expected error '%v', got '%+v'", hookErr, err)
				}

				if e, g := OutcomeFailed, outcome; e != g {
					t.Errorf("controller.Destroy(): expected %s, got %s", e, g)
				}

				if e, g := 0, store.writes; e != g {
					t.Errorf("store.writes: expected %d, got %d", e, g)
				}

				return nil
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctx := context.Background()
			store := newStubStore[*model.Note]()
			controller := NewSoftDeleteController[*model.Note](store, WithSoftDeleteControllerClock[*model.Note](func() time.Time { return testNow }))

			if err := tc.Run(t, ctx, store, controller); err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}
		})
	}
}

func TestSoftDeleteControllerScopes(t *testing.T) {
	notes := NewSoftDeleteController[*model.Note](newStubStore[*model.Note]())

	if !notes.IsSoftDeletable() {
		t.Errorf("notes.IsSoftDeletable(): expected true, got false")
	}

	if e, g := []string{"deleted_at IS NULL"}, predicates(notes.DefaultScope()); !slices.Equal(e, g) {
		t.Errorf("DefaultScope(): expected %v, got %v", e, g)
	}

	if e, g := []string{}, predicates(notes.WithDeleted()); !slices.Equal(e, g) {
		t.Errorf("WithDeleted(): expected %v, got %v", e, g)
	}

	if e, g := []string{"deleted_at IS NOT NULL"}, predicates(notes.OnlyDeleted()); !slices.Equal(e, g) {
		t.Errorf("OnlyDeleted(): expected %v, got %v", e, g)
	}

	if e, g := predicates(notes.OnlyDeleted()), predicates(notes.Deleted()); !slices.Equal(e, g) {
		t.Errorf("Deleted(): expected %v, got %v", e, g)
	}

	tags := NewSoftDeleteController[*model.Tag](newStubStore[*model.Tag]())

	if tags.IsSoftDeletable() {
		t.Errorf("tags.IsSoftDeletable(): expected false, got true")
	}

	if e, g := []string{}, predicates(tags.DefaultScope()); !slices.Equal(e, g) {
		t.Errorf("tags DefaultScope(): expected %v, got %v", e, g)
	}
}

func TestSoftDeleteControllerPlainRecord(t *testing.T) {
	ctx := context.Background()
	store := newStubStore[*model.Tag]()
	controller := NewSoftDeleteController[*model.Tag](store)

	tag := model.LoadTag(model.NewRecordID(), "plain", time.Now())

	if !controller.IsPersisted(tag) {
		t.Errorf("controller.IsPersisted(tag): expected true, got false")
	}

	outcome, err := controller.Delete(ctx, tag)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := OutcomeApplied, outcome; e != g {
		t.Errorf("controller.Delete(): expected %s, got %s", e, g)
	}

	if e, g := 1, store.physicalDeletes; e != g {
		t.Errorf("store.physicalDeletes: expected %d, got %d", e, g)
	}

	if controller.IsDeleted(tag) {
		t.Errorf("controller.IsDeleted(tag): expected false, got true")
	}

	if controller.IsPersisted(tag) {
		t.Errorf("controller.IsPersisted(tag): expected false after delete, got true")
	}

	if _, err := controller.Restore(ctx, tag); !errors.Is(err, ErrNotSoftDeletable) {
		t.Errorf("controller.Restore(): expected error '%v', got '%+v'", ErrNotSoftDeletable, err)
	}
}

type guardedNote struct {
	*model.Note
	allowed bool
	after   int
}

func (n *guardedNote) BeforeDestroy(ctx context.Context) (bool, error) {
	return n.allowed, nil
}

func (n *guardedNote) AfterDestroy(ctx context.Context) error {
	n.after++
	return nil
}

func TestSoftDeleteControllerRecordHooks(t *testing.T) {
	ctx := context.Background()
	store := newStubStore[*guardedNote]()
	controller := NewSoftDeleteController[*guardedNote](store, WithSoftDeleteControllerCallbacks(callback.NewChain[*guardedNote]()))

	note := &guardedNote{Note: loadedNote()}

	if err := controller.DestroyStrict(ctx, note); !errors.Is(err, ErrNotDestroyed) {
		t.Errorf("controller.DestroyStrict(): expected error '%v', got '%+v'", ErrNotDestroyed, err)
	}

	if e, g := 0, store.writes; e != g {
		t.Errorf("store.writes: expected %d, got %d", e, g)
	}

	note.allowed = true

	if err := controller.DestroyStrict(ctx, note); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 1, note.after; e != g {
		t.Errorf("note.after: expected %d, got %d", e, g)
	}

	if !controller.IsDeleted(note) {
		t.Errorf("controller.IsDeleted(note): expected true, got false")
	}
}

func TestOutcomeString(t *testing.T) {
	for outcome, expected := range map[Outcome]string{
		OutcomeFailed:        "failed",
		OutcomeApplied:       "applied",
		OutcomeNotApplicable: "not_applicable",
	} {
		if e, g := expected, outcome.String(); e != g {
			t.Errorf("Outcome(%d).String(): expected %s, got %s", outcome, e, g)
		}
	}
}

var testNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func loadedNote() *model.Note {
	return model.LoadNote(model.NewRecordID(), "loaded", "", testNow, testNow, nil)
}

func predicates(query *port.Query) []string {
	strs := make([]string, 0)
	for _, p := range query.Predicates() {
		strs = append(strs, p.String())
	}
	return strs
}

// stubStore records the writes it receives and answers them with
// the configured results.
type stubStore[T model.Record] struct {
	updateResult    bool
	updateErr       error
	writes          int
	physicalDeletes int
	lastAttr        string
	lastValue       any
}

func (s *stubStore[T]) Insert(ctx context.Context, record T) error {
	record.MarkPersisted()
	return nil
}

func (s *stubStore[T]) Get(ctx context.Context, id model.RecordID) (T, error) {
	return *new(T), errors.WithStack(port.ErrNotFound)
}

func (s *stubStore[T]) Find(ctx context.Context, query *port.Query) ([]T, error) {
	return nil, nil
}

func (s *stubStore[T]) Count(ctx context.Context, query *port.Query) (int64, error) {
	return 0, nil
}

func (s *stubStore[T]) UpdateAttribute(ctx context.Context, record T, attr string, value any) (bool, error) {
	s.writes++
	s.lastAttr = attr
	s.lastValue = value

	if s.updateErr != nil {
		return false, s.updateErr
	}

	return s.updateResult, nil
}

func (s *stubStore[T]) PhysicalDelete(ctx context.Context, record T) (bool, error) {
	s.writes++
	s.physicalDeletes++
	return true, nil
}

func (s *stubStore[T]) Persisted(record T) bool {
	return !record.IsNewRecord() && !record.IsRemoved()
}

func newStubStore[T model.Record]() *stubStore[T] {
	return &stubStore[T]{
		updateResult: true,
	}
}

var _ port.RecordStore[*model.Note] = newStubStore[*model.Note]()
