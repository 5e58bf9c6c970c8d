package gorm

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/port"
	"github.com/bornholm/paranoid/internal/core/port/testsuite"
	"github.com/bornholm/paranoid/internal/core/service"
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/ncruces/go-sqlite3/embed"
)

func TestNoteStore(t *testing.T) {
	testsuite.TestRecordStore(t, func(t *testing.T) (port.RecordStore[*model.Note], error) {
		db, err := openTestDatabase(t)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		return NewNoteStore(db, WithBaseBackoff(10*time.Millisecond)), nil
	})
}

func TestNoteController(t *testing.T) {
	testsuite.TestSoftDeleteController(t, func(t *testing.T) (port.RecordStore[*model.Note], error) {
		db, err := openTestDatabase(t)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		return NewNoteStore(db), nil
	})
}

func TestSoftDeleteKeepsUpdatedAt(t *testing.T) {
	ctx := context.Background()

	db, err := openTestDatabase(t)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	store := NewNoteStore(db)
	controller := service.NewSoftDeleteController[*model.Note](store)

	note := model.NewNote("untouched", "")

	if err := store.Insert(ctx, note); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	before, err := store.Get(ctx, note.ID())
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := controller.DeleteStrict(ctx, note); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	var row Note
	if err := db.First(&row, "id = ?", string(note.ID())).Error; err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if row.DeletedAt == nil {
		t.Fatalf("row.DeletedAt: expected timestamp, got nil")
	}

	if e, g := before.UpdatedAt(), row.UpdatedAt; !e.Equal(g) {
		t.Errorf("row.UpdatedAt: expected %v, got %v", e, g)
	}
}

func TestTagStore(t *testing.T) {
	ctx := context.Background()

	db, err := openTestDatabase(t)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	store := NewTagStore(db)
	controller := service.NewSoftDeleteController[*model.Tag](store)

	tag := model.NewTag("urgent")

	if err := store.Insert(ctx, tag); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := store.Insert(ctx, model.NewTag("urgent")); !errors.Is(err, port.ErrAlreadyExists) {
		t.Errorf("store.Insert(): expected error '%v', got '%+v'", port.ErrAlreadyExists, err)
	}

	outcome, err := controller.Delete(ctx, tag)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := service.OutcomeApplied, outcome; e != g {
		t.Errorf("controller.Delete(): expected %s, got %s", e, g)
	}

	total, err := controller.Count(ctx, controller.WithDeleted())
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(0), total; e != g {
		t.Errorf("controller.Count(): expected %d, got %d", e, g)
	}

	if controller.IsPersisted(tag) {
		t.Errorf("controller.IsPersisted(tag): expected false, got true")
	}
}

func openTestDatabase(t *testing.T) (*gorm.DB, error) {
	dsn := filepath.Join(t.TempDir(), "test.sqlite")

	db, err := gorm.Open(gormlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	internalDB, err := db.DB()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	internalDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		if err := internalDB.Close(); err != nil {
			t.Logf("could not close database: %+v", errors.WithStack(err))
		}
	})

	return db, nil
}
