package setup

import (
	"context"
	"net/url"
	"slices"
	"testing"

	"github.com/bornholm/paranoid/internal/adapter/cache"
	"github.com/bornholm/paranoid/internal/config"
	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/service"
	"github.com/pkg/errors"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry[string]()

	registry.Register("echo", func(u *url.URL) (string, error) {
		return u.Host, nil
	})

	if e, g := []string{"echo"}, registry.Schemes(); !slices.Equal(e, g) {
		t.Errorf("registry.Schemes(): expected %v, got %v", e, g)
	}

	value, err := registry.From("echo://hello")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "hello", value; e != g {
		t.Errorf("registry.From(): expected %s, got %s", e, g)
	}

	if _, err := registry.From("unknown://hello"); !errors.Is(err, ErrSchemeNotRegistered) {
		t.Errorf("registry.From(): expected error '%v', got '%+v'", ErrSchemeNotRegistered, err)
	}
}

func TestNoteStoreFromSQLiteURI(t *testing.T) {
	ctx := context.Background()

	store, err := NoteStore.From("sqlite://?maxRetries=2&baseBackoff=10ms")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	controller := service.NewSoftDeleteController(store)

	note := model.NewNote("from uri", "")

	if err := store.Insert(ctx, note); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := controller.DeleteStrict(ctx, note); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	total, err := controller.Count(ctx, controller.OnlyDeleted())
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(1), total; e != g {
		t.Errorf("controller.Count(): expected %d, got %d", e, g)
	}
}

func TestCachedRecordStoreFromConfig(t *testing.T) {
	conf := &config.Config{
		Storage: config.Storage{
			URI: "sqlite://",
			Cache: config.Cache{
				Enabled: true,
				Size:    8,
				TTL:     0,
			},
		},
	}

	store, err := newRecordStoreFromConfig(context.Background(), conf, TagStore)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, ok := store.(*cache.RecordStore[*model.Tag]); !ok {
		t.Errorf("store: unexpected type %T", store)
	}

	if _, err := getGormStoreOptions(&url.URL{RawQuery: "maxRetries=invalid"}); err == nil {
		t.Errorf("getGormStoreOptions(): expected error, got nil")
	}
}
