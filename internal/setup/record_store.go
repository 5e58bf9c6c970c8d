package setup

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/bornholm/paranoid/internal/adapter/cache"
	gormAdapter "github.com/bornholm/paranoid/internal/adapter/gorm"
	"github.com/bornholm/paranoid/internal/config"
	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/port"
	"github.com/pkg/errors"
)

var (
	NoteStore = NewRegistry[port.RecordStore[*model.Note]]()
	TagStore  = NewRegistry[port.RecordStore[*model.Tag]]()
)

func init() {
	NoteStore.Register("sqlite", func(u *url.URL) (port.RecordStore[*model.Note], error) {
		db, err := getGormDatabase(u)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		opts, err := getGormStoreOptions(u)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		return gormAdapter.NewNoteStore(db, opts...), nil
	})

	TagStore.Register("sqlite", func(u *url.URL) (port.RecordStore[*model.Tag], error) {
		db, err := getGormDatabase(u)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		opts, err := getGormStoreOptions(u)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		return gormAdapter.NewTagStore(db, opts...), nil
	})
}

var NewNoteStoreFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.RecordStore[*model.Note], error) {
	return newRecordStoreFromConfig(ctx, conf, NoteStore)
})

var NewTagStoreFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (port.RecordStore[*model.Tag], error) {
	return newRecordStoreFromConfig(ctx, conf, TagStore)
})

func newRecordStoreFromConfig[T cache.Record[T]](ctx context.Context, conf *config.Config, registry *Registry[port.RecordStore[T]]) (port.RecordStore[T], error) {
	store, err := registry.From(conf.Storage.URI)
	if err != nil {
		return nil, errors.Wrapf(err, "could not retrieve record store for uri '%s'", conf.Storage.URI)
	}

	if conf.Storage.Cache.Enabled {
		slog.DebugContext(ctx, "using cached record store", slog.Duration("ttl", conf.Storage.Cache.TTL), slog.Int("cache_size", conf.Storage.Cache.Size))
		store = cache.NewRecordStore(store, conf.Storage.Cache.Size, conf.Storage.Cache.TTL)
	}

	return store, nil
}
