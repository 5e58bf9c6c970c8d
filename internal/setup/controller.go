package setup

import (
	"context"
	"log/slog"

	"github.com/bornholm/paranoid/internal/config"
	"github.com/bornholm/paranoid/internal/core/callback"
	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/service"
	"github.com/pkg/errors"
)

var NewNoteControllerFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.SoftDeleteController[*model.Note], error) {
	store, err := NewNoteStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create note store from config")
	}

	callbacks := callback.NewChain[*model.Note]().
		After(func(ctx context.Context, note *model.Note) error {
			slog.InfoContext(ctx, "note destroyed", slog.String("id", string(note.ID())), slog.Bool("removed", note.IsRemoved()))
			return nil
		})

	return service.NewSoftDeleteController(store, service.WithSoftDeleteControllerCallbacks(callbacks)), nil
})

var NewTagControllerFromConfig = createFromConfigOnce(func(ctx context.Context, conf *config.Config) (*service.SoftDeleteController[*model.Tag], error) {
	store, err := NewTagStoreFromConfig(ctx, conf)
	if err != nil {
		return nil, errors.Wrap(err, "could not create tag store from config")
	}

	return service.NewSoftDeleteController(store), nil
})
