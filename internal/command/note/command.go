package note

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bornholm/paranoid/internal/command/common"
	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/port"
	"github.com/bornholm/paranoid/internal/core/service"
	"github.com/bornholm/paranoid/internal/log"
	"github.com/bornholm/paranoid/internal/setup"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	flagTitle       = "title"
	flagContent     = "content"
	flagWithDeleted = "with-deleted"
	flagOnlyDeleted = "only-deleted"
	flagStrict      = "strict"
	flagLimit       = "limit"
)

var strictFlag = &cli.BoolFlag{
	Name:  flagStrict,
	Usage: "Fail if the note could not be deleted",
}

func Command() *cli.Command {
	return &cli.Command{
		Name:  "note",
		Usage: "Manage soft deletable notes",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a new note",
				Flags: common.WithCommonFlags(
					&cli.StringFlag{
						Name:     flagTitle,
						Aliases:  []string{"t"},
						Usage:    "Title of the note",
						Required: true,
					},
					&cli.StringFlag{
						Name:    flagContent,
						Aliases: []string{"c"},
						Usage:   "Content of the note",
					},
				),
				Action: withController(func(cCtx *cli.Context, controller *service.SoftDeleteController[*model.Note], store port.RecordStore[*model.Note]) error {
					note := model.NewNote(cCtx.String(flagTitle), cCtx.String(flagContent))

					if err := store.Insert(cCtx.Context, note); err != nil {
						return errors.Wrap(err, "could not create note")
					}

					return writeNotes(cCtx, controller, note)
				}),
			},
			{
				Name:  "list",
				Usage: "List notes, excluding deleted ones by default",
				Flags: common.WithCommonFlags(
					&cli.BoolFlag{
						Name:  flagWithDeleted,
						Usage: "Include deleted notes",
					},
					&cli.BoolFlag{
						Name:  flagOnlyDeleted,
						Usage: "Only list deleted notes",
					},
					&cli.IntFlag{
						Name:  flagLimit,
						Usage: "Maximum number of notes to list",
					},
				),
				Action: withController(func(cCtx *cli.Context, controller *service.SoftDeleteController[*model.Note], store port.RecordStore[*model.Note]) error {
					if cCtx.Bool(flagWithDeleted) && cCtx.Bool(flagOnlyDeleted) {
						return errors.Errorf("flags --%s and --%s are mutually exclusive", flagWithDeleted, flagOnlyDeleted)
					}

					query := controller.DefaultScope()

					switch {
					case cCtx.Bool(flagWithDeleted):
						query = controller.WithDeleted()
					case cCtx.Bool(flagOnlyDeleted):
						query = controller.OnlyDeleted()
					}

					query = query.OrderBy(model.AttrCreatedAt, false)

					if limit := cCtx.Int(flagLimit); limit > 0 {
						query = query.Limit(limit)
					}

					notes, err := controller.Find(cCtx.Context, query)
					if err != nil {
						return errors.Wrap(err, "could not list notes")
					}

					return writeNotes(cCtx, controller, notes...)
				}),
			},
			{
				Name:      "show",
				Usage:     "Show a note, whatever its deletion state",
				ArgsUsage: "<id>",
				Flags:     common.WithCommonFlags(),
				Action: withNote(func(cCtx *cli.Context, controller *service.SoftDeleteController[*model.Note], note *model.Note) error {
					return writeNotes(cCtx, controller, note)
				}),
			},
			{
				Name:      "delete",
				Usage:     "Soft delete a note without running the destroy hooks",
				ArgsUsage: "<id>",
				Flags:     common.WithCommonFlags(strictFlag),
				Action:    lifecycleAction(func(c *service.SoftDeleteController[*model.Note]) lifecycleOps { return lifecycleOps{c.Delete, c.DeleteStrict} }),
			},
			{
				Name:      "destroy",
				Usage:     "Soft delete a note, running the destroy hooks",
				ArgsUsage: "<id>",
				Flags:     common.WithCommonFlags(strictFlag),
				Action:    lifecycleAction(func(c *service.SoftDeleteController[*model.Note]) lifecycleOps { return lifecycleOps{c.Destroy, c.DestroyStrict} }),
			},
			{
				Name:      "purge",
				Usage:     "Permanently remove a note, running the destroy hooks",
				ArgsUsage: "<id>",
				Flags:     common.WithCommonFlags(strictFlag),
				Action: lifecycleAction(func(c *service.SoftDeleteController[*model.Note]) lifecycleOps {
					return lifecycleOps{c.DestroyPermanently, c.DestroyPermanentlyStrict}
				}),
			},
			{
				Name:      "restore",
				Usage:     "Restore a deleted note",
				ArgsUsage: "<id>",
				Flags:     common.WithCommonFlags(),
				Action: withNote(func(cCtx *cli.Context, controller *service.SoftDeleteController[*model.Note], note *model.Note) error {
					restored, err := controller.Restore(cCtx.Context, note)
					if err != nil {
						return errors.Wrapf(err, "could not restore note '%s'", note.ID())
					}

					if !restored {
						return errors.Errorf("note '%s' was not restored", note.ID())
					}

					return writeNotes(cCtx, controller, note)
				}),
			},
		},
	}
}

type lifecycleOps struct {
	run    func(ctx context.Context, note *model.Note) (service.Outcome, error)
	strict func(ctx context.Context, note *model.Note) error
}

func lifecycleAction(getOps func(c *service.SoftDeleteController[*model.Note]) lifecycleOps) cli.ActionFunc {
	return withNote(func(cCtx *cli.Context, controller *service.SoftDeleteController[*model.Note], note *model.Note) error {
		ops := getOps(controller)

		if cCtx.Bool(flagStrict) {
			if err := ops.strict(cCtx.Context, note); err != nil {
				return errors.WithStack(err)
			}

			fmt.Fprintf(cCtx.App.Writer, "%s\t%s\n", note.ID(), service.OutcomeApplied)

			return nil
		}

		outcome, err := ops.run(cCtx.Context, note)
		if err != nil {
			return errors.WithStack(err)
		}

		fmt.Fprintf(cCtx.App.Writer, "%s\t%s\n", note.ID(), outcome)

		return nil
	})
}

func withController(fn func(cCtx *cli.Context, controller *service.SoftDeleteController[*model.Note], store port.RecordStore[*model.Note]) error) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		conf, err := common.GetConfig(cCtx)
		if err != nil {
			return errors.WithStack(err)
		}

		controller, err := setup.NewNoteControllerFromConfig(cCtx.Context, conf)
		if err != nil {
			return errors.Wrap(err, "could not create note controller from config")
		}

		store, err := setup.NewNoteStoreFromConfig(cCtx.Context, conf)
		if err != nil {
			return errors.Wrap(err, "could not create note store from config")
		}

		return fn(cCtx, controller, store)
	}
}

func withNote(fn func(cCtx *cli.Context, controller *service.SoftDeleteController[*model.Note], note *model.Note) error) cli.ActionFunc {
	return withController(func(cCtx *cli.Context, controller *service.SoftDeleteController[*model.Note], store port.RecordStore[*model.Note]) error {
		id := cCtx.Args().First()
		if id == "" {
			return errors.New("missing note id argument")
		}

		cCtx.Context = log.WithAttrs(cCtx.Context, slog.String("note_id", id))

		note, err := controller.GetWithDeleted(cCtx.Context, model.RecordID(id))
		if err != nil {
			return errors.Wrapf(err, "could not retrieve note '%s'", id)
		}

		return fn(cCtx, controller, note)
	})
}

func writeNotes(cCtx *cli.Context, controller *service.SoftDeleteController[*model.Note], notes ...*model.Note) error {
	format, err := common.GetFormat(cCtx)
	if err != nil {
		return errors.WithStack(err)
	}

	rows := make([]common.Row, 0, len(notes))
	for _, n := range notes {
		var deletedAt any
		if d := n.DeletedAt(); d != nil {
			deletedAt = d.Format(time.RFC3339)
		}

		rows = append(rows, common.Row{
			Keys: []string{"id", "title", "deleted", "deleted_at", "created_at"},
			Values: map[string]any{
				"id":         string(n.ID()),
				"title":      n.Title(),
				"content":    n.Content(),
				"deleted":    controller.IsDeleted(n),
				"deleted_at": deletedAt,
				"created_at": n.CreatedAt().Format(time.RFC3339),
			},
		})
	}

	if err := common.WriteRows(cCtx.App.Writer, format, rows...); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
