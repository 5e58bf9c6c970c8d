package tag

import (
	"fmt"
	"time"

	"github.com/bornholm/paranoid/internal/command/common"
	"github.com/bornholm/paranoid/internal/core/model"
	"github.com/bornholm/paranoid/internal/core/service"
	"github.com/bornholm/paranoid/internal/setup"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	flagLabel  = "label"
	flagStrict = "strict"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:  "tag",
		Usage: "Manage tags, which are permanently deleted",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a new tag",
				Flags: common.WithCommonFlags(
					&cli.StringFlag{
						Name:     flagLabel,
						Aliases:  []string{"l"},
						Usage:    "Label of the tag",
						Required: true,
					},
				),
				Action: func(cCtx *cli.Context) error {
					ctx := cCtx.Context

					conf, err := common.GetConfig(cCtx)
					if err != nil {
						return errors.WithStack(err)
					}

					store, err := setup.NewTagStoreFromConfig(ctx, conf)
					if err != nil {
						return errors.Wrap(err, "could not create tag store from config")
					}

					tag := model.NewTag(cCtx.String(flagLabel))

					if err := store.Insert(ctx, tag); err != nil {
						return errors.Wrap(err, "could not create tag")
					}

					return writeTags(cCtx, tag)
				},
			},
			{
				Name:  "list",
				Usage: "List tags",
				Flags: common.WithCommonFlags(),
				Action: func(cCtx *cli.Context) error {
					ctx := cCtx.Context

					conf, err := common.GetConfig(cCtx)
					if err != nil {
						return errors.WithStack(err)
					}

					controller, err := setup.NewTagControllerFromConfig(ctx, conf)
					if err != nil {
						return errors.Wrap(err, "could not create tag controller from config")
					}

					tags, err := controller.Find(ctx, controller.DefaultScope().OrderBy(model.AttrTagLabel, false))
					if err != nil {
						return errors.Wrap(err, "could not list tags")
					}

					return writeTags(cCtx, tags...)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a tag",
				ArgsUsage: "<id>",
				Flags: common.WithCommonFlags(
					&cli.BoolFlag{
						Name:  flagStrict,
						Usage: "Fail if the tag could not be deleted",
					},
				),
				Action: func(cCtx *cli.Context) error {
					ctx := cCtx.Context

					id := cCtx.Args().First()
					if id == "" {
						return errors.New("missing tag id argument")
					}

					conf, err := common.GetConfig(cCtx)
					if err != nil {
						return errors.WithStack(err)
					}

					controller, err := setup.NewTagControllerFromConfig(ctx, conf)
					if err != nil {
						return errors.Wrap(err, "could not create tag controller from config")
					}

					tag, err := controller.Get(ctx, model.RecordID(id))
					if err != nil {
						return errors.Wrapf(err, "could not retrieve tag '%s'", id)
					}

					if cCtx.Bool(flagStrict) {
						if err := controller.DestroyStrict(ctx, tag); err != nil {
							return errors.WithStack(err)
						}

						fmt.Fprintf(cCtx.App.Writer, "%s\t%s\n", tag.ID(), service.OutcomeApplied)

						return nil
					}

					outcome, err := controller.Destroy(ctx, tag)
					if err != nil {
						return errors.WithStack(err)
					}

					fmt.Fprintf(cCtx.App.Writer, "%s\t%s\n", tag.ID(), outcome)

					return nil
				},
			},
		},
	}
}

func writeTags(cCtx *cli.Context, tags ...*model.Tag) error {
	format, err := common.GetFormat(cCtx)
	if err != nil {
		return errors.WithStack(err)
	}

	rows := make([]common.Row, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, common.Row{
			Keys: []string{"id", "label", "created_at"},
			Values: map[string]any{
				"id":         string(t.ID()),
				"label":      t.Label(),
				"created_at": t.CreatedAt().Format(time.RFC3339),
			},
		})
	}

	if err := common.WriteRows(cCtx.App.Writer, format, rows...); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
