package command

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/bornholm/paranoid/internal/build"
	"github.com/bornholm/paranoid/internal/config"
	"github.com/bornholm/paranoid/internal/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const flagPrintMetrics = "print-metrics"

func Main(name string, usage string, commands ...*cli.Command) {
	app := &cli.App{
		Name:     name,
		Usage:    usage,
		Commands: commands,
		Version:  build.LongVersion,
		Before: func(ctx *cli.Context) error {
			workdir := ctx.String("workdir")
			// Switch to new working directory if defined
			if workdir != "" {
				if err := os.Chdir(workdir); err != nil {
					return errors.Wrap(err, "could not change working directory")
				}
			}

			conf, err := config.Parse()
			if err != nil {
				return errors.Wrap(err, "could not parse config")
			}

			logLevel := ctx.String("log-level")
			slogLevel := conf.Logger.Level

			switch logLevel {
			case "debug":
				slogLevel = slog.LevelDebug
			case "info":
				slogLevel = slog.LevelInfo
			case "warn":
				slogLevel = slog.LevelWarn
			case "error":
				slogLevel = slog.LevelError
			}

			logger := slog.New(log.ContextHandler{
				Handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level:     slog.Level(slogLevel),
					AddSource: true,
				}),
			})

			slog.SetDefault(logger)

			return nil
		},
		After: func(ctx *cli.Context) error {
			if !ctx.Bool(flagPrintMetrics) {
				return nil
			}

			if err := PrintMetrics(ctx.App.ErrWriter); err != nil {
				return errors.WithStack(err)
			}

			return nil
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Value:   false,
				EnvVars: []string{"PARANOID_CLI_DEBUG"},
				Usage:   "Toggle debug mode",
			},
			&cli.StringFlag{
				Name:    "workdir",
				Value:   "",
				EnvVars: []string{"PARANOID_CLI_WORKDIR"},
				Usage:   "The working directory",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"PARANOID_CLI_LOG_LEVEL"},
				Usage:   "Set logging level (overrides PARANOID_LOGGER_LEVEL)",
			},
			&cli.BoolFlag{
				Name:    flagPrintMetrics,
				EnvVars: []string{"PARANOID_CLI_PRINT_METRICS"},
				Usage:   "Print the lifecycle metrics collected during the command on exit",
			},
		},
	}

	app.ExitErrHandler = func(ctx *cli.Context, err error) {
		if err == nil {
			return
		}

		debug := ctx.Bool("debug")

		if !debug {
			slog.ErrorContext(ctx.Context, err.Error())
		} else {
			slog.ErrorContext(ctx.Context, fmt.Sprintf("%+v", err))
		}
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
