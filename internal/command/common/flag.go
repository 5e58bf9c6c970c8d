package common

import (
	"github.com/bornholm/paranoid/internal/config"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	paramStorage = "storage"
	paramFormat  = "format"

	FormatText = "text"
	FormatYAML = "yaml"
)

var (
	flagStorage = &cli.StringFlag{
		Name:    paramStorage,
		Aliases: []string{"s"},
		Usage:   "Record store uri, i.e. 'sqlite://paranoid.sqlite' or 'memory://' (overrides PARANOID_STORAGE_URI)",
	}
	flagFormat = &cli.StringFlag{
		Name:  paramFormat,
		Value: FormatText,
		Usage: "Output format (available: 'text', 'yaml')",
	}
)

func WithCommonFlags(flags ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		flagStorage,
		flagFormat,
	}, flags...)
}

// GetConfig parses the configuration from the environment and applies
// the command line overrides.
func GetConfig(ctx *cli.Context) (*config.Config, error) {
	conf, err := config.Parse()
	if err != nil {
		return nil, errors.Wrap(err, "could not parse config")
	}

	if storage := ctx.String(paramStorage); storage != "" {
		conf.Storage.URI = storage
	}

	return conf, nil
}

func GetFormat(ctx *cli.Context) (string, error) {
	format := ctx.String(paramFormat)

	switch format {
	case FormatText, FormatYAML:
		return format, nil
	default:
		return "", errors.Errorf("unknown output format '%s'", format)
	}
}
