package tag

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/bornholm/paranoid/internal/core/port"
	"github.com/bornholm/paranoid/internal/core/service"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	_ "github.com/bornholm/paranoid/internal/adapter/memory"
)

const testStorage = "memory://"

func TestCommand(t *testing.T) {
	t.Setenv("PARANOID_STORAGE_URI", testStorage)

	output, err := runTag("create", "--storage", testStorage, "--format", "yaml", "--label", "urgent")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	var created []map[string]any
	if err := yaml.Unmarshal([]byte(output), &created); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 1, len(created); e != g {
		t.Fatalf("len(created): expected %d, got %d", e, g)
	}

	id, _ := created[0]["id"].(string)
	if id == "" {
		t.Fatalf("missing tag id in output '%s'", output)
	}

	output, err = runTag("delete", "--storage", testStorage, "--strict", id)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := fmt.Sprintf("%s\t%s\n", id, service.OutcomeApplied), output; e != g {
		t.Errorf("tag delete --strict: expected output '%s', got '%s'", e, g)
	}

	if _, err := runTag("delete", "--storage", testStorage, id); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("tag delete: expected error '%v', got '%+v'", port.ErrNotFound, err)
	}

	output, err = runTag("list", "--storage", testStorage, "--format", "yaml")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	var listed []map[string]any
	if err := yaml.Unmarshal([]byte(output), &listed); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 0, len(listed); e != g {
		t.Errorf("len(listed): expected %d, got %d", e, g)
	}
}

func runTag(args ...string) (string, error) {
	var output bytes.Buffer

	app := &cli.App{
		Name:           "paranoid",
		Writer:         &output,
		ErrWriter:      io.Discard,
		Commands:       []*cli.Command{Command()},
		ExitErrHandler: func(cCtx *cli.Context, err error) {},
	}

	err := app.RunContext(context.Background(), append([]string{"paranoid", "tag"}, args...))

	return output.String(), err
}
