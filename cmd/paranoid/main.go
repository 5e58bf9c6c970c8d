package main

import (
	"github.com/bornholm/paranoid/internal/command"
	"github.com/bornholm/paranoid/internal/command/note"
	"github.com/bornholm/paranoid/internal/command/tag"

	_ "github.com/bornholm/paranoid/internal/adapter/memory"
)

func main() {
	command.Main(
		"paranoid", "a soft deletion toolbox for notes and tags",
		note.Command(),
		tag.Command(),
	)
}
