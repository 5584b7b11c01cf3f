package main

import (
	"fmt"
	"os"

	"github.com/metabrainz/picard-plugin-tools/internal/interfaces/cli"
	"github.com/metabrainz/picard-plugin-tools/internal/interfaces/di"
)

func main() {
	container, err := di.NewContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	cli.Execute(container.GetCLIContainer())
}
