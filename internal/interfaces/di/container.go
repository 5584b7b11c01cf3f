// Package di wires the application's dependencies together for the CLI.
package di

import (
	"fmt"
	"log"
	"os"

	"github.com/metabrainz/picard-plugin-tools/internal/infrastructure/config"
	"github.com/metabrainz/picard-plugin-tools/internal/interfaces/cli"
)

// Container holds the application-wide dependencies
type Container struct {
	Config *config.Config
	Logger *log.Logger
}

// NewContainer loads configuration and assembles the dependency container
func NewContainer() (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return &Container{
		Config: cfg,
		Logger: log.New(os.Stderr, "", log.LstdFlags),
	}, nil
}

// GetCLIContainer creates a CLI container with the required dependencies
func (c *Container) GetCLIContainer() *cli.CLIContainer {
	return &cli.CLIContainer{
		Config:        c.Config,
		Logger:        c.Logger,
		MainContainer: c,
	}
}
