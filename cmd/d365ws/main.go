package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/example/d365-switch-workspace/internal/cli"
	"github.com/example/d365-switch-workspace/internal/d365ws/backup"
	"github.com/example/d365-switch-workspace/internal/d365ws/config"
	"github.com/example/d365-switch-workspace/internal/d365ws/diff"
	"github.com/example/d365-switch-workspace/internal/d365ws/linker"
	"github.com/example/d365-switch-workspace/internal/d365ws/paths"
	"github.com/example/d365-switch-workspace/internal/d365ws/storage"
	"github.com/example/d365-switch-workspace/internal/d365ws/switcher"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	localAppData := os.Getenv("LOCALAPPDATA")
	if localAppData == "" {
		localAppData = filepath.Join(home, "AppData", "Local")
	}

	st := storage.New(afero.NewOsFs())
	cfg := config.Load(st, config.Path(home))
	resolver := paths.New(st, home, localAppData)

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	env := switcher.NewEnvironment(st, resolver, cfg)
	deps := cli.Deps{
		Backup:   backup.New(st, resolver, cfg, logger),
		Switcher: switcher.New(st, resolver, cfg, env, logger),
		Linker:   linker.New(st, resolver, cfg, logger),
		Diff:     diff.New(st, resolver, cfg),
		Prompter: cli.NewPromptUI(),
	}

	root := cli.NewRootCommand(deps, os.Stdout, os.Stderr)

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if verbose {
			level.Set(slog.LevelDebug)
		}
	}

	return root.Execute()
}
