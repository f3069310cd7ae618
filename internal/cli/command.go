package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/d365-switch-workspace/internal/d365ws/backup"
	"github.com/example/d365-switch-workspace/internal/d365ws/diff"
	"github.com/example/d365-switch-workspace/internal/d365ws/linker"
	"github.com/example/d365-switch-workspace/internal/d365ws/switcher"
	"github.com/example/d365-switch-workspace/internal/d365ws/xmlconf"
)

// settingOrder returns the managed keys present in the status map, in
// their canonical report order.
func settingOrder(settings map[string]string) []string {
	keys := make([]string, 0, len(settings))
	for _, key := range xmlconf.SettingKeys {
		if _, ok := settings[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// Deps carries the services the command tree operates on.
type Deps struct {
	Backup   *backup.Service
	Switcher *switcher.Service
	Linker   *linker.Service
	Diff     *diff.Service
	Prompter Prompter
}

// NewRootCommand constructs the root Cobra command for d365ws.
func NewRootCommand(deps Deps, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "d365ws",
		Short: "D365 F&O workspace switcher",
		Long:  "d365ws switches a development VM between metadata workspaces and keeps the touched config files restorable.",
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.AddCommand(newSwitchCommand(deps, stdout))
	cmd.AddCommand(newLinkCommand(deps, stdout))
	cmd.AddCommand(newBackupCommand(deps, stdout))
	cmd.AddCommand(newRestoreCommand(deps, stdout))
	cmd.AddCommand(newCleanCommand(deps, stdout))
	cmd.AddCommand(newDiffCommand(deps, stdout))
	cmd.AddCommand(newStatusCommand(deps, stdout))

	return cmd
}

func printResults(stdout io.Writer, results []backup.Result) {
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(stdout, "%-9s %s (%v)\n", res.Action, res.Path, res.Err)
			continue
		}
		fmt.Fprintf(stdout, "%-9s %s\n", res.Action, res.Path)
	}
}

func newSwitchCommand(deps Deps, stdout io.Writer) *cobra.Command {
	var skipPackages bool
	var skipIDE bool

	cmd := &cobra.Command{
		Use:   "switch <workspace-dir>",
		Short: "Point the platform and IDE at a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := deps.Switcher.Switch(args[0], switcher.Options{
				SwitchPackages:        !skipPackages,
				SwitchIDEProjectsPath: !skipIDE,
			})
			if err != nil {
				return err
			}
			if report.ActiveBefore != "" {
				fmt.Fprintf(stdout, "Active metadata directory was: %s\n", report.ActiveBefore)
			}
			if !skipPackages {
				fmt.Fprintf(stdout, "Web config now points at: %s\n", report.MetadataDir)
			}
			if !skipIDE {
				if report.IDEUpdated {
					fmt.Fprintf(stdout, "Default projects location now: %s\n", report.ProjectsDir)
				} else {
					fmt.Fprintln(stdout, "Default projects location unchanged.")
				}
			}
			if report.ActiveAfter != "" {
				fmt.Fprintf(stdout, "Active metadata directory is: %s\n", report.ActiveAfter)
			}
			for _, warning := range report.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", warning)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPackages, "skip-packages", false, "Do not rewrite the web config package directories")
	cmd.Flags().BoolVar(&skipIDE, "skip-ide", false, "Do not rewrite the Visual Studio default projects location")

	return cmd
}

func newLinkCommand(deps Deps, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "link <workspace-dir>",
		Short: "Symlink the vendor package store into a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := deps.Linker.Link(args[0])
			for _, res := range results {
				if res.Replaced {
					fmt.Fprintf(stdout, "replaced  %s -> %s\n", res.LinkPath, res.Target)
				} else {
					fmt.Fprintf(stdout, "linked    %s -> %s\n", res.LinkPath, res.Target)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Linked %d package(s).\n", len(results))
			return nil
		},
	}
}

func newBackupCommand(deps Deps, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [file]",
		Short: "Back up the managed config files, or a single file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				printResults(stdout, []backup.Result{deps.Backup.Backup(args[0])})
				return nil
			}
			results, err := deps.Backup.BackupAll()
			if err != nil {
				return err
			}
			printResults(stdout, results)
			return nil
		},
	}
}

func newRestoreCommand(deps Deps, stdout io.Writer) *cobra.Command {
	var includeIDE bool

	cmd := &cobra.Command{
		Use:   "restore [file]",
		Short: "Restore the managed config files from their backups",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				printResults(stdout, []backup.Result{deps.Backup.Restore(args[0])})
				return nil
			}
			results, err := deps.Backup.RestoreAll(includeIDE)
			if err != nil {
				return err
			}
			printResults(stdout, results)
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeIDE, "include-ide", false, "Also restore the Visual Studio settings file")

	return cmd
}

func newCleanCommand(deps Deps, stdout io.Writer) *cobra.Command {
	var includeIDE bool
	var force bool

	cmd := &cobra.Command{
		Use:   "clean [file]",
		Short: "Delete backup files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				printResults(stdout, []backup.Result{deps.Backup.Delete(args[0])})
				return nil
			}

			confirm := backup.Confirmer(func(label string) (bool, error) {
				ok, err := deps.Prompter.Confirm(label+" (y/N)", false)
				if err != nil {
					// A cancelled prompt counts as a decline.
					if errors.Is(err, ErrPromptCancelled) {
						return false, nil
					}
					return false, err
				}
				return ok, nil
			})
			if force {
				confirm = func(string) (bool, error) { return true, nil }
			}

			results, aborted, err := deps.Backup.DeleteAll(includeIDE, confirm)
			if err != nil {
				return err
			}
			if aborted {
				fmt.Fprintln(stdout, "Aborted. No backups were deleted.")
				return nil
			}
			printResults(stdout, results)
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeIDE, "include-ide", false, "Also delete the Visual Studio settings backup")
	cmd.Flags().BoolVar(&force, "force", false, "Do not prompt for confirmation")

	return cmd
}

func newDiffCommand(deps Deps, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <backup-dir>",
		Short: "Compare the live web config against a backed-up copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := deps.Diff.Compare(args[0])
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintf(stdout, "%s\n", entry.Key)
				switch {
				case !entry.CurrentFound && !entry.BackupFound:
					fmt.Fprintln(stdout, "  missing from both files")
				case !entry.CurrentFound:
					fmt.Fprintln(stdout, "  missing from live web config")
				case !entry.BackupFound:
					fmt.Fprintln(stdout, "  missing from backup web config")
				default:
					fmt.Fprintf(stdout, "  Current Value: %s\n", entry.Current)
					fmt.Fprintf(stdout, "  Backup Value:  %s\n", entry.Backup)
					fmt.Fprintf(stdout, "  Values Match?  %t\n", entry.Match)
				}
			}
			return nil
		},
	}
}

func newStatusCommand(deps Deps, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the active workspace configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := deps.Switcher.CurrentStatus()
			if err != nil {
				return err
			}
			if status.ActiveDir != "" {
				fmt.Fprintf(stdout, "Active metadata directory: %s\n", status.ActiveDir)
			}
			fmt.Fprintf(stdout, "Web config: %s\n", status.WebConfigPath)
			for _, key := range settingOrder(status.Settings) {
				fmt.Fprintf(stdout, "  %s = %s\n", key, status.Settings[key])
			}
			return nil
		},
	}
}
