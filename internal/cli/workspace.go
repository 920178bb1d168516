package cli

import (
	"fmt"

	"github.com/ralt/debcube/internal/models"
	"github.com/ralt/debcube/internal/utils"
	"github.com/ralt/debcube/internal/workspace"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Workspace
			if len(args) == 1 {
				dir = args[0]
			}

			ws, err := workspace.Create(dir, name)
			if err != nil {
				return err
			}
			ws.Info.Arch = a.cfg.Arch
			if err := ws.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created workspace %s at %s\n", ws.Info.Name, ws.Root)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Workspace name (defaults to the directory name)")

	return cmd
}

func newMirrorCmd(a *app) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Copy apt sources, preferences, indices and the dpkg status into the workspace",
		Long: `Copies the apt configuration, the cached Packages indices and the dpkg
status file of the system mounted at --root into the workspace. Files that
did not change since the last mirror are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.openWorkspace()
			if err != nil {
				return err
			}

			report, err := workspace.Mirror(ws, root)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %s: %d copied, %d unchanged\n", root, len(report.Copied), len(report.Unchanged))
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "/", "Root of the system to mirror")

	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Import Packages indices (plain, gz, xz or zst) into the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.openWorkspace()
			if err != nil {
				return err
			}

			imported, err := utils.Import(cmd.Context(), args[0], ws.ListsPath())
			if err != nil {
				return &models.CubeError{Type: models.ErrFileOp, Err: err}
			}

			if len(imported) == 0 {
				logrus.Warnf("No index files found in %s", args[0])
			}
			for _, name := range imported {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
