package cli

import (
	"context"

	"github.com/ralt/debcube/internal/config"
	"github.com/ralt/debcube/internal/pipeline"
	"github.com/ralt/debcube/internal/workspace"
	"github.com/spf13/cobra"
)

// app carries the state shared by all commands once flags are parsed
type app struct {
	configFile string
	cfg        *config.Config
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "debcube",
		Short: "Analyze Debian package repositories offline",
		Long: `Debcube builds a catalog from apt package indices and a dpkg status
snapshot kept in a workspace, then answers questions about it without
touching the network or the package manager.

  debcube init ./cube
  debcube -w ./cube mirror --root /
  debcube -w ./cube scan
  debcube -w ./cube deps nginx --export ./out`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(a.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			cfg.ApplyLogging()
			a.cfg = cfg
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("workspace", "w", config.DefaultWorkDir, "Workspace directory")
	rootCmd.PersistentFlags().String("arch", config.DefaultArch, "Architecture of the indices")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLevel, "Log level")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (defaults to <workspace>/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(
		newInitCmd(a),
		newMirrorCmd(a),
		newImportCmd(a),
		newScanCmd(a),
		newListCmd(a),
		newDepsCmd(a),
		newShowCmd(a),
	)

	return rootCmd
}

func (a *app) openWorkspace() (*workspace.Workspace, error) {
	return workspace.Open(a.cfg.Workspace)
}

// scan opens the workspace and builds its catalog
func (a *app) scan(ctx context.Context) (*pipeline.Result, error) {
	ws, err := a.openWorkspace()
	if err != nil {
		return nil, err
	}
	return pipeline.Run(ctx, ws, a.cfg)
}
