package cli

import (
	"context"
	"reclone/internal/engine"
	"reclone/internal/flags"
	"reclone/internal/repo"
	"reclone/internal/source"

	"github.com/spf13/cobra"
)

func (a *app) pluginsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins <target_directory>",
		Short: "Re-clone every plugin checkout under --plugin-dir (the default command)",
		Long: `Re-clone every plugin checkout under --plugin-dir.

Each immediate subdirectory holding a .git directory is queried for the URL of
--remote. Checkouts without a readable remote are logged and skipped. The rest
are cloned into <target_directory>/<name>.`,
		Args: targetDirArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlugins(cmd, args[0])
		},
	}
	a.bindPluginFlags(cmd)
	return cmd
}

func (a *app) bindPluginFlags(cmd *cobra.Command) {
	cfg := a.cfg
	cmd.Flags().StringVar(&cfg.Sources.PluginDir, flags.FlagPluginDir, cfg.Sources.PluginDir, "Directory holding the plugin checkouts")
	cmd.Flags().StringVar(&cfg.Sources.Remote, flags.FlagRemote, cfg.Sources.Remote, "Remote whose URL is cloned")
}

func (a *app) runPlugins(cmd *cobra.Command, target string) error {
	runner, err := a.runner("")
	if err != nil {
		return err
	}
	a.runBatch(cmd, runner, engine.Source{
		Name:     "plugins",
		DestRoot: target,
		Discover: func(ctx context.Context) ([]repo.Ref, error) {
			return source.ListRepositories(ctx, runner, a.cfg.Sources.PluginDir, a.cfg.Sources.Remote)
		},
	})
	return nil
}
