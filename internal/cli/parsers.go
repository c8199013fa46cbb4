package cli

import (
	"context"
	"path/filepath"
	"reclone/internal/engine"
	"reclone/internal/flags"
	"reclone/internal/repo"
	"reclone/internal/source"

	"github.com/spf13/cobra"
)

func (a *app) parsersCommand() *cobra.Command {
	cfg := a.cfg
	cmd := &cobra.Command{
		Use:   "parsers <target_directory>",
		Short: "Clone the tree-sitter parsers listed in a manifest",
		Long: `Clone the tree-sitter parsers listed in a manifest.

The manifest maps parser names to {"install_info": {"url": ..., "files": [...]}}.
JSON (.json) and YAML (.yaml, .yml) are accepted. Entries without a url are
logged and skipped. Parsers are cloned into <target_directory>/<subdir>/<name>.`,
		Args: targetDirArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := a.runner("")
			if err != nil {
				return err
			}
			a.runBatch(cmd, runner, engine.Source{
				Name:     "parsers",
				DestRoot: filepath.Join(args[0], cfg.Sources.Subdir),
				Discover: func(ctx context.Context) ([]repo.Ref, error) {
					entries, err := source.LoadManifest(ctx, cfg.Sources.Manifest)
					if err != nil {
						return nil, err
					}
					return repo.Refs(entries), nil
				},
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.Sources.Manifest, flags.FlagManifest, cfg.Sources.Manifest, "Parser manifest (JSON or YAML)")
	cmd.Flags().StringVar(&cfg.Sources.Subdir, flags.FlagSubdir, cfg.Sources.Subdir, "Subdirectory of the target that parsers are cloned into")
	return cmd
}
