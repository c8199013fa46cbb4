package cli

import (
	"context"
	"errors"
	"fmt"
	"reclone/internal/engine"
	"reclone/internal/flags"
	gh "reclone/internal/github"
	"reclone/internal/repo"
	"reclone/internal/source"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

func (a *app) githubCommand() *cobra.Command {
	cfg := a.cfg
	cmd := &cobra.Command{
		Use:   "github <target_directory>",
		Short: "Clone the repositories of a GitHub organization or user",
		Long: `Clone the repositories of a GitHub organization or user.

Exactly one of --org or --user is required; both accept a name or a GitHub URL.
Forks and archived repositories are excluded unless --forks / --archived say
otherwise. Any GitHub API error aborts the batch with exit code 3.

Authentication (in order): --token, GITHUB_TOKEN, gh auth token. Public
repositories can be listed anonymously.`,
		Args: targetDirArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.GitHub.Org == "" && cfg.GitHub.User == "" {
				return errors.New("one of --org or --user is required")
			}

			ctx := cmd.Context()
			token, tokenSource, err := gh.ResolveToken(ctx, cfg.GitHub.Token)
			if err != nil {
				return fmt.Errorf("failed to resolve GitHub auth token: %w", err)
			}
			if token == "" {
				clog.FromContext(ctx).Info("no GitHub token found; listing public repositories anonymously")
			} else {
				clog.FromContext(ctx).Debugf("using GitHub token from %s", tokenSource)
			}

			client, err := gh.NewClient(ctx, token, gh.WithVerbose(cfg.Runtime.Verbose))
			if err != nil {
				return fmt.Errorf("failed to create GitHub client: %w", err)
			}
			runner, err := a.runner(token)
			if err != nil {
				return err
			}

			a.runBatch(cmd, runner, engine.Source{
				Name:     "github",
				DestRoot: args[0],
				Discover: func(ctx context.Context) ([]repo.Ref, error) {
					return source.ListGitHub(ctx, client, source.GitHubQuery{
						Org:      cfg.GitHub.Org,
						User:     cfg.GitHub.User,
						Protocol: cfg.GitHub.Protocol,
						Forks:    cfg.GitHub.Forks,
						Archived: cfg.GitHub.Archived,
						Limit:    cfg.GitHub.MaxRepos,
					})
				},
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.GitHub.Org, flags.FlagOrg, "", "GitHub organization to clone (name or URL)")
	cmd.Flags().StringVar(&cfg.GitHub.User, flags.FlagUser, "", "GitHub user to clone (name or URL)")
	cmd.Flags().StringVar(&cfg.GitHub.Protocol, flags.FlagProtocol, cfg.GitHub.Protocol, "Clone URL protocol: https|ssh")
	cmd.Flags().StringVar(&cfg.GitHub.Forks, flags.FlagForks, cfg.GitHub.Forks, "Forks policy: include|exclude|only")
	cmd.Flags().StringVar(&cfg.GitHub.Archived, flags.FlagArchived, cfg.GitHub.Archived, "Archived repos policy: include|exclude|only")
	cmd.Flags().IntVar(&cfg.GitHub.MaxRepos, flags.FlagMaxRepos, 0, "Maximum number of repositories to clone (0 = source default)")
	cmd.Flags().StringVar(&cfg.GitHub.Token, flags.FlagToken, "", "GitHub token (overrides GITHUB_TOKEN and gh auth token)")
	cmd.MarkFlagsMutuallyExclusive(flags.FlagOrg, flags.FlagUser)
	return cmd
}
