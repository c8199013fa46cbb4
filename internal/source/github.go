package source

import (
	"context"
	"errors"
	"fmt"
	gh "reclone/internal/github"
	"reclone/internal/repo"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v81/github"
)

const (
	ProtocolHTTPS = "https"
	ProtocolSSH   = "ssh"

	PolicyInclude = "include"
	PolicyExclude = "exclude"
	PolicyOnly    = "only"
)

const defaultGitHubRepoLimit = 1000

// GitHubQuery selects the repositories of one GitHub account.
type GitHubQuery struct {
	Org  string
	User string

	// Protocol picks clone_url (https) or ssh_url (ssh).
	Protocol string

	// Forks and Archived are include|exclude|only.
	Forks    string
	Archived string

	// Limit caps the number of refs returned. 0 means defaultGitHubRepoLimit.
	Limit int
}

// ListGitHub pages through an organization's or user's repositories. Any API
// error aborts discovery.
func ListGitHub(ctx context.Context, client *gh.Client, q GitHubQuery) ([]repo.Ref, error) {
	if client == nil || client.Client == nil {
		return nil, errors.New("github client is nil")
	}
	switch {
	case q.Org == "" && q.User == "":
		return nil, fmt.Errorf("%w: one of org or user is required", ErrInvalidInput)
	case q.Org != "" && q.User != "":
		return nil, fmt.Errorf("%w: org and user are mutually exclusive", ErrInvalidInput)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultGitHubRepoLimit
	}

	var (
		refs []repo.Ref
		page = 1
	)
	for {
		repos, next, err := listGitHubPage(ctx, client, q, page)
		if err != nil {
			return nil, err
		}
		for _, r := range repos {
			if len(refs) >= limit {
				break
			}
			if ref, ok := githubRef(ctx, r, q); ok {
				refs = append(refs, ref)
			}
		}
		if len(refs) >= limit || next == 0 {
			break
		}
		page = next
	}
	return refs, nil
}

func listGitHubPage(ctx context.Context, client *gh.Client, q GitHubQuery, page int) ([]*github.Repository, int, error) {
	lo := github.ListOptions{PerPage: 100, Page: page}
	if q.Org != "" {
		repos, resp, err := client.Client.Repositories.ListByOrg(ctx, q.Org, &github.RepositoryListByOrgOptions{
			Type:        "all",
			ListOptions: lo,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list org repos: %w", err)
		}
		return repos, resp.NextPage, nil
	}

	repos, resp, err := client.Client.Repositories.ListByUser(ctx, q.User, &github.RepositoryListByUserOptions{
		Type:        "owner",
		ListOptions: lo,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list user repos: %w", err)
	}
	return repos, resp.NextPage, nil
}

func githubRef(ctx context.Context, r *github.Repository, q GitHubQuery) (repo.Ref, bool) {
	if !matchesPolicy(q.Forks, r.GetFork()) || !matchesPolicy(q.Archived, r.GetArchived()) {
		return repo.Ref{}, false
	}

	url := r.GetCloneURL()
	if q.Protocol == ProtocolSSH {
		url = r.GetSSHURL()
	}
	ref, err := repo.NewRef(r.GetName(), url)
	if err != nil {
		clog.FromContext(ctx).Warnf("Skipping %s: %v", r.GetFullName(), err)
		return repo.Ref{}, false
	}
	return ref, true
}

func matchesPolicy(policy string, flag bool) bool {
	switch policy {
	case PolicyInclude:
		return true
	case PolicyOnly:
		return flag
	default:
		return !flag
	}
}
