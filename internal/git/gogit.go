package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GoGit implements Runner with go-git.
type GoGit struct {
	token string
}

func NewGoGit(token string) *GoGit {
	return &GoGit{token: strings.TrimSpace(token)}
}

func (g *GoGit) RemoteURL(ctx context.Context, repoDir, remote string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if remote == "" {
		remote = "origin"
	}

	r, err := gogit.PlainOpen(repoDir)
	if err != nil {
		return "", fmt.Errorf("open git repo: %w", err)
	}
	cfg, err := r.Config()
	if err != nil {
		return "", fmt.Errorf("read git config: %w", err)
	}

	rc, ok := cfg.Remotes[remote]
	if !ok || len(rc.URLs) == 0 || strings.TrimSpace(rc.URLs[0]) == "" {
		return "", fmt.Errorf("%s: %w", remote, ErrNoRemote)
	}
	return strings.TrimSpace(rc.URLs[0]), nil
}

func (g *GoGit) Clone(ctx context.Context, url, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	auth, err := g.authFor(url)
	if err != nil {
		return err
	}

	_, statErr := os.Stat(dest)
	created := errors.Is(statErr, os.ErrNotExist)

	_, err = gogit.PlainCloneContext(ctx, dest, false, &gogit.CloneOptions{URL: url, Auth: auth})
	if err != nil {
		// Leave a pre-existing (empty) destination alone.
		if created {
			_ = os.RemoveAll(dest)
		}
		return fmt.Errorf("clone %s: %w", url, err)
	}
	return nil
}

func (g *GoGit) authFor(rawURL string) (transport.AuthMethod, error) {
	if g.token == "" {
		return nil, nil
	}
	ep, err := transport.NewEndpoint(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}
	switch ep.Protocol {
	case "http", "https":
		// GitHub accepts any non-empty username alongside a token.
		return &githttp.BasicAuth{Username: "x-access-token", Password: g.token}, nil
	default:
		return nil, nil
	}
}
