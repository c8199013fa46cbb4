package github

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

type TokenSource string

const (
	TokenSourceNone     TokenSource = ""
	TokenSourceExplicit TokenSource = "flag"
	TokenSourceEnv      TokenSource = "env:GITHUB_TOKEN"
	TokenSourceGHCLI    TokenSource = "gh"
)

// ghTimeout bounds `gh auth token` so a broken credential helper cannot hang
// discovery.
const ghTimeout = 5 * time.Second

// ResolveToken picks a GitHub token: explicit value, then GITHUB_TOKEN, then
// `gh auth token`. An empty token with a nil error means anonymous access.
// The token is never logged.
func ResolveToken(ctx context.Context, explicit string) (string, TokenSource, error) {
	if tok := strings.TrimSpace(explicit); tok != "" {
		return tok, TokenSourceExplicit, nil
	}
	if env := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); env != "" {
		return env, TokenSourceEnv, nil
	}

	tok, err := tokenFromGHCLI(ctx)
	if err != nil {
		return "", TokenSourceNone, err
	}
	if tok == "" {
		return "", TokenSourceNone, nil
	}
	return tok, TokenSourceGHCLI, nil
}

func tokenFromGHCLI(ctx context.Context) (string, error) {
	if _, err := exec.LookPath("gh"); err != nil {
		return "", nil
	}

	cmdCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, ghTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, "gh", "auth", "token", "-h", "github.com")
	cmd.Env = append(os.Environ(), "GH_PAGER=cat")
	out, err := cmd.Output()
	if err != nil {
		if cmdCtx.Err() != nil {
			return "", cmdCtx.Err()
		}
		// Not logged in, or gh misconfigured: fall back to anonymous.
		return "", nil
	}

	tok := strings.TrimSpace(string(out))
	if strings.ContainsAny(tok, " \t\n\r") {
		return "", errors.New("invalid token returned by gh: contains whitespace")
	}
	return tok, nil
}
