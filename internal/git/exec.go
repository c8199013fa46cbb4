package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Exec runs the git binary.
type Exec struct {
	binary string
	env    []string
}

func NewExec(binary string) (*Exec, error) {
	if strings.TrimSpace(binary) == "" {
		binary = "git"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("locate git binary %q: %w", binary, err)
	}

	// Fail instead of waiting on a credential prompt nobody will answer.
	env := os.Environ()
	filtered := env[:0]
	for _, entry := range env {
		if strings.HasPrefix(entry, "GIT_TERMINAL_PROMPT=") {
			continue
		}
		filtered = append(filtered, entry)
	}

	return &Exec{binary: path, env: append(filtered, "GIT_TERMINAL_PROMPT=0")}, nil
}

func (g *Exec) RemoteURL(ctx context.Context, repoDir, remote string) (string, error) {
	if remote == "" {
		remote = "origin"
	}
	out, err := g.run(ctx, "-C", repoDir, "config", "--get", "remote."+remote+".url")
	if err != nil {
		var ce *CommandError
		// git config --get exits 1 when the key is unset.
		if errors.As(err, &ce) && ce.ExitCode == 1 {
			return "", fmt.Errorf("%s: %w: %w", remote, ErrNoRemote, err)
		}
		return "", err
	}

	url := strings.TrimSpace(out)
	if url == "" {
		return "", fmt.Errorf("%s: %w", remote, ErrNoRemote)
	}
	return url, nil
}

func (g *Exec) Clone(ctx context.Context, url, dest string) error {
	_, err := g.run(ctx, "clone", "--quiet", "--", url, dest)
	return err
}

func (g *Exec) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Env = g.env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && ee.ProcessState != nil {
			return "", &CommandError{Args: args, ExitCode: ee.ProcessState.ExitCode(), Stderr: stderr.String()}
		}
		return "", fmt.Errorf("run git %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}
