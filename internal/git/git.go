// Package git wraps the version-control operations reclone needs: reading a
// checkout's remote URL and cloning a URL into a fresh directory.
//
// Two backends are provided. Exec shells out to the git binary (the default);
// GoGit runs in-process via go-git for hosts without git installed.
package git

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	BackendExec  = "exec"
	BackendGoGit = "go-git"
)

// ErrNoRemote is returned when a checkout has no URL configured for the
// requested remote.
var ErrNoRemote = errors.New("remote not configured")

type RemoteQuerier interface {
	RemoteURL(ctx context.Context, repoDir, remote string) (string, error)
}

type Cloner interface {
	Clone(ctx context.Context, url, dest string) error
}

type Runner interface {
	RemoteQuerier
	Cloner
}

// CommandError reports a git invocation that exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

// lastLine keeps diagnostics to git's final "fatal: ..." line.
func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

type options struct {
	binary string
	token  string
}

type Option func(*options)

// WithBinary sets the git executable used by the exec backend.
func WithBinary(path string) Option {
	return func(o *options) {
		o.binary = path
	}
}

// WithToken sets an HTTPS token used by the go-git backend.
func WithToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

func NewRunner(backend string, opts ...Option) (Runner, error) {
	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendExec:
		return NewExec(o.binary)
	case BackendGoGit:
		return NewGoGit(o.token), nil
	default:
		return nil, fmt.Errorf("unsupported git backend %q (must be one of: %s, %s)", backend, BackendExec, BackendGoGit)
	}
}
