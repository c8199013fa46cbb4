package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reclone/internal/flags"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

const (
	DefaultPluginDir = "~/.local/share/nvim/lazy"
	DefaultManifest  = "parsers.json"
	DefaultSubdir    = "tree_objs"
	DefaultRemote    = "origin"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in sync:
	// - CLI flags in internal/cli
	// - env overlay in ApplyEnv
	Sources Sources
	GitHub  GitHub
	Output  Output
	Runtime Runtime
}

type Sources struct {
	// PluginDir holds the existing plugin checkouts (see --plugin-dir).
	// A leading ~ is expanded against the home directory.
	PluginDir string

	// Remote is the remote whose URL is read from each checkout (see --remote).
	Remote string

	// Manifest is the parser manifest path (see --manifest). JSON or YAML.
	Manifest string

	// Subdir is the subdirectory of the target that parsers are cloned into (see --subdir).
	Subdir string
}

type GitHub struct {
	// Org and User select the account to clone (see --org / --user; name or URL).
	Org  string
	User string

	// Protocol selects the clone URL kind: https or ssh (see --protocol).
	Protocol string

	// Forks and Archived are include|exclude|only (see --forks / --archived).
	Forks    string
	Archived string

	// MaxRepos caps discovery (see --max-repos). 0 means the source default.
	MaxRepos int

	// Token overrides GITHUB_TOKEN / gh auth token (see --token).
	Token string
}

type Output struct {
	// ConsoleFormat controls the console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured stream to stdout (see --emit).
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool

	// Summary prints a Markdown table of outcomes after the batch (see --summary).
	Summary bool
}

type Runtime struct {
	// Workers caps concurrent clones (see --workers). 0 means host parallelism.
	Workers int

	// GitBackend is exec or go-git (see --git-backend).
	GitBackend string

	// GitBinary is the git executable for the exec backend (see --git-binary).
	GitBinary string

	// DryRun lists the discovered repositories without cloning (see --dry-run).
	DryRun bool

	LogLevel  string
	LogFormat string

	// Verbose forces debug logging and logs every GitHub API call.
	Verbose bool
}

func New() *Config {
	return &Config{
		Sources: Sources{
			PluginDir: DefaultPluginDir,
			Remote:    DefaultRemote,
			Manifest:  DefaultManifest,
			Subdir:    DefaultSubdir,
		},
		GitHub: GitHub{
			Protocol: "https",
			Forks:    "exclude",
			Archived: "exclude",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			GitBackend: "exec",
			GitBinary:  "git",
			LogLevel:   "info",
			LogFormat:  "text",
		},
	}
}

// Env holds the environment overrides. Empty values mean unset.
type Env struct {
	PluginDir  string `env:"RECLONE_PLUGIN_DIR"`
	Manifest   string `env:"RECLONE_MANIFEST"`
	Workers    int    `env:"RECLONE_WORKERS"`
	GitBackend string `env:"RECLONE_GIT_BACKEND"`
	LogLevel   string `env:"RECLONE_LOG_LEVEL"`
	LogFormat  string `env:"RECLONE_LOG_FORMAT"`
}

// LoadEnv reads Env through lookuper, or the process environment when nil.
func LoadEnv(ctx context.Context, lookuper envconfig.Lookuper) (Env, error) {
	var env Env
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &env, Lookuper: lookuper}); err != nil {
		return Env{}, fmt.Errorf("process environment: %w", err)
	}
	return env, nil
}

// ApplyEnv copies set env values onto c for every field whose flag was not
// given explicitly. changed reports whether a flag was set on the command
// line; nil means none were.
func (c *Config) ApplyEnv(env Env, changed func(name string) bool) {
	if changed == nil {
		changed = func(string) bool { return false }
	}
	apply := func(flag string, set bool, fn func()) {
		if set && !changed(flag) {
			fn()
		}
	}
	apply(flags.FlagPluginDir, env.PluginDir != "", func() { c.Sources.PluginDir = env.PluginDir })
	apply(flags.FlagManifest, env.Manifest != "", func() { c.Sources.Manifest = env.Manifest })
	apply(flags.FlagWorkers, env.Workers != 0, func() { c.Runtime.Workers = env.Workers })
	apply(flags.FlagGitBackend, env.GitBackend != "", func() { c.Runtime.GitBackend = env.GitBackend })
	apply(flags.FlagLogLevel, env.LogLevel != "", func() { c.Runtime.LogLevel = env.LogLevel })
	apply(flags.FlagLogFormat, env.LogFormat != "", func() { c.Runtime.LogFormat = env.LogFormat })
}

func (c *Config) Validate() error {
	c.Output.Emit = splitCommaList(c.Output.Emit)

	// Sources
	dir, err := ExpandHome(strings.TrimSpace(c.Sources.PluginDir))
	if err != nil {
		return fmt.Errorf("invalid --plugin-dir value: %w", err)
	}
	c.Sources.PluginDir = dir
	c.Sources.Remote = strings.TrimSpace(c.Sources.Remote)
	if c.Sources.Remote == "" {
		c.Sources.Remote = DefaultRemote
	}
	c.Sources.Subdir = strings.TrimSpace(c.Sources.Subdir)
	if c.Sources.Subdir != "" && (filepath.IsAbs(c.Sources.Subdir) || hasParentRef(c.Sources.Subdir)) {
		return fmt.Errorf("invalid --subdir %q: must be a relative path inside the target directory", c.Sources.Subdir)
	}

	// GitHub
	if c.GitHub.Org != "" {
		org, err := normalizeAccountSelector(c.GitHub.Org)
		if err != nil {
			return fmt.Errorf("invalid --org value: %w", err)
		}
		c.GitHub.Org = org
	}
	if c.GitHub.User != "" {
		user, err := normalizeAccountSelector(c.GitHub.User)
		if err != nil {
			return fmt.Errorf("invalid --user value: %w", err)
		}
		c.GitHub.User = user
	}
	if c.GitHub.Org != "" && c.GitHub.User != "" {
		return errors.New("--org and --user are mutually exclusive")
	}
	c.GitHub.Protocol = normalizeEnumValue(c.GitHub.Protocol)
	if c.GitHub.Protocol == "" {
		c.GitHub.Protocol = "https"
	}
	if c.GitHub.Protocol != "https" && c.GitHub.Protocol != "ssh" {
		return fmt.Errorf("unsupported --protocol: %s (must be one of: https, ssh)", c.GitHub.Protocol)
	}
	if c.GitHub.Forks, err = normalizePolicy(flags.FlagForks, c.GitHub.Forks); err != nil {
		return err
	}
	if c.GitHub.Archived, err = normalizePolicy(flags.FlagArchived, c.GitHub.Archived); err != nil {
		return err
	}
	if c.GitHub.MaxRepos < 0 {
		return errors.New("--max-repos must be >= 0")
	}

	// Output
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}
	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", emit)
		}
		c.Output.Emit[i] = v
	}
	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Runtime
	if c.Runtime.Workers < 0 {
		return errors.New("--workers must be >= 0 (0 = host parallelism)")
	}
	c.Runtime.GitBackend = normalizeEnumValue(c.Runtime.GitBackend)
	if c.Runtime.GitBackend == "" {
		c.Runtime.GitBackend = "exec"
	}
	if c.Runtime.GitBackend != "exec" && c.Runtime.GitBackend != "go-git" {
		return fmt.Errorf("unsupported --git-backend: %s (must be one of: exec, go-git)", c.Runtime.GitBackend)
	}
	if c.Runtime.Verbose {
		c.Runtime.LogLevel = "debug"
	}

	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func hasParentRef(p string) bool {
	for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(p)), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

func normalizePolicy(flag, raw string) (string, error) {
	v := normalizeEnumValue(raw)
	if v == "" {
		v = "exclude"
	}
	if v != "include" && v != "exclude" && v != "only" {
		return "", fmt.Errorf("unsupported --%s: %s (must be one of: include, exclude, only)", flag, raw)
	}
	return v, nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func normalizeAccountSelector(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	// Accept a raw account name, or a GitHub URL like:
	//   https://github.com/<name>
	//   https://github.com/orgs/<name>
	//   https://github.com/users/<name>
	//   github.com/<name>
	if strings.HasPrefix(raw, "github.com/") || strings.HasPrefix(raw, "www.github.com/") {
		raw = "https://" + raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%q", raw)
		}
		host := strings.ToLower(u.Hostname())
		if host == "www.github.com" {
			host = "github.com"
		}
		if host != "github.com" {
			return "", fmt.Errorf("%q", raw)
		}
		parts := strings.FieldsFunc(strings.Trim(u.Path, "/"), func(r rune) bool { return r == '/' })
		if len(parts) == 0 {
			return "", fmt.Errorf("%q", raw)
		}
		if parts[0] == "orgs" || parts[0] == "users" {
			if len(parts) < 2 {
				return "", fmt.Errorf("%q", raw)
			}
			return parts[1], nil
		}
		return parts[0], nil
	}

	if strings.Contains(raw, "/") {
		return "", fmt.Errorf("%q", raw)
	}
	return raw, nil
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
