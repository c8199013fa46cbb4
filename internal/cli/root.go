package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"reclone/internal/config"
	"reclone/internal/engine"
	"reclone/internal/flags"
	"reclone/internal/git"
	"reclone/internal/logging"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

const rootLong = `reclone re-clones repositories into a target directory in parallel.

Without a subcommand it reads the remote URL of every plugin checkout under
--plugin-dir and clones each one into <target_directory>/<name>. One failing
clone never stops the others.

Examples:
	# Re-clone the installed plugins
	reclone ~/backup/plugins

	# Clone the tree-sitter parsers listed in parsers.json into ./out/tree_objs
	reclone parsers ./out --manifest parsers.json

	# Clone every non-fork repository of an organization over ssh
	reclone github ./mirror --org my-org --protocol ssh

	# AI Agent: stream machine-readable events to stdout
	reclone ./out --no-console --emit ndjson

Exit codes:
	0 = every clone succeeded (an empty batch included)
	2 = partial failure (at least one clone failed)
	3 = fatal error (bad arguments, unreadable source, output setup failed)`

// app holds the state of one CLI invocation.
type app struct {
	cfg  *config.Config
	code int

	// configured is set once arguments and flags have parsed.
	configured bool

	// newRunner is a test seam; nil means git.NewRunner.
	newRunner func(backend string, opts ...git.Option) (git.Runner, error)
}

func newApp() *app {
	return &app{cfg: config.New()}
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "reclone <target_directory>",
		Short:             "Re-clone editor plugins, parsers or GitHub accounts in parallel",
		Long:              rootLong,
		Args:              targetDirArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlugins(cmd, args[0])
		},
	}
	cmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetHelpTemplate(helpTemplate)

	a.bindGlobalFlags(cmd)
	a.bindPluginFlags(cmd)

	cmd.AddCommand(
		a.pluginsCommand(),
		a.parsersCommand(),
		a.githubCommand(),
		versionCommand(),
	)
	return cmd
}

func (a *app) bindGlobalFlags(cmd *cobra.Command) {
	cfg := a.cfg
	pf := cmd.PersistentFlags()

	// Output
	pf.StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, cfg.Output.ConsoleFormat, "Console output format: text|json|ndjson")
	pf.StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	pf.StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	pf.StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	pf.BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out)")
	pf.BoolVar(&cfg.Output.Summary, flags.FlagSummary, false, "Print a Markdown table of outcomes after the batch")

	// Runtime
	pf.IntVarP(&cfg.Runtime.Workers, flags.FlagWorkers, "j", 0, "Concurrent clones (0 = host parallelism)")
	pf.StringVar(&cfg.Runtime.GitBackend, flags.FlagGitBackend, cfg.Runtime.GitBackend, "Git implementation: exec|go-git")
	pf.StringVar(&cfg.Runtime.GitBinary, flags.FlagGitBinary, cfg.Runtime.GitBinary, "Git executable used by the exec backend")
	pf.BoolVar(&cfg.Runtime.DryRun, flags.FlagDryRun, false, "List discovered repositories (name<TAB>url) without cloning")
	pf.StringVar(&cfg.Runtime.LogLevel, flags.FlagLogLevel, cfg.Runtime.LogLevel, "Log level: debug|info|warn|error")
	pf.StringVar(&cfg.Runtime.LogFormat, flags.FlagLogFormat, cfg.Runtime.LogFormat, "Log format: text|json")
	pf.BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (debug level and every GitHub API call)")
}

// setup overlays env, validates the config and attaches the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.configured = true

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := config.LoadEnv(ctx, nil)
	if err != nil {
		return err
	}
	a.cfg.ApplyEnv(env, cmd.Flags().Changed)

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	ctx, err = logging.WithLogger(ctx, a.cfg.Runtime.LogLevel, a.cfg.Runtime.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cmd.SetContext(ctx)
	return nil
}

func (a *app) runner(token string) (git.Runner, error) {
	newRunner := a.newRunner
	if newRunner == nil {
		newRunner = git.NewRunner
	}
	return newRunner(a.cfg.Runtime.GitBackend, git.WithBinary(a.cfg.Runtime.GitBinary), git.WithToken(token))
}

// runBatch runs src through the engine and records the exit code.
func (a *app) runBatch(cmd *cobra.Command, cloner git.Cloner, src engine.Source) {
	eng := engine.NewEngine(cloner)
	eng.Stdout = cmd.OutOrStdout()
	a.code = eng.Run(cmd.Context(), a.cfg, src)
}

func targetDirArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	info, err := os.Stat(args[0])
	if err != nil || !info.IsDir() {
		return fmt.Errorf("target %q is not an existing directory", args[0])
	}
	return nil
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := a.rootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	c, err := cmd.ExecuteContextC(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if !a.configured && c != nil {
			fmt.Fprint(stderr, c.UsageString())
		}
		return engine.ExitFatal
	}
	return a.code
}

func Execute() {
	os.Exit(run(context.Background(), newApp(), os.Args[1:], os.Stdout, os.Stderr))
}
