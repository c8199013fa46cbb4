package flags

// Package flags defines canonical CLI flag names shared by the cobra wiring and
// the env overlay in internal/config, so a flag set on the command line can
// be recognised when deciding whether an environment value applies.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Sources.PluginDir, flags.FlagPluginDir, "", "...")
//	arg := "--" + flags.FlagPluginDir
const (
	// Sources
	FlagPluginDir = "plugin-dir"
	FlagRemote    = "remote"
	FlagManifest  = "manifest"
	FlagSubdir    = "subdir"

	// GitHub
	FlagOrg      = "org"
	FlagUser     = "user"
	FlagProtocol = "protocol"
	FlagForks    = "forks"
	FlagArchived = "archived"
	FlagMaxRepos = "max-repos"
	FlagToken    = "token"

	// Output
	FlagConsoleFormat = "console-format"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagEmit          = "emit"
	FlagNoConsole     = "no-console"
	FlagSummary       = "summary"

	// Runtime
	FlagWorkers    = "workers"
	FlagGitBackend = "git-backend"
	FlagGitBinary  = "git-binary"
	FlagDryRun     = "dry-run"
	FlagLogLevel   = "log-level"
	FlagLogFormat  = "log-format"
	FlagVerbose    = "verbose"
)
