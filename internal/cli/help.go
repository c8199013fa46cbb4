package cli

const helpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
	Flags win over environment variables, which win over defaults.

	RECLONE_PLUGIN_DIR   plugin checkout directory (--plugin-dir)
	RECLONE_MANIFEST     parser manifest path (--manifest)
	RECLONE_WORKERS      concurrent clones (--workers)
	RECLONE_GIT_BACKEND  exec|go-git (--git-backend)
	RECLONE_LOG_LEVEL    debug|info|warn|error (--log-level)
	RECLONE_LOG_FORMAT   text|json (--log-format)
	GITHUB_TOKEN         token for the github command (after --token, before gh auth token)

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`
