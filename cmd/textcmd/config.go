// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/textcmd/internal/config"
)

// newConfigCommand creates the `textcmd config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage textcmd configuration",
		Long: `Manage textcmd configuration.

Configuration is stored in:
  - Linux: ~/.config/textcmd/config.cue
  - macOS: ~/Library/Application Support/textcmd/config.cue
  - Windows: %APPDATA%\textcmd\config.cue

Every value can be overridden with a TEXTCMD_<SECTION>_<KEY> environment
variable, e.g. TEXTCMD_DISPATCH_MULTI_MATCH=best.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.LoadWithPath(cmd.Context(), config.LoadOptions{ConfigFilePath: flags.configPath})
			if err != nil {
				return sessionFailed(cmd, app, err, flags.verbose)
			}
			showConfig(app, loaded)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: flags.configPath})
			if err != nil {
				return sessionFailed(cmd, app, err, flags.verbose)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Configuration file:"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, dir)
			return nil
		},
	})

	return cfgCmd
}

func showConfig(app *App, loaded config.Loaded) {
	cfg := loaded.Config
	key := func(k string) string { return CmdStyle.Render(k) }
	val := func(v any) string { return SuccessStyle.Render(fmt.Sprint(v)) }

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(app.stdout)
	if loaded.Path != "" {
		fmt.Fprintf(app.stdout, "%s: %s\n", key("Config file"), loaded.Path)
	} else {
		fmt.Fprintf(app.stdout, "%s: %s\n", key("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(app.stdout)

	rows := []struct {
		name  string
		value any
	}{
		{"dispatch.case_sensitive", cfg.Dispatch.CaseSensitive},
		{"dispatch.throw_on_error", cfg.Dispatch.ThrowOnError},
		{"dispatch.ignore_extra_args", cfg.Dispatch.IgnoreExtraArgs},
		{"dispatch.separator", fmt.Sprintf("%q", cfg.Dispatch.Separator)},
		{"dispatch.default_run_mode", cfg.Dispatch.DefaultRunMode},
		{"dispatch.multi_match", cfg.Dispatch.MultiMatch},
		{"dispatch.log_level", cfg.Dispatch.LogLevel},
		{"modules.paths", strings.Join(cfg.Modules.Paths, ", ")},
		{"modules.watch", cfg.Modules.Watch},
		{"shell.enabled", cfg.Shell.Enabled},
		{"shell.workdir", cfg.Shell.Workdir},
		{"ui.verbose", cfg.UI.Verbose},
		{"ui.color", cfg.UI.Color},
	}
	for _, r := range rows {
		fmt.Fprintf(app.stdout, "%s: %s\n", key(r.name), val(r.value))
	}
}
