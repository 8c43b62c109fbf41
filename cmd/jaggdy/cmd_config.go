package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/nvandessel/jaggdy/internal/config"
	"github.com/nvandessel/jaggdy/internal/pathutil"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage jaggdy configuration",
		Long: `View and modify jaggdy configuration settings.

Configuration is stored in ~/.jaggdy/config.yaml unless --config is given.
Environment variables (JAGGDY_*) and a .env file in the working directory
override the file.

Examples:
  jaggdy config list                       # Show all settings
  jaggdy config get chain.max_states       # Get a specific setting
  jaggdy config set simulation.seed 42     # Set a setting`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)
	return cmd
}

// configPath returns the --config flag, or the default location.
func configPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return pathutil.ExpandHome(path), nil
	}
	return config.DefaultPath()
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			if jsonFlag(cmd) {
				return writeJSON(out, a.cfg)
			}

			path, _ := configPath(cmd)
			fmt.Fprintln(out, header(fmt.Sprintf("Configuration (%s):", path)))
			for _, key := range config.Keys() {
				value, _ := a.cfg.Get(key)
				fmt.Fprintf(out, "  %-28s %v\n", key+":", value)
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			key := args[0]
			value, found := a.cfg.Get(key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			out := cmd.OutOrStdout()
			if jsonFlag(cmd) {
				return writeJSON(out, map[string]any{"key": key, "value": value})
			}
			fmt.Fprintf(out, "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			path, err := configPath(cmd)
			if err != nil {
				return err
			}
			// Start from the file alone so environment overrides are not persisted.
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
				cfg = config.Default()
			}

			if err := cfg.Set(key, value); err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonFlag(cmd) {
				got, _ := cfg.Get(key)
				return writeJSON(out, map[string]any{"key": key, "value": got, "path": path})
			}
			fmt.Fprintf(out, "Set %s = %s\n", key, value)
			return nil
		},
	}
}
