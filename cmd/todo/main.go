package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"todo-desk/internal/app"
	"todo-desk/internal/config"
	"todo-desk/internal/logging"
)

// cli holds what every subcommand needs once the root's pre-run has loaded
// config and opened the backend.
type cli struct {
	configPath string
	filePath   string
	logLevel   string

	cfg *config.Config
	app *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "todo",
		Short:         "Manage your to-do list from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.app != nil {
				c.app.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/todo-desk/config.toml)")
	root.PersistentFlags().StringVar(&c.filePath, "file", "", "task file, overrides config and TODO_FILE")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		c.addCmd(),
		c.listCmd(),
		c.showCmd(),
		c.editCmd(),
		c.doneCmd(),
		c.rmCmd(),
		c.progressCmd(),
		c.checkCmd(),
		c.exportCmd(),
		c.tuiCmd(),
		c.themeCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.filePath != "" {
		cfg.Store.Backend = config.BackendFile
		cfg.Store.Path = c.filePath
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if err := logging.Setup(cfg.Log.Level, cmd.ErrOrStderr()); err != nil {
		return err
	}
	c.cfg = cfg

	// theme only touches the config file
	if cmd.Name() == "theme" {
		return nil
	}
	a, err := app.Open(cmd.Context(), cfg, "cli")
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "todo: %v\n", err)
		os.Exit(1)
	}
}
