package main

import (
	"context"
	"fmt"
	"os"

	"gioui.org/app"
	"gioui.org/unit"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	internalapp "todo-desk/internal/app"
	"todo-desk/internal/config"
	"todo-desk/internal/logging"
)

func main() {
	var configPath, filePath string
	cmd := &cobra.Command{
		Use:           "todo-desk",
		Short:         "Desktop to-do list",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if filePath != "" {
				cfg.Store.Backend = config.BackendFile
				cfg.Store.Path = filePath
			}
			if err := logging.Setup(cfg.Log.Level, os.Stderr); err != nil {
				return err
			}

			ctx := context.Background()
			backend, err := internalapp.Open(ctx, cfg, "desk")
			if err != nil {
				return err
			}

			d := newDesk(ctx, backend, configPath)
			go func() {
				w := new(app.Window)
				w.Option(app.Title("To-Do"))
				w.Option(app.Size(unit.Dp(720), unit.Dp(820)))
				err := d.run(w)
				backend.Close()
				if err != nil {
					log.Fatal("window", "err", err)
				}
				os.Exit(0)
			}()
			app.Main()
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "config file")
	cmd.Flags().StringVar(&filePath, "file", "", "task file, overrides config and TODO_FILE")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "todo-desk: %v\n", err)
		os.Exit(1)
	}
}
