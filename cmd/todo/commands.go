package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"todo-desk/internal/config"
	"todo-desk/internal/export"
	"todo-desk/internal/tui"
	"todo-desk/pkg/task"
)

func (c *cli) addCmd() *cobra.Command {
	var desc, priority, due string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePriorityFlag(priority)
			if err != nil {
				return err
			}
			d, err := parseDueFlag(due)
			if err != nil {
				return err
			}
			t := task.New(strings.TrimSpace(strings.Join(args, " ")), desc, p, d)
			if err := task.ValidateInput(t); err != nil {
				return err
			}
			if err := c.app.Tasks.AddTask(cmd.Context(), t); err != nil {
				return fmt.Errorf("add task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %s\n", shortID(t.ID), t.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "low, medium or high")
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var priority, query string
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, optionally filtered",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := task.Filter{Query: query}
			if priority != "" && !strings.EqualFold(priority, "all") {
				p, err := task.ParsePriority(priority)
				if err != nil {
					return err
				}
				f.Priority = p
			}
			tasks, err := c.app.Tasks.Search(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), tasks)
			}
			printShortTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "only this priority (low, medium, high, all)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "only titles containing this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one task as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), t)
		},
	}
}

func (c *cli) editCmd() *cobra.Command {
	var title, desc, priority, due string
	var clearDue bool
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				t.Title = strings.TrimSpace(title)
			}
			if flags.Changed("desc") {
				t.Description = desc
			}
			if flags.Changed("priority") {
				if t.Priority, err = task.ParsePriority(priority); err != nil {
					return err
				}
			}
			switch {
			case clearDue:
				t.DueDate = nil
			case flags.Changed("due"):
				if t.DueDate, err = parseDueFlag(due); err != nil {
					return err
				}
			}
			if err := task.ValidateInput(t); err != nil {
				return err
			}
			if err := c.app.Tasks.UpdateTask(cmd.Context(), t); err != nil {
				return fmt.Errorf("update task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s %s\n", shortID(t.ID), t.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "new description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&clearDue, "no-due", false, "remove the due date")
	return cmd
}

func (c *cli) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between open and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			updated, _, err := c.app.Tasks.ToggleTaskCompletion(cmd.Context(), t.ID)
			if err != nil {
				return fmt.Errorf("toggle task: %w", err)
			}
			verb := "reopened"
			if updated.Completed {
				verb = "completed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", verb, shortID(t.ID), t.Title)
			return nil
		},
	}
}

func (c *cli) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := c.app.Tasks.DeleteTask(cmd.Context(), t.ID); err != nil {
				return fmt.Errorf("delete task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", shortID(t.ID), t.Title)
			return nil
		},
	}
}

func (c *cli) progressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show how much of the list is done",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := c.app.Tasks.GetAllTasks(cmd.Context())
			if err != nil {
				return err
			}
			done := 0
			for _, t := range tasks {
				if t.Completed {
					done++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d completed (%.0f%%)\n", done, len(tasks), task.Progress(tasks))
			return nil
		},
	}
}

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the task file against its schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.app.FilePath()
			if path == "" {
				return errors.New("check only applies to the file backend")
			}
			problems, err := task.CheckFile(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(problems) == 0 {
				fmt.Fprintf(out, "%s: ok\n", path)
				return nil
			}
			for _, p := range problems {
				fmt.Fprintf(out, "%s: %s\n", path, p)
			}
			return fmt.Errorf("%d problem(s) in %s", len(problems), path)
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task as JSON, YAML or TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			tasks, err := c.app.Tasks.GetAllTasks(cmd.Context())
			if err != nil {
				return err
			}
			return export.Write(cmd.OutOrStdout(), f, tasks)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json, yaml or toml")
	return cmd
}

func (c *cli) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse tasks interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), c.app.Tasks, c.cfg.UI.Theme)
		},
	}
}

func (c *cli) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark]",
		Short: "Show or set the colour theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), c.cfg.UI.Theme)
				return nil
			}
			theme, err := config.ParseTheme(args[0])
			if err != nil {
				return err
			}
			file, err := config.LoadFile(c.configPath)
			if err != nil {
				return err
			}
			file.UI.Theme = theme
			if err := file.Save(); err != nil {
				return err
			}
			c.cfg.UI.Theme = theme
			fmt.Fprintf(cmd.OutOrStdout(), "theme set to %s\n", theme)
			return nil
		},
	}
}

// resolve finds a task by full ID or by a unique ID prefix, as printed by list.
func (c *cli) resolve(ctx context.Context, ref string) (task.Task, error) {
	if t, ok, err := c.app.Tasks.GetTaskByID(ctx, ref); err != nil || ok {
		return t, err
	}
	tasks, err := c.app.Tasks.GetAllTasks(ctx)
	if err != nil {
		return task.Task{}, err
	}
	var matches []task.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return task.Task{}, fmt.Errorf("no task matches %q", ref)
	case 1:
		return matches[0], nil
	}
	return task.Task{}, fmt.Errorf("%q matches %d tasks, use more of the id", ref, len(matches))
}

func parsePriorityFlag(s string) (task.Priority, error) {
	if strings.TrimSpace(s) == "" {
		return task.Medium, nil
	}
	return task.ParsePriority(s)
}

func parseDueFlag(s string) (*task.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := task.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printShortTasks(w io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	today := task.Today()
	for _, t := range tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		due := t.DueLabel()
		if t.Overdue(today) {
			due += " (overdue)"
		}
		fmt.Fprintf(w, "%s %s  %-6s  %s  %s\n", check, shortID(t.ID), t.Priority.Label(), t.Title, due)
	}
	fmt.Fprintf(w, "%.0f%% done\n", task.Progress(tasks))
}
