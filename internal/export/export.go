// Package export renders a task list as JSON, YAML or TOML.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"todo-desk/pkg/task"
)

// Format is an export encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// Formats lists the supported formats.
var Formats = []Format{JSON, YAML, TOML}

// ParseFormat accepts a format name in any case; "yml" means YAML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSON, YAML, TOML:
		return f, nil
	case "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unknown export format %q, want json, yaml or toml", s)
}

// document wraps the list because TOML has no top-level arrays.
type document struct {
	Tasks []task.Task `json:"tasks" yaml:"tasks" toml:"tasks"`
}

// Write encodes tasks to w. JSON output is the bare array, in the same shape
// as the task file; YAML and TOML put it under a "tasks" key.
func Write(w io.Writer, f Format, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(document{Tasks: tasks}); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case TOML:
		if err := toml.NewEncoder(w).Encode(document{Tasks: tasks}); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown export format %q", f)
}
