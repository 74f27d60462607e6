// Package template fills the placeholders kept in stored command templates.
package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aalvaropc/readprep/internal/domain"
)

// WorkspaceVar is the variable behind domain.WorkspacePlaceholder.
const WorkspaceVar = "workspace"

// RenderString replaces {{VAR}} placeholders with vars values.
// It returns an error if a variable is missing or a placeholder is malformed.
func RenderString(input string, vars map[string]string) (string, error) {
	if input == "" {
		return "", nil
	}

	var out strings.Builder
	rest := input
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			out.WriteString(rest)
			return out.String(), nil
		}

		out.WriteString(rest[:start])
		rest = rest[start+2:]

		end := strings.Index(rest, "}}")
		if end == -1 {
			return "", invalid(errors.New("unclosed template expression"))
		}

		key := strings.TrimSpace(rest[:end])
		if key == "" {
			return "", invalid(errors.New("empty template expression"))
		}

		value, ok := vars[key]
		if !ok {
			return "", invalid(fmt.Errorf("missing variable %q", key))
		}

		out.WriteString(value)
		rest = rest[end+2:]
	}
}

// RenderCommands turns stored command templates back into runnable command
// lines rooted at workspace.
func RenderCommands(templates []string, workspace string) ([]string, error) {
	vars := map[string]string{WorkspaceVar: strings.TrimRight(workspace, "/")}
	out := make([]string, 0, len(templates))
	for i, t := range templates {
		line, err := RenderString(t, vars)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
		out = append(out, line)
	}
	return out, nil
}

func invalid(err error) error {
	return &domain.OpError{
		Op:   "template.render",
		Kind: domain.KindInvalidConfig,
		Err:  err,
	}
}
