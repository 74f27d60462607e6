package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aalvaropc/readprep/internal/domain"
)

var reLine = regexp.MustCompile(`(?i)\bline\s+(\d+)\b`)

// UserMessage turns err into a short operator-facing line. Details stay in
// the logs and the run report.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.Canceled) {
		return "Canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Timed out"
	}

	var tie *domain.ToolInvocationError
	if errors.As(err, &tie) {
		tool := "Tool"
		if fields := strings.Fields(tie.Command); len(fields) > 0 {
			tool = filepath.Base(fields[0])
		}
		if tie.ExitCode < 0 {
			return tool + " did not run to completion"
		}
		return fmt.Sprintf("%s failed (exit %d)", tool, tie.ExitCode)
	}

	var moe *domain.MissingOutputError
	if errors.As(err, &moe) {
		return "Tool produced no " + filepath.Base(moe.Path)
	}

	var oe *domain.OpError
	if errors.As(err, &oe) {
		switch oe.Kind {

		case domain.KindNotFound:
			if strings.Contains(oe.Op, "yamlmanifest") || strings.Contains(oe.Op, "manifest.") {
				return "Manifest or read file not found"
			}
			if strings.Contains(oe.Op, "yamlparams") {
				return "Parameter profile not found"
			}
			if strings.Contains(oe.Op, "runstore") {
				return "Run not found"
			}
			if strings.Contains(oe.Op, "workspacefinder.findroot") {
				return "Workspace not found"
			}
			return "Not found"

		case domain.KindDecode:
			base := "input"
			if strings.TrimSpace(oe.Path) != "" {
				base = filepath.Base(oe.Path)
			}
			return "Unreadable " + base + " (expected gzip FASTQ)"

		case domain.KindEnvironment:
			if strings.Contains(oe.Op, "staging") {
				if strings.Contains(err.Error(), " free") {
					return "Not enough scratch space"
				}
				return "Cannot prepare scratch workspace"
			}
			if strings.Contains(oe.Op, "validate.tools") {
				return "Required tools missing from PATH"
			}
			if strings.Contains(oe.Op, "outdir") {
				return "Cannot write output directory"
			}
			return "Environment problem (see logs)"

		case domain.KindInvalidConfig:
			base := "config"
			if strings.TrimSpace(oe.Path) != "" {
				base = filepath.Base(oe.Path)
			}

			line := extractLine(err.Error())
			if line != "" {
				return "Invalid YAML at " + base + " line " + line
			}

			if looksLikeYAMLProblem(err.Error()) {
				return "Invalid YAML at " + base
			}
			if strings.Contains(oe.Op, "params") {
				return "Invalid parameters"
			}
			return "Invalid config"

		default:
			return "Unexpected error (see logs)"
		}
	}

	if looksLikeYAMLProblem(err.Error()) {
		line := extractLine(err.Error())
		if line != "" {
			return "Invalid YAML line " + line
		}
		return "Invalid YAML"
	}

	return "Unexpected error (see logs)"
}

func looksLikeYAMLProblem(s string) bool {
	ls := strings.ToLower(s)
	return strings.Contains(ls, "yaml:") || strings.Contains(ls, "did not find expected") || strings.Contains(ls, "cannot unmarshal")
}

func extractLine(s string) string {
	m := reLine.FindStringSubmatch(s)
	if len(m) == 2 {
		return m[1]
	}
	return ""
}
