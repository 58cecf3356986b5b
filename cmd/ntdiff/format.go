package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"ntdiff/internal/registry"
	"ntdiff/internal/typediff"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format.
// The result always ends in a newline.
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data) + "\n", nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *NodeTypeCompareCLI:
		return formatNodeTypeCompareHuman(v), nil
	case *SetCompareCLI:
		return formatSetCompareHuman(v), nil
	case *registry.Result:
		return formatRegisterHuman(v), nil
	case *ListResponseCLI:
		return formatListHuman(v), nil
	case *HistoryResponseCLI:
		return formatHistoryHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// severityString colors a severity by how disruptive it is.
func severityString(s typediff.Severity) string {
	switch s {
	case typediff.SeverityTrivial:
		return green(s.String())
	case typediff.SeverityMinor:
		return yellow(s.String())
	case typediff.SeverityMajor:
		return red(s.String())
	default:
		return s.String()
	}
}

func formatNodeTypeCompareHuman(c *NodeTypeCompareCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n\n", bold(c.Report.NodeType), severityString(c.Report.Severity))
	b.WriteString(c.Text)
	if c.DefinitionsDiff != "" {
		b.WriteString("\n")
		b.WriteString(colorDiff(c.DefinitionsDiff))
	}
	return b.String()
}

func formatSetCompareHuman(s *SetCompareCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall severity: %s\n", severityString(s.Severity))

	if len(s.Added) > 0 {
		fmt.Fprintf(&b, "\nAdded (%s):\n", severityString(typediff.SeverityTrivial))
		for _, name := range s.Added {
			fmt.Fprintf(&b, "  + %s\n", name)
		}
	}
	if len(s.Removed) > 0 {
		fmt.Fprintf(&b, "\nRemoved (%s):\n", severityString(typediff.SeverityMajor))
		for _, name := range s.Removed {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}
	if len(s.Modified) > 0 {
		b.WriteString("\nModified:\n")
		for _, m := range s.Modified {
			fmt.Fprintf(&b, "  ~ %-30s %s\n", m.Report.NodeType, severityString(m.Report.Severity))
		}
	}
	fmt.Fprintf(&b, "\nUnchanged: %d\n", len(s.Unchanged))

	for _, m := range s.Modified {
		b.WriteString("\n")
		b.WriteString(m.Text)
		if m.DefinitionsDiff != "" {
			b.WriteString(colorDiff(m.DefinitionsDiff))
		}
	}
	return b.String()
}

func formatRegisterHuman(r *registry.Result) string {
	var b strings.Builder
	if r.DryRun {
		b.WriteString("Dry run, nothing stored.\n")
	}
	for _, o := range r.Outcomes {
		status := fmt.Sprintf("%-10s", o.Status)
		switch o.Status {
		case registry.StatusAdded, registry.StatusUpdated:
			status = green(status)
		case registry.StatusRejected:
			status = red(status)
		case registry.StatusRemoved, registry.StatusSkipped:
			status = yellow(status)
		}
		fmt.Fprintf(&b, "%s %-30s v%-4d %s", status, o.Name, o.Version, severityString(o.Decision.Severity))
		if o.Decision.Forced {
			b.WriteString(" (forced)")
		}
		b.WriteString("\n")
		if o.Status == registry.StatusRejected {
			fmt.Fprintf(&b, "           %s\n", o.Decision.Reason)
		}
	}
	if len(r.Outcomes) == 0 {
		b.WriteString("No node types.\n")
	}
	return b.String()
}

func formatListHuman(l *ListResponseCLI) string {
	if len(l.NodeTypes) == 0 {
		return "No registered node types.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-30s %-8s %s\n", "NAME", "VERSION", "REGISTERED")
	for _, e := range l.NodeTypes {
		fmt.Fprintf(&b, "%-30s %-8d %s\n", e.Name, e.Version, e.RegisteredAt.Format(time.RFC3339))
	}
	return b.String()
}

func formatHistoryHuman(h *HistoryResponseCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "History of %s\n\n", bold(h.NodeType))
	for _, r := range h.Registrations {
		fmt.Fprintf(&b, "v%-4d %-10s %s  %s", r.Version, r.Operation, r.RegisteredAt.Format(time.RFC3339), severityString(r.Severity))
		if r.Forced {
			b.WriteString(" (forced)")
		}
		fmt.Fprintf(&b, "\n      %s\n", r.Reason)
	}
	return b.String()
}

// colorDiff colors added and removed lines of a unified diff.
func colorDiff(diff string) string {
	if color.NoColor {
		return diff
	}
	lines := strings.SplitAfter(diff, "\n")
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
			lines[i] = bold(l)
		case strings.HasPrefix(l, "+"):
			lines[i] = green(l)
		case strings.HasPrefix(l, "-"):
			lines[i] = red(l)
		case strings.HasPrefix(l, "@@"):
			lines[i] = cyan(l)
		}
	}
	return strings.Join(lines, "")
}
