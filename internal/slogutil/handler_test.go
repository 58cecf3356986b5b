package slogutil

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"
	"testing"
)

var linePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z \[(debug|info|warn|error)\] .+\n$`)

func TestHandler_Line(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("Registered node type", "nodeType", "app:document", "version", 2)

	out := buf.String()
	if !linePattern.MatchString(out) {
		t.Fatalf("line %q does not match TIMESTAMP [level] message", out)
	}
	if !strings.HasSuffix(out, "[info] Registered node type | nodeType=app:document version=2\n") {
		t.Errorf("unexpected line %q", out)
	}
}

func TestHandler_LevelNames(t *testing.T) {
	tests := []struct {
		log  func(*slog.Logger, string, ...any)
		want string
	}{
		{(*slog.Logger).Debug, "[debug]"},
		{(*slog.Logger).Info, "[info]"},
		{(*slog.Logger).Warn, "[warn]"},
		{(*slog.Logger).Error, "[error]"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewLogger(&buf, slog.LevelDebug), "msg")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("got %q, want %s", buf.String(), tt.want)
			}
		})
	}
}

func TestHandler_Threshold(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)
	logger.Debug("schema checked")
	logger.Info("registered")
	logger.Warn("registration rejected")
	logger.Error("storage failure")

	got := buf.String()
	if strings.Contains(got, "schema checked") || strings.Contains(got, "registered\n") {
		t.Errorf("records below warn were written: %q", got)
	}
	if strings.Count(got, "\n") != 2 {
		t.Errorf("expected two lines, got %q", got)
	}

	buf.Reset()
	NewLogger(&buf, LevelSilent).Error("storage failure")
	if buf.Len() != 0 {
		t.Errorf("LevelSilent wrote %q", buf.String())
	}
}

func TestHandler_GroupsAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).WithGroup("registry").With("nodeType", "app:document")

	logger.Info("registered", slog.Group("diff", "severity", "MINOR"), "reason", "within policy", "empty", "")

	output := buf.String()
	for _, want := range []string{
		"registry.nodeType=app:document",
		"registry.diff.severity=MINOR",
		`registry.reason="within policy"`,
		`registry.empty=""`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got: %s", want, output)
		}
	}
	if strings.Count(output, "\n") != 1 {
		t.Errorf("expected a single line, got: %q", output)
	}
}

func TestHandler_NoAttrsNoSeparator(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("plain")
	if strings.Contains(buf.String(), "|") {
		t.Errorf("unexpected separator in %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "[info] plain\n") {
		t.Errorf("unexpected line %q", buf.String())
	}
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := LevelFromString(in); got != want {
			t.Errorf("LevelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		want      slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{4, false, slog.LevelDebug},
		{2, true, LevelSilent},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.want)
		}
	}
}

func TestTeeHandler_PerHandlerLevels(t *testing.T) {
	var console, file bytes.Buffer
	logger := slog.New(NewTeeHandler(
		NewHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		NewHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)).With("nodeType", "app:document")

	logger.Debug("classified")
	logger.Warn("rejected")

	if strings.Contains(console.String(), "classified") || !strings.Contains(console.String(), "rejected") {
		t.Errorf("console = %q", console.String())
	}
	if strings.Count(file.String(), "nodeType=app:document") != 2 {
		t.Errorf("file should carry both records with attrs, got %q", file.String())
	}

	// must not panic
	NewDiscardLogger().Error("dropped")
}
