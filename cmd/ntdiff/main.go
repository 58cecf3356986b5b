package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"ntdiff/internal/errors"
	"ntdiff/internal/nodetype"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// SilentExitError reports an exit code without emitting error output.
type SilentExitError struct {
	Code int
}

func (e SilentExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// Exit codes: 0 success, 1 the change was refused (--fail-on reached or
// registration rejected), 2 any other failure.
const (
	exitOK      = 0
	exitRefused = 1
	exitFailure = 2
)

// execute runs the CLI command with the provided args and output writers.
func execute(args []string, stdout, stderr io.Writer) error {
	cmd, a := newRootCmd()
	defer a.close()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

// run executes the CLI and maps the outcome to an exit code.
func run(args []string, stdout, stderr io.Writer) int {
	err := execute(args, stdout, stderr)
	if err == nil {
		return exitOK
	}

	var silent SilentExitError
	if stderrors.As(err, &silent) {
		return silent.Code
	}

	printError(stderr, err)
	if errors.HasCode(err, errors.RegistrationRejected) {
		return exitRefused
	}
	return exitFailure
}

// printError writes the error and any suggested fixes.
func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintln(w, color.RedString("Error: %v", err))

	var e *errors.Error
	if !stderrors.As(err, &e) {
		return
	}
	switch details := e.Details.(type) {
	case []string:
		for _, l := range details {
			_, _ = fmt.Fprintf(w, "  - %s\n", l)
		}
	case []nodetype.Violation:
		for _, v := range details {
			_, _ = fmt.Fprintf(w, "  - %s\n", v)
		}
	}
	hint := color.New(color.FgYellow)
	for _, fix := range e.SuggestedFixes {
		switch {
		case fix.Command != "":
			_, _ = hint.Fprintf(w, "hint: %s: %s\n", fix.Description, fix.Command)
		default:
			_, _ = hint.Fprintf(w, "hint: %s\n", fix.Description)
		}
	}
}
