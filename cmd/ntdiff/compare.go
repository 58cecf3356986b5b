package main

import (
	"github.com/aymanbagabas/go-udiff"
	"github.com/spf13/cobra"

	"ntdiff/internal/errors"
	"ntdiff/internal/nodetype"
	"ntdiff/internal/typediff"
)

type compareOptions struct {
	nodeType        string
	format          string
	inputFormat     string
	showDefinitions bool
	failOn          string
}

func newCompareCmd(a *app) *cobra.Command {
	opts := &compareOptions{}
	cmd := &cobra.Command{
		Use:   "compare OLD NEW",
		Short: "Classify the changes between two definition files",
		Long: `Compare two versions of a definition file and classify every change.

Node types are paired by name. Node types only in NEW count as TRIVIAL,
node types only in OLD as MAJOR. With --type only the named node type is
compared and the full item-level report is printed.

Examples:
  ntdiff compare v1/types.toml v2/types.toml
  ntdiff compare old.yaml new.yaml --type app:document --show-definitions
  ntdiff compare old.toml new.toml --fail-on MINOR    # exit 1 on MINOR or MAJOR
  ntdiff compare old.json new.json --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompare(args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.nodeType, "type", "", "Compare only this node type")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format (human, json); defaults to output.format")
	cmd.Flags().StringVar(&opts.inputFormat, "input-format", "", "Definition file format (toml, yaml, json); defaults to the file extension")
	cmd.Flags().BoolVar(&opts.showDefinitions, "show-definitions", false, "Include a unified diff of the canonical definitions")
	cmd.Flags().StringVar(&opts.failOn, "fail-on", "", "Exit with status 1 when the overall severity reaches this level (TRIVIAL, MINOR, MAJOR)")
	return cmd
}

func (a *app) runCompare(oldPath, newPath string, opts *compareOptions) error {
	format, err := a.outputFormat(opts.format)
	if err != nil {
		return err
	}
	failOn, err := parseFailOn(opts.failOn)
	if err != nil {
		return err
	}

	var inputFormat nodetype.Format
	if opts.inputFormat != "" {
		if inputFormat, err = nodetype.ParseFormat(opts.inputFormat); err != nil {
			return err
		}
	}
	oldDefs, err := nodetype.LoadFile(oldPath, inputFormat)
	if err != nil {
		return err
	}
	newDefs, err := nodetype.LoadFile(newPath, inputFormat)
	if err != nil {
		return err
	}

	var (
		resp     any
		severity typediff.Severity
	)
	if opts.nodeType != "" {
		r, err := compareOne(oldDefs, newDefs, opts.nodeType, opts.showDefinitions)
		if err != nil {
			return err
		}
		resp, severity = r, r.Report.Severity
	} else {
		r, err := compareSets(oldDefs, newDefs, opts.showDefinitions)
		if err != nil {
			return err
		}
		resp, severity = r, r.Severity
	}

	out, err := FormatResponse(resp, format)
	if err != nil {
		return err
	}
	a.print(out)

	a.log().Info("Comparison completed",
		"old", oldPath,
		"new", newPath,
		"severity", severity.String(),
	)

	if failOn != nil && severity >= *failOn {
		return SilentExitError{Code: exitRefused}
	}
	return nil
}

// parseFailOn returns nil when the flag is unset.
func parseFailOn(s string) (*typediff.Severity, error) {
	if s == "" {
		return nil, nil
	}
	sev, err := typediff.ParseSeverity(s)
	if err != nil {
		return nil, errors.New(errors.InvalidInput, "invalid --fail-on", err)
	}
	if sev == typediff.SeverityNone {
		return nil, errors.Newf(errors.InvalidInput, "--fail-on must be TRIVIAL, MINOR or MAJOR")
	}
	return &sev, nil
}

// NodeTypeCompareCLI is the result of comparing a single node type.
type NodeTypeCompareCLI struct {
	Report          typediff.Report `json:"report"`
	Text            string          `json:"text"`
	DefinitionsDiff string          `json:"definitionsDiff,omitempty"`
}

// SetCompareCLI is the result of comparing two definition files.
type SetCompareCLI struct {
	Severity  typediff.Severity    `json:"severity"`
	Added     []string             `json:"added"`
	Removed   []string             `json:"removed"`
	Unchanged []string             `json:"unchanged"`
	Modified  []NodeTypeCompareCLI `json:"modified"`
}

func compareOne(oldDefs, newDefs []nodetype.NodeTypeDefinition, name string, showDefinitions bool) (*NodeTypeCompareCLI, error) {
	oldDef := findDefinition(oldDefs, name)
	newDef := findDefinition(newDefs, name)
	switch {
	case oldDef == nil && newDef == nil:
		return nil, errors.Newf(errors.DefinitionNotFound, "node type %s is in neither file", name)
	case oldDef == nil:
		return nil, errors.Newf(errors.DefinitionNotFound, "node type %s is not in the old file (added, TRIVIAL)", name)
	case newDef == nil:
		return nil, errors.Newf(errors.DefinitionNotFound, "node type %s is not in the new file (removed, MAJOR)", name)
	}

	d, err := typediff.Compare(oldDef, newDef)
	if err != nil {
		return nil, err
	}
	return newNodeTypeCompare(d, showDefinitions)
}

func compareSets(oldDefs, newDefs []nodetype.NodeTypeDefinition, showDefinitions bool) (*SetCompareCLI, error) {
	s, err := typediff.CompareAll(oldDefs, newDefs)
	if err != nil {
		return nil, err
	}
	out := &SetCompareCLI{
		Severity:  s.Severity,
		Added:     nonNil(s.Added),
		Removed:   nonNil(s.Removed),
		Unchanged: nonNil(s.Unchanged),
		Modified:  make([]NodeTypeCompareCLI, 0, len(s.Modified)),
	}
	for _, d := range s.Modified {
		c, err := newNodeTypeCompare(d, showDefinitions)
		if err != nil {
			return nil, err
		}
		out.Modified = append(out.Modified, *c)
	}
	return out, nil
}

func newNodeTypeCompare(d *typediff.DefinitionDiff, showDefinitions bool) (*NodeTypeCompareCLI, error) {
	c := &NodeTypeCompareCLI{Report: d.Report(), Text: d.String()}
	if showDefinitions {
		diff, err := definitionsDiff(d.Old(), d.New())
		if err != nil {
			return nil, err
		}
		c.DefinitionsDiff = diff
	}
	return c, nil
}

// definitionsDiff renders a unified diff of the canonical TOML forms.
func definitionsDiff(oldDef, newDef *nodetype.NodeTypeDefinition) (string, error) {
	from, err := nodetype.Canonical(*oldDef)
	if err != nil {
		return "", err
	}
	to, err := nodetype.Canonical(*newDef)
	if err != nil {
		return "", err
	}
	return udiff.Unified("old/"+oldDef.Name, "new/"+newDef.Name, from, to), nil
}

func findDefinition(defs []nodetype.NodeTypeDefinition, name string) *nodetype.NodeTypeDefinition {
	for i := range defs {
		if defs[i].Name == name {
			return &defs[i]
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
