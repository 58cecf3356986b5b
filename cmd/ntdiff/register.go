package main

import (
	"github.com/spf13/cobra"

	"ntdiff/internal/nodetype"
	"ntdiff/internal/registry"
)

type registerOptions struct {
	force       bool
	dryRun      bool
	format      string
	inputFormat string
}

func newRegisterCmd(a *app) *cobra.Command {
	opts := &registerOptions{}
	cmd := &cobra.Command{
		Use:   "register FILE...",
		Short: "Register node type definitions",
		Long: `Register the node types of one or more definition files.

Each node type is classified against its registered version. Changes above
policy.maxSeverity (default TRIVIAL) are refused unless --force is given.
The registration is all-or-nothing: if any node type is refused, none is
stored.

Examples:
  ntdiff register types.toml
  ntdiff register types.toml --dry-run      # classify only
  ntdiff register types.toml --force        # accept MINOR and MAJOR changes`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRegister(cmd, args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.force, "force", false, "Accept changes above the policy maximum")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Classify and evaluate without storing")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format (human, json)")
	cmd.Flags().StringVar(&opts.inputFormat, "input-format", "", "Definition file format (toml, yaml, json)")
	return cmd
}

func (a *app) runRegister(cmd *cobra.Command, files []string, opts *registerOptions) error {
	format, err := a.outputFormat(opts.format)
	if err != nil {
		return err
	}
	pol, err := a.policy()
	if err != nil {
		return err
	}

	var inputFormat nodetype.Format
	if opts.inputFormat != "" {
		if inputFormat, err = nodetype.ParseFormat(opts.inputFormat); err != nil {
			return err
		}
	}
	var defs []nodetype.NodeTypeDefinition
	for _, f := range files {
		loaded, err := nodetype.LoadFile(f, inputFormat)
		if err != nil {
			return err
		}
		defs = append(defs, loaded...)
	}

	reg, err := a.openRegistry()
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	result, regErr := reg.Register(newContext(cmd), defs, registry.Options{
		Policy: pol,
		Force:  opts.force,
		DryRun: opts.dryRun,
	})
	if result != nil {
		out, err := FormatResponse(result, format)
		if err != nil {
			return err
		}
		a.print(out)
	}
	return regErr
}

type unregisterOptions struct {
	force  bool
	dryRun bool
	format string
}

func newUnregisterCmd(a *app) *cobra.Command {
	opts := &unregisterOptions{}
	cmd := &cobra.Command{
		Use:   "unregister NAME",
		Short: "Remove a registered node type",
		Long: `Remove a node type from the registry. Removal is a MAJOR change, so it is
refused unless the policy allows MAJOR changes or --force is given. The
node type's history is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := a.outputFormat(opts.format)
			if err != nil {
				return err
			}
			pol, err := a.policy()
			if err != nil {
				return err
			}
			reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			defer func() { _ = reg.Close() }()

			outcome, err := reg.Unregister(newContext(cmd), args[0], registry.Options{
				Policy: pol,
				Force:  opts.force,
				DryRun: opts.dryRun,
			})
			if outcome != nil {
				out, ferr := FormatResponse(&registry.Result{Outcomes: []registry.Outcome{*outcome}, DryRun: opts.dryRun}, format)
				if ferr != nil {
					return ferr
				}
				a.print(out)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.force, "force", false, "Remove even if the policy refuses MAJOR changes")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Evaluate without removing")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format (human, json)")
	return cmd
}
