package main

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"ntdiff/internal/errors"
	"ntdiff/internal/nodetype"
)

func newShowCmd(a *app) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Print the registered definition of a node type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := nodetype.ParseFormat(as)
			if err != nil {
				return err
			}
			reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			defer func() { _ = reg.Close() }()

			entry, err := reg.Get(newContext(cmd), args[0])
			if err != nil {
				return err
			}
			return nodetype.Encode(a.stdout, []nodetype.NodeTypeDefinition{entry.Definition}, format)
		},
	}
	cmd.Flags().StringVar(&as, "as", "toml", "Definition format (toml, yaml, json)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		as     string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all registered definitions as one definition file",
		Long: `Write all registered node types, ordered by name, as a definition file
that "ntdiff register" and "ntdiff compare" accept.

Examples:
  ntdiff export > registered.toml
  ntdiff export --as yaml -o registered.yaml
  ntdiff compare registered.toml proposed.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := nodetype.ParseFormat(as)
			if err != nil {
				return err
			}
			reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			defer func() { _ = reg.Close() }()

			defs, err := reg.Definitions(newContext(cmd))
			if err != nil {
				return err
			}
			if defs == nil {
				defs = []nodetype.NodeTypeDefinition{}
			}

			var buf bytes.Buffer
			if err := nodetype.Encode(&buf, defs, format); err != nil {
				return err
			}
			if output == "" {
				a.print(buf.String())
				return nil
			}
			if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
				return errors.New(errors.InternalError, "cannot write "+output, err)
			}
			a.log().Info("Exported node types", "count", len(defs), "path", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "toml", "Definition format (toml, yaml, json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
