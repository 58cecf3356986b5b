package main

import (
	"github.com/spf13/cobra"

	"ntdiff/internal/registry"
)

// ListResponseCLI lists registered node types.
type ListResponseCLI struct {
	NodeTypes []registry.Entry `json:"nodeTypes"`
}

func newListCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered node types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := a.outputFormat(format)
			if err != nil {
				return err
			}
			reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			defer func() { _ = reg.Close() }()

			entries, err := reg.List(newContext(cmd))
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []registry.Entry{}
			}
			out, err := FormatResponse(&ListResponseCLI{NodeTypes: entries}, f)
			if err != nil {
				return err
			}
			a.print(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format (human, json)")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "history NAME",
		Short: "Show the registration history of a node type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.outputFormat(format)
			if err != nil {
				return err
			}
			reg, err := a.openRegistry()
			if err != nil {
				return err
			}
			defer func() { _ = reg.Close() }()

			history, err := reg.History(newContext(cmd), args[0])
			if err != nil {
				return err
			}
			out, err := FormatResponse(&HistoryResponseCLI{NodeType: args[0], Registrations: history}, f)
			if err != nil {
				return err
			}
			a.print(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format (human, json)")
	return cmd
}

// HistoryResponseCLI is the registration history of one node type.
type HistoryResponseCLI struct {
	NodeType      string                  `json:"nodeType"`
	Registrations []registry.Registration `json:"registrations"`
}
