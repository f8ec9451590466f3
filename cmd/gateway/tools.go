package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/DAAIDev/AgentBoxDev/internal/server"
	"github.com/DAAIDev/AgentBoxDev/internal/tools"
)

func newToolsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool registry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return exportTools(cmd.OutOrStdout(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

// exportTools writes every registered tool descriptor. Registration does
// not touch the store, so no database is opened.
func exportTools(w io.Writer, format string) error {
	registry := server.New(nil)
	if err := tools.RegisterAll(registry, tools.Deps{}); err != nil {
		return err
	}
	doc := map[string]any{"tools": registry.Descriptors()}

	var (
		out []byte
		err error
	)
	switch format {
	case "json":
		out, err = json.MarshalIndent(doc, "", "  ")
		out = append(out, '\n')
	case "yaml", "":
		out, err = yaml.Marshal(doc)
	default:
		return fmt.Errorf("unsupported output format %q (want yaml or json)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode tools: %w", err)
	}
	_, err = w.Write(out)
	return err
}
