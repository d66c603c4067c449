package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dshills/archcheck/internal/diagram"
	"github.com/dshills/archcheck/internal/relation"
)

var diagramCmd = &cobra.Command{
	Use:   "diagram <file.puml|->",
	Short: "Print the classes, interfaces and associations of a PlantUML diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			fail(cmd, ExitUsageError, "%v", err)
			return nil
		}
		m := diagram.Extract(string(data))
		assocs := make([][3]string, 0, len(m.Associations))
		for _, a := range m.Associations {
			assocs = append(assocs, [3]string{a.Left, a.Right, a.Arrow})
		}
		return printJSON(cmd, map[string]any{
			"classes":      m.Classes,
			"interfaces":   m.Interfaces,
			"associations": assocs,
		})
	},
}

var relationsCmd = &cobra.Command{
	Use:   "relations <file.diff|->",
	Short: "Print the relations introduced by the added lines of a diff",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			fail(cmd, ExitUsageError, "%v", err)
			return nil
		}
		return printJSON(cmd, map[string]any{
			"detected_relations": relation.Pairs(relation.Detect(string(data))),
		})
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
