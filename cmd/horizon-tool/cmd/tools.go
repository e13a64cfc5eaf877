package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/carrotIndustries/horizon/internal/core"
	"github.com/carrotIndustries/horizon/pkg/domain"
)

var toolsKind string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List registered tools",
	Long: `List every registered tool with its display name and whether it can begin
in an empty editor of the given kind. Tools marked specific act on the
selection rather than creating objects.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := core.ParseEditorKind(toolsKind)
		if err != nil {
			return err
		}
		c := core.NewCore(kind, core.WithLogger(newLogger(cmd.ErrOrStderr())))
		if _, err := c.Rebuild(false); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-24s %-22s %-10s %s\n", "ID", "NAME", "CAN BEGIN", "SPECIFIC")
		empty := domain.NewSelection()
		for _, id := range c.Registry().IDs() {
			canBegin, specific := c.ToolCanBegin(id, empty)
			fmt.Fprintf(out, "%-24s %-22s %-10s %s\n", id, c.Registry().Name(id), yesNo(canBegin), yesNo(specific))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.Flags().StringVarP(&toolsKind, "kind", "k", string(core.EditorBoard), "editor kind (schematic, board, package, padstack)")
}

func yesNo(v bool) string {
	if v {
		return color.GreenString("%-3s", "yes")
	}
	return color.HiBlackString("%-3s", "no")
}
