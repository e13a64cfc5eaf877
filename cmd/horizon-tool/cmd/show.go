package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/carrotIndustries/horizon/internal/core"
	"github.com/carrotIndustries/horizon/pkg/domain"
)

var showAll bool

var showCmd = &cobra.Command{
	Use:   "show [document]",
	Short: "Summarise stored documents",
	Long: `Show prints the object counts of a stored document, or lists the stored
documents when no name is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repo, err := core.OpenDocumentRepository()
		if err != nil {
			return err
		}
		defer func() { _ = repo.Close() }()
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			names, err := repo.ListDocuments(ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(out, "no documents")
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		}

		snap, err := repo.LoadDocument(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, color.CyanString("document %s", args[0]))
		for _, sec := range summarise(snap) {
			if sec.total == 0 && !showAll {
				continue
			}
			fmt.Fprintf(out, "%s\n", sec.name)
			for _, row := range sec.rows {
				if row.n == 0 && !showAll {
					continue
				}
				fmt.Fprintf(out, "  %-18s %d\n", row.typ, row.n)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVarP(&showAll, "all", "a", false, "include empty sections and types")
}

type countRow struct {
	typ domain.ObjectType
	n   int
}

type section struct {
	name  string
	rows  []countRow
	total int
}

var primitiveTypes = []domain.ObjectType{
	domain.ObjectJunction, domain.ObjectLine, domain.ObjectArc, domain.ObjectText,
	domain.ObjectPolygon, domain.ObjectHole, domain.ObjectDimension, domain.ObjectKeepout,
}

// summarise counts the primitives of both scopes and the schematic and
// board objects of snap.
func summarise(snap domain.Snapshot) []section {
	build := func(name string, scope domain.Scope, types []domain.ObjectType) section {
		sec := section{name: name}
		for _, t := range types {
			n := snap.Count(scope, t)
			sec.rows = append(sec.rows, countRow{typ: t, n: n})
			sec.total += n
		}
		return sec
	}
	return []section{
		build("document", domain.ScopeDocument, primitiveTypes),
		build("work", domain.ScopeWork, primitiveTypes),
		build("schematic", domain.ScopeDocument, []domain.ObjectType{
			domain.ObjectBus, domain.ObjectBusRipper, domain.ObjectNetLine,
			domain.ObjectComponent, domain.ObjectSchematicSymbol,
		}),
		build("board", domain.ScopeDocument, []domain.ObjectType{domain.ObjectBoardPackage}),
	}
}
