package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aretw0/ngena/internal/presentation/graph"
	"github.com/aretw0/ngena/internal/validators"
	"github.com/aretw0/ngena/pkg/actions"
	"github.com/spf13/cobra"
)

var tableCmd = &cobra.Command{
	Use:   "table [file]",
	Short: "Print and check the action table",
	Long: `Loads the action table (the compiled-in one, or the YAML file given) and checks
that every transition target exists and every validator is implemented.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		table, err := loadTable(args)
		if err != nil {
			fmt.Printf("Error loading action table: %v\n", err)
			os.Exit(1)
		}

		known := validators.New(nil, nil, nil).Validators()
		registered := func(name string) bool {
			_, ok := known[name]
			return ok
		}
		if err := table.Validate(registered); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			printJSON(table)
			return
		}
		if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
			fmt.Print(graph.GenerateMermaid(table, nil))
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STATE\tVALIDATOR\tIF VALID\tIF INVALID")
		for _, state := range table.States() {
			row, _ := table.Lookup(state)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", state, row.Validator, row.NextIfValid, row.NextIfInvalid)
		}
		w.Flush()
		fmt.Printf("\nAction table is valid! ✅ (%d states)\n", len(table))
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.Flags().Bool("json", false, "Print the table as JSON")
	tableCmd.Flags().Bool("mermaid", false, "Print the table as a Mermaid flowchart")
}

func loadTable(args []string) (actions.Table, error) {
	if len(args) > 0 {
		return actions.LoadFile(args[0])
	}
	return actions.Default()
}
