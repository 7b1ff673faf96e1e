package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harshilnayi/BlockScope/internal/plugins"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "rules", Short: "List available rules"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List built-in detectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := plugins.NewRegistry()
			reg.RegisterBuiltin()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tSEVERITY\tCONFIDENCE\tTITLE")
			for _, d := range reg.Detectors() {
				m := d.Meta()
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", m.ID, m.Kind, m.Severity, m.Confidence, m.Title)
			}
			return tw.Flush()
		},
	})
	return cmd
}
