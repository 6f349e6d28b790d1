package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"firestige.xyz/pktdesc/internal/extension"
)

func newExtensionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extensions",
		Short: "List the registered dissector extensions",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, m := range extension.List() {
				fmt.Fprintf(w, "%s\t%s\n", m.Name, m.Description)
			}
			return w.Flush()
		},
	}
}
