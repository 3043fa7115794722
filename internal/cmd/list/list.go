// Package list implements "berth list": show the predefined services.
package list

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/schmitthub/berth/internal/cmdutil"
	"github.com/schmitthub/berth/pkg/predefined"
)

// NewCmdList creates the "list" subcommand.
func NewCmdList(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the predefined services",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tIMAGE\tPORT\tSCHEME\tCREDENTIALS")
			for _, def := range predefined.All() {
				creds := "-"
				if def.Credentials != nil {
					creds = def.Credentials.User
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					def.Name, def.Image, def.Port, def.Scheme, creds)
			}
			return tw.Flush()
		},
	}

	return cmd
}
