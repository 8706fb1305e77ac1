package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			infos, err := store.Sessions()
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions stored.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tASSEMBLY\tCREATED\tRECORDS\tPENDING")
			for _, s := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
					s.ID, s.Assembly, s.Created.Local().Format(time.DateTime), s.Records, s.Pending)
			}
			return tw.Flush()
		},
	}
}
