package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newChooseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "choose <session> <gene> <choice>",
		Short: "Resolve a pending MANE disambiguation",
		Long: `Pick the transcript for a gene that is waiting for a decision. The choice
may be a versioned or unversioned accession, or a MANE label such as
"MANE Select" or "MANE Plus Clinical". Use "latest" for the newest session.`,
		Example: `  vibe-bed choose latest SLC39A14 "MANE Plus Clinical"
  vibe-bed choose 3f0c... SLC39A14 NM_001128431.4`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := loadSession(store, args[0])
			if err != nil {
				return err
			}
			snap, err := sess.ApplyDisambiguation(args[1], args[2])
			if err != nil {
				return err
			}
			if err := store.SaveSession(sess); err != nil {
				return err
			}
			a.logger.Debug("disambiguation applied",
				zap.String("session", sess.ID),
				zap.String("gene", args[1]),
				zap.String("choice", args[2]))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s: %d records\n", sess.ID, snap.Len())
			printPending(out, sess)
			return nil
		},
	}
}
