package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-bed/internal/compare"
)

func newCompareCmd(a *app) *cobra.Command {
	var opts emitOptions

	cmd := &cobra.Command{
		Use:   "compare <session> <reference.bed>",
		Short: "Compare a session's regions with a reference BED file",
		Long: `List generated regions that overlap no reference interval and reference
intervals that overlap no generated region. Chromosome names are compared
without case or "chr" prefix; overlap is inclusive on both ends.`,
		Example: `  vibe-bed compare latest previous_panel.bed
  vibe-bed compare latest previous_panel.bed --profile sambamba`,
		Args: cobra.ExactArgs(2),
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
			rows, _, err := opts.regions(cmd, store, sess)
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open reference: %w", err)
			}
			defer f.Close()

			res, err := compare.CompareBED(rows, f)
			if err != nil {
				return err
			}
			for _, pe := range res.ParseErrors {
				a.logger.Warn("skipped reference line", zap.Int("line", pe.Line), zap.String("reason", pe.Reason))
			}

			out := cmd.OutOrStdout()
			if res.Identical() {
				fmt.Fprintln(out, "Regions match the reference.")
				return nil
			}
			fmt.Fprintf(out, "Unique to generated (%d):\n", len(res.UniqueToGenerated))
			for _, r := range res.GeneratedRegions() {
				fmt.Fprintf(out, "  %s\n", r)
			}
			fmt.Fprintf(out, "Unique to reference (%d):\n", len(res.UniqueToUploaded))
			for _, r := range res.UploadedRegions() {
				fmt.Fprintf(out, "  %s\n", r)
			}
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}
