package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-bed/internal/cache"
	"github.com/inodb/vibe-bed/internal/duckdb"
	"github.com/inodb/vibe-bed/internal/engine"
	"github.com/inodb/vibe-bed/internal/identifier"
	"github.com/inodb/vibe-bed/internal/selector"
)

func newResolveCmd(a *app) *cobra.Command {
	var (
		identifierFile  string
		coordinatesFile string
		panel           bool
		choicesFile     string
		gwOpts          gatewayOptions
	)

	cmd := &cobra.Command{
		Use:   "resolve [identifiers...]",
		Short: "Resolve identifiers into a stored BED session",
		Long: `Resolve gene symbols, transcript accessions, rsIDs and coordinates into
exon-level base records. The result is stored as a session; genes with both
MANE Select and MANE Plus Clinical transcripts wait for "vibe-bed choose".`,
		Example: `  vibe-bed resolve BRCA1,TP53 rs80357906
  vibe-bed resolve --file panel.bed --panel --assembly hg19
  vibe-bed resolve --coordinates regions.txt
  vibe-bed resolve SLC39A14 --choices choices.tsv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			asm, err := cache.ParseAssembly(viper.GetString("assembly"))
			if err != nil {
				return err
			}

			req := engine.Request{
				Identifiers: identifier.SplitTokens(strings.Join(args, " ")),
				Assembly:    asm,
				FromPanel:   panel,
			}
			if identifierFile != "" {
				tokens, err := readIdentifierFile(identifierFile)
				if err != nil {
					return err
				}
				req.Identifiers = append(req.Identifiers, tokens...)
			}
			if coordinatesFile != "" {
				data, err := os.ReadFile(coordinatesFile)
				if err != nil {
					return fmt.Errorf("read coordinates: %w", err)
				}
				req.Coordinates = identifier.SplitCoordinates(string(data))
			}
			if choicesFile != "" {
				req.Choices, err = selector.LoadChoices(choicesFile)
				if err != nil {
					return err
				}
			}
			if len(req.Identifiers) == 0 && len(req.Coordinates) == 0 {
				return fmt.Errorf("no identifiers given (pass them as arguments, --file or --coordinates)")
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			reg := prometheus.NewRegistry()
			gw, err := newGateway(store, gwOpts, reg, a.logger)
			if err != nil {
				return err
			}
			defer writeMetrics(reg, a.logger)

			e := engine.New(gw)
			e.SetWorkers(viper.GetInt("workers"))
			e.SetLogger(a.logger)

			sess, err := e.Resolve(context.Background(), req)
			if err != nil {
				return err
			}
			if err := store.SaveSession(sess); err != nil {
				return err
			}

			printSession(cmd.OutOrStdout(), sess)
			return nil
		},
	}

	cmd.Flags().String("assembly", "", "Genome assembly: GRCh37 or GRCh38 (hg19/hg38 accepted)")
	_ = viper.BindPFlag("assembly", cmd.Flags().Lookup("assembly"))
	cmd.Flags().Int("workers", 0, "Concurrent gateway lookups (default 10)")
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	cmd.Flags().StringVar(&identifierFile, "file", "", "Identifier list: text/CSV, or a BED file whose 4th column names genes")
	cmd.Flags().StringVar(&coordinatesFile, "coordinates", "", "File of chr:start-end ranges, one per line or comma separated")
	cmd.Flags().BoolVar(&panel, "panel", false, "Treat the input as a panel gene list (drop repeated genes silently)")
	cmd.Flags().StringVar(&choicesFile, "choices", "", "TSV of gene<TAB>choice disambiguation decisions")
	cmd.Flags().StringVar(&gwOpts.fixtures, "fixtures", "", "Resolve offline from a JSON fixture file or directory")
	cmd.Flags().BoolVar(&gwOpts.noCache, "no-cache", false, "Bypass the gateway lookup cache")
	cmd.Flags().BoolVar(&gwOpts.clearCache, "clear-cache", false, "Drop all cached gateway lookups before resolving")

	return cmd
}

// readIdentifierFile reads tokens from a BED file (4th column) or any text file.
func readIdentifierFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open identifier file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".bed") {
		return identifier.TokensFromBED(f)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read identifier file: %w", err)
	}
	return identifier.SplitTokens(string(data)), nil
}

// loadSession loads a session by ID; "latest" picks the newest one.
func loadSession(store *duckdb.Store, ref string) (*engine.Session, error) {
	if ref == "latest" {
		id, err := store.LatestSessionID()
		if err != nil {
			return nil, err
		}
		ref = id
	}
	return store.LoadSession(ref)
}

func printSession(w io.Writer, sess *engine.Session) {
	fmt.Fprintf(w, "Session:  %s\n", sess.ID)
	fmt.Fprintf(w, "Assembly: %s\n", sess.Assembly)
	fmt.Fprintf(w, "Records:  %d\n", sess.Snapshot().Len())

	if len(sess.NoData) > 0 {
		fmt.Fprintf(w, "No data in %s: %s\n", sess.Assembly, strings.Join(sess.NoData, ", "))
	}
	for _, m := range sess.Malformed {
		fmt.Fprintf(w, "Skipped %s\n", m.Error())
	}
	for _, e := range sess.Errors {
		fmt.Fprintf(w, "Lookup failed: %s\n", e.Error())
	}

	printPending(w, sess)

	if report := engine.CollectWarnings(sess.Snapshot().Records()); report != nil {
		fmt.Fprintf(w, "%s:\n", report.Summary)
		for _, d := range report.Details {
			fmt.Fprintf(w, "  %s: %s\n", d.Identifier, d.Message)
		}
	}
}

func printPending(w io.Writer, sess *engine.Session) {
	pending := sess.Pending()
	if len(pending) == 0 {
		return
	}
	fmt.Fprintln(w, "Pending disambiguation:")
	for _, sel := range pending {
		opts := make([]string, len(sel.Candidates))
		for i, t := range sel.Candidates {
			opts[i] = fmt.Sprintf("%s (%s)", t.VersionedAccession(), t.ManeStatus)
		}
		fmt.Fprintf(w, "  %s: %s\n", sel.Gene, strings.Join(opts, ", "))
	}
	fmt.Fprintf(w, "Run: vibe-bed choose %s <gene> <accession or MANE label>\n", sess.ID)
}
