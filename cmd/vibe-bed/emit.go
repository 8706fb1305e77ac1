package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-bed/internal/duckdb"
	"github.com/inodb/vibe-bed/internal/engine"
	"github.com/inodb/vibe-bed/internal/interval"
	"github.com/inodb/vibe-bed/internal/output"
	"github.com/inodb/vibe-bed/internal/profile"
)

// emitOptions are the per-call toggles layered over a profile.
type emitOptions struct {
	profile  string
	include5 bool
	include3 bool
	addChr   bool
}

func (o *emitOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.profile, "profile", "p", profile.Data,
		"Profile: raw, data, sambamba, exomeDepth or cnv")
	cmd.Flags().BoolVar(&o.include5, "include-5utr", false, "Include 5' UTR (default: the profile's setting)")
	cmd.Flags().BoolVar(&o.include3, "include-3utr", false, "Include 3' UTR (default: the profile's setting)")
	cmd.Flags().BoolVar(&o.addChr, "chr", false, "Prefix chromosome names with chr")
}

// regions derives the rows for the chosen profile from a finalized session.
func (o *emitOptions) regions(cmd *cobra.Command, store *duckdb.Store, sess *engine.Session) ([]interval.RegionResult, output.Format, error) {
	format, err := output.ParseFormat(o.profile)
	if err != nil {
		return nil, "", err
	}
	snap, err := sess.Final()
	if err != nil {
		if errors.Is(err, engine.ErrPendingDisambiguation) {
			return nil, "", fmt.Errorf("%w (run vibe-bed choose first)", err)
		}
		return nil, "", err
	}

	settings := profile.Settings{Name: string(output.Raw)}
	if format != output.Raw {
		reg, err := store.Registry()
		if err != nil {
			return nil, "", err
		}
		if settings, err = reg.Get(string(format)); err != nil {
			return nil, "", err
		}
	}

	include5, include3 := settings.Include5UTR, settings.Include3UTR
	if cmd.Flags().Changed("include-5utr") {
		include5 = o.include5
	}
	if cmd.Flags().Changed("include-3utr") {
		include3 = o.include3
	}

	rows, err := snap.Recompute(settings, include5, include3, o.addChr)
	if err != nil {
		return nil, "", err
	}
	return rows, format, nil
}

// emitAll writes one file per registered profile into dir, each derived
// with that profile's own settings.
func emitAll(a *app, store *duckdb.Store, sess *engine.Session, dir string, addChr bool) error {
	snap, err := sess.Final()
	if err != nil {
		if errors.Is(err, engine.ErrPendingDisambiguation) {
			return fmt.Errorf("%w (run vibe-bed choose first)", err)
		}
		return err
	}
	reg, err := store.Registry()
	if err != nil {
		return err
	}
	all, err := profile.NewEmitter(reg, addChr).EmitAll(snap.Records())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for _, name := range reg.Names() {
		format, err := output.ParseFormat(name)
		if err != nil {
			return err
		}
		path, err := nextFreeName(filepath.Join(dir, name+".bed"))
		if err != nil {
			return err
		}
		if err := writeBEDFile(path, format, all[name]); err != nil {
			return err
		}
		a.logger.Info("wrote profile", zap.String("profile", name), zap.String("path", path),
			zap.Int("rows", len(all[name])))
	}
	return nil
}

func writeBEDFile(path string, format output.Format, rows []interval.RegionResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := output.NewBEDWriter(f, format).WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write BED: %w", err)
	}
	return f.Close()
}

func newEmitCmd(a *app) *cobra.Command {
	var (
		opts       emitOptions
		outputFile string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "emit <session>",
		Short: "Write a session's regions as BED under a profile",
		Long: `Derive regions from a session's base records using a profile's padding and
UTR settings and write them as BED. An existing output file is never
overwritten; the name gets a _v2, _v3, ... suffix instead.

With --all, every profile is written to <dir>/<profile>.bed using that
profile's stored UTR settings, and -o names the directory.`,
		Example: `  vibe-bed emit latest
  vibe-bed emit latest --profile sambamba --include-5utr -o sambamba.bed
  vibe-bed emit latest --profile raw --chr
  vibe-bed emit latest --all -o panel/`,
		Args: cobra.ExactArgs(1),
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
			if all {
				if outputFile == "" {
					return fmt.Errorf("--all requires -o <directory>")
				}
				return emitAll(a, store, sess, outputFile, opts.addChr)
			}
			rows, format, err := opts.regions(cmd, store, sess)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if outputFile != "" {
				path, err := nextFreeName(outputFile)
				if err != nil {
					return err
				}
				if path != outputFile {
					a.logger.Info("output exists, writing new version", zap.String("path", path))
				}
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			if err := output.NewBEDWriter(out, format).WriteAll(rows); err != nil {
				return fmt.Errorf("write BED: %w", err)
			}

			if report := engine.CollectWarnings(sess.Snapshot().Records()); report != nil {
				a.logger.Warn(report.Summary, zap.Int("transcripts", len(report.Details)))
			}
			a.logger.Debug("emitted regions",
				zap.String("session", sess.ID),
				zap.String("profile", opts.profile),
				zap.Int("rows", len(rows)))
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file, or directory with --all (default: stdout)")
	cmd.Flags().BoolVar(&all, "all", false, "Write every profile into the -o directory")
	return cmd
}

// nextFreeName bumps the version suffix of path until no file exists there.
func nextFreeName(path string) (string, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for {
		_, err := os.Stat(stem + ext)
		if os.IsNotExist(err) {
			return stem + ext, nil
		}
		if err != nil {
			return "", fmt.Errorf("check output file: %w", err)
		}
		stem = output.IncrementVersion(stem)
	}
}
