// Package main provides the vibe-bed command-line tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

// app carries what every subcommand needs after flags are parsed.
type app struct {
	cfgFile string
	verbose bool
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "vibe-bed",
		Short: "Generate BED files from genes, transcripts, rsIDs and coordinates",
		Long: `vibe-bed resolves gene symbols, transcript accessions, rsIDs and genomic
coordinates into exon-level BED intervals, pauses for a decision when a gene
has both MANE Select and MANE Plus Clinical transcripts, and emits the result
under several padding/UTR profiles.`,
		Example: `  vibe-bed resolve BRCA1 TP53 NM_000546.6 rs80357906
  vibe-bed resolve --file genes.txt --coordinates regions.txt --assembly GRCh37
  vibe-bed choose latest SLC39A14 "MANE Plus Clinical"
  vibe-bed emit latest --profile sambamba -o panel.bed
  vibe-bed compare latest reference.bed`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(a.cfgFile); err != nil {
				return err
			}
			logger, err := newLogger(a.verbose)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Config file (default: ~/.vibe-bed.yaml)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("data-dir", "", "Directory for the session database (default: ~/.vibe-bed)")
	_ = viper.BindPFlag("data_dir", cmd.PersistentFlags().Lookup("data-dir"))

	cmd.AddCommand(newResolveCmd(a))
	cmd.AddCommand(newChooseCmd(a))
	cmd.AddCommand(newEmitCmd(a))
	cmd.AddCommand(newCompareCmd(a))
	cmd.AddCommand(newSessionsCmd())
	cmd.AddCommand(newProfileCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-bed version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// initConfig reads ~/.vibe-bed.yaml (or cfgFile) and VIBE_BED_* environment
// variables. A missing config file is not an error.
func initConfig(cfgFile string) error {
	viper.SetDefault("assembly", "GRCh38")
	viper.SetDefault("workers", 10)
	viper.SetDefault("gateway.tark_url", "https://tark.ensembl.org/api")
	viper.SetDefault("gateway.ensembl_grch38_url", "https://rest.ensembl.org")
	viper.SetDefault("gateway.ensembl_grch37_url", "https://grch37.rest.ensembl.org")
	viper.SetDefault("gateway.timeout", "30s")
	viper.SetDefault("gateway.retries", 3)
	viper.SetDefault("gateway.cache_ttl", "168h")

	viper.SetEnvPrefix("VIBE_BED")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".vibe-bed")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || cfgFile == "" {
			return nil
		}
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	return nil
}

// newLogger builds a console logger on stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// dataDir returns the configured data directory, defaulting to ~/.vibe-bed.
func dataDir() (string, error) {
	if dir := viper.GetString("data_dir"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".vibe-bed"), nil
}
