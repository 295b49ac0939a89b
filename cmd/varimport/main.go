// Package main provides the varimport command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ngsdb/varimport/internal/importer"
	"github.com/ngsdb/varimport/internal/spool"
	"github.com/ngsdb/varimport/internal/store"
	"github.com/ngsdb/varimport/internal/vep"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "varimport",
		Short: "Variant ingestion pipeline for NGS sample imports",
		Long: `varimport ingests variant call files queued as job markers in a
spool directory, annotates them with an external annotator and stores
normalized per-transcript annotations in a DuckDB database.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.varimport.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cobra.OnInitialize(func() { initConfig(cfgFile) })

	cmd.AddCommand(newServeCmd(&verbose))
	cmd.AddCommand(newImportCmd(&verbose))
	cmd.AddCommand(newEnqueueCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".varimport")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VARIMPORT")
	viper.AutomaticEnv()

	viper.SetDefault("spool_dir", "/var/spool/varimport")
	viper.SetDefault("database", "varimport.duckdb")
	viper.SetDefault("annotator_config", "vep.config.json")
	viper.SetDefault("clinvar_dir", "clinvar")
	viper.SetDefault("genome", "grch37")
	viper.SetDefault("annotation_key", "ANN")
	viper.SetDefault("poll_interval", "20s")
	viper.SetDefault("annotator_timeout", "2h")

	// A missing config file is fine; defaults and env vars apply.
	_ = viper.ReadInConfig()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func importerConfig() importer.Config {
	return importer.Config{
		SpoolDir:         viper.GetString("spool_dir"),
		DatabasePath:     viper.GetString("database"),
		AnnotatorConfig:  viper.GetString("annotator_config"),
		ClinvarDir:       viper.GetString("clinvar_dir"),
		Genome:           viper.GetString("genome"),
		AnnotationKey:    viper.GetString("annotation_key"),
		PollInterval:     viper.GetDuration("poll_interval"),
		AnnotatorTimeout: viper.GetDuration("annotator_timeout"),
	}
}

// buildPipeline wires the queue, store and annotator runner into an
// importer from the current configuration.
func buildPipeline(logger *zap.Logger) (*importer.Importer, *store.Store, *spool.Queue, error) {
	cfg := importerConfig()

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, nil, err
	}
	st.SetLogger(logger)

	queue := spool.NewQueue(cfg.SpoolDir)
	queue.SetLogger(logger)

	vepCfg, err := vep.LoadConfig(cfg.AnnotatorConfig)
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}
	runner := vep.NewRunner(vepCfg, cfg.AnnotatorTimeout)
	runner.SetLogger(logger)

	imp := importer.New(cfg, queue, st, runner)
	imp.SetLogger(logger)
	return imp, st, queue, nil
}
