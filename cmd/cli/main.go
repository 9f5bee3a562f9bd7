package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"sessionmeta/internal/meta"
	"sessionmeta/pkg/logger"
	"sessionmeta/pkg/utils"
)

type globalOptions struct {
	configPath  string
	paths       []string
	fallbackDir string
	cohorts     []string
	verbose     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:          "metactl",
		Short:        "Inspect and query the master session metadata index",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("META_CONFIG"), "YAML config file")
	root.PersistentFlags().StringSliceVar(&opts.paths, "paths", nil, "spreadsheet paths (overrides MASTER_INDEX_PATHS)")
	root.PersistentFlags().StringVar(&opts.fallbackDir, "fallback-dir", "", "directory searched for missing files by name")
	root.PersistentFlags().StringSliceVar(&opts.cohorts, "cohorts", nil, "accepted workshop cohorts (overrides META_COHORTS)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log ingestion details to stderr")

	root.AddCommand(
		newStatsCmd(opts),
		newAuditCmd(opts),
		newLookupCmd(opts),
		newPartialCmd(opts),
		newSpeakerCmd(opts),
		newExportCmd(opts),
		newTokenCmd(opts),
		newEventsCmd(opts),
	)
	return root
}

func (o *globalOptions) config(cmd *cobra.Command) (utils.Config, error) {
	cfg, err := utils.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("paths") {
		cfg.Paths = o.paths
	}
	if cmd.Flags().Changed("fallback-dir") {
		cfg.FallbackDir = o.fallbackDir
	}
	if cmd.Flags().Changed("cohorts") {
		cfg.Cohorts = o.cohorts
	}
	return cfg, nil
}

// loadIndex builds a fresh index from the configured sources.
func (o *globalOptions) loadIndex(cmd *cobra.Command) (*meta.Index, error) {
	cfg, err := o.config(cmd)
	if err != nil {
		return nil, err
	}
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("no sources: pass --paths or set MASTER_INDEX_PATHS")
	}

	log := logger.Nop()
	if o.verbose {
		if log, err = logger.New(cfg.LogMode); err != nil {
			return nil, err
		}
		defer log.Sync()
	}
	return meta.Load(cfg.Paths, meta.Options{
		FallbackDir: cfg.FallbackDir,
		Cohorts:     cfg.Cohorts,
		CacheSize:   cfg.CacheSize,
		CacheTTL:    cfg.CacheTTL,
		Logger:      log,
	}), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Load the sources and print record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ix, err := opts.loadIndex(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), struct {
				meta.Stats
				SampleKeys map[string][][]any `json:"sample_keys"`
			}{ix.Stats(), ix.SampleKeys(10)})
		},
	}
}

func newAuditCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Print how every file and sheet was classified",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ix, err := opts.loadIndex(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ix.Audit())
		},
	}
}
