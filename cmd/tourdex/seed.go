package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tourdex/internal/engine"
	corpusrepo "github.com/kailas-cloud/tourdex/internal/repository/corpus"
)

type seedOptions struct {
	from    string
	version string
}

func newSeedCmd(root *rootOptions) *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the stored corpus with the contents of a corpus file",
		Long: `Replace the corpus held by the configured redis, valkey or sqlite driver
with the documents of a YAML or JSON corpus file.

Examples:
  tourdex seed --from config/corpus.yaml
  tourdex seed --env prod --from attractions.json --version 2026-10-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "Corpus file to load (.yaml, .yml, .json)")
	cmd.Flags().StringVar(&opts.version, "version", "", "Corpus version (default: file version, else a content fingerprint)")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func runSeed(ctx context.Context, cmd *cobra.Command, root *rootOptions, opts seedOptions) error {
	version, docs, err := corpusrepo.ReadFile(opts.from)
	if err != nil {
		return err
	}
	if opts.version != "" {
		version = opts.version
	}

	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	backend, err := engine.OpenCorpus(ctx, cfg.Corpus, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	if backend.Replacer == nil {
		return fmt.Errorf("corpus driver %q is read-only, seed needs redis, valkey or sqlite", cfg.Corpus.Driver)
	}
	if err := backend.Replacer.Replace(ctx, docs, version); err != nil {
		return fmt.Errorf("seed corpus: %w", err)
	}

	snap, err := backend.Source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("verify seeded corpus: %w", err)
	}
	logger.Info("Corpus seeded",
		zap.String("from", opts.from),
		zap.String("driver", cfg.Corpus.Driver),
		zap.String("version", snap.Version()),
		zap.Int("documents", snap.Len()),
	)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d documents (version %s)\n", snap.Len(), snap.Version())
	return err
}
