package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/metricdp"
	"github.com/hupe1980/metricdp/distance"
)

func newBuildCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an index over the embedding matrix and store a snapshot",
		Example: `  # Build a 50 tree L2 index over BERT embeddings
  mdp build --vocab vocab.txt --vectors embeddings.fvecs --trees 50

  # Store the snapshot in S3
  MDP_STORAGE_BACKEND=s3 MDP_STORAGE_BUCKET=indexes mdp build --vocab vocab.txt --vectors embeddings.fvecs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, root)
		},
	}

	cmd.Flags().String("metric", "", "distance metric (L2, L1, cosine)")
	cmd.Flags().Int("trees", 0, "number of trees")
	cmd.Flags().Int("leaf-size", 0, "maximum tokens per leaf")
	cmd.Flags().Int("min-candidate-id", 0, "smallest token id used as a replacement")

	_ = root.v.BindPFlag("index.metric", cmd.Flags().Lookup("metric"))
	_ = root.v.BindPFlag("index.trees", cmd.Flags().Lookup("trees"))
	_ = root.v.BindPFlag("index.leaf_size", cmd.Flags().Lookup("leaf-size"))
	_ = root.v.BindPFlag("index.min_candidate_id", cmd.Flags().Lookup("min-candidate-id"))

	return cmd
}

func runBuild(cmd *cobra.Command, root *rootOptions) error {
	ctx := cmd.Context()

	cfg, err := root.config()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg.LogLevel)
	if err != nil {
		return err
	}

	p, err := newPrivatizer(cfg, logger, nil)
	if err != nil {
		return err
	}

	metric, err := distance.ParseMetric(cfg.Index.Metric)
	if err != nil {
		return err
	}

	buildOpts := []metricdp.BuildOption{metricdp.WithLeafSize(cfg.Index.LeafSize)}
	if cfg.Index.SearchK > 0 {
		buildOpts = append(buildOpts, metricdp.WithSearchK(cfg.Index.SearchK))
	}
	if err := p.BuildANN(ctx, metric, cfg.Index.Trees, buildOpts...); err != nil {
		return err
	}

	bs, err := openBlobStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if err := p.SaveIndex(ctx, bs, cfg.Index.Snapshot); err != nil {
		return err
	}

	info, err := p.Index()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "built %s index: %d trees over %d tokens, max depth %d -> %s\n",
		info.Metric, info.NumTrees, info.Rows, info.Stats.MaxDepth, cfg.Index.Snapshot)

	return nil
}
