package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/metricdp"
)

func newInspectCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [snapshot]",
		Short: "Print the metadata of an index snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := root.config()
			if err != nil {
				return err
			}
			name := cfg.Index.Snapshot
			if len(args) == 1 {
				name = args[0]
			}

			bs, err := openBlobStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			info, err := metricdp.ReadSnapshotInfo(ctx, bs, name)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "snapshot\t%s\n", name)
			fmt.Fprintf(tw, "size\t%d\n", info.Size)
			fmt.Fprintf(tw, "codec\t%s\n", info.Codec)
			fmt.Fprintf(tw, "compression\t%s\n", info.Compression)
			fmt.Fprintf(tw, "metric\t%s\n", info.Metric)
			fmt.Fprintf(tw, "trees\t%d\n", info.NumTrees)
			fmt.Fprintf(tw, "leaf size\t%d\n", info.LeafSize)
			fmt.Fprintf(tw, "search k\t%d\n", info.SearchK)
			fmt.Fprintf(tw, "dimension\t%d\n", info.Dimension)
			fmt.Fprintf(tw, "rows\t%d\n", info.Rows)
			fmt.Fprintf(tw, "min candidate id\t%d\n", info.MinCandidateID)
			fmt.Fprintf(tw, "fingerprint\t%016x\n", info.Fingerprint)
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}
