package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/cocogo"
)

// statsCommand creates a command that prints dataset counts.
func (a *app) statsCommand() *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print image, category and annotation counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := a.loadDataset(cmd.Context(), in)
			if err != nil {
				return err
			}
			return writeStats(cmd.OutOrStdout(), ds.Stats())
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Input dataset")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func writeStats(w io.Writer, s cocogo.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "images\t%d\n", s.Images)
	fmt.Fprintf(tw, "categories\t%d\n", s.Categories)
	fmt.Fprintf(tw, "annotations\t%d\n", s.Annotations)
	fmt.Fprintf(tw, "licenses\t%d\n", s.Licenses)

	if len(s.PerCategory) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "CATEGORY\tANNOTATIONS")
		for _, name := range slices.Sorted(maps.Keys(s.PerCategory)) {
			fmt.Fprintf(tw, "%s\t%d\n", name, s.PerCategory[name])
		}
	}
	return tw.Flush()
}
