package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/cocogo/builder"
	"github.com/hupe1980/cocogo/query"
	"github.com/hupe1980/cocogo/resolver"
	"github.com/hupe1980/cocogo/table"
)

type buildFlags struct {
	name            string
	table           string
	out             string
	csv             string
	booth           string
	classes         []string
	samplesPerClass int
	startDate       string
	endDate         string
	keepEmpty       bool
}

// buildCommand creates a command that assembles a dataset from capture rows.
func (a *app) buildCommand() *cobra.Command {
	f := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a COCO dataset from the captures table",
		Long: `Query the captures table (or read a CSV export with --csv), resolve
every capture folder to image locations in the configured bucket and write
the assembled dataset to --out.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.build(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.name, "name", "", "Dataset name written to info.description")
	cmd.Flags().StringVar(&f.table, "table", "", "Captures table (default: database.table)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Output file or s3://bucket/key location")
	cmd.Flags().StringVar(&f.csv, "csv", "", "Read capture rows from a CSV file instead of the database")
	cmd.Flags().StringVar(&f.booth, "booth", "", "Only select captures from this booth")
	cmd.Flags().StringSliceVar(&f.classes, "classes", nil, "Only select these specification classes")
	cmd.Flags().IntVar(&f.samplesPerClass, "samples-per-class", 0, "Maximum rows per class (0 selects all)")
	cmd.Flags().StringVar(&f.startDate, "start-date", "", "Earliest capture date, inclusive")
	cmd.Flags().StringVar(&f.endDate, "end-date", "", "Latest capture date, exclusive")
	cmd.Flags().BoolVar(&f.keepEmpty, "keep-empty", false, "Write absent optional fields as null")

	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func (a *app) build(ctx context.Context, f *buildFlags) error {
	rows, err := a.captureRows(ctx, f)
	if err != nil {
		return err
	}

	store, err := a.store(ctx, a.settings.Storage.Bucket)
	if err != nil {
		return err
	}

	r, err := resolver.New(store, a.settings.Storage.Bucket, a.settings.Resolver.Channels,
		resolver.WithRequestsPerSecond(a.settings.Resolver.RPS),
		resolver.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	b, err := builder.New(f.name, rows, r,
		builder.WithLogger(a.logger),
		builder.WithMetrics(a.metrics),
	)
	if err != nil {
		return err
	}

	ds, err := b.Build(ctx)
	if err != nil {
		return err
	}
	return a.saveDataset(ctx, ds, f.out, f.keepEmpty)
}

// captureRows reads the capture rows from a CSV export or the database.
func (a *app) captureRows(ctx context.Context, f *buildFlags) (*table.Table, error) {
	if f.csv != "" {
		file, err := os.Open(f.csv)
		if err != nil {
			return nil, fmt.Errorf("error opening CSV file: %w", err)
		}
		defer file.Close()
		return table.ReadCSV(file)
	}

	tableName := f.table
	if tableName == "" {
		tableName = a.settings.Database.Table
	}
	q, err := query.CapturesQuery{
		Table:           tableName,
		Booth:           f.booth,
		Classes:         f.classes,
		SamplesPerClass: f.samplesPerClass,
		StartDate:       f.startDate,
		EndDate:         f.endDate,
	}.Build()
	if err != nil {
		return nil, err
	}

	client, err := query.Open(a.settings.Database.Dialect, a.settings.Database.DSN,
		query.WithLogger(a.logger),
		query.WithDebug(a.settings.Debug),
	)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	return client.Run(ctx, q)
}
