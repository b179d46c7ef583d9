package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/cocogo/blobstore"
	"github.com/hupe1980/cocogo/download"
)

// downloadCommand creates a command that fetches the images of a dataset.
func (a *app) downloadCommand() *cobra.Command {
	var in, dir string
	var skipExisting bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the images of a dataset into a local directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			ds, err := a.loadDataset(ctx, in)
			if err != nil {
				return err
			}

			d := download.New(a.store, blobstore.NewLocalStore(dir), func(o *download.Options) {
				o.Concurrency = a.settings.Download.Concurrency
				o.RequestsPerSecond = a.settings.Download.RPS
				o.SkipExisting = skipExisting
				o.Logger = a.logger
				o.Metrics = a.metrics
			})

			res, err := d.Run(ctx, ds)
			if err != nil {
				return err
			}
			a.logger.InfoContext(ctx, "download finished",
				"downloaded", res.Downloaded,
				"skipped", res.Skipped,
				"bytes", res.Bytes,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Input dataset")
	cmd.Flags().StringVar(&dir, "dir", "images", "Destination directory")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Skip images already present in --dir")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}
