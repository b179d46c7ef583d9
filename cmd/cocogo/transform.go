package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/cocogo"
	"github.com/hupe1980/cocogo/codec"
)

// filterCommand creates a command that removes blocked images.
func (a *app) filterCommand() *cobra.Command {
	var in, out, blockList string
	var keepEmpty bool

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Drop blocked images and their annotations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			blocked, err := readBlockList(blockList)
			if err != nil {
				return err
			}
			ds, err := a.loadDataset(ctx, in)
			if err != nil {
				return err
			}
			filtered, err := ds.Filter(blocked)
			if err != nil {
				return err
			}
			return a.saveDataset(ctx, filtered, out, keepEmpty)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Input dataset")
	cmd.Flags().StringVar(&blockList, "block-list", "", "File with one blocked file name per line")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output dataset")
	cmd.Flags().BoolVar(&keepEmpty, "keep-empty", false, "Write absent optional fields as null")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("block-list")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// mergeCommand creates a command that collapses categories.
func (a *app) mergeCommand() *cobra.Command {
	var in, out, mappingFile string
	var keepEmpty bool

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge categories according to a mapping file",
		Long: `Rename every category through the mapping in --mapping, a YAML or JSON
object from existing category name to merged name. The mapping must cover
exactly the dataset's categories.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			mapping, err := readMapping(mappingFile)
			if err != nil {
				return err
			}
			ds, err := a.loadDataset(ctx, in)
			if err != nil {
				return err
			}
			merged, err := ds.MergeClasses(mapping)
			if err != nil {
				return err
			}
			return a.saveDataset(ctx, merged, out, keepEmpty)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Input dataset")
	cmd.Flags().StringVar(&mappingFile, "mapping", "", "YAML or JSON file mapping category names")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output dataset")
	cmd.Flags().BoolVar(&keepEmpty, "keep-empty", false, "Write absent optional fields as null")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("mapping")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// splitCommand creates a command that partitions annotations into train and test sets.
func (a *app) splitCommand() *cobra.Command {
	var in, train, test string
	var ratio float64
	var keepEmpty bool

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Randomly split a dataset into train and test sets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			ds, err := a.loadDataset(ctx, in)
			if err != nil {
				return err
			}
			trainSet, testSet, err := ds.TrainTestSplit(ratio)
			if err != nil {
				return err
			}
			if err := a.saveDataset(ctx, trainSet, train, keepEmpty); err != nil {
				return err
			}
			return a.saveDataset(ctx, testSet, test, keepEmpty)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "Input dataset")
	cmd.Flags().Float64Var(&ratio, "ratio", cocogo.DefaultTrainRatio, "Fraction of annotations in the train set")
	cmd.Flags().StringVar(&train, "train", "", "Output train dataset")
	cmd.Flags().StringVar(&test, "test", "", "Output test dataset")
	cmd.Flags().BoolVar(&keepEmpty, "keep-empty", false, "Write absent optional fields as null")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("train")
	_ = cmd.MarkFlagRequired("test")

	return cmd
}

// readBlockList reads file names one per line. Blank lines and lines
// starting with '#' are ignored.
func readBlockList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening block list: %w", err)
	}
	defer f.Close()
	return parseBlockList(f)
}

func parseBlockList(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading block list: %w", err)
	}
	return names, nil
}

// readMapping decodes a category mapping. The codec is chosen by extension.
func readMapping(path string) (map[string]string, error) {
	c, ok := codec.ByExtension(filepath.Ext(path))
	if !ok {
		return nil, fmt.Errorf("cannot infer format of %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading mapping: %w", err)
	}
	var mapping map[string]string
	if err := c.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("error decoding mapping %q: %w", path, err)
	}
	return mapping, nil
}
