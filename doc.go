// Package cocogo curates object-detection datasets in the COCO annotation format.
//
// A Dataset is an immutable graph of images, categories and annotations with
// id lookup indices. It is built from a tabular source of captures (usually
// the result of a SQL query) by the builder package, transformed with Filter,
// MergeClasses and TrainTestSplit, and persisted as JSON or YAML documents.
//
// # Quick Start
//
// Build a dataset from a query result:
//
//	rows, _ := client.Run(ctx, q)
//	b, _ := builder.New("booth-2024", rows, res)
//	ds, _ := b.Build(ctx)
//
// Transform and persist:
//
//	ds, _ = ds.Filter([]string{"f1__cam__img1.jpg"})
//	ds, _ = ds.MergeClasses(map[string]string{"car": "vehicle", "truck": "vehicle"})
//	train, test, _ := ds.TrainTestSplit(cocogo.DefaultTrainRatio)
//	_ = train.Save("train.json")
//	_ = test.Save("test.json.zst")
//
// # Persistence
//
// The document format follows the file name: ".json" selects the go-json
// codec, ".yaml" or ".yml" selects YAML. A trailing ".zst" or ".lz4" adds
// compression. Loading is strict: unknown keys and missing required keys fail
// with a *SchemaError naming the offending path, and nothing is partially loaded.
//
//	ds, err := cocogo.Load("annotations.yaml.lz4")
//	ds, err := cocogo.LoadBlob(ctx, s3Store, "datasets/train.json")
//
// # Error Handling
//
// Errors match the sentinels in this package through errors.Is:
//
//	if errors.Is(err, cocogo.ErrSchema) { ... }
//	var ve *cocogo.ValidationError
//	if errors.As(err, &ve) { fmt.Println(ve.Missing, ve.Unknown) }
package cocogo
