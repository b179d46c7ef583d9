// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "capture-bucket",
//	    s3.WithRegion("eu-west-1"),
//	)
//
//	r := resolver.New(store, store.Bucket(), channels)
//
// # Features
//
//   - Range reads for image downloads
//   - Multipart uploads for large dataset documents
//   - Automatic pagination for listing capture folders
//   - Configurable prefix
package s3
