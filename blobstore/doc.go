// Package blobstore provides the object storage abstraction used to list
// capture folders, fetch images and persist datasets.
//
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory store for tests
//   - LocalStore: local filesystem with atomic writes
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible storage
//
// Locations inside a dataset are written as "<bucket>/<key>"; use
// SplitLocation to separate them.
package blobstore
