// Package blobstore provides storage for small named blobs.
//
// The planner persists its geocode cache snapshot through a Store so the
// same binary can keep the cache on local disk, in Amazon S3 or in MinIO.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, mmap reads, atomic rename writes
//   - MemoryStore: in-process map, for tests
//   - TieredStore: a remote Store fronted by a local read-through copy
//   - s3.Store: Amazon S3 (package blobstore/s3)
//   - minio.Store: MinIO and other S3-compatible servers (package blobstore/minio)
//
// # Custom Implementations
//
//	type Store interface {
//	    Get(ctx, name) ([]byte, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Missing blobs must satisfy errors.Is(err, ErrNotFound).
package blobstore
