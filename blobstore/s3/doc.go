// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "routeplan-cache",
//	    s3.WithPrefix("verona/"),
//	    s3.WithRegion("us-east-2"),
//	)
//	cache := geocode.NewCache(store, geocode.DefaultSnapshotName)
//
// Small blobs are written with a single PutObject carrying a CRC32C
// checksum; larger ones go through the multipart upload manager.
package s3
