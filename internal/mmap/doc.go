// Package mmap provides read-only memory-mapped file access.
//
//	data, err := mmap.ReadFile("data/geocode/cache.snap")
//
// ReadFile returns a private copy. Open keeps the mapping for callers that
// want to read in place.
//
// Unix uses mmap(2) with madvise(2) hints; Windows uses
// CreateFileMapping/MapViewOfFile and ignores hints.
//
// Close is idempotent. Callers must not touch the slice returned by Bytes
// after Close.
package mmap
