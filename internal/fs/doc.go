// Package fs provides the filesystem seam used by the local blob store.
//
// Production code uses fs.Default ([LocalFS]). Tests inject [FaultyFS] to
// simulate write, sync, close or rename failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.Set(fs.Fault{FailOnSync: true})
//	err := fs.WriteFileAtomic(ffs, path, data) // fails, path untouched
//
// Operations take no context.Context: local filesystem calls are short and
// not interruptible at the syscall level.
package fs
