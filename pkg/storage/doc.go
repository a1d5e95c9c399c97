// Package storage lays downloaded videos out on disk.
//
// The storage package handles:
//   - Creating the output root and one directory per creator
//   - Streaming video bodies to disk with per-chunk progress reporting
//   - Marking completion by renaming the file to its final extension
//   - Removing partial files on failure or cancellation
//
// The naming rule is the durability contract: an in-flight download is
// written extension-less and only earns its ".mp4" suffix after the last
// byte is synced. Any file with the extension is complete; any file without
// it is garbage from an interrupted run and safe to delete.
//
// Duplicate detection is not this package's job. The history ledger decides
// what gets downloaded; storage only writes what it is handed.
//
// Usage:
//
//	manager, err := storage.NewManager("./downloads")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dir, err := manager.CreatorDir("creator name")
//	finalPath, err := manager.SaveStream(ctx, dir, "video title", body, length,
//	    func(written, total int64) {
//	        // Drive a progress bar
//	    })
package storage
