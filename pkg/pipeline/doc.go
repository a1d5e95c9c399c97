// Package pipeline orchestrates the whole download run.
//
// A Session walks the configured profile links in order and, for each one:
//
//  1. Resolves the share link to the creator ID through the platform's
//     redirect chain.
//  2. Pages through the creator's catalog, cursor by cursor. Each call is
//     retried a fixed number of times, immediately, on transient failure.
//     An empty page is refetched with the same cursor until items arrive,
//     with a visible notice per attempt (empty_page_limit bounds this).
//  3. Derives the creator's display name from the first usable author
//     nickname and sanitizes every title for the filesystem.
//  4. Skips items whose history key is already in the ledger, streams the
//     rest to disk with byte progress, and records each completed download
//     durably before moving on.
//
// A failed link is logged and counted; the run continues with the next one.
// Cancellation stops the run, and CleanupPartial removes whatever file was
// mid-download when it happened.
//
// Execution is deliberately sequential: one link, one page, one item at a
// time. The tool mirrors personal-use catalogs over a rate-limited API, so
// parallelism would buy nothing and cost politeness.
package pipeline
