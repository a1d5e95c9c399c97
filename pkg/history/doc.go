// Package history provides the append-only ledger that makes runs idempotent.
//
// Every successfully downloaded item is recorded as one BLAKE2b-256 key per
// line in a plain text file. Before downloading, the pipeline checks the
// ledger and skips items whose key is already present, so a second run over
// an unchanged catalog downloads nothing.
//
// Durability rules:
//   - Append syncs the file before returning, so the entry survives a crash
//     that happens after it.
//   - The file is never rewritten. Corruption or truncation can only lose
//     trailing entries, and a lost entry merely causes one redundant
//     re-download.
//
// Keys are derived from the creator name and the sanitized title, not from
// the platform's item ID. Retitled uploads therefore hash to new keys and
// are fetched again, while same-titled duplicates are skipped.
package history
