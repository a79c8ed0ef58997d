// Package builder stages a set of filesystem mutations (create file,
// create directory, copy existing entry, extract archive entries,
// delete entry) and applies them as one batch against a target root
// directory.
//
// Staging calls chain fluently; the commit pipeline is
// order-significant: deletions run first, copy and archive intents
// expand into concrete file intents, all directories are created, and
// file writes run last, sequentially, under the configured
// ConflictPolicy. The batch is deliberately not transactional: a
// failure mid-commit leaves earlier effects in place. Callers that
// need atomicity should build into a temporary root and swap it in.
package builder
