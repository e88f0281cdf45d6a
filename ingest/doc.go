// Package ingest translates external knowledge sources into batches of
// immutable raw documents.
//
// Three Ingestor implementations share one contract: a run creates exactly
// one batch, attempts to store each source-native item, and finalizes an
// audit record whether or not the run succeeded. A single malformed item is
// counted as a failed document and never aborts the run; only a source that
// is unreachable before any item is processed marks the whole run failed.
//
//   - ChatIngestor groups platform messages into conversation threads and
//     stores one unit per thread, resolving author IDs to display names.
//     It reads either a live channel through a ChatClient or an exported
//     archive directory.
//   - WikiIngestor fetches rendered pages (a whole space or a single page),
//     converts markup to plain text preserving heading structure, and stores
//     one unit per page.
//   - UploadIngestor accepts file paths or raw bytes, extracts text by file
//     type, and stores one unit per file tagged with the uploading principal.
//
// Each implementation is selected by source type at the orchestrator
// boundary; selectors are typed per variant so a mismatch is a programming
// error surfaced as ErrSelectorMismatch, not silent misbehavior.
package ingest
