// Package rawstore provides durable, append-only storage of source-native
// content and its metadata, organized by source type and batch.
//
// The on-disk layout is the persisted contract:
//
//	data/raw/{source_type}/{batch_id}/
//	    metadata.json              batch-level summary
//	    {document_id}.json         raw content
//	    {document_id}.meta.json    document metadata
//	data/ingestion_logs/{ingestion_id}.json
//
// Raw data is the system's source of truth: the vector index is always fully
// reconstructable from it. Writes are append-only. A document, once stored,
// is never overwritten; attempting to do so fails with ErrDuplicateDocument.
//
// All writes go through a temp-file-and-rename commit so a crash mid-write
// never leaves a partially written document visible to readers. The content
// file is the commit record: readers ignore a metadata file whose content
// file is missing.
package rawstore
