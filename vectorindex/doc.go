// Package vectorindex maintains the searchable embedding index derived from
// the raw store. The index is a pure derivation: it can be dropped and
// rebuilt from raw data at any time, and a version record tracks which
// batches it was built from.
//
// Entries are kept in BadgerDB under a sequence-assigned key, serialized
// with the MUS format. Similarity search is a full scan with dot-product
// scoring, which is adequate at the corpus sizes this store targets.
package vectorindex
