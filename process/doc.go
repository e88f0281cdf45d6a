// Package process turns stored raw documents into embedding-ready text
// chunks. Rendering and chunking are pure functions of the stored bytes: the
// same batch always yields the same chunk sequence, which is what makes
// index rebuilds reproducible.
package process
