// Package mock provides a deterministic ai.Embedder implementation for
// tests. Vectors are derived from a hash of the input text, so embedding the
// same text twice always yields the same vector without any network access.
package mock
