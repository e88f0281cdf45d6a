// Package ai defines the embedding abstraction used by the indexing pipeline.
//
// The Embedder interface decouples the vector index from any particular
// embedding provider. The openai subpackage implements it against
// OpenAI-compatible APIs (including local servers such as Ollama or vLLM);
// the mock subpackage provides a deterministic implementation for tests.
//
// Constructors return the Embedder interface rather than concrete types so
// consumers cannot couple to a specific backend.
package ai
