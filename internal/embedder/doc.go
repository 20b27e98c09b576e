// Package embedder turns text into fixed-dimension vectors for similarity
// ranking.
//
// Three providers implement the Embedder interface:
//
//   - local: offline feature hashing over words and word pairs (default)
//   - compat: any self-hosted server speaking the OpenAI embeddings protocol,
//     e.g. text-embeddings-inference serving BAAI/bge-small-en-v1.5
//   - openai: the OpenAI embeddings API
//
// # Basic Usage
//
//	emb, err := embedder.New(embedder.Config{
//	    Provider:  "compat",
//	    BaseURL:   "http://localhost:8080/v1",
//	    Model:     "BAAI/bge-small-en-v1.5",
//	    CacheSize: 4096,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	vecs, err := embedder.EmbedTexts(ctx, emb, []string{"first passage", "second passage"})
//
// EmbedTexts batches requests, normalizes every vector to unit length and
// checks that all vectors share one dimension, so the dot product of two
// results is their cosine similarity. Failures surface as types.ErrEncoding.
//
// # Caching
//
// Providers consult an optional LRU cache keyed by SHA-256 of model and text
// before calling out, which makes repeated queries free.
//
// # Retries
//
// Remote providers retry transient failures with exponential backoff
// (100ms doubling to 5s, 3 attempts). Client errors other than 429 are not
// retried.
package embedder
