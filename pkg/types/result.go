package types

// FallbackScore is the uniform score assigned when similarity ranking could not run
const FallbackScore = 1.0

// RetrievalItem represents a single ranked passage returned to a consumer
type RetrievalItem struct {
	// Position in the result set (0-based), assigned at output time
	ID int `json:"id"`

	// Provenance
	Title string `json:"title"` // "<page title> — <section title>"
	URL   string `json:"url"`   // "/" + archive path

	Snippet string  `json:"snippet"` // First words of the passage
	Score   float64 `json:"score"`   // Cosine similarity, or FallbackScore
}

// Validate checks if the retrieval item is well formed
func (r *RetrievalItem) Validate() error {
	if r.URL == "" {
		return ErrEmptyURL
	}
	if r.Score == FallbackScore {
		return nil
	}
	// Allow small float error on unit vectors
	if r.Score < -1.0001 || r.Score > 1.0001 {
		return ErrInvalidScore
	}
	return nil
}
