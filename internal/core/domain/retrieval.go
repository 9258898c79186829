package domain

// RetrievalResult is a chunk scored against one query.
type RetrievalResult struct {
	ChunkID    string        `json:"chunk_id"`
	ProjectID  string        `json:"project_id"`
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata"`
	Similarity float64       `json:"similarity"`
}

func NewRetrievalResult(chunk Chunk, similarity float64) RetrievalResult {
	return RetrievalResult{
		ChunkID:    chunk.ID,
		ProjectID:  chunk.ProjectID,
		Content:    chunk.Content,
		Metadata:   chunk.Metadata,
		Similarity: similarity,
	}
}

type RetrievalLimits struct {
	TopK            int
	CandidateLimit  int
	PerProjectLimit int
	GlobalCap       int
}
