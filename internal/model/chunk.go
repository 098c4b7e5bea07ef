package model

// ChunkMetadata travels with every stored chunk and is echoed back in
// search results and citations.
type ChunkMetadata struct {
	Source      string            `json:"source"`
	Section     string            `json:"section,omitempty"`
	ChunkIndex  int               `json:"chunk_index"`
	TotalChunks int               `json:"total_chunks"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// Chunk is immutable once written. A rewrite of the same chunk is a
// full replacement keyed by ID.
type Chunk struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"document_id"`
	Ordinal    int           `json:"ordinal"`
	Total      int           `json:"total"`
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata"`
	Embedding  []float32     `json:"-"`
	Ctime      int64         `json:"ctime"`
}
