package model

// SearchResult is produced per query and never persisted.
type SearchResult struct {
	ChunkID    string        `json:"chunk_id"`
	DocumentID string        `json:"document_id"`
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata"`
	Similarity float32       `json:"similarity"`
	Rank       int           `json:"rank"`
}

// Citation is the user-facing view of one retrieved chunk. IDs are
// 1-based and assigned per response in result order.
type Citation struct {
	ID         int     `json:"id"`
	Source     string  `json:"source"`
	Section    string  `json:"section,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Total      int     `json:"total_chunks"`
	Preview    string  `json:"preview"`
	Similarity float32 `json:"similarity"`
}

const (
	RoleHuman     = "human"
	RoleAssistant = "assistant"
)

// ChatTurn is one prior exchange in a conversation.
type ChatTurn struct {
	Role    string `json:"role"` // "human" or "assistant"
	Content string `json:"content"`
}
