package retrieval

import (
	"fmt"
	"strings"

	"github.com/larkvine/docrag/internal/ai"
	"github.com/larkvine/docrag/internal/model"
)

const promptPreamble = `You are a helpful assistant that answers questions using the provided context. ` +
	`Base your answer on the context excerpts below. If the context does not contain enough ` +
	`information to answer, say so instead of guessing.`

const citeInstruction = `When your answer draws on a context excerpt, cite it inline as [Source N].`

// BuildPrompt assembles the completion input from the query, prior
// conversation turns, and the retrieved context. Context goes into
// the system prompt; turns and the query become the message list. It
// is a pure function; callers own trimming the turn history.
func BuildPrompt(query string, priorTurns []model.ChatTurn, results []model.SearchResult) (string, []ai.Message) {
	var b strings.Builder
	b.WriteString(promptPreamble)

	if len(results) > 0 {
		b.WriteString("\n\nContext:\n\n")
		for i, r := range results {
			section := r.Metadata.Section
			if section == "" {
				section = "general"
			}
			fmt.Fprintf(&b, "[Source %d] (%s - %s, chunk %d/%d):\n%s\n\n",
				i+1, r.Metadata.Source, section,
				r.Metadata.ChunkIndex+1, r.Metadata.TotalChunks, r.Content)
		}
		b.WriteString(citeInstruction)
	}

	messages := make([]ai.Message, 0, len(priorTurns)+1)
	for _, turn := range priorTurns {
		role := ai.RoleHuman
		if turn.Role == model.RoleAssistant {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.Message{Role: role, Content: turn.Content})
	}
	messages = append(messages, ai.Message{Role: ai.RoleHuman, Content: query})
	return b.String(), messages
}
