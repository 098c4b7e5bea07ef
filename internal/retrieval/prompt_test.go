package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/larkvine/docrag/internal/ai"
	"github.com/larkvine/docrag/internal/model"
)

func TestBuildPromptWithContext(t *testing.T) {
	results := []model.SearchResult{
		{
			Content: "First excerpt.",
			Metadata: model.ChunkMetadata{
				Source: "guide.pdf", Section: "intro", ChunkIndex: 0, TotalChunks: 4,
			},
		},
		{
			Content: "Second excerpt.",
			Metadata: model.ChunkMetadata{
				Source: "notes.md", ChunkIndex: 2, TotalChunks: 3,
			},
		},
	}
	system, messages := BuildPrompt("what is this?", nil, results)

	require.True(t, strings.HasPrefix(system, promptPreamble))
	require.Contains(t, system, "[Source 1] (guide.pdf - intro, chunk 1/4):\nFirst excerpt.")
	require.Contains(t, system, "[Source 2] (notes.md - general, chunk 3/3):\nSecond excerpt.")
	require.True(t, strings.HasSuffix(system, citeInstruction))

	require.Len(t, messages, 1)
	require.Equal(t, ai.Message{Role: ai.RoleHuman, Content: "what is this?"}, messages[0])
}

func TestBuildPromptWithHistory(t *testing.T) {
	turns := []model.ChatTurn{
		{Role: model.RoleHuman, Content: "earlier question"},
		{Role: model.RoleAssistant, Content: "earlier answer"},
	}
	system, messages := BuildPrompt("follow up", turns, nil)

	require.NotContains(t, system, "Context:")
	require.NotContains(t, system, citeInstruction)

	require.Len(t, messages, 3)
	require.Equal(t, ai.RoleHuman, messages[0].Role)
	require.Equal(t, "earlier question", messages[0].Content)
	require.Equal(t, ai.RoleAssistant, messages[1].Role)
	require.Equal(t, "earlier answer", messages[1].Content)
	require.Equal(t, ai.Message{Role: ai.RoleHuman, Content: "follow up"}, messages[2])
}

func TestBuildPromptUnknownRoleDefaultsToHuman(t *testing.T) {
	turns := []model.ChatTurn{{Role: "system", Content: "odd role"}}
	_, messages := BuildPrompt("q", turns, nil)
	require.Equal(t, ai.RoleHuman, messages[0].Role)
}
