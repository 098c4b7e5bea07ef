package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/larkvine/docrag/internal/config"
	"github.com/larkvine/docrag/internal/model"
	appErr "github.com/larkvine/docrag/internal/pkg/errors"
)

func testEngine() *Engine {
	return NewEngine(config.ExtractConfig{})
}

func TestExtract_PlainText(t *testing.T) {
	got, err := testEngine().Extract(context.Background(), []byte("Hello world"), model.FileTypeTxt)
	require.NoError(t, err)
	require.Equal(t, "Hello world", got)
}

func TestExtract_Markdown(t *testing.T) {
	src := "# Title\n\nSome paragraph text.\n\n- item one\n- item two\n"
	got, err := testEngine().Extract(context.Background(), []byte(src), model.FileTypeMd)
	require.NoError(t, err)
	require.Contains(t, got, "Title")
	require.Contains(t, got, "Some paragraph text.")
	require.Contains(t, got, "item one")
	require.NotContains(t, got, "#")
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	_, err := testEngine().Extract(context.Background(), []byte("a,b,c"), model.FileType("csv"))
	require.ErrorIs(t, err, appErr.ErrUnsupportedFormat)
}

func TestExtract_EmptyBufferFails(t *testing.T) {
	_, err := testEngine().Extract(context.Background(), nil, model.FileTypeTxt)
	require.ErrorIs(t, err, appErr.ErrExtractionFailed)
}

func TestExtract_CorruptPDFUsesCascade(t *testing.T) {
	groups := []string{
		"The quick brown fox", "jumps over the lazy dog", "and keeps on running",
		"until the sun goes down", "then it rests a while", "before starting again",
	}
	buf := []byte("%PDF-1.4 \x00\x01(" + strings.Join(groups, ")\x02(") + ")\x03")
	got, err := testEngine().Extract(context.Background(), buf, model.FileTypePDF)
	require.NoError(t, err)
	require.Contains(t, got, "quick brown fox")
}

func TestExtract_GarbageDocFails(t *testing.T) {
	_, err := testEngine().Extract(context.Background(), []byte{0xff, 0xfe, 0xfd, 0xfc}, model.FileTypeDoc)
	require.ErrorIs(t, err, appErr.ErrExtractionFailed)
}
