package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	in := "Line one.  \r\n\r\n  Line   two.\n\n\nLine three."

	assert.Equal(t, "Line one.\nLine two.\nLine three.", CleanText(in))
}

func TestCleanTextEmpty(t *testing.T) {
	assert.Equal(t, "", CleanText("   \n\t \n"))
}

func TestSplitIntoChunksPacksSentences(t *testing.T) {
	p := NewProcessor(nil, nil, nil, 50, 1)

	text := "Alpha beta gamma delta. Epsilon zeta eta theta. Iota kappa lambda mu."

	chunks, err := p.splitIntoChunks(text)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "Alpha beta gamma delta. Epsilon zeta eta theta.", chunks[0])
	// The last sentence of the previous chunk carries over as overlap.
	assert.Equal(t, "Epsilon zeta eta theta. Iota kappa lambda mu.", chunks[1])
}

func TestSplitIntoChunksSingleShortText(t *testing.T) {
	p := NewProcessor(nil, nil, nil, 1200, 1)

	chunks, err := p.splitIntoChunks("One short sentence.")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "One short sentence.", chunks[0])
}

func TestSplitIntoChunksOversizedSentence(t *testing.T) {
	p := NewProcessor(nil, nil, nil, 50, 1)

	long := strings.Repeat("x", 120)

	chunks, err := p.splitIntoChunks(long)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 50, len(chunks[0]))
	assert.Equal(t, 50, len(chunks[1]))
	assert.Equal(t, 20, len(chunks[2]))
	assert.Equal(t, long, strings.Join(chunks, ""))
}

func TestSplitIntoChunksEmpty(t *testing.T) {
	p := NewProcessor(nil, nil, nil, 50, 1)

	chunks, err := p.splitIntoChunks("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
