package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSourcesLocalWithPages(t *testing.T) {
	docs := []Document{
		{Origin: LocalOriginWithPage("doc.pdf", 1)},
		{Origin: LocalOriginWithPage("doc.pdf", 1)},
		{Origin: LocalOriginWithPage("doc.pdf", 2)},
	}

	sources := FormatSources(docs)

	assert.Equal(t, []string{"doc.pdf - Page 1", "doc.pdf - Page 2"}, sources)
}

func TestFormatSourcesLocalWithoutPage(t *testing.T) {
	docs := []Document{{Origin: LocalOrigin("manual.pdf")}}

	assert.Equal(t, []string{"manual.pdf"}, FormatSources(docs))
}

func TestFormatSourcesUnknownLocal(t *testing.T) {
	docs := []Document{{Origin: LocalOrigin("")}}

	assert.Equal(t, []string{"Unknown"}, FormatSources(docs))
}

func TestFormatSourcesWeb(t *testing.T) {
	docs := []Document{
		{Origin: WebOrigin("AGV Safety Standards", "https://example.com/agv")},
	}

	assert.Equal(t, []string{"web: AGV Safety Standards (https://example.com/agv)"}, FormatSources(docs))
}

func TestFormatSourcesWebDefaultTitle(t *testing.T) {
	docs := []Document{{Origin: WebOrigin("", "https://example.com")}}

	assert.Equal(t, []string{"web: Web Source (https://example.com)"}, FormatSources(docs))
}

func TestFormatSourcesTruncatesLongURL(t *testing.T) {
	longURL := "https://example.com/" + strings.Repeat("a", 60)
	docs := []Document{{Origin: WebOrigin("Title", longURL)}}

	sources := FormatSources(docs)

	assert.Len(t, sources, 1)
	assert.Contains(t, sources[0], longURL[:50]+"...")
	assert.NotContains(t, sources[0], longURL)
}

func TestFormatSourcesPreservesFirstSeenOrder(t *testing.T) {
	docs := []Document{
		{Origin: LocalOrigin("b.pdf")},
		{Origin: LocalOrigin("a.pdf")},
		{Origin: LocalOrigin("b.pdf")},
	}

	assert.Equal(t, []string{"b.pdf", "a.pdf"}, FormatSources(docs))
}

func TestJoinContentsSkipsEmpty(t *testing.T) {
	docs := []Document{
		{Content: "first"},
		{Content: ""},
		{Content: "second"},
	}

	assert.Equal(t, "first\n\nsecond", JoinContents(docs))
}
