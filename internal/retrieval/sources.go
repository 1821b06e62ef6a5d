package retrieval

import (
	"fmt"
	"strings"
)

const maxSourceURLLength = 50

// FormatSources renders one citation string per document and deduplicates by
// the exact rendered string, preserving first-seen order.
func FormatSources(docs []Document) []string {
	sources := make([]string, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))

	for _, doc := range docs {
		rendered := formatSource(doc.Origin)
		if _, ok := seen[rendered]; ok {
			continue
		}
		seen[rendered] = struct{}{}
		sources = append(sources, rendered)
	}

	return sources
}

func formatSource(origin Origin) string {
	switch origin.Kind {
	case OriginWeb:
		title := origin.Title
		if title == "" {
			title = "Web Source"
		}
		rendered := "web: " + title
		if origin.URL != "" {
			rendered += fmt.Sprintf(" (%s)", truncateURL(origin.URL))
		}
		return rendered
	default:
		source := origin.Source
		if source == "" {
			source = "Unknown"
		}
		if origin.HasPage {
			return fmt.Sprintf("%s - Page %d", source, origin.Page)
		}
		return source
	}
}

func truncateURL(url string) string {
	runes := []rune(url)
	if len(runes) <= maxSourceURLLength {
		return url
	}
	return string(runes[:maxSourceURLLength]) + "..."
}

// JoinContents concatenates document contents for prompt assembly.
func JoinContents(docs []Document) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.Content == "" {
			continue
		}
		parts = append(parts, doc.Content)
	}
	return strings.Join(parts, "\n\n")
}
