package retrieval

// OriginKind distinguishes where a retrieved document came from.
type OriginKind int

const (
	OriginLocal OriginKind = iota
	OriginWeb
)

func (k OriginKind) String() string {
	switch k {
	case OriginLocal:
		return "local"
	case OriginWeb:
		return "web"
	default:
		return "unknown"
	}
}

// Origin is a tagged variant: local documents carry a source identifier and
// an optional page number, web documents carry a title and URL.
type Origin struct {
	Kind OriginKind

	// Local fields.
	Source  string
	Page    int
	HasPage bool

	// Web fields.
	Title string
	URL   string
}

func LocalOrigin(source string) Origin {
	return Origin{Kind: OriginLocal, Source: source}
}

func LocalOriginWithPage(source string, page int) Origin {
	return Origin{Kind: OriginLocal, Source: source, Page: page, HasPage: true}
}

func WebOrigin(title, url string) Origin {
	return Origin{Kind: OriginWeb, Title: title, URL: url}
}

// Document is one unit of retrieved evidence. It lives for the duration of a
// single request and is never persisted.
//
// Similarity is a cosine-like score in [0,1] for local documents and a
// synthetic decreasing value for web documents. SimilarityKnown is false when
// the backend returned no score; the scorer substitutes a neutral prior.
type Document struct {
	Content         string
	Similarity      float64
	SimilarityKnown bool
	// Rank is the 1-based position within the document's own source.
	Rank     int
	Origin   Origin
	Metadata map[string]any
}

// Row is one hit from the vector store, ordered by descending similarity.
type Row struct {
	ID              string
	Content         string
	Similarity      float64
	SimilarityKnown bool
	Metadata        map[string]any
}

// WebResult is one free-text search hit.
type WebResult struct {
	Title string
	Body  string
	URL   string
}

// Result is the hybrid orchestrator's output for one question.
type Result struct {
	Documents            []Document
	ConfidenceScore      float64
	Sources              []string
	WebSearchUsed        bool
	WebSearchesRemaining int
}
