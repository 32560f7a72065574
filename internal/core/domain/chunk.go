package domain

// Unknown is the label used when no heuristic rule matches.
const Unknown = "indefinido"

// ChunkRecord is the unit held by the embedding store.
// It carries every field from chunking through storage.
type ChunkRecord struct {
	// ID is the unique identifier for the chunk.
	ID string `json:"id"`

	// Text is the trimmed chunk content. Never empty.
	Text string `json:"text"`

	// Embedding is computed over the enriched representation, not Text.
	Embedding []float32 `json:"embedding"`

	// Source is the filename of the originating document.
	Source string `json:"source"`

	// Page is the 1-based page, real or virtual.
	Page int `json:"page"`

	// Order is the 0-based position within the document, ascending across pages.
	Order int `json:"order"`

	// Category is the inferred subject area.
	Category string `json:"category"`

	// Role is the inferred rhetorical role of the passage.
	Role string `json:"role"`

	// Topic is the inferred topic or a leading clause of the text.
	Topic string `json:"topic"`

	// DocType is inferred from the source filename.
	DocType string `json:"doc_type"`
}

// Tags returns the semantic labels of the chunk.
func (c *ChunkRecord) Tags() Tags {
	return Tags{Category: c.Category, Role: c.Role, Topic: c.Topic, DocType: c.DocType}
}

// SetTags copies labels onto the chunk.
func (c *ChunkRecord) SetTags(t Tags) {
	c.Category = t.Category
	c.Role = t.Role
	c.Topic = t.Topic
	c.DocType = t.DocType
}

// Tags groups the heuristically inferred labels of a chunk.
type Tags struct {
	Category string
	Role     string
	Topic    string
	DocType  string
}

// SourceDocument is an extracted document ready for chunking.
type SourceDocument struct {
	// Name is the filename used as the chunk source.
	Name string

	// Path is the absolute location on disk.
	Path string

	// Pages are the extracted page texts in reading order.
	Pages []string

	// Hash is the hex sha256 of the file content.
	Hash string
}

// Match is a chunk scored against a query.
// Score holds the cosine similarity and, after reranking, the blended score.
type Match struct {
	ChunkRecord
	Score float64 `json:"score"`
}

// Citation points the caller at a page that contributed context.
type Citation struct {
	Source string  `json:"source"`
	Page   int     `json:"page"`
	Score  float64 `json:"score"`
}
