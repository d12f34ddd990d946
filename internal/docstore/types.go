package docstore

// Document is a stored chunk of extracted text plus its source metadata.
type Document struct {
	ID       string            `json:"doc_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	DocID    string            `json:"doc_id"`
	Content  string            `json:"content"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PDFInfo carries the basic attributes read from a PDF file.
type PDFInfo struct {
	Pages  int    `json:"pages"`
	Title  string `json:"title"`
	Author string `json:"author"`
}
