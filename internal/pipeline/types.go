// Package pipeline defines the core types shared by the import pipeline.
package pipeline

import "time"

// Payload is the raw catalog response fetched for one ISBN. It is owned by
// the fetch that produced it and discarded after extraction.
type Payload struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// BookRecord is the normalized, source-agnostic view of one book. Title is
// the only required field; everything else may be empty.
type BookRecord struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors,omitempty"`
	Translators []string `json:"translators,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
	PubDate     string   `json:"pubdate,omitempty"`
	Producer    string   `json:"producer,omitempty"`
	Binding     string   `json:"binding,omitempty"`
	Pages       string   `json:"pages,omitempty"`
}

// PropertyType identifies the external-schema value type a field maps onto.
type PropertyType string

// Property types understood by the schema mapper and record writer.
const (
	TypeTitle       PropertyType = "title"
	TypeRichText    PropertyType = "rich_text"
	TypeMultiSelect PropertyType = "multi_select"
	TypeSelect      PropertyType = "select"
	TypeDate        PropertyType = "date"
	TypeNumber      PropertyType = "number"
)

// PropertyValue is one schema-typed value destined for the external database.
// Exactly one of Text, List or Number is meaningful, depending on Type.
type PropertyValue struct {
	Type   PropertyType `json:"type"`
	Text   string       `json:"text,omitempty"`
	List   []string     `json:"list,omitempty"`
	Number float64      `json:"number,omitempty"`
}

// MappedProperties maps external-schema field names to values. It only ever
// contains keys for fields the target schema already defines; absent source
// values are never present as empty entries.
type MappedProperties map[string]PropertyValue

// Credentials carries the session token and target database identifier.
// Both are held in memory only and must never be logged or persisted.
type Credentials struct {
	Token      string
	DatabaseID string
}

// RecordHandle identifies the record created in the external database.
type RecordHandle struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// Report is the result of one successful pipeline run.
type Report struct {
	RunID      string           `json:"run_id"`
	ISBN       string           `json:"isbn"`
	Book       BookRecord       `json:"book"`
	Properties MappedProperties `json:"properties"`
	Record     RecordHandle     `json:"record"`
	Duration   time.Duration    `json:"-"`
}
