// Package mapping converts normalized book records into the external
// database's property shape via a fixed correspondence table.
package mapping

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shelfbridge/shelfbridge/internal/pipeline"
)

// Source field names accepted as table keys.
const (
	FieldTitle       = "title"
	FieldAuthors     = "authors"
	FieldTranslators = "translators"
	FieldPublisher   = "publisher"
	FieldPubDate     = "pubdate"
	FieldProducer    = "producer"
	FieldBinding     = "binding"
	FieldPages       = "pages"
)

// Rule maps one BookRecord field onto a target schema field.
type Rule struct {
	Target string
	Type   pipeline.PropertyType
}

// Table is the full correspondence, keyed by source field name. It is
// resolved once at startup; the pipeline never mutates it.
type Table map[string]Rule

// DefaultTable mirrors the schema the importer was originally built for.
func DefaultTable() Table {
	return Table{
		FieldTitle:       {Target: "Title", Type: pipeline.TypeTitle},
		FieldAuthors:     {Target: "Author", Type: pipeline.TypeMultiSelect},
		FieldTranslators: {Target: "Translator", Type: pipeline.TypeMultiSelect},
		FieldPublisher:   {Target: "Publisher", Type: pipeline.TypeRichText},
		FieldPubDate:     {Target: "PublishDate", Type: pipeline.TypeDate},
		FieldProducer:    {Target: "Producer", Type: pipeline.TypeRichText},
		FieldBinding:     {Target: "Binding", Type: pipeline.TypeSelect},
		FieldPages:       {Target: "Pages", Type: pipeline.TypeNumber},
	}
}

// compatibility lists the target types each source field can carry.
var compatibility = map[string][]pipeline.PropertyType{
	FieldTitle:       {pipeline.TypeTitle, pipeline.TypeRichText},
	FieldAuthors:     {pipeline.TypeMultiSelect, pipeline.TypeRichText},
	FieldTranslators: {pipeline.TypeMultiSelect, pipeline.TypeRichText},
	FieldPublisher:   {pipeline.TypeRichText, pipeline.TypeSelect},
	FieldPubDate:     {pipeline.TypeDate, pipeline.TypeRichText},
	FieldProducer:    {pipeline.TypeRichText, pipeline.TypeSelect},
	FieldBinding:     {pipeline.TypeSelect, pipeline.TypeRichText},
	FieldPages:       {pipeline.TypeNumber, pipeline.TypeRichText},
}

// Validate rejects unknown source fields, empty targets and incompatible
// target types. A failure here is a configuration mismatch, not a data one.
func (t Table) Validate() error {
	for field, rule := range t {
		allowed, ok := compatibility[field]
		if !ok {
			return fmt.Errorf("%w: unknown source field %q", pipeline.ErrMapping, field)
		}
		if rule.Target == "" {
			return fmt.Errorf("%w: source field %q has no target name", pipeline.ErrMapping, field)
		}
		if !typeAllowed(allowed, rule.Type) {
			return fmt.Errorf("%w: source field %q cannot map to type %q", pipeline.ErrMapping, field, rule.Type)
		}
	}
	return nil
}

func typeAllowed(allowed []pipeline.PropertyType, pt pipeline.PropertyType) bool {
	for _, a := range allowed {
		if a == pt {
			return true
		}
	}
	return false
}

// Mapper applies a validated Table to book records.
type Mapper struct {
	table Table
}

// New validates the table and constructs a Mapper.
func New(table Table) (*Mapper, error) {
	if len(table) == 0 {
		table = DefaultTable()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Mapper{table: table}, nil
}

// Map builds MappedProperties from a record. Empty or absent source values
// are omitted entirely so the write never touches fields it has nothing to
// say about.
func (m *Mapper) Map(record pipeline.BookRecord) (pipeline.MappedProperties, error) {
	props := make(pipeline.MappedProperties, len(m.table))
	for field, rule := range m.table {
		value, ok, err := m.resolve(field, rule, record)
		if err != nil {
			return nil, err
		}
		if ok {
			props[rule.Target] = value
		}
	}
	return props, nil
}

func (m *Mapper) resolve(field string, rule Rule, record pipeline.BookRecord) (pipeline.PropertyValue, bool, error) {
	switch field {
	case FieldTitle:
		return scalarValue(rule.Type, record.Title)
	case FieldAuthors:
		return listValue(rule.Type, record.Authors)
	case FieldTranslators:
		return listValue(rule.Type, record.Translators)
	case FieldPublisher:
		return scalarValue(rule.Type, record.Publisher)
	case FieldPubDate:
		return dateValue(rule.Type, record.PubDate)
	case FieldProducer:
		return scalarValue(rule.Type, record.Producer)
	case FieldBinding:
		return scalarValue(rule.Type, record.Binding)
	case FieldPages:
		return numberValue(rule.Type, record.Pages)
	default:
		return pipeline.PropertyValue{}, false, fmt.Errorf("%w: unknown source field %q", pipeline.ErrMapping, field)
	}
}

func scalarValue(pt pipeline.PropertyType, s string) (pipeline.PropertyValue, bool, error) {
	if s == "" {
		return pipeline.PropertyValue{}, false, nil
	}
	return pipeline.PropertyValue{Type: pt, Text: s}, true, nil
}

func listValue(pt pipeline.PropertyType, names []string) (pipeline.PropertyValue, bool, error) {
	if len(names) == 0 {
		return pipeline.PropertyValue{}, false, nil
	}
	if pt == pipeline.TypeRichText {
		return pipeline.PropertyValue{Type: pt, Text: strings.Join(names, ", ")}, true, nil
	}
	return pipeline.PropertyValue{Type: pt, List: names}, true, nil
}

func dateValue(pt pipeline.PropertyType, raw string) (pipeline.PropertyValue, bool, error) {
	if raw == "" {
		return pipeline.PropertyValue{}, false, nil
	}
	if pt == pipeline.TypeRichText {
		return pipeline.PropertyValue{Type: pt, Text: raw}, true, nil
	}
	normalized, ok := NormalizeDate(raw)
	if !ok {
		return pipeline.PropertyValue{}, false, nil
	}
	return pipeline.PropertyValue{Type: pt, Text: normalized}, true, nil
}

func numberValue(pt pipeline.PropertyType, raw string) (pipeline.PropertyValue, bool, error) {
	if raw == "" {
		return pipeline.PropertyValue{}, false, nil
	}
	if pt == pipeline.TypeRichText {
		return pipeline.PropertyValue{Type: pt, Text: raw}, true, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return pipeline.PropertyValue{}, false, nil
	}
	return pipeline.PropertyValue{Type: pt, Number: float64(n)}, true, nil
}

// NormalizeDate turns a loose catalog date ("2018", "2018-8", "2018-8-3")
// into YYYY-MM-DD, padding a missing month or day with 01 and clamping out
// of range values. The day the catalog claims is not trusted beyond that.
func NormalizeDate(raw string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	year, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", false
	}

	month, day := 1, 1
	if len(parts) >= 2 {
		if m, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			month = m
		}
	}
	if len(parts) >= 3 {
		if d, err := strconv.Atoi(strings.TrimSpace(parts[2])); err == nil {
			day = d
		}
	}

	month = clamp(month, 1, 12)
	day = clamp(day, 1, 31)
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
