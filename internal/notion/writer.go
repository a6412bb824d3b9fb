// Package notion implements the record writer against the Notion API.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"

	"github.com/shelfbridge/shelfbridge/internal/pipeline"
)

// Writer creates pages in a caller-designated Notion database. One call, one
// page; there is no retry and no partial write.
type Writer struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// New builds a Writer. A nil httpClient falls back to a client with a sane
// timeout so a wedged transport cannot hang forever.
func New(httpClient *http.Client, logger *zap.Logger) *Writer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{httpClient: httpClient, logger: logger}
}

// Write creates one page in the database named by creds, setting only the
// supplied properties. Every other schema field keeps its default.
func (w *Writer) Write(ctx context.Context, creds pipeline.Credentials, props pipeline.MappedProperties) (pipeline.RecordHandle, error) {
	if creds.Token == "" {
		return pipeline.RecordHandle{}, fmt.Errorf("%w: empty token", pipeline.ErrAuth)
	}
	if creds.DatabaseID == "" {
		return pipeline.RecordHandle{}, fmt.Errorf("%w: empty database id", pipeline.ErrNotFound)
	}

	properties, err := toNotionProperties(props)
	if err != nil {
		return pipeline.RecordHandle{}, err
	}

	client := notionapi.NewClient(
		notionapi.Token(creds.Token),
		notionapi.WithHTTPClient(w.httpClient),
	)
	page, err := client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(creds.DatabaseID),
		},
		Properties: properties,
	})
	if err != nil {
		return pipeline.RecordHandle{}, classify(err)
	}

	w.logger.Debug("page created", zap.String("page_id", string(page.ID)))
	return pipeline.RecordHandle{ID: string(page.ID), URL: page.URL}, nil
}

// toNotionProperties translates the mapper's output into Notion property
// values. Unknown property types indicate a broken mapping table.
func toNotionProperties(props pipeline.MappedProperties) (notionapi.Properties, error) {
	out := make(notionapi.Properties, len(props))
	for name, value := range props {
		switch value.Type {
		case pipeline.TypeTitle:
			out[name] = notionapi.TitleProperty{Title: richText(value.Text)}
		case pipeline.TypeRichText:
			out[name] = notionapi.RichTextProperty{RichText: richText(value.Text)}
		case pipeline.TypeMultiSelect:
			options := make([]notionapi.Option, 0, len(value.List))
			for _, entry := range value.List {
				options = append(options, notionapi.Option{Name: entry})
			}
			out[name] = notionapi.MultiSelectProperty{MultiSelect: options}
		case pipeline.TypeSelect:
			out[name] = notionapi.SelectProperty{Select: notionapi.Option{Name: value.Text}}
		case pipeline.TypeDate:
			start, err := time.Parse("2006-01-02", value.Text)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q carries non-date value %q", pipeline.ErrMapping, name, value.Text)
			}
			date := notionapi.Date(start)
			out[name] = notionapi.DateProperty{Date: &notionapi.DateObject{Start: &date}}
		case pipeline.TypeNumber:
			out[name] = notionapi.NumberProperty{Number: value.Number}
		default:
			return nil, fmt.Errorf("%w: field %q has unsupported type %q", pipeline.ErrMapping, name, value.Type)
		}
	}
	return out, nil
}

// classify maps Notion API failures onto the pipeline error taxonomy.
func classify(err error) error {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		switch string(apiErr.Code) {
		case "unauthorized", "restricted_resource", "invalid_grant":
			return fmt.Errorf("%w: %s", pipeline.ErrAuth, apiErr.Message)
		case "object_not_found":
			return fmt.Errorf("%w: %s", pipeline.ErrNotFound, apiErr.Message)
		case "validation_error":
			return fmt.Errorf("%w: %s", pipeline.ErrSchemaMismatch, apiErr.Message)
		case "rate_limited":
			return fmt.Errorf("%w: %s", pipeline.ErrRateLimited, apiErr.Message)
		}
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", pipeline.ErrAuth, apiErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", pipeline.ErrNotFound, apiErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", pipeline.ErrRateLimited, apiErr.Message)
		}
		return fmt.Errorf("%w: %s", pipeline.ErrWrite, apiErr.Message)
	}
	return fmt.Errorf("%w: %v", pipeline.ErrWrite, err)
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{{Text: &notionapi.Text{Content: content}}}
}
