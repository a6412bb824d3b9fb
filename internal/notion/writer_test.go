package notion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfbridge/shelfbridge/internal/pipeline"
)

// stubTransport answers every request with a canned response and captures
// the request for inspection. No network involved.
type stubTransport struct {
	status  int
	body    string
	request *http.Request
	reqBody []byte
	calls   int
}

func (t *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls++
	t.request = req
	if req.Body != nil {
		t.reqBody, _ = io.ReadAll(req.Body)
	}
	return &http.Response{
		StatusCode: t.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(t.body)),
		Request:    req,
	}, nil
}

func sampleProps() pipeline.MappedProperties {
	return pipeline.MappedProperties{
		"Title":       {Type: pipeline.TypeTitle, Text: "红楼梦"},
		"Author":      {Type: pipeline.TypeMultiSelect, List: []string{"曹雪芹"}},
		"Publisher":   {Type: pipeline.TypeRichText, Text: "人民文学出版社"},
		"PublishDate": {Type: pipeline.TypeDate, Text: "1996-12-01"},
		"Pages":       {Type: pipeline.TypeNumber, Number: 1606},
	}
}

func testCreds() pipeline.Credentials {
	return pipeline.Credentials{Token: "secret-token", DatabaseID: "db-123"}
}

func TestWriteCreatesOnePage(t *testing.T) {
	transport := &stubTransport{
		status: http.StatusOK,
		body:   `{"object":"page","id":"page-abc","url":"https://www.notion.so/page-abc"}`,
	}
	writer := New(&http.Client{Transport: transport}, nil)

	handle, err := writer.Write(context.Background(), testCreds(), sampleProps())
	require.NoError(t, err)

	assert.Equal(t, "page-abc", handle.ID)
	assert.Equal(t, "https://www.notion.so/page-abc", handle.URL)
	assert.Equal(t, 1, transport.calls)
	assert.Equal(t, "Bearer secret-token", transport.request.Header.Get("Authorization"))

	var payload struct {
		Parent struct {
			DatabaseID string `json:"database_id"`
		} `json:"parent"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(transport.reqBody, &payload))
	assert.Equal(t, "db-123", payload.Parent.DatabaseID)

	// Only the mapped fields travel; nothing else is touched.
	assert.Len(t, payload.Properties, len(sampleProps()))
	assert.Contains(t, payload.Properties, "Title")
	assert.NotContains(t, payload.Properties, "Translator")
}

func TestWriteErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{
			name:   "expired token",
			status: http.StatusUnauthorized,
			body:   `{"object":"error","status":401,"code":"unauthorized","message":"API token is invalid."}`,
			want:   pipeline.ErrAuth,
		},
		{
			name:   "database not shared",
			status: http.StatusNotFound,
			body:   `{"object":"error","status":404,"code":"object_not_found","message":"Could not find database."}`,
			want:   pipeline.ErrNotFound,
		},
		{
			name:   "schema rejects mapped field",
			status: http.StatusBadRequest,
			body:   `{"object":"error","status":400,"code":"validation_error","message":"Author is not a property that exists."}`,
			want:   pipeline.ErrSchemaMismatch,
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"object":"error","status":429,"code":"rate_limited","message":"Rate limited."}`,
			want:   pipeline.ErrRateLimited,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"object":"error","status":500,"code":"internal_server_error","message":"Something went wrong."}`,
			want:   pipeline.ErrWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &stubTransport{status: tt.status, body: tt.body}
			writer := New(&http.Client{Transport: transport}, nil)

			_, err := writer.Write(context.Background(), testCreds(), sampleProps())
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, 1, transport.calls)
		})
	}
}

func TestWriteRejectsMissingCredentialsWithoutCalling(t *testing.T) {
	transport := &stubTransport{status: http.StatusOK, body: `{}`}
	writer := New(&http.Client{Transport: transport}, nil)

	_, err := writer.Write(context.Background(), pipeline.Credentials{DatabaseID: "db"}, sampleProps())
	require.ErrorIs(t, err, pipeline.ErrAuth)

	_, err = writer.Write(context.Background(), pipeline.Credentials{Token: "tok"}, sampleProps())
	require.ErrorIs(t, err, pipeline.ErrNotFound)

	assert.Equal(t, 0, transport.calls)
}

func TestToNotionPropertiesRejectsBadValues(t *testing.T) {
	_, err := toNotionProperties(pipeline.MappedProperties{
		"PublishDate": {Type: pipeline.TypeDate, Text: "not-a-date"},
	})
	require.ErrorIs(t, err, pipeline.ErrMapping)

	_, err = toNotionProperties(pipeline.MappedProperties{
		"Weird": {Type: "people", Text: "x"},
	})
	require.ErrorIs(t, err, pipeline.ErrMapping)
}
