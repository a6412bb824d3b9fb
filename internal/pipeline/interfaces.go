package pipeline

import (
	"context"
	"time"
)

// Fetcher retrieves the raw catalog payload for one ISBN. Implementations
// issue exactly one outbound request per call and do no caching.
type Fetcher interface {
	Fetch(ctx context.Context, isbn string) (Payload, error)
}

// Extractor parses a fetched payload into a BookRecord. Implementations are
// pure: no I/O, deterministic for a given payload.
type Extractor interface {
	Extract(payload Payload) (BookRecord, error)
}

// Mapper converts a BookRecord into the external database's property shape.
type Mapper interface {
	Map(record BookRecord) (MappedProperties, error)
}

// Writer creates exactly one record in the external database, setting only
// the supplied properties.
type Writer interface {
	Write(ctx context.Context, creds Credentials, props MappedProperties) (RecordHandle, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
