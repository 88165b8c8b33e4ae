// Package visits is the append-only visit log. Every backend persists the
// same "visitor_id,timestamp" records and never rewrites or deletes them.
package visits

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrWrite          = errors.New("visits: write failed")
	ErrRead           = errors.New("visits: read failed")
	ErrInvalidVisitor = errors.New("visits: invalid visitor id")
)

// TimestampLayout is ISO-8601 with nanoseconds.
const TimestampLayout = time.RFC3339Nano

// sampleLines is how many leading records Inspect returns.
const sampleLines = 5

// Record is one visit. It is never modified after it is appended.
type Record struct {
	VisitorID string
	Timestamp string
}

// Time parses the record timestamp.
func (r Record) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, r.Timestamp)
}

// Info describes the underlying store for diagnostics.
type Info struct {
	Backend   string
	Location  string
	Exists    bool
	SizeBytes int64
	Lines     int
	Sample    []string
}

type Store interface {
	// Record appends one visit stamped with the current time. Failures are
	// logged by the store and returned for the caller to ignore.
	Record(ctx context.Context, visitorID string) error
	// ReadAll returns every record in append order. A store that was never
	// written to yields an empty slice.
	ReadAll(ctx context.Context) ([]Record, error)
	// Each streams records in append order, stopping at the first error fn
	// returns.
	Each(ctx context.Context, fn func(Record) error) error
	Inspect(ctx context.Context) (Info, error)
	Close() error
}

func newRecord(visitorID string, now time.Time) Record {
	return Record{VisitorID: visitorID, Timestamp: now.UTC().Format(TimestampLayout)}
}

// validateVisitor rejects ids that would break the line format or would not
// read back byte for byte.
func validateVisitor(id string) error {
	if id == "" || strings.TrimSpace(id) != id || strings.ContainsAny(id, ",\r\n") {
		return ErrInvalidVisitor
	}
	return nil
}

func collect(ctx context.Context, each func(context.Context, func(Record) error) error) ([]Record, error) {
	records := []Record{}
	err := each(ctx, func(r Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
