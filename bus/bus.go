// Package bus defines the transport contract the NBFT core depends on.
// The real network bus (spec: a shared at-least-once append-only stream
// bus, modeled in the original implementation on Redis streams) is an
// external collaborator; this package only specifies the operations the
// core requires of it.
package bus

import (
	"context"
	"time"
)

// Record is a single appended entry: a monotonically increasing id
// (assigned by the bus, scoped to its key) and a flat field map.
type Record struct {
	ID     uint64
	Fields map[string]string
}

// Bus is the minimal set of capabilities the NBFT core requires from the
// message transport. Ordering: records on a single key are totally
// ordered by append time; across keys, no ordering is assumed.
type Bus interface {
	// StreamAppend appends a record to key, returning its assigned id.
	StreamAppend(ctx context.Context, key string, fields map[string]string) (uint64, error)

	// StreamScan returns up to count records with id > fromID. If block
	// is positive and no records are immediately available, it may wait
	// up to block for new ones before returning an empty result.
	StreamScan(ctx context.Context, key string, fromID uint64, count int, block time.Duration) ([]Record, error)

	// StreamLast returns the most recently appended record on key, or
	// ok=false if the key has no records.
	StreamLast(ctx context.Context, key string) (rec Record, ok bool, err error)

	// StreamRange returns all records with id in [lo, hi].
	StreamRange(ctx context.Context, key string, lo, hi uint64) ([]Record, error)

	// MapSet writes fields into the key/value map named key.
	MapSet(ctx context.Context, key string, fields map[string]string) error

	// MapGet reads the key/value map named key, or ok=false if absent.
	MapGet(ctx context.Context, key string) (fields map[string]string, ok bool, err error)

	// Delete removes a stream or map key entirely. A no-op if absent.
	Delete(ctx context.Context, key string) error
}
