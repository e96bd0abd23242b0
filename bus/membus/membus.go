// Package membus is a concrete, goroutine-safe, in-memory implementation
// of bus.Bus. The core's real transport is out of scope (spec.md models
// it only by the operations it requires); membus is the minimal runnable
// substitute the CLI and tests need to exercise a whole round.
package membus

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nbft-project/nbft/bus"
)

type stream struct {
	mu      sync.Mutex
	records []bus.Record
	nextID  uint64
	notify  chan struct{}
}

func newStream() *stream {
	return &stream{notify: make(chan struct{})}
}

func (s *stream) append(fields map[string]string) uint64 {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.records = append(s.records, bus.Record{ID: id, Fields: cloneFields(fields)})
	old := s.notify
	s.notify = make(chan struct{})
	s.mu.Unlock()
	close(old)
	return id
}

func (s *stream) scan(fromID uint64, count int) []bus.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.Search(len(s.records), func(i int) bool { return s.records[i].ID > fromID })
	end := len(s.records)
	if count > 0 && i+count < end {
		end = i + count
	}
	out := make([]bus.Record, end-i)
	copy(out, s.records[i:end])
	return out
}

func (s *stream) last() (bus.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return bus.Record{}, false
	}
	return s.records[len(s.records)-1], true
}

func (s *stream) rangeBetween(lo, hi uint64) []bus.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []bus.Record
	for _, r := range s.records {
		if r.ID >= lo && r.ID <= hi {
			out = append(out, r)
		}
	}
	return out
}

func (s *stream) waitChan() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notify
}

func cloneFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Bus is an in-memory bus.Bus backed by mutex-guarded per-key streams and
// maps. The zero value is not usable; use New.
type Bus struct {
	mu      sync.RWMutex
	streams map[string]*stream
	maps    map[string]map[string]string
}

// New returns an empty, ready-to-use in-memory bus.
func New() *Bus {
	return &Bus{
		streams: make(map[string]*stream),
		maps:    make(map[string]map[string]string),
	}
}

func (b *Bus) streamFor(key string) *stream {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.streams[key]
	if !ok {
		s = newStream()
		b.streams[key] = s
	}
	return s
}

func (b *Bus) StreamAppend(ctx context.Context, key string, fields map[string]string) (uint64, error) {
	return b.streamFor(key).append(fields), nil
}

func (b *Bus) StreamScan(ctx context.Context, key string, fromID uint64, count int, block time.Duration) ([]bus.Record, error) {
	s := b.streamFor(key)
	recs := s.scan(fromID, count)
	if len(recs) > 0 || block <= 0 {
		return recs, nil
	}

	timer := time.NewTimer(block)
	defer timer.Stop()
	for {
		wait := s.waitChan()
		select {
		case <-ctx.Done():
			return recs, ctx.Err()
		case <-timer.C:
			return s.scan(fromID, count), nil
		case <-wait:
			recs = s.scan(fromID, count)
			if len(recs) > 0 {
				return recs, nil
			}
		}
	}
}

func (b *Bus) StreamLast(ctx context.Context, key string) (bus.Record, bool, error) {
	rec, ok := b.streamFor(key).last()
	return rec, ok, nil
}

func (b *Bus) StreamRange(ctx context.Context, key string, lo, hi uint64) ([]bus.Record, error) {
	return b.streamFor(key).rangeBetween(lo, hi), nil
}

func (b *Bus) MapSet(ctx context.Context, key string, fields map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.maps[key]
	if !ok {
		m = make(map[string]string, len(fields))
		b.maps[key] = m
	}
	for k, v := range fields {
		m[k] = v
	}
	return nil
}

func (b *Bus) MapGet(ctx context.Context, key string) (map[string]string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.maps[key]
	if !ok {
		return nil, false, nil
	}
	return cloneFields(m), true, nil
}

func (b *Bus) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.streams, key)
	delete(b.maps, key)
	return nil
}

var _ bus.Bus = (*Bus)(nil)
