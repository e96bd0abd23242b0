// Package ring implements the 32-bit consistent-hash ring used to
// deterministically assign nodes to groups and pick group representatives.
package ring

import (
	"hash/crc32"
	"sort"
)

// Hash32 returns the CRC32 (IEEE) hash of key's UTF-8 bytes. This is the
// only hashing primitive the ring uses; it is required to be byte-exact
// across implementations, so no third-party hash is substituted here.
func Hash32(key string) uint32 {
	return crc32.ChecksumIEEE([]byte(key))
}

type entry struct {
	hash uint32
	id   string
}

// Ring is an immutable 32-bit consistent-hash ring over a fixed set of
// node ids. Ties on equal hash are broken by sorted id order.
type Ring struct {
	entries []entry
}

// New builds a Ring over ids. The input is not mutated and the Ring keeps
// its own sorted copy.
func New(ids []string) *Ring {
	entries := make([]entry, len(ids))
	for i, id := range ids {
		entries[i] = entry{hash: Hash32(id), id: id}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].hash != entries[j].hash {
			return entries[i].hash < entries[j].hash
		}
		return entries[i].id < entries[j].id
	})
	return &Ring{entries: entries}
}

// Len returns the number of ids on the ring.
func (r *Ring) Len() int {
	return len(r.entries)
}

// position returns the index of the first entry whose hash is strictly
// greater than hv, wrapping to 0 if none exists.
func (r *Ring) position(hv uint32) int {
	i := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].hash > hv
	})
	if i == len(r.entries) {
		return 0
	}
	return i
}

// Next returns the node whose ring position is the smallest strictly
// greater than hash(key), wrapping to the smallest position if none is
// found. Panics if the ring is empty.
func (r *Ring) Next(key string) string {
	return r.entries[r.position(Hash32(key))].id
}

// Walk returns a lazy, infinite, wrap-around iterator of node ids starting
// at the position strictly greater than hash(startKey). Call the returned
// function repeatedly to advance.
func (r *Ring) Walk(startKey string) func() string {
	i := r.position(Hash32(startKey))
	n := len(r.entries)
	return func() string {
		id := r.entries[i].id
		i++
		if i == n {
			i = 0
		}
		return id
	}
}
