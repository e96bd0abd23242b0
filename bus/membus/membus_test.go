package membus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStreamAppendAssignsMonotonicIDs(t *testing.T) {
	b := New()
	ctx := context.Background()
	id1, err := b.StreamAppend(ctx, "k", map[string]string{"a": "1"})
	require.NoError(t, err)
	id2, err := b.StreamAppend(ctx, "k", map[string]string{"a": "2"})
	require.NoError(t, err)
	require.Equal(t, uint64(1), id1)
	require.Equal(t, uint64(2), id2)
}

func TestStreamScanReturnsRecordsAfterID(t *testing.T) {
	b := New()
	ctx := context.Background()
	b.StreamAppend(ctx, "k", map[string]string{"v": "a"})
	b.StreamAppend(ctx, "k", map[string]string{"v": "b"})
	b.StreamAppend(ctx, "k", map[string]string{"v": "c"})

	recs, err := b.StreamScan(ctx, "k", 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "b", recs[0].Fields["v"])
	require.Equal(t, "c", recs[1].Fields["v"])
}

func TestStreamScanRespectsCount(t *testing.T) {
	b := New()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		b.StreamAppend(ctx, "k", map[string]string{"v": "x"})
	}
	recs, err := b.StreamScan(ctx, "k", 0, 2, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

func TestStreamScanBlocksUntilAppendOrTimeout(t *testing.T) {
	b := New()
	ctx := context.Background()

	start := time.Now()
	recs, err := b.StreamScan(ctx, "k", 0, 10, 50*time.Millisecond)
	require.NoError(t, err)
	require.Empty(t, recs)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	go func() {
		time.Sleep(10 * time.Millisecond)
		b.StreamAppend(ctx, "k", map[string]string{"v": "late"})
	}()
	recs, err = b.StreamScan(ctx, "k", 0, 10, 500*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestStreamLast(t *testing.T) {
	b := New()
	ctx := context.Background()
	_, ok, err := b.StreamLast(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	b.StreamAppend(ctx, "k", map[string]string{"v": "1"})
	b.StreamAppend(ctx, "k", map[string]string{"v": "2"})
	rec, ok, err := b.StreamLast(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", rec.Fields["v"])
}

func TestStreamRange(t *testing.T) {
	b := New()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		b.StreamAppend(ctx, "k", map[string]string{"v": "x"})
	}
	recs, err := b.StreamRange(ctx, "k", 2, 4)
	require.NoError(t, err)
	require.Len(t, recs, 3)
}

func TestMapSetGet(t *testing.T) {
	b := New()
	ctx := context.Background()
	_, ok, err := b.MapGet(ctx, "m")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, b.MapSet(ctx, "m", map[string]string{"a": "1"}))
	require.NoError(t, b.MapSet(ctx, "m", map[string]string{"b": "2"}))
	fields, ok, err := b.MapGet(ctx, "m")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, fields)
}

func TestDeleteRemovesStreamAndMap(t *testing.T) {
	b := New()
	ctx := context.Background()
	b.StreamAppend(ctx, "k", map[string]string{"v": "1"})
	b.MapSet(ctx, "k", map[string]string{"a": "1"})

	require.NoError(t, b.Delete(ctx, "k"))

	_, ok, _ := b.StreamLast(ctx, "k")
	require.False(t, ok)
	_, ok, _ = b.MapGet(ctx, "k")
	require.False(t, ok)
}

func TestMultiWriterAppendIsSafe(t *testing.T) {
	b := New()
	ctx := context.Background()
	const writers = 20
	done := make(chan struct{})
	for i := 0; i < writers; i++ {
		go func(i int) {
			b.StreamAppend(ctx, "shared", map[string]string{"w": "x"})
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < writers; i++ {
		<-done
	}
	recs, err := b.StreamScan(ctx, "shared", 0, writers, 0)
	require.NoError(t, err)
	require.Len(t, recs, writers)
}
