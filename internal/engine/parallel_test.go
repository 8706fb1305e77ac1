package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-bed/internal/cache"
	"github.com/inodb/vibe-bed/internal/identifier"
)

func makeItems(t *testing.T, n int) <-chan WorkItem {
	t.Helper()
	ch := make(chan WorkItem, n)
	for i := 0; i < n; i++ {
		id, err := identifier.Classify(fmt.Sprintf("rs%d", i+1))
		require.NoError(t, err)
		ch <- WorkItem{Seq: i, ID: id}
	}
	close(ch)
	return ch
}

func TestParallelLookup_OrderPreservation(t *testing.T) {
	e := New(cache.New())
	e.SetWorkers(8)

	var collected []int
	err := OrderedCollect(e.parallelLookup(context.Background(), makeItems(t, 200), cache.GRCh38), func(r WorkResult) error {
		assert.ErrorIs(t, r.Err, cache.ErrNotFound)
		assert.Equal(t, fmt.Sprintf("rs%d", r.Seq+1), r.ID.Token)
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, collected, 200)
	for i, seq := range collected {
		assert.Equal(t, i, seq, "result %d out of order", i)
	}
}

func TestParallelLookup_EmptyInput(t *testing.T) {
	ch := make(chan WorkItem)
	close(ch)

	count := 0
	err := OrderedCollect(New(cache.New()).parallelLookup(context.Background(), ch, cache.GRCh38), func(WorkResult) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestOrderedCollect_EarlyError(t *testing.T) {
	e := New(cache.New())
	e.SetWorkers(4)

	count := 0
	err := OrderedCollect(e.parallelLookup(context.Background(), makeItems(t, 100), cache.GRCh38), func(WorkResult) error {
		count++
		if count == 5 {
			return fmt.Errorf("stop at 5")
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 5, count)
}
