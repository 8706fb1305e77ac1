package engine

import (
	"context"
	"sync"

	"github.com/inodb/vibe-bed/internal/cache"
	"github.com/inodb/vibe-bed/internal/identifier"
	"github.com/inodb/vibe-bed/internal/selector"
)

// WorkItem is one classified identifier awaiting lookup.
type WorkItem struct {
	Seq int
	ID  identifier.Identifier
}

// WorkResult holds the lookup outcome for a single identifier.
type WorkResult struct {
	Seq       int
	ID        identifier.Identifier
	Selection *selector.Selection // Gene and transcript identifiers
	Variant   *cache.Variant      // rsIDs
	Genes     []cache.GeneFeature // Coordinate ranges
	Err       error
}

// parallelLookup resolves work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
func (e *Engine) parallelLookup(ctx context.Context, items <-chan WorkItem, asm cache.Assembly) <-chan WorkResult {
	workers := e.workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- e.lookup(ctx, item, asm)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
