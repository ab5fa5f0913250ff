package translate

import (
	"context"
	"sync"
)

// runWorkers feeds items to a fixed pool of workers. Each worker handles one
// item at a time and takes the next only after fn returns. Once ctx is
// cancelled the dispatcher stops, and items already queued are dropped
// without calling fn.
func runWorkers[T any](ctx context.Context, items []T, workers int, fn func(context.Context, T)) {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan T)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				if ctx.Err() != nil {
					continue
				}
				fn(ctx, item)
			}
		}()
	}

dispatch:
	for _, item := range items {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- item:
		}
	}
	close(jobs)
	wg.Wait()
}
