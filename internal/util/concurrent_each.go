package util

import "sync"

// ConcurrentForEach runs handler for every item on its own goroutine and
// waits for all of them to finish.
func ConcurrentForEach[T any](items []T, handler func(T)) {
	var wg sync.WaitGroup
	wg.Add(len(items))
	for _, item := range items {
		go func(item T) {
			defer wg.Done()
			handler(item)
		}(item)
	}
	wg.Wait()
}
