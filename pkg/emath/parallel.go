package emath

import(
	"runtime"
	"sync"
)

// ForEachRow calls fn once for every row in [0,nRows), spread over a
// pool of goroutines. Each goroutine has a fixed worker number in
// [0,nWorkers), so callers can keep per-worker scratch state that is
// not safe to share. fn must only write to locations owned by its row.
func ForEachRow(nRows, nWorkers int, fn func(worker, row int)) {
	if nWorkers <= 0 {
		nWorkers = runtime.NumCPU()
	}
	if nWorkers > nRows {
		nWorkers = nRows
	}

	var wg sync.WaitGroup
	rowsChan := make(chan int, nRows)
	for i:=0; i<nRows; i++ {
		rowsChan<- i
	}
	close(rowsChan)

	for w:=0; w<nWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for row := range rowsChan {
				fn(worker, row)
			}
		}(w)
	}

	wg.Wait()
}

// NumWorkers resolves a configured worker count; <= 0 means one per CPU.
func NumWorkers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
