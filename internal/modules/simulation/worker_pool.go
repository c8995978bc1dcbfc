package simulation

import (
	"runtime"
	"sync"
)

// WorkerPool computes disjoint column ranges of the path matrix in
// parallel. Each path only reads its own column of shocks, so the split
// never changes the numbers produced.
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a worker pool. numWorkers <= 0 uses one worker per CPU.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// Workers returns the configured pool size.
func (wp *WorkerPool) Workers() int { return wp.numWorkers }

// pathChunk is the half-open column range [from, to).
type pathChunk struct {
	index int
	from  int
	to    int
}

type chunkResult struct {
	index  int
	finals []float64
}

// chunkSize is the number of paths handed to a worker at a time.
const chunkSize = 256

// splitPaths cuts n paths into chunks of at most size columns.
func splitPaths(n, size int) []pathChunk {
	if size <= 0 {
		size = chunkSize
	}
	var chunks []pathChunk
	for from, i := 0, 0; from < n; from, i = from+size, i+1 {
		chunks = append(chunks, pathChunk{index: i, from: from, to: min(from+size, n)})
	}
	return chunks
}

// SimulateBatch runs sim over every chunk and returns the final values of
// all paths in column order.
func (wp *WorkerPool) SimulateBatch(chunks []pathChunk, sim func(pathChunk) []float64) []float64 {
	numChunks := len(chunks)
	if numChunks == 0 {
		return []float64{}
	}

	jobs := make(chan pathChunk, numChunks)
	results := make(chan chunkResult, numChunks)

	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if numChunks < numActualWorkers {
		numActualWorkers = numChunks
	}

	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- chunkResult{index: job.index, finals: sim(job)}
			}
		}()
	}

	for _, c := range chunks {
		jobs <- c
	}
	close(jobs)

	wg.Wait()
	close(results)

	byIndex := make([][]float64, numChunks)
	for r := range results {
		byIndex[r.index] = r.finals
	}

	finals := make([]float64, 0, chunks[numChunks-1].to)
	for _, f := range byIndex {
		finals = append(finals, f...)
	}
	return finals
}
