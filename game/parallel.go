package game

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/hive/telemetry"
)

// parallelThreshold is the minimum item count to use parallel processing.
// Below this, single-threaded is faster due to channel overhead.
const parallelThreshold = 64

// passFunc processes items [start, end) using one worker's scratch.
type passFunc func(start, end int, scratch *workerScratch)

// workerScratch holds per-worker reusable state.
type workerScratch struct {
	counts telemetry.Counters
}

// workChunk represents a range of items for a worker to process.
type workChunk struct {
	start, end int
	fn         passFunc
}

// parallelState is a persistent worker pool shared by every per-tick pass.
type parallelState struct {
	scratches  []workerScratch
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState(workers int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &parallelState{
		numWorkers: workers,
		scratches:  make([]workerScratch, workers),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// run splits [0, n) into one contiguous chunk per worker and blocks until
// every chunk is done. Small inputs run inline on the first scratch.
func (p *parallelState) run(n int, fn passFunc) {
	if n <= 0 {
		return
	}
	if n < parallelThreshold || p.numWorkers == 1 {
		fn(0, n, &p.scratches[0])
		return
	}
	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end, fn: fn}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// drainCounts sums and resets every worker's counters.
func (p *parallelState) drainCounts() telemetry.Counters {
	var total telemetry.Counters
	for i := range p.scratches {
		total.Add(p.scratches[i].counts)
		p.scratches[i].counts = telemetry.Counters{}
	}
	return total
}
