package renderer

import (
	"runtime"
	"sync"
)

// TileFunc fills one tile and reports what it drew
type TileFunc func(tile *Tile) RenderStats

// TileTask represents a tile fill task for the worker pool
type TileTask struct {
	Tile   *Tile
	TaskID int // For deterministic ordering of results
}

// TileResult contains the result from filling a tile
type TileResult struct {
	TaskID int
	Stats  RenderStats
}

// WorkerPool manages parallel tile filling. Tiles never overlap, so workers
// write to the shared surface without locking.
type WorkerPool struct {
	taskQueue   chan TileTask
	resultQueue chan TileResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual tile tasks
type Worker struct {
	ID          int
	fill        TileFunc
	taskQueue   chan TileTask
	resultQueue chan TileResult
}

// NewWorkerPool creates a worker pool with room for maxTasks queued tiles
func NewWorkerPool(fill TileFunc, maxTasks, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan TileTask, maxTasks),   // Buffer for all tiles
		resultQueue: make(chan TileResult, maxTasks), // Buffer for all results
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			fill:        fill,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a tile task to the worker pool
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed tile result
func (wp *WorkerPool) GetResult() (TileResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		w.resultQueue <- TileResult{
			TaskID: task.TaskID,
			Stats:  w.fill(task.Tile),
		}
	}
}

// FillTiles runs fill over every tile on a temporary pool and returns the
// merged statistics once all tiles are done
func FillTiles(tiles []*Tile, numWorkers int, fill TileFunc) RenderStats {
	var total RenderStats
	if len(tiles) == 0 {
		return total
	}

	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	pool := NewWorkerPool(fill, len(tiles), min(numWorkers, len(tiles)))
	pool.Start()

	for i, tile := range tiles {
		pool.SubmitTask(TileTask{Tile: tile, TaskID: i})
	}
	for range tiles {
		result, _ := pool.GetResult()
		total.Merge(result.Stats)
	}
	pool.Stop()

	return total
}
