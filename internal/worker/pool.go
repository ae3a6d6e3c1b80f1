package worker

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"

	"github.com/tourmaster/tourctl/internal/api"
	"github.com/tourmaster/tourctl/internal/backoff"
	"github.com/tourmaster/tourctl/internal/logging"
	"github.com/tourmaster/tourctl/internal/output"
)

// PoolConfig configures the export worker pool.
type PoolConfig struct {
	NumWorkers  int
	Client      *api.Client
	Backoff     *backoff.GlobalBackoff
	FileManager *output.FileManager
	Context     context.Context
}

// Pool downloads collections in parallel using pond. One job per collection;
// workers share the API client, its auth pipeline and the global backoff.
type Pool struct {
	pond       pond.Pool
	numWorkers int

	client      *api.Client
	backoff     *backoff.GlobalBackoff
	fileManager *output.FileManager

	results       chan JobResult
	statusUpdates chan WorkerStatus
	workerIDPool  chan int

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a new export pool.
func NewPool(cfg PoolConfig) *Pool {
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	workerIDPool := make(chan int, cfg.NumWorkers)
	for i := 0; i < cfg.NumWorkers; i++ {
		workerIDPool <- i
	}

	return &Pool{
		pond:          pond.NewPool(cfg.NumWorkers),
		numWorkers:    cfg.NumWorkers,
		client:        cfg.Client,
		backoff:       cfg.Backoff,
		fileManager:   cfg.FileManager,
		results:       make(chan JobResult, cfg.NumWorkers*2),
		statusUpdates: make(chan WorkerStatus, cfg.NumWorkers*10),
		workerIDPool:  workerIDPool,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// SubmitAll queues every job on the pool.
func (p *Pool) SubmitAll(jobs []Job) {
	for i := range jobs {
		job := &jobs[i]
		p.pond.Submit(func() {
			p.executeJob(job)
		})
	}
}

// Results returns the channel job outcomes arrive on.
func (p *Pool) Results() <-chan JobResult {
	return p.results
}

// StatusUpdates returns the channel worker status snapshots arrive on.
func (p *Pool) StatusUpdates() <-chan WorkerStatus {
	return p.statusUpdates
}

// Stop cancels all in-flight jobs.
func (p *Pool) Stop() {
	p.cancel()
}

// StopAndWait cancels nothing, waits for queued jobs to finish, then closes
// the result channels.
func (p *Pool) StopAndWait() {
	p.pond.StopAndWait()
	close(p.results)
	close(p.statusUpdates)
}

func (p *Pool) executeJob(job *Job) {
	workerID := <-p.workerIDPool
	defer func() {
		p.workerIDPool <- workerID
	}()

	p.updateStatus(workerID, WorkerStateWorking, job.Collection.Name)
	defer p.updateStatus(workerID, WorkerStateIdle, "")

	result := p.processJob(job)

	select {
	case p.results <- result:
	case <-p.ctx.Done():
	}
}

func (p *Pool) processJob(job *Job) JobResult {
	result := JobResult{Job: job}

	if err := p.ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	records, err := p.client.FetchCollection(p.ctx, job.Collection)
	if err != nil {
		logging.Error("export job failed", "collection", job.Collection.Name, "error", err)
		result.Error = err
		return result
	}

	writer, err := p.fileManager.WriterFor(job.Collection.Name)
	if err != nil {
		result.Error = err
		return result
	}

	for _, record := range records {
		if err := writer.Write(record); err != nil {
			writer.Close()
			result.Error = fmt.Errorf("failed to write %s record: %w", job.Collection.Name, err)
			return result
		}
	}

	if err := writer.Close(); err != nil {
		result.Error = err
		return result
	}

	result.Records = len(records)
	result.OutputFile = p.fileManager.CollectionPath(job.Collection.Name)
	logging.Info("collection exported",
		"collection", job.Collection.Name,
		"records", result.Records,
		"file", result.OutputFile)
	return result
}

func (p *Pool) updateStatus(workerID int, state WorkerState, collection string) {
	status := WorkerStatus{WorkerID: workerID, State: state, Collection: collection}
	select {
	case p.statusUpdates <- status:
	default:
		// UI is behind; drop the snapshot rather than stall a worker.
	}
}
