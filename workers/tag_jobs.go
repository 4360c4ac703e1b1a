package workers

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job states
const (
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobCanceled  = "canceled"
)

// ErrBatchRunning is returned by Start while another batch is in progress.
var ErrBatchRunning = errors.New("a tagging batch is already running")

// JobSnapshot is a point-in-time copy of a background batch
type JobSnapshot struct {
	ID         string        `json:"id"`
	State      string        `json:"state"`
	Scope      BatchScope    `json:"scope"`
	Processed  int           `json:"processed"`
	Total      int           `json:"total"`
	Report     BatchReport   `json:"report"`
	LastItem   *ItemProgress `json:"last_item,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// Notifier is told about batch progress as it happens
type Notifier interface {
	BatchProgress(batchID string, item ItemProgress)
	BatchFinished(snap JobSnapshot)
}

// TagJobManager runs batches in the background, one at a time, and keeps
// their progress for polling.
type TagJobManager struct {
	tagger   *BatchTagger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
	jobs     map[string]*JobSnapshot
	running  string
	notifier Notifier
}

func NewTagJobManager(tagger *BatchTagger) *TagJobManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &TagJobManager{
		tagger: tagger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*JobSnapshot),
	}
}

// SetNotifier registers n to receive progress of batches started afterwards.
func (m *TagJobManager) SetNotifier(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = n
}

// Start launches a batch and returns its job id.
func (m *TagJobManager) Start(scope BatchScope) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx.Err() != nil {
		return "", context.Canceled
	}
	if m.running != "" {
		return "", ErrBatchRunning
	}

	id := uuid.NewString()
	m.jobs[id] = &JobSnapshot{
		ID:        id,
		State:     JobRunning,
		Scope:     scope,
		Report:    BatchReport{FailedIDs: []uint{}},
		StartedAt: time.Now(),
	}
	m.running = id

	m.wg.Add(1)
	go m.run(id, scope, m.notifier)
	log.Printf("batch: started job %s", id)
	return id, nil
}

func (m *TagJobManager) run(id string, scope BatchScope, notifier Notifier) {
	defer m.wg.Done()

	report, err := m.tagger.Run(m.ctx, scope, func(item ItemProgress) {
		m.mu.Lock()
		job := m.jobs[id]
		job.Processed = item.Index
		job.Total = item.Total
		job.Report.add(item)
		last := item
		job.LastItem = &last
		m.mu.Unlock()
		if notifier != nil {
			notifier.BatchProgress(id, item)
		}
	})

	m.mu.Lock()
	job := m.jobs[id]
	now := time.Now()
	job.FinishedAt = &now
	job.Report = report
	switch {
	case errors.Is(err, context.Canceled):
		job.State = JobCanceled
	case err != nil:
		job.State = JobFailed
		job.Error = err.Error()
	default:
		job.State = JobCompleted
	}
	m.running = ""
	snap := *job
	m.mu.Unlock()

	log.Printf("batch: job %s %s", id, snap.State)
	if notifier != nil {
		notifier.BatchFinished(snap)
	}
}

// Get returns a snapshot of a job.
func (m *TagJobManager) Get(id string) (JobSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return JobSnapshot{}, false
	}
	snap := *job
	snap.Report.FailedIDs = append([]uint{}, job.Report.FailedIDs...)
	if job.LastItem != nil {
		last := *job.LastItem
		snap.LastItem = &last
	}
	return snap, true
}

// Shutdown cancels running batches and waits for them to stop.
func (m *TagJobManager) Shutdown() {
	m.mu.Lock()
	m.cancel()
	m.mu.Unlock()
	m.wg.Wait()
}
