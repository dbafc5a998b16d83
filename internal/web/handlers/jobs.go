package handlers

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartattendai/smart-attendance/internal/training"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// jobRetention is how long finished jobs stay queryable.
const jobRetention = time.Hour

// TrainJob represents one async training run.
type TrainJob struct {
	ID          string           `json:"id"`
	StudentCode string           `json:"student_code"`
	Status      JobStatus        `json:"status"`
	Error       string           `json:"error,omitempty"`
	Result      *training.Result `json:"result,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// JobManager tracks async training jobs.
type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*TrainJob
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{jobs: make(map[string]*TrainJob)}
}

// Create registers a new running job and returns it.
func (m *JobManager) Create(studentCode string) *TrainJob {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictOld()

	job := &TrainJob{
		ID:          uuid.New().String(),
		StudentCode: studentCode,
		Status:      JobStatusRunning,
		StartedAt:   time.Now(),
	}
	m.jobs[job.ID] = job
	return job
}

// Get returns a job snapshot by id, nil if unknown.
func (m *JobManager) Get(id string) *TrainJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil
	}
	copy := *job
	return &copy
}

// Complete marks a job finished with its result.
func (m *JobManager) Complete(id string, result *training.Result) {
	m.finish(id, func(job *TrainJob) {
		job.Status = JobStatusCompleted
		job.Result = result
	})
}

// Fail marks a job failed with an error message.
func (m *JobManager) Fail(id string, message string) {
	m.finish(id, func(job *TrainJob) {
		job.Status = JobStatusFailed
		job.Error = message
	})
}

func (m *JobManager) finish(id string, update func(*TrainJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return
	}
	update(job)
	now := time.Now()
	job.CompletedAt = &now
}

// evictOld drops finished jobs past the retention window. Callers hold m.mu.
func (m *JobManager) evictOld() {
	cutoff := time.Now().Add(-jobRetention)
	for id, job := range m.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
		}
	}
}
