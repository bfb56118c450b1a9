package pipeline

import (
	"sync"
	"time"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/compress"
)

// JobStatus is the state of a generation job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusCompressing JobStatus = "compressing"
	StatusGenerating  JobStatus = "generating"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// Request is what a caller asks a job to do.
type Request struct {
	ProjectID string `json:"project_id,omitempty"`
	Branch    string `json:"branch,omitempty"`

	// Context is the manuscript to continue. When empty the head of
	// ProjectID/Branch is used.
	Context string `json:"context,omitempty"`
	Title   string `json:"title,omitempty"`

	Tier        string            `json:"tier"`
	Strategy    compress.Strategy `json:"strategy"`
	Instruction string            `json:"instruction,omitempty"`
	Characters  []string          `json:"characters,omitempty"`

	// AppendToProject commits the generated text onto the branch head.
	AppendToProject bool   `json:"append_to_project,omitempty"`
	Author          string `json:"author,omitempty"`
}

// Compression summarizes the context that was sent to the model.
type Compression struct {
	Strategy         compress.Strategy `json:"strategy"`
	OriginalWords    int               `json:"original_words"`
	CompressedWords  int               `json:"compressed_words"`
	CompressionRatio float64           `json:"compression_ratio"`
	CacheHit         bool              `json:"cache_hit"`
}

// Job tracks one generation request.
type Job struct {
	mu sync.Mutex

	ID      string
	Request Request

	Status    JobStatus
	Phase     string
	CreatedAt time.Time
	UpdatedAt time.Time

	output      string
	tokensUsed  int
	compression *Compression
	commitHash  string
	errors      []string
}

// NewJob returns a queued job with a fresh ULID.
func NewJob(req Request) *Job {
	now := time.Now()
	return &Job{
		ID:        generateULID(),
		Request:   req,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail records err and marks the job failed.
func (j *Job) Fail(phase string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err.Error())
	j.Status = StatusFailed
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records a non-fatal error.
func (j *Job) AddError(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, msg)
	j.UpdatedAt = time.Now()
}

func (j *Job) SetCompression(c Compression) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.compression = &c
	j.UpdatedAt = time.Now()
}

// SetOutput stores the generated text and its token cost.
func (j *Job) SetOutput(text string, tokens int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.output = text
	j.tokensUsed = tokens
	j.UpdatedAt = time.Now()
}

func (j *Job) SetCommit(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.commitHash = hash
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string       `json:"job_id"`
	ProjectID   string       `json:"project_id,omitempty"`
	Branch      string       `json:"branch,omitempty"`
	Tier        string       `json:"tier"`
	Status      JobStatus    `json:"status"`
	Phase       string       `json:"phase"`
	Output      string       `json:"output,omitempty"`
	TokensUsed  int          `json:"tokens_used"`
	Compression *Compression `json:"compression,omitempty"`
	CommitHash  string       `json:"commit_hash,omitempty"`
	Errors      []string     `json:"errors"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:         j.ID,
		ProjectID:  j.Request.ProjectID,
		Branch:     j.Request.Branch,
		Tier:       j.Request.Tier,
		Status:     j.Status,
		Phase:      j.Phase,
		Output:     j.output,
		TokensUsed: j.tokensUsed,
		CommitHash: j.commitHash,
		Errors:     append([]string{}, j.errors...),
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
	if j.compression != nil {
		c := *j.compression
		snap.Compression = &c
	}
	return snap
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes jobs idle for longer than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
