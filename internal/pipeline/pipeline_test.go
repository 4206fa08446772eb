package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vidgen/internal/domain"
	"vidgen/internal/providers/predict"
)

// Shared test doubles for the orchestrator and poller tests.

type fakeJobs struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job

	setUploadedCalls    int
	markGeneratingCalls int
	markTerminalCalls   int
}

func newFakeJobs(jobs ...*domain.Job) *fakeJobs {
	f := &fakeJobs{jobs: make(map[string]*domain.Job)}
	for _, j := range jobs {
		copied := *j
		f.jobs[j.ID] = &copied
	}
	return f
}

func (f *fakeJobs) GetByID(_ context.Context, jobID string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobs) GetByPredictionID(_ context.Context, predictionID string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range f.jobs {
		if job.PredictionID == predictionID {
			copied := *job
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeJobs) ListGenerating(_ context.Context, limit int) ([]*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Job
	for _, job := range f.jobs {
		if job.Status == domain.JobStatusGenerating && len(out) < limit {
			copied := *job
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeJobs) SetUploaded(_ context.Context, jobID, smallImageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setUploadedCalls++
	if job, ok := f.jobs[jobID]; ok {
		job.SmallImageURL = smallImageURL
		job.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeJobs) MarkGenerating(_ context.Context, jobID, prompt, predictionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markGeneratingCalls++
	job, ok := f.jobs[jobID]
	if !ok || job.Status.Terminal() || job.PredictionID != "" {
		return fmt.Errorf("%w: job %s is finished or already has a prediction", domain.ErrConflict, jobID)
	}
	job.Prompt = prompt
	job.PredictionID = predictionID
	job.Status = domain.JobStatusGenerating
	job.UpdatedAt = time.Now()
	return nil
}

func (f *fakeJobs) MarkTerminal(_ context.Context, jobID string, status domain.JobStatus, videoURL, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markTerminalCalls++
	job, ok := f.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return nil
	}
	job.Status = status
	if status == domain.JobStatusSucceeded {
		job.VideoURL = videoURL
	}
	if status == domain.JobStatusFailed {
		job.ErrorMessage = errMsg
	}
	job.UpdatedAt = time.Now()
	return nil
}

func (f *fakeJobs) get(jobID string) *domain.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := f.jobs[jobID]
	copied := *job
	return &copied
}

var _ domain.JobRepository = (*fakeJobs)(nil)

type storedObject struct {
	data        []byte
	contentType string
	writes      int
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string]*storedObject
	putErr  error
	signErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]*storedObject)}
}

func (f *fakeStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	if !ok {
		obj = &storedObject{}
		f.objects[key] = obj
	}
	obj.data = append([]byte(nil), data...)
	obj.contentType = contentType
	obj.writes++
	return nil
}

func (f *fakeStore) SignURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://signed.example.com/" + key, nil
}

type fakeDescriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeDescriber) Describe(_ context.Context, imageURL, cameraControl string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakePredictor struct {
	mu sync.Mutex

	createErr    error
	createdID    string
	lastCreate   predict.CreateRequest
	createCalls  int
	getCalls     int
	getSequence  []*predict.Prediction
	getErr       error
	defaultState predict.Status
}

func (f *fakePredictor) Create(_ context.Context, req predict.CreateRequest) (*predict.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.lastCreate = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &predict.Prediction{ID: f.createdID, Status: predict.StatusStarting}, nil
}

func (f *fakePredictor) Get(_ context.Context, id string) (*predict.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if len(f.getSequence) > 0 {
		next := f.getSequence[0]
		if len(f.getSequence) > 1 {
			f.getSequence = f.getSequence[1:]
		}
		return next, nil
	}
	status := f.defaultState
	if status == "" {
		status = predict.StatusProcessing
	}
	return &predict.Prediction{ID: id, Status: status}, nil
}

func (f *fakePredictor) lastCreateRequest() predict.CreateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCreate
}

var errBoom = fmt.Errorf("boom: %w", errors.New("synthetic"))

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
