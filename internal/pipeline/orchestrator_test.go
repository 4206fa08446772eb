package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"vidgen/internal/domain"
	"vidgen/internal/providers/describe"
	"vidgen/internal/providers/predict"
)

const testImageB64Payload = "fake image bytes"

func testImageB64() string {
	return base64.StdEncoding.EncodeToString([]byte(testImageB64Payload))
}

func pendingJob(id string) *domain.Job {
	return &domain.Job{
		ID:            id,
		CameraControl: "zoom-in",
		VideoSize:     "720p",
		Duration:      5,
		Status:        domain.JobStatusPending,
	}
}

func newTestOrchestrator(jobs *fakeJobs, store *fakeStore, describer describe.Describer, predictor *fakePredictor) *Orchestrator {
	return NewOrchestrator(OrchestratorOptions{
		Jobs:      jobs,
		Store:     store,
		Describer: describer,
		Predictor: predictor,
		Profiles:  predict.Profiles{Standard: "model-standard", High: "model-high"},
		SignTTL:   10 * time.Minute,
		Logger:    testLogger(),
	})
}

func TestSubmitHappyPath(t *testing.T) {
	jobs := newFakeJobs(pendingJob("J1"))
	store := newFakeStore()
	describer := &fakeDescriber{text: "A cat sleeping on a windowsill in warm afternoon light."}
	predictor := &fakePredictor{createdID: "pred-123"}
	orch := newTestOrchestrator(jobs, store, describer, predictor)

	result, err := orch.Submit(context.Background(), SubmitInput{
		JobID:         "J1",
		Filename:      "a.jpg",
		ImageBase64:   testImageB64(),
		CameraControl: "zoom-in",
		VideoSize:     "720p",
		Duration:      5,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if result.PredictionID != "pred-123" {
		t.Fatalf("PredictionID = %q, want %q", result.PredictionID, "pred-123")
	}
	if result.UsedFallback {
		t.Fatal("expected model description, got fallback")
	}

	obj, ok := store.objects["small/a.jpg"]
	if !ok {
		t.Fatalf("expected object at small/a.jpg, stored keys: %v", keysOf(store))
	}
	if string(obj.data) != testImageB64Payload {
		t.Fatalf("stored bytes = %q, want %q", obj.data, testImageB64Payload)
	}
	if obj.contentType != "image/jpeg" {
		t.Fatalf("content type = %q, want image/jpeg", obj.contentType)
	}
	if describer.calls != 1 {
		t.Fatalf("describer calls = %d, want 1", describer.calls)
	}

	req := predictor.lastCreateRequest()
	if req.Version != "model-standard" {
		t.Fatalf("profile = %q, want model-standard", req.Version)
	}
	if req.ImageURL != "https://signed.example.com/small/a.jpg" {
		t.Fatalf("image url = %q, want signed url", req.ImageURL)
	}
	if req.Duration != 5 {
		t.Fatalf("duration = %d, want 5", req.Duration)
	}

	job := jobs.get("J1")
	if job.Status != domain.JobStatusGenerating {
		t.Fatalf("job status = %q, want generating", job.Status)
	}
	if job.PredictionID != "pred-123" {
		t.Fatalf("job prediction id = %q, want pred-123", job.PredictionID)
	}
	if job.SmallImageURL == "" {
		t.Fatal("expected small image url persisted")
	}
	if job.Prompt != result.Prompt {
		t.Fatalf("job prompt = %q, want %q", job.Prompt, result.Prompt)
	}
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   SubmitInput
	}{
		{name: "missing job id", in: SubmitInput{Filename: "a.jpg", ImageBase64: testImageB64()}},
		{name: "missing filename", in: SubmitInput{JobID: "J1", ImageBase64: testImageB64()}},
		{name: "missing image", in: SubmitInput{JobID: "J1", Filename: "a.jpg"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			jobs := newFakeJobs(pendingJob("J1"))
			store := newFakeStore()
			predictor := &fakePredictor{createdID: "pred-1"}
			orch := newTestOrchestrator(jobs, store, &fakeDescriber{text: "x"}, predictor)

			_, err := orch.Submit(context.Background(), tc.in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if len(store.objects) != 0 {
				t.Fatal("validation failure must not touch storage")
			}
			if predictor.createCalls != 0 {
				t.Fatal("validation failure must not reach the prediction service")
			}
		})
	}
}

func TestSubmitDecodeError(t *testing.T) {
	t.Parallel()
	jobs := newFakeJobs(pendingJob("J1"))
	store := newFakeStore()
	orch := newTestOrchestrator(jobs, store, &fakeDescriber{text: "x"}, &fakePredictor{createdID: "p"})

	_, err := orch.Submit(context.Background(), SubmitInput{
		JobID:       "J1",
		Filename:    "a.jpg",
		ImageBase64: "%%% not base64 %%%",
	})
	if !errors.Is(err, domain.ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	if len(store.objects) != 0 {
		t.Fatal("decode failure must not touch storage")
	}
}

func TestSubmitUnknownJob(t *testing.T) {
	t.Parallel()
	orch := newTestOrchestrator(newFakeJobs(), newFakeStore(), &fakeDescriber{text: "x"}, &fakePredictor{createdID: "p"})

	_, err := orch.Submit(context.Background(), SubmitInput{
		JobID:       "missing",
		Filename:    "a.jpg",
		ImageBase64: testImageB64(),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitDescriberFailureUsesFallback(t *testing.T) {
	t.Parallel()
	jobs := newFakeJobs(pendingJob("J1"))
	predictor := &fakePredictor{createdID: "pred-9"}
	orch := newTestOrchestrator(jobs, newFakeStore(), &fakeDescriber{err: errBoom}, predictor)

	result, err := orch.Submit(context.Background(), SubmitInput{
		JobID:         "J1",
		Filename:      "a.jpg",
		ImageBase64:   testImageB64(),
		CameraControl: "zoom-in",
	})
	if err != nil {
		t.Fatalf("Submit must succeed despite describer failure, got %v", err)
	}
	if !result.UsedFallback {
		t.Fatal("expected fallback prompt")
	}
	want := "A realistic scene with zoom-in camera movement and natural ambient motion."
	if result.Prompt != want {
		t.Fatalf("prompt = %q, want %q", result.Prompt, want)
	}
	if predictor.lastCreateRequest().Prompt != want {
		t.Fatalf("forwarded prompt = %q, want fallback", predictor.lastCreateRequest().Prompt)
	}
}

func TestSubmitEmptyDescriptionUsesFallback(t *testing.T) {
	t.Parallel()
	jobs := newFakeJobs(pendingJob("J1"))
	orch := newTestOrchestrator(jobs, newFakeStore(), &fakeDescriber{text: "   "}, &fakePredictor{createdID: "p"})

	result, err := orch.Submit(context.Background(), SubmitInput{
		JobID:       "J1",
		Filename:    "a.jpg",
		ImageBase64: testImageB64(),
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !result.UsedFallback {
		t.Fatal("empty description must fall back")
	}
	if !strings.Contains(result.Prompt, "zoom-in") {
		t.Fatalf("fallback must carry the job's camera control, got %q", result.Prompt)
	}
}

func TestSubmitTruncatesLongPrompt(t *testing.T) {
	t.Parallel()
	jobs := newFakeJobs(pendingJob("J1"))
	predictor := &fakePredictor{createdID: "p"}
	long := strings.Repeat("a scene with motion ", 50)
	orch := newTestOrchestrator(jobs, newFakeStore(), &fakeDescriber{text: long}, predictor)

	result, err := orch.Submit(context.Background(), SubmitInput{
		JobID:       "J1",
		Filename:    "a.jpg",
		ImageBase64: testImageB64(),
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if got := len([]rune(result.Prompt)); got > describe.MaxPromptChars {
		t.Fatalf("prompt length = %d, want <= %d", got, describe.MaxPromptChars)
	}
	if got := len([]rune(predictor.lastCreateRequest().Prompt)); got > describe.MaxPromptChars {
		t.Fatalf("forwarded prompt length = %d, want <= %d", got, describe.MaxPromptChars)
	}
}

func TestSubmitProfileSelection(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name      string
		videoSize string
		want      string
	}{
		{name: "high tier", videoSize: "1080p", want: "model-high"},
		{name: "standard tier", videoSize: "720p", want: "model-standard"},
		{name: "unknown tier", videoSize: "4k", want: "model-standard"},
		{name: "absent tier stored empty", videoSize: "", want: "model-standard"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			job := pendingJob("J1")
			job.VideoSize = ""
			jobs := newFakeJobs(job)
			predictor := &fakePredictor{createdID: "p"}
			orch := newTestOrchestrator(jobs, newFakeStore(), &fakeDescriber{text: "x"}, predictor)

			_, err := orch.Submit(context.Background(), SubmitInput{
				JobID:       "J1",
				Filename:    "a.jpg",
				ImageBase64: testImageB64(),
				VideoSize:   tc.videoSize,
			})
			if err != nil {
				t.Fatalf("Submit returned error: %v", err)
			}
			if got := predictor.lastCreateRequest().Version; got != tc.want {
				t.Fatalf("profile = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSubmitIsIdempotentOnStorage(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	in := SubmitInput{JobID: "J1", Filename: "a.jpg", ImageBase64: testImageB64()}

	// Two fresh jobs: re-submission of the same filename must overwrite, not error.
	for _, id := range []string{"J1", "J1"} {
		jobs := newFakeJobs(pendingJob(id))
		orch := newTestOrchestrator(jobs, store, &fakeDescriber{text: "x"}, &fakePredictor{createdID: "p"})
		if _, err := orch.Submit(context.Background(), in); err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
	}
	if store.objects["small/a.jpg"].writes != 2 {
		t.Fatalf("writes = %d, want 2 (overwrite)", store.objects["small/a.jpg"].writes)
	}
}

func TestSubmitPrefersOriginalImageURL(t *testing.T) {
	t.Parallel()
	jobs := newFakeJobs(pendingJob("J1"))
	predictor := &fakePredictor{createdID: "p"}
	orch := newTestOrchestrator(jobs, newFakeStore(), &fakeDescriber{text: "x"}, predictor)

	_, err := orch.Submit(context.Background(), SubmitInput{
		JobID:       "J1",
		Filename:    "a.jpg",
		ImageBase64: testImageB64(),
		ImageURL:    "https://cdn.example.com/full/a.jpg",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if got := predictor.lastCreateRequest().ImageURL; got != "https://cdn.example.com/full/a.jpg" {
		t.Fatalf("image url = %q, want the full-resolution original", got)
	}
}

func TestSubmitMissingPredictionIDFails(t *testing.T) {
	t.Parallel()
	jobs := newFakeJobs(pendingJob("J1"))
	orch := newTestOrchestrator(jobs, newFakeStore(), &fakeDescriber{text: "x"}, &fakePredictor{createdID: ""})

	_, err := orch.Submit(context.Background(), SubmitInput{
		JobID:       "J1",
		Filename:    "a.jpg",
		ImageBase64: testImageB64(),
	})
	if !errors.Is(err, domain.ErrPredictionRejected) {
		t.Fatalf("err = %v, want ErrPredictionRejected", err)
	}
	if job := jobs.get("J1"); job.Status == domain.JobStatusGenerating {
		t.Fatal("job must not be marked generating without a handle")
	}
}

func TestSubmitDuplicateSubmissionConflicts(t *testing.T) {
	t.Parallel()
	job := pendingJob("J1")
	job.Status = domain.JobStatusGenerating
	job.PredictionID = "pred-old"
	jobs := newFakeJobs(job)
	orch := newTestOrchestrator(jobs, newFakeStore(), &fakeDescriber{text: "x"}, &fakePredictor{createdID: "pred-new"})

	_, err := orch.Submit(context.Background(), SubmitInput{
		JobID:       "J1",
		Filename:    "a.jpg",
		ImageBase64: testImageB64(),
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if got := jobs.get("J1").PredictionID; got != "pred-old" {
		t.Fatalf("job handle = %q, want the original pred-old", got)
	}
}

func TestSubmitDataURLPayload(t *testing.T) {
	t.Parallel()
	jobs := newFakeJobs(pendingJob("J1"))
	store := newFakeStore()
	orch := newTestOrchestrator(jobs, store, &fakeDescriber{text: "x"}, &fakePredictor{createdID: "p"})

	_, err := orch.Submit(context.Background(), SubmitInput{
		JobID:       "J1",
		Filename:    "a.png",
		ImageBase64: "data:image/png;base64," + testImageB64(),
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if string(store.objects["small/a.png"].data) != testImageB64Payload {
		t.Fatal("data URL payload not decoded")
	}
}

func keysOf(store *fakeStore) []string {
	var keys []string
	for k := range store.objects {
		keys = append(keys, k)
	}
	return keys
}
