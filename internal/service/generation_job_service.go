package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
	"github.com/noah-isme/uni-timetable-api/pkg/jobs"
)

const generationJobType = "timetable.generate"

type scheduleGenerator interface {
	EnsureSemester(ctx context.Context, semesterID string) error
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.SchedulingResult, error)
}

// GenerationJobConfig tunes the async generation worker pool.
type GenerationJobConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	ResultTTL  time.Duration
}

// GenerationJobService queues generation runs and tracks their status. A run that finds its
// semester busy is retried by the queue instead of being rejected.
type GenerationJobService struct {
	generator scheduleGenerator
	queue     *jobs.Queue
	store     *generationJobStore
	logger    *zap.Logger
}

// NewGenerationJobService builds the service and its queue; call Start before enqueueing.
func NewGenerationJobService(generator scheduleGenerator, cfg GenerationJobConfig, logger *zap.Logger) *GenerationJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	svc := &GenerationJobService{
		generator: generator,
		store:     newGenerationJobStore(cfg.ResultTTL),
		logger:    logger,
	}
	svc.queue = jobs.NewQueue("timetable-generation", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnFailure:  svc.fail,
	})
	return svc
}

// Start launches the workers.
func (s *GenerationJobService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *GenerationJobService) Stop() {
	s.queue.Stop()
}

// Enqueue records a queued job for the semester.
func (s *GenerationJobService) Enqueue(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerationJobResponse, error) {
	if err := s.generator.EnsureSemester(ctx, req.SemesterID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	job := dto.GenerationJobResponse{
		ID:         uuid.NewString(),
		SemesterID: req.SemesterID,
		Status:     dto.GenerationJobQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.store.Save(job)
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: generationJobType, Payload: req}); err != nil {
		s.store.Delete(job.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "generation queue unavailable")
	}
	s.logger.Info("generation job queued", zap.String("job_id", job.ID), zap.String("semester_id", req.SemesterID))
	return &job, nil
}

// Get returns the status of a job.
func (s *GenerationJobService) Get(id string) (*dto.GenerationJobResponse, error) {
	job, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
	}
	return &job, nil
}

func (s *GenerationJobService) handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerateScheduleRequest)
	if !ok {
		return jobs.Permanent(fmt.Errorf("unexpected payload %T", job.Payload))
	}
	s.store.Update(job.ID, func(state *dto.GenerationJobResponse) {
		state.Status = dto.GenerationJobRunning
		state.Attempts = job.Attempt + 1
	})

	result, err := s.generator.Generate(ctx, req)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrGenerationInProgress) {
			s.store.Update(job.ID, func(state *dto.GenerationJobResponse) {
				state.Status = dto.GenerationJobQueued
				state.Error = err.Error()
			})
			return err
		}
		return jobs.Permanent(err)
	}
	s.store.Update(job.ID, func(state *dto.GenerationJobResponse) {
		state.Status = dto.GenerationJobSucceeded
		state.Error = ""
		state.Result = result
	})
	return nil
}

func (s *GenerationJobService) fail(job jobs.Job, err error) {
	s.store.Update(job.ID, func(state *dto.GenerationJobResponse) {
		state.Status = dto.GenerationJobFailed
		state.Error = err.Error()
	})
}

// generationJobStore keeps job states in memory until ttl after their last update.
type generationJobStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]dto.GenerationJobResponse
}

func newGenerationJobStore(ttl time.Duration) *generationJobStore {
	return &generationJobStore{ttl: ttl, items: make(map[string]dto.GenerationJobResponse)}
}

func (s *generationJobStore) Save(job dto.GenerationJobResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	s.items[job.ID] = job
}

func (s *generationJobStore) Update(id string, mutate func(*dto.GenerationJobResponse)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.items[id]
	if !ok {
		return
	}
	mutate(&job)
	job.UpdatedAt = time.Now().UTC()
	s.items[id] = job
}

func (s *generationJobStore) Get(id string) (dto.GenerationJobResponse, bool) {
	s.mu.RLock()
	job, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.GenerationJobResponse{}, false
	}
	if time.Since(job.UpdatedAt) > s.ttl {
		s.Delete(id)
		return dto.GenerationJobResponse{}, false
	}
	return job, true
}

func (s *generationJobStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *generationJobStore) evictLocked() {
	for id, job := range s.items {
		if time.Since(job.UpdatedAt) > s.ttl {
			delete(s.items, id)
		}
	}
}
