package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mirage/internal/domain"
	"mirage/internal/infra"
	"mirage/internal/providers/image"
)

// Generator orchestrates the job lifecycle: it creates the pending record,
// dispatches generation to the selected provider in the background, and
// writes the single terminal transition back to the store.
type Generator struct {
	store    domain.JobStore
	registry *image.Registry
	logger   infra.Logger
	timeout  time.Duration
}

// NewGenerator wires the orchestrator.
func NewGenerator(store domain.JobStore, registry *image.Registry, logger infra.Logger, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Generator{
		store:    store,
		registry: registry,
		logger:   logger,
		timeout:  timeout,
	}
}

// CreateJob validates the request, writes a pending record, and returns the
// fresh job id before generation starts. Provider resolution happens first:
// a config error means no job is created and no outbound call is made.
func (g *Generator) CreateJob(ctx context.Context, prompt, provider string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", domain.ErrInvalidPrompt
	}

	gen, err := g.registry.Lookup(provider)
	if err != nil {
		return "", err
	}

	job := domain.NewJob(uuid.NewString(), prompt, provider)
	if err := g.store.Put(ctx, job); err != nil {
		return "", fmt.Errorf("store pending job: %w", err)
	}

	go g.run(job, gen)

	return job.ID, nil
}

// run executes one generation task. Every exit path writes a terminal
// state; a job is never left pending because the adapter errored or the
// goroutine panicked.
func (g *Generator) run(job domain.Job, gen image.Generator) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().Str("job_id", job.ID).Interface("panic", r).Msg("generation panicked")
			g.finish(job, "", fmt.Sprintf("internal error: %v", r))
		}
	}()

	imageB64, err := gen.Generate(ctx, job.Prompt)
	if err != nil {
		g.logger.Error().Err(err).Str("job_id", job.ID).Str("provider", job.Provider).Msg("generation failed")
		g.finish(job, "", err.Error())
		return
	}

	g.logger.Info().Str("job_id", job.ID).Str("provider", job.Provider).Msg("generation completed")
	g.finish(job, imageB64, "")
}

// finish writes the terminal transition on a fresh context: the generation
// context may already be expired (that can be exactly why we are failing),
// and the write must still land.
func (g *Generator) finish(job domain.Job, imageB64, errMsg string) {
	if errMsg != "" {
		job.Fail(errMsg)
	} else {
		job.Complete(imageB64)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := g.store.Put(ctx, job); err != nil {
		g.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to store job result")
	}
}

// Status is a pure read of the job record; unknown and swept ids are both
// ErrNotFound.
func (g *Generator) Status(ctx context.Context, id string) (domain.Job, error) {
	return g.store.Get(ctx, id)
}

// JobCount reports the number of live records for health reporting.
func (g *Generator) JobCount(ctx context.Context) (int, error) {
	return g.store.Len(ctx)
}
