package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
)

// DefaultMatchWorkers bounds concurrent generation jobs.
const DefaultMatchWorkers = 4

// Generator creates suggestions for one memorial.
type Generator interface {
	Generate(ctx context.Context, memorialID string) ([]entities.Suggestion, error)
}

// RegenerateResult summarizes a batch regeneration.
type RegenerateResult struct {
	Memorials int `json:"memorials"`
	Created   int `json:"created"`
}

// MatchScheduler runs suggestion generation out of band. Concurrent runs
// for the same memorial are safe since duplicate suggestions are skipped.
type MatchScheduler struct {
	ctx       context.Context
	store     ports.GraphStore
	generator Generator
	workers   int
	logger    *slog.Logger

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewMatchScheduler creates a scheduler. Background jobs run under ctx and
// stop when it is cancelled.
func NewMatchScheduler(
	ctx context.Context,
	store ports.GraphStore,
	generator Generator,
	workers int,
	logger *slog.Logger,
) *MatchScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = DefaultMatchWorkers
	}
	return &MatchScheduler{
		ctx:       ctx,
		store:     store,
		generator: generator,
		workers:   workers,
		logger:    logger,
		sem:       make(chan struct{}, workers),
	}
}

// Enqueue starts generation for memorialID in the background.
func (s *MatchScheduler) Enqueue(memorialID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case s.sem <- struct{}{}:
			defer func() { <-s.sem }()
		case <-s.ctx.Done():
			return
		}

		created, err := s.generator.Generate(s.ctx, memorialID)
		if err != nil {
			s.logger.Error("background match generation failed", "memorial_id", memorialID, "error", err)
			return
		}
		s.logger.Debug("background match generation done", "memorial_id", memorialID, "created", len(created))
	}()
}

// Wait blocks until every enqueued job has finished.
func (s *MatchScheduler) Wait() {
	s.wg.Wait()
}

// RegenerateAll runs generation for every approved memorial with at most
// workers jobs in flight. The first failure cancels the rest.
func (s *MatchScheduler) RegenerateAll(ctx context.Context) (RegenerateResult, error) {
	memorials, err := s.store.ListMemorials(ctx, ports.MemorialFilter{ApprovedOnly: true})
	if err != nil {
		return RegenerateResult{}, fmt.Errorf("listing memorials: %w", err)
	}

	var created atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, m := range memorials {
		id := m.ID
		g.Go(func() error {
			sugs, err := s.generator.Generate(gCtx, id)
			if err != nil {
				return fmt.Errorf("generating for %s: %w", id, err)
			}
			created.Add(int64(len(sugs)))
			return nil
		})
	}

	result := RegenerateResult{Memorials: len(memorials)}
	err = g.Wait()
	result.Created = int(created.Load())
	if err != nil {
		return result, err
	}

	s.logger.Info("regenerated suggestions",
		"memorials", result.Memorials,
		"created", result.Created,
	)
	return result, nil
}
