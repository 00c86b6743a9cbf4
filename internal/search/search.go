// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search fans a query out to the configured providers, merges their
// results, deduplicates them by URL and ranks them with a fixed heuristic.
package search

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/logging"
	"github.com/pdiddy/deep-research/internal/metrics"
	"github.com/pdiddy/deep-research/pkg/types"
)

// defaultMaxResults applies when neither the request nor the config sets a cap.
const defaultMaxResults = 10

// Orchestrator runs one search across a fixed provider set.
type Orchestrator struct {
	providers []Provider
	cfg       types.SearchConfig
	logger    *zap.Logger
	now       func() time.Time
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithClock sets the clock used for recency scoring.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator returns an orchestrator over providers.
func NewOrchestrator(providers []Provider, cfg types.SearchConfig, logger *zap.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		providers: providers,
		cfg:       cfg,
		logger:    logging.OrNop(logger),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// New builds the registry from cfg and wraps it in an orchestrator.
func New(cfg types.SearchConfig, client *http.Client, logger *zap.Logger, opts ...OrchestratorOption) *Orchestrator {
	return NewOrchestrator(NewProviders(cfg, client, logger), cfg, logger, opts...)
}

// Providers returns the provider set in registry order.
func (o *Orchestrator) Providers() []Provider { return o.providers }

type task struct {
	query    string
	provider Provider
}

type taskResult struct {
	index   int
	results []types.SearchResult
	err     error
}

// Search decomposes query, calls every applicable provider for every
// sub-query concurrently, and returns the merged, deduplicated, ranked and
// truncated results. Provider failures only reduce coverage; Search fails
// with ErrNoProviders when no task can be built at all.
func (o *Orchestrator) Search(ctx context.Context, query string, opts types.SearchOptions) (types.SearchResponse, error) {
	start := time.Now()

	queries := []string{query}
	if types.Enabled(opts.DecomposeQuery) {
		queries = Decompose(query)
	}
	if len(queries) > 1 {
		o.logger.Debug("decomposed query", zap.String("query", query), zap.Strings("sub_queries", queries))
	}

	var tasks []task
	for _, q := range queries {
		for _, p := range o.providers {
			if p.Academic() && !types.Enabled(opts.IncludeAcademic) {
				continue
			}
			tasks = append(tasks, task{query: q, provider: p})
		}
	}
	if len(tasks) == 0 {
		return types.SearchResponse{}, ErrNoProviders
	}

	ch := make(chan taskResult, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			results, err := o.runTask(ctx, t, opts)
			ch <- taskResult{index: i, results: results, err: err}
		}(i, t)
	}
	go func() {
		wg.Wait()
		close(ch)
	}()

	batches := make([][]types.SearchResult, len(tasks))
	var failures *multierror.Error
	failed := 0
	for tr := range ch {
		if tr.err != nil {
			failures = multierror.Append(failures, tr.err)
			failed++
			continue
		}
		batches[tr.index] = tr.results
	}
	if failed > 0 {
		o.logger.Warn("search tasks failed",
			zap.String("query", query),
			zap.Int("failed", failed),
			zap.Int("tasks", len(tasks)),
			zap.Error(failures))
	}

	var all []types.SearchResult
	for _, b := range batches {
		all = append(all, b...)
	}

	deduped := deduplicate(all)
	metrics.ObserveDedup(len(all) - len(deduped))
	ranked := rank(deduped, query, o.now())

	limit := opts.MaxResults
	if limit <= 0 {
		limit = o.cfg.MaxResults
	}
	if limit <= 0 {
		limit = defaultMaxResults
	}
	final := ranked
	if len(final) > limit {
		final = final[:limit]
	}

	duration := time.Since(start).Milliseconds()
	o.logger.Info("search complete",
		zap.String("query", query),
		zap.Int("results", len(final)),
		zap.Int64("duration_ms", duration))

	return types.SearchResponse{
		Results: final,
		Stats: types.SearchStats{
			TotalSources:       len(all),
			AfterDeduplication: len(deduped),
			FinalResults:       len(final),
			Duration:           duration,
			Query:              query,
			Tasks:              len(tasks),
			FailedTasks:        failed,
		},
	}, nil
}

// runTask calls one provider. Errors and panics are converted into a task
// error so one provider can never fail the whole search.
func (o *Orchestrator) runTask(ctx context.Context, t task, opts types.SearchOptions) (results []types.SearchResult, err error) {
	name := t.provider.Name()
	begin := time.Now()
	defer func() {
		if r := recover(); r != nil {
			results, err = nil, fmt.Errorf("%s: panic: %v", name, r)
		}
		if err != nil {
			o.logger.Debug("search provider failed",
				zap.String("provider", string(name)),
				zap.String("query", t.query),
				zap.Error(err))
		}
		metrics.ObserveProvider(string(name), begin, len(results), err != nil)
	}()

	results, err = t.provider.Search(ctx, t.query, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return results, nil
}
