// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze runs a consortium of personas over extracted research
// material. Each persona reads the same chunks through its own focus and a
// final call merges their analyses into one synthesis.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/avast/retry-go/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/openai/openai-go"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

const (
	defaultConcurrency      = 4
	defaultChunksPerPersona = 12
	defaultMaxRetries       = 3
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// Request is the material and options for one analysis run.
type Request struct {
	Query    string
	Contents []types.ExtractedContent
	Chunks   []types.Chunk

	// Personas lists persona IDs; empty uses the configured or default list.
	Personas []string

	// Model overrides the configured model for this run.
	Model string
}

// Analyzer turns extracted material into persona analyses.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (types.AnalysisResult, error)
}

// ConsortiumAnalyzer asks one LLM call per persona and then a synthesis.
type ConsortiumAnalyzer struct {
	llm    LLMClient
	cfg    types.AnalysisConfig
	logger *zap.Logger
}

// NewConsortiumAnalyzer creates an analyzer backed by llm.
func NewConsortiumAnalyzer(llm LLMClient, cfg types.AnalysisConfig, logger *zap.Logger) *ConsortiumAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.ChunksPerPersona <= 0 {
		cfg.ChunksPerPersona = defaultChunksPerPersona
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &ConsortiumAnalyzer{llm: llm, cfg: cfg, logger: logger}
}

// Model returns the model a run with the given override would use.
func (a *ConsortiumAnalyzer) Model(override string) string {
	if override != "" {
		return a.llm.ResolveModel(override)
	}
	return a.llm.ResolveModel(a.cfg.Model)
}

// Analyze runs every selected persona over the first ChunksPerPersona
// chunks. A persona whose call fails carries the error on its analysis;
// only the failure of every persona fails the run. Synthesis failures are
// logged and leave the synthesis empty.
func (a *ConsortiumAnalyzer) Analyze(ctx context.Context, req Request) (types.AnalysisResult, error) {
	ids := req.Personas
	if len(ids) == 0 {
		ids = a.cfg.Personas
	}
	personas, err := Resolve(ids)
	if err != nil {
		return types.AnalysisResult{}, err
	}

	chunks := req.Chunks
	if len(chunks) > a.cfg.ChunksPerPersona {
		chunks = chunks[:a.cfg.ChunksPerPersona]
	}
	prompt, err := render(personaPromptTmpl, buildMaterial(req.Query, req.Contents, chunks))
	if err != nil {
		return types.AnalysisResult{}, err
	}
	model := a.Model(req.Model)

	analyses := make([]types.PersonaAnalysis, len(personas))
	sem := make(chan struct{}, a.cfg.Concurrency)
	var wg sync.WaitGroup
	for i, p := range personas {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				analyses[i] = failedAnalysis(p, ctx.Err(), 0)
				return
			}
			defer func() { <-sem }()
			analyses[i] = a.runPersona(ctx, p, model, prompt)
		}()
	}
	wg.Wait()

	var errs *multierror.Error
	for _, an := range analyses {
		if an.Error != "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: %s", an.Persona, an.Error))
		}
	}
	if errs != nil && len(errs.Errors) == len(analyses) {
		return types.AnalysisResult{}, fmt.Errorf("all %d personas failed: %w", len(analyses), errs)
	}

	result := types.AnalysisResult{Analyses: analyses}
	synthesis, err := a.synthesize(ctx, req.Query, model, analyses)
	if err != nil {
		a.logger.Warn("synthesis failed", zap.Error(err))
	} else {
		result.Synthesis = synthesis
	}
	return result, nil
}

func (a *ConsortiumAnalyzer) runPersona(ctx context.Context, p types.Persona, model, prompt string) types.PersonaAnalysis {
	start := time.Now()
	system, err := render(personaSystemTmpl, p)
	if err != nil {
		return failedAnalysis(p, err, time.Since(start))
	}

	text, err := a.complete(ctx, Completion{
		Model:     model,
		System:    system,
		Prompt:    prompt,
		MaxTokens: a.cfg.MaxTokens,
	})
	elapsed := time.Since(start)
	if err != nil {
		a.logger.Warn("persona analysis failed",
			zap.String("persona", p.ID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return failedAnalysis(p, err, elapsed)
	}
	a.logger.Debug("persona analysis complete",
		zap.String("persona", p.ID),
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", elapsed))

	return types.PersonaAnalysis{
		Persona:  p.ID,
		Name:     p.Name,
		Focus:    p.Focus,
		Analysis: text,
		Duration: elapsed.Milliseconds(),
	}
}

// synthesize merges the successful analyses in the writer's voice.
func (a *ConsortiumAnalyzer) synthesize(ctx context.Context, query, model string, analyses []types.PersonaAnalysis) (string, error) {
	var ok []types.PersonaAnalysis
	for _, an := range analyses {
		if an.Error == "" {
			ok = append(ok, an)
		}
	}
	prompt, err := render(synthesisPromptTmpl, struct {
		Query    string
		Analyses []types.PersonaAnalysis
	}{query, ok})
	if err != nil {
		return "", err
	}
	system, err := render(personaSystemTmpl, catalogue[synthesisPersona])
	if err != nil {
		return "", err
	}
	return a.complete(ctx, Completion{
		Model:     model,
		System:    system,
		Prompt:    prompt,
		MaxTokens: a.cfg.MaxTokens,
	})
}

// complete calls the LLM with exponential backoff between attempts.
func (a *ConsortiumAnalyzer) complete(ctx context.Context, c Completion) (string, error) {
	var text string
	err := retry.Do(
		func() error {
			var err error
			text, err = a.llm.Complete(ctx, c)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(a.cfg.MaxRetries+1)),
		retry.Delay(backoffBase),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("after %d retries: %w", a.cfg.MaxRetries, err)
	}
	return text, nil
}

func failedAnalysis(p types.Persona, err error, elapsed time.Duration) types.PersonaAnalysis {
	return types.PersonaAnalysis{
		Persona:  p.ID,
		Name:     p.Name,
		Focus:    p.Focus,
		Error:    publicError(err),
		Duration: elapsed.Milliseconds(),
	}
}

// publicError labels a failed call for the report. Provider response bodies
// stay in the logs.
func publicError(err error) string {
	var aerr *anthropic.Error
	if errors.As(err, &aerr) {
		return fmt.Sprintf("analysis request failed (HTTP %d)", aerr.StatusCode)
	}
	var oerr *openai.Error
	if errors.As(err, &oerr) {
		return fmt.Sprintf("analysis request failed (HTTP %d)", oerr.StatusCode)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "analysis request timed out"
	case errors.Is(err, context.Canceled):
		return "analysis request cancelled"
	}
	return "analysis request failed"
}
