// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/analyze"
	"github.com/pdiddy/deep-research/internal/archive"
	"github.com/pdiddy/deep-research/internal/extract"
	"github.com/pdiddy/deep-research/internal/research"
	"github.com/pdiddy/deep-research/internal/search"
	"github.com/pdiddy/deep-research/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run a deep research pipeline and print the report",
	Long: `Research runs a wide search, extracts the pages behind the top results,
has each consortium persona analyse the material, and prints the assembled
report as JSON. Completed reports are saved to the archive unless
--no-archive is set.

A run typically takes several minutes; most of it is spent in analysis.`,
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("query", "", "research question")
	researchCmd.Flags().Int("max-results", 0, "ranked search results to keep (default 30)")
	researchCmd.Flags().Bool("no-academic", false, "skip academic providers")
	researchCmd.Flags().Bool("no-decompose", false, "do not split compound queries")
	researchCmd.Flags().StringSlice("personas", nil, "persona IDs (default: the full consortium)")
	researchCmd.Flags().String("model", "", "LLM model for analysis")
	researchCmd.Flags().Int("extract-count", 0, "number of top results to extract (default 10)")
	researchCmd.Flags().Int("max-chunks", 0, "maximum chunks for analysis (default 50)")
	researchCmd.Flags().Bool("no-archive", false, "do not save the report")

	rootCmd.AddCommand(researchCmd)
}

// stack holds the wired pipeline and its collaborators.
type stack struct {
	cfg      types.PipelineConfig
	searcher *search.Orchestrator
	pipeline *research.Pipeline
	store    *archive.Store
}

func (s *stack) Close() {
	if s.store != nil {
		s.store.Close()
	}
}

// buildStack wires search, extraction and analysis from cfg. The archive is
// opened when withArchive is set and a directory is configured; a failure
// to open it is logged and leaves archiving off.
func buildStack(cfg types.PipelineConfig, withArchive bool) (*stack, error) {
	llm, err := analyze.NewLLMClient(cfg.Search.Credentials)
	if err != nil {
		return nil, err
	}

	client := newHTTPClient()
	orch := search.New(cfg.Search, client, logger)
	ext := extract.NewWebExtractor(cfg.Extraction, client, logger)
	an := analyze.NewConsortiumAnalyzer(llm, cfg.Analysis, logger)

	st := &stack{
		cfg:      cfg,
		searcher: orch,
		pipeline: research.New(orch, ext, an, logger),
	}
	if withArchive && cfg.Archive.Dir != "" {
		store, err := archive.NewStore(cfg.Archive)
		if err != nil {
			logger.Warn("report archive disabled", zap.Error(err))
		} else {
			st.store = store
		}
	}
	return st, nil
}

func runResearch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	query = strings.TrimSpace(query)
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}
	if query == "" {
		return fmt.Errorf("provide a research question with --query")
	}

	personas, _ := cmd.Flags().GetStringSlice("personas")
	if len(personas) > 0 {
		if _, err := analyze.Resolve(personas); err != nil {
			return err
		}
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")
	noAcademic, _ := cmd.Flags().GetBool("no-academic")
	noDecompose, _ := cmd.Flags().GetBool("no-decompose")
	model, _ := cmd.Flags().GetString("model")
	extractCount, _ := cmd.Flags().GetInt("extract-count")
	maxChunks, _ := cmd.Flags().GetInt("max-chunks")
	noArchive, _ := cmd.Flags().GetBool("no-archive")

	st, err := buildStack(pipelineConfig(viper.GetViper(), loadedSecrets), !noArchive)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	report, err := st.pipeline.Run(ctx, query, research.RunOptions{
		MaxResults:      maxResults,
		IncludeAcademic: types.Bool(!noAcademic),
		DecomposeQuery:  types.Bool(!noDecompose),
		Personas:        personas,
		Model:           model,
		ExtractCount:    extractCount,
		MaxChunks:       maxChunks,
	})
	if err != nil {
		return err
	}

	if st.store != nil && report.ID != "" {
		if err := st.store.Save(ctx, report); err != nil {
			logger.Warn("archiving report failed", zap.String("id", report.ID), zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "Saved report %s\n", report.ID)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
