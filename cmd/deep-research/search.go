// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/search"
	"github.com/pdiddy/deep-research/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search web and academic providers and rank the merged results",
	Long: `Search sends the query, and any sub-queries split from it, to every
configured provider in parallel. Results are deduplicated by URL across
providers and ranked by a relevance score that rewards provider scores,
matching terms, corroboration and recency.

Use --save to keep the results in a YAML query file and --from-file to
print a saved search again without querying providers.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text search query")
	searchCmd.Flags().Int("max-results", 0, "maximum number of ranked results (default from config)")
	searchCmd.Flags().Bool("no-academic", false, "skip Semantic Scholar, CrossRef and arXiv")
	searchCmd.Flags().Bool("no-decompose", false, "do not split compound queries")
	searchCmd.Flags().String("depth", "", "search depth for providers that support it (basic, advanced)")
	searchCmd.Flags().String("freshness", "", "date filter for providers that support it (Day, Week, Month)")
	searchCmd.Flags().StringSlice("domains", nil, "restrict supporting providers to these domains")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("csl", false, "output results as CSL YAML")
	searchCmd.Flags().String("save", "", "write the query and results to a YAML query file")
	searchCmd.Flags().String("from-file", "", "print results from a saved query file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	asCSL, _ := cmd.Flags().GetBool("csl")
	if asJSON && asCSL {
		return fmt.Errorf("--json and --csl are mutually exclusive")
	}

	if path, _ := cmd.Flags().GetString("from-file"); path != "" {
		qf, err := search.ReadQueryFile(path)
		if err != nil {
			return err
		}
		return writeSearchOutput(qf.Response(), asJSON, asCSL)
	}

	query, _ := cmd.Flags().GetString("query")
	query = strings.TrimSpace(query)
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}
	if query == "" {
		return fmt.Errorf("provide a query with --query")
	}

	maxResults, _ := cmd.Flags().GetInt("max-results")
	noAcademic, _ := cmd.Flags().GetBool("no-academic")
	noDecompose, _ := cmd.Flags().GetBool("no-decompose")
	depth, _ := cmd.Flags().GetString("depth")
	freshness, _ := cmd.Flags().GetString("freshness")
	domains, _ := cmd.Flags().GetStringSlice("domains")
	opts := types.SearchOptions{
		MaxResults:      maxResults,
		SearchDepth:     depth,
		IncludeAcademic: types.Bool(!noAcademic),
		DecomposeQuery:  types.Bool(!noDecompose),
		Freshness:       freshness,
		IncludeDomains:  domains,
	}

	cfg := pipelineConfig(viper.GetViper(), loadedSecrets)
	orch := search.New(cfg.Search, newHTTPClient(), logger)
	resp, err := orch.Search(context.Background(), query, opts)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := search.WriteQueryFile(path, query, opts, resp); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d results to %s\n", len(resp.Results), path)
	}
	return writeSearchOutput(resp, asJSON, asCSL)
}

func writeSearchOutput(resp types.SearchResponse, asJSON, asCSL bool) error {
	switch {
	case asJSON:
		return search.FormatJSON(resp, os.Stdout)
	case asCSL:
		return search.FormatCSL(resp, os.Stdout)
	default:
		search.FormatTable(resp, os.Stdout)
		return nil
	}
}
