// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/analyze"
	"github.com/pdiddy/deep-research/internal/search"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show which search providers and LLM backends are configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig(viper.GetViper(), loadedSecrets)

		fmt.Printf("%-18s  %-8s  %-10s  %s\n", "Provider", "Kind", "Status", "Requires")
		for _, st := range search.Status(cfg.Search.Credentials) {
			kind := "web"
			if st.Academic {
				kind = "academic"
			}
			status := "ready"
			if !st.Configured {
				status = "missing"
			}
			fmt.Printf("%-18s  %-8s  %-10s  %s\n", st.Name, kind, status, st.Requires)
		}

		llm, err := analyze.NewLLMClient(cfg.Search.Credentials)
		if err != nil {
			fmt.Printf("\nanalysis: %v\n", err)
			return nil
		}
		fmt.Printf("\nanalysis model: %s\n", llm.ResolveModel(cfg.Analysis.Model))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
