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

	"github.com/pdiddy/deep-research/internal/archive"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List, search and show archived research reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(func(store *archive.Store) error {
			limit, _ := cmd.Flags().GetInt("limit")
			list, err := store.List(context.Background(), limit)
			if err != nil {
				return err
			}
			return printSummaries(cmd, list)
		})
	},
}

var reportsSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Find reports whose query contains a term",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(func(store *archive.Store) error {
			limit, _ := cmd.Flags().GetInt("limit")
			list, err := store.Search(context.Background(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			return printSummaries(cmd, list)
		})
	},
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one report as JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(func(store *archive.Store) error {
			format, _ := cmd.Flags().GetString("format")
			return store.Export(context.Background(), args[0], format, os.Stdout)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{reportsListCmd, reportsSearchCmd} {
		c.Flags().Int("limit", 20, "maximum number of reports")
		c.Flags().Bool("json", false, "output as JSON")
	}
	reportsShowCmd.Flags().String("format", archive.FormatJSON, "output format: json or yaml")

	reportsCmd.AddCommand(reportsListCmd, reportsSearchCmd, reportsShowCmd)
	rootCmd.AddCommand(reportsCmd)
}

func withArchive(fn func(*archive.Store) error) error {
	cfg := pipelineConfig(viper.GetViper(), loadedSecrets)
	store, err := archive.NewStore(cfg.Archive)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func printSummaries(cmd *cobra.Command, list []archive.Summary) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if list == nil {
			list = []archive.Summary{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Println("No reports found.")
		return nil
	}
	fmt.Printf("%-36s  %-20s  %-7s  %-9s  %s\n", "ID", "Created", "Results", "Duration", "Query")
	fmt.Println(strings.Repeat("-", 110))
	for _, s := range list {
		query := s.Query
		if len(query) > 40 {
			query = query[:37] + "..."
		}
		fmt.Printf("%-36s  %-20s  %-7d  %-9s  %s\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.ResultCount,
			fmt.Sprintf("%ds", s.DurationMS/1000), query)
	}
	return nil
}
