//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Search builds the CLI and runs a search for $QUERY.
func Search() error {
	mg.Deps(Build)
	query := os.Getenv("QUERY")
	if query == "" {
		return fmt.Errorf("set QUERY to the search query")
	}
	return sh.RunV(filepath.Join(binDir, binName), "search", "--query", query)
}

// Research builds the CLI and runs a deep research pipeline for $QUERY.
func Research() error {
	mg.Deps(Build)
	query := os.Getenv("QUERY")
	if query == "" {
		return fmt.Errorf("set QUERY to the research question")
	}
	return sh.RunV(filepath.Join(binDir, binName), "research", "--query", query)
}

// Serve builds the CLI and starts the HTTP server.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "serve")
}
