// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Export writes the archived report id to w as JSON or YAML.
func (s *Store) Export(ctx context.Context, id, format string, w io.Writer) error {
	report, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	return nil
}
