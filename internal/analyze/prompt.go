// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/pdiddy/deep-research/pkg/types"
)

// personaSystemTmpl frames the model as one consortium member.
var personaSystemTmpl = template.Must(template.New("persona-system").Parse(
	`You are the {{.Name}} in a research consortium. You read source material through one lens: {{.Focus}}. ` +
		`Ground every point in the material provided and cite sources by their [n] number. Say plainly when the material is thin or conflicting.`))

// personaPromptTmpl is the user message for one persona's analysis.
var personaPromptTmpl = template.Must(template.New("persona").Parse(`Research question: {{.Query}}

Sources:
{{range .Sources}}[{{.N}}] {{.Title}} ({{.URL}})
{{end}}
Excerpts:
{{range .Chunks}}
--- [{{.N}}] excerpt {{.Index}} ---
{{.Text}}
{{end}}
Write your analysis of the research question from your perspective. Cover:
1. Key findings that matter most from your point of view.
2. Strengths and advantages the evidence supports.
3. Concerns, risks or limitations.
4. Opportunities the material suggests.
5. What you would recommend, and why.

Keep it under 600 words.`))

// synthesisPromptTmpl asks the writer to merge the consortium's analyses.
var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`Research question: {{.Query}}

The consortium members analysed the same sources. Their analyses follow.
{{range .Analyses}}
### {{.Name}} ({{.Focus}})
{{.Analysis}}
{{end}}
Write a single synthesis for a general reader: where the members agree, where they disagree, and the overall answer to the research question with its main caveats. Keep it under 800 words.`))

type promptSource struct {
	N     int
	Title string
	URL   string
}

type promptChunk struct {
	N     int
	Index int
	Text  string
}

type personaPromptData struct {
	Query   string
	Sources []promptSource
	Chunks  []promptChunk
}

// buildMaterial numbers the extracted sources and attaches each chunk to
// its source number.
func buildMaterial(query string, contents []types.ExtractedContent, chunks []types.Chunk) personaPromptData {
	data := personaPromptData{Query: query}
	numbers := make(map[string]int, len(contents))
	for _, c := range contents {
		if _, ok := numbers[c.URL]; ok {
			continue
		}
		numbers[c.URL] = len(numbers) + 1
		data.Sources = append(data.Sources, promptSource{N: numbers[c.URL], Title: c.Title, URL: c.URL})
	}
	for _, ch := range chunks {
		n, ok := numbers[ch.URL]
		if !ok {
			numbers[ch.URL] = len(numbers) + 1
			n = numbers[ch.URL]
			data.Sources = append(data.Sources, promptSource{N: n, Title: ch.Title, URL: ch.URL})
		}
		data.Chunks = append(data.Chunks, promptChunk{N: n, Index: ch.Index, Text: ch.Text})
	}
	return data
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
