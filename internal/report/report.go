// Package report renders result stores as markdown summaries and HTML.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"mintpy/domain/result"
)

// Markdown renders a store as a human-readable markdown document:
// metadata first, then one section per table. Large grids are
// summarized instead of dumped.
func Markdown(store *result.Store) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Diagnostic results: %s\n\n", store.Meta.Method)

	b.WriteString("## Metadata\n\n")
	fmt.Fprintf(&b, "- **Model output:** %s\n", store.Meta.ModelOutput)
	models := make([]string, len(store.Meta.ModelsUsed))
	for i, m := range store.Meta.ModelsUsed {
		models[i] = m.String()
	}
	fmt.Fprintf(&b, "- **Models:** %s\n", strings.Join(models, ", "))
	if store.Meta.Dimension != "" {
		fmt.Fprintf(&b, "- **Dimension:** %s\n", store.Meta.Dimension)
	}
	if store.Meta.Direction != "" {
		fmt.Fprintf(&b, "- **Direction:** %s\n", store.Meta.Direction)
	}
	if store.Meta.EvaluationFn != "" {
		fmt.Fprintf(&b, "- **Evaluation:** %s\n", store.Meta.EvaluationFn)
	}
	b.WriteString("\n")

	for _, key := range store.Keys() {
		table, _ := store.Get(key)
		// Keys hold double underscores, which markdown would otherwise
		// render as emphasis. Code spans keep them literal.
		fmt.Fprintf(&b, "## `%s`\n\n", key)
		writeTable(&b, table)
	}
	return b.String()
}

func writeTable(b *strings.Builder, table result.Table) {
	switch {
	case len(table.Labels) > 0 && len(table.Shape) == 1:
		// Ranking: label/value rows.
		b.WriteString("| rank | name | score |\n|---|---|---|\n")
		for i, label := range table.Labels {
			fmt.Fprintf(b, "| %d | `%s` | %.6f |\n", i+1, label, table.Values[i])
		}
		b.WriteString("\n")
	case table.Kind == result.KindTabular:
		fmt.Fprintf(b, "| %s |\n", strings.Join(table.Columns, " | "))
		b.WriteString("|" + strings.Repeat("---|", len(table.Columns)) + "\n")
		rows, err := table.Matrix()
		if err != nil {
			return
		}
		for _, row := range rows {
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = fmt.Sprintf("%.6f", v)
			}
			fmt.Fprintf(b, "| %s |\n", strings.Join(cells, " | "))
		}
		b.WriteString("\n")
	case len(table.Values) == 1:
		fmt.Fprintf(b, "Value: **%.6f**\n\n", table.Values[0])
	default:
		fmt.Fprintf(b, "Grid of shape %v (%d values).\n\n", table.Shape, len(table.Values))
	}
}

// HTML renders the markdown summary as a standalone HTML document.
func HTML(store *result.Store) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
	return markdown.ToHTML([]byte(Markdown(store)), p, renderer)
}
