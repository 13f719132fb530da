package flowgraph

import (
	"strings"

	"txScope/internal/model"
)

var classDefs = []string{
	"classDef sender fill:#fde68a,stroke:#b45309",
	"classDef receiver fill:#bbf7d0,stroke:#15803d",
	"classDef contract fill:#bfdbfe,stroke:#1d4ed8",
}

// Render writes the graph as a Mermaid flowchart. Labels are quoted, single
// line and at most MaxLabelLen characters.
func Render(graph model.FlowGraph) string {
	var b strings.Builder
	b.WriteString("graph LR\n")
	for _, node := range graph.Nodes {
		b.WriteString("    " + node.ID + `["` + Sanitize(node.Label) + `"]` + "\n")
	}
	for _, edge := range graph.Edges {
		label := strings.TrimSpace(edge.Amount + " " + edge.Token)
		b.WriteString("    " + edge.From + ` -->|"` + Sanitize(label) + `"| ` + edge.To + "\n")
	}
	for _, def := range classDefs {
		b.WriteString("    " + def + "\n")
	}
	for _, node := range graph.Nodes {
		if node.Class == "" {
			continue
		}
		b.WriteString("    class " + node.ID + " " + node.Class + "\n")
	}
	return b.String()
}

// Sanitize strips characters that break the diagram grammar and truncates.
func Sanitize(label string) string {
	replacer := strings.NewReplacer(
		"\r", " ",
		"\n", " ",
		"\t", " ",
		`"`, "'",
		"|", "/",
		"[", "(",
		"]", ")",
	)
	label = strings.Join(strings.Fields(replacer.Replace(label)), " ")
	runes := []rune(label)
	if len(runes) > MaxLabelLen {
		label = string(runes[:MaxLabelLen-2]) + ".."
	}
	return label
}
