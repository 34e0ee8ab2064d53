package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/ngena/pkg/actions"
	"github.com/aretw0/ngena/pkg/domain"
)

// Overlay contains conversation data to visualize on the graph.
type Overlay struct {
	Visited []domain.State
	Current domain.Target
}

// entryStates are drawn as circles: conversations start or restart there.
var entryStates = map[domain.State]bool{
	domain.StateGreet: true,
	domain.StateMenu:  true,
}

// GenerateMermaid produces a Mermaid flowchart of the action table.
// It applies semantic styling:
// - Entry (greet, menu): ((Circle))
// - State offering a selection: [/Parallelogram/]
// - Default: [Rectangle]
// Valid transitions are solid, invalid ones dotted. A list target fans out to
// each of its sub-states.
func GenerateMermaid(table actions.Table, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	offering := make(map[domain.State]bool)
	for _, state := range table.States() {
		row, _ := table.Lookup(state)
		if row.NextIfValid.IsList() {
			offering[state] = true
		}
	}

	for _, state := range table.States() {
		row, _ := table.Lookup(state)
		safeID := sanitizeMermaidID(string(state))

		opener, closer := "[", "]"
		switch {
		case entryStates[state]:
			opener, closer = "((", "))"
		case offering[state]:
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s <br/> %s\"%s\n", safeID, opener, state, row.Validator, closer))

		writeEdges(&sb, safeID, row.NextIfValid, "-->", "-- \"%s\" -->")
		writeEdges(&sb, safeID, row.NextIfInvalid, "-.->", "-. \"%s\" .->")
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, state := range overlay.Visited {
			safeID := sanitizeMermaidID(string(state))
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		currents := overlay.Current.Options
		if !overlay.Current.IsList() && overlay.Current.Name != "" {
			currents = []domain.State{overlay.Current.Name}
		}
		for _, state := range currents {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(string(state))))
		}
	}

	return sb.String()
}

// writeEdges draws one edge per target member; list members carry their option as label.
func writeEdges(sb *strings.Builder, from string, target domain.Target, arrow, labelled string) {
	if !target.IsList() {
		if target.Name != "" {
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", from, arrow, sanitizeMermaidID(string(target.Name))))
		}
		return
	}
	for _, option := range target.Options {
		safeCondition := strings.ReplaceAll(string(option), "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", from, fmt.Sprintf(labelled, safeCondition), sanitizeMermaidID(string(option))))
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
