package mermaid

import "strings"

// DiagramTypes lists the diagram keywords a submission may start with.
var DiagramTypes = []string{
	"flowchart",
	"graph", // alias for flowchart
	"sequenceDiagram",
	"classDiagram",
	"stateDiagram",
	"stateDiagram-v2",
	"gantt",
	"pie",
	"erDiagram",
	"journey",
	"gitGraph",
	"xyChart",
	"xychart-beta",
	"mindmap",
	"timeline",
	"C4Context",
	"C4Container",
	"C4Component",
	"C4Dynamic",
}

// DiagramType returns the first keyword in DiagramTypes that prefixes the
// first whitespace-delimited token of content.
//
// This is a cheap stand-in for a real parser: "ganttish" matches "gantt" and
// matching is case-sensitive.
func DiagramType(content string) (string, bool) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return "", false
	}
	first := fields[0]
	for _, t := range DiagramTypes {
		if strings.HasPrefix(first, t) {
			return t, true
		}
	}
	return "", false
}

// IsDiagram reports whether content plausibly starts a mermaid diagram.
func IsDiagram(content string) bool {
	_, ok := DiagramType(content)
	return ok
}
