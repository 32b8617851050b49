// Package ui carries the embedded logs page: a tab strip routing between
// the LLM proxy and MCP gateway log views.
package ui

import (
	"embed"
)

//go:embed static
var uiFiles embed.FS

// Tab slugs recognized under /logs/.
const (
	TabLLMProxy   = "llm-proxy"
	TabMCPGateway = "mcp-gateway"
)

// LogsPage returns the embedded logs page. The page reads the active tab
// from its own URL, so the same bytes serve both tabs.
func LogsPage() ([]byte, error) {
	return uiFiles.ReadFile("static/logs.html")
}
