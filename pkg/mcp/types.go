package mcp

// Tool describes one catalog entry for capability advertisement.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// ToolContent is a single text segment of a tool result.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the wire shape of a tool outcome. Operation-level failures
// travel inside it as text with IsError set; they are never protocol errors.
type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ServerInfo identifies the server during the initialize handshake.
type ServerInfo struct {
	Name        string
	Version     string
	Description string
}
