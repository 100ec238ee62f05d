// Package mcp speaks JSON-RPC 2.0 over a byte stream, routing MCP requests
// to the tool registry. One request is read, handled and answered at a time;
// the loop runs until the stream closes.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cagefs/cagefs/pkg/tool"
)

const protocolVersion = "2024-11-05"

type Server struct {
	registry *tool.Registry
	info     ServerInfo
	logger   *slog.Logger
}

func NewServer(registry *tool.Registry, info ServerInfo) *Server {
	return &Server{registry: registry, info: info}
}

func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Catalog returns the advertised tool descriptors in registry order.
func Catalog(registry *tool.Registry) []Tool {
	tools := registry.List()
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Schema(),
		})
	}
	return out
}

// Serve processes requests from reader until EOF, writing responses to
// writer. A failed call answers with a result; only stream-level faults end
// the loop.
func (s *Server) Serve(reader io.Reader, writer io.Writer) error {
	bufReader := bufio.NewReader(reader)
	bufWriter := bufio.NewWriter(writer)

	for {
		payload, err := readMessage(bufReader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.logError("mcp_read_failed", "error", err)
			return err
		}

		var req rpcRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			s.logWarn("mcp_parse_error", "error", err)
			_ = writeError(bufWriter, req.ID, -32700, "parse error", err.Error())
			continue
		}
		if req.Method == "" {
			_ = writeError(bufWriter, req.ID, -32600, "invalid request", "missing method")
			continue
		}

		switch req.Method {
		case "initialize":
			_ = writeResult(bufWriter, req.ID, map[string]any{
				"protocolVersion": protocolVersion,
				"capabilities": map[string]any{
					"tools": map[string]any{},
				},
				"serverInfo": map[string]any{
					"name":    s.info.Name,
					"version": s.info.Version,
				},
				"instructions": s.info.Description,
			})
		case "notifications/initialized":
			// notification, nothing to answer
		case "ping":
			_ = writeResult(bufWriter, req.ID, map[string]any{})
		case "tools/list":
			_ = writeResult(bufWriter, req.ID, map[string]any{
				"tools": Catalog(s.registry),
			})
		case "tools/call":
			_ = s.handleToolsCall(req.ID, req.Params, bufWriter)
		default:
			_ = writeError(bufWriter, req.ID, -32601, "method not found", req.Method)
		}
	}
}

// ServeStdio runs the server over the process's standard streams.
func (s *Server) ServeStdio() error {
	return s.Serve(os.Stdin, os.Stdout)
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleToolsCall(id interface{}, params json.RawMessage, writer *bufio.Writer) error {
	var req toolCallParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return writeError(writer, id, -32602, "invalid params", err.Error())
		}
	}
	if req.Arguments == nil {
		req.Arguments = map[string]any{}
	}

	target, ok := s.registry.Get(req.Name)
	if !ok {
		// Not a protocol fault: the router answers and keeps serving.
		s.logWarn("unknown_tool", "name", req.Name)
		return writeResult(writer, id, wireResult(tool.Result{
			Text:    fmt.Sprintf("Unknown tool: %s", req.Name),
			IsError: true,
		}))
	}
	if key, missing := tool.MissingArgument(target, req.Arguments); missing {
		return writeError(writer, id, -32602, "invalid params",
			fmt.Sprintf("missing required argument: %s", key))
	}

	res := s.registry.Invoke(context.Background(), req.Name, req.Arguments)
	s.logInfo("tool_call", "tool", req.Name, "is_error", res.IsError)
	return writeResult(writer, id, wireResult(res))
}

func wireResult(res tool.Result) ToolResult {
	return ToolResult{
		Content: []ToolContent{{Type: "text", Text: res.Text}},
		IsError: res.IsError,
	}
}

func writeResult(w *bufio.Writer, id interface{}, result interface{}) error {
	if id == nil {
		return nil
	}
	payload, err := json.Marshal(rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
	if err != nil {
		return err
	}
	return writeMessage(w, payload)
}

func writeError(w *bufio.Writer, id interface{}, code int, message string, data interface{}) error {
	if id == nil {
		return nil
	}
	payload, err := json.Marshal(rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message, Data: data}})
	if err != nil {
		return err
	}
	return writeMessage(w, payload)
}

func writeMessage(w *bufio.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return w.Flush()
}

// readMessage accepts Content-Length framed payloads and, for hand-driven
// sessions, bare JSON lines.
func readMessage(r *bufio.Reader) ([]byte, error) {
	length := 0
	for {
		line, err := r.ReadString('\n')
		if err != nil && len(line) == 0 {
			return nil, err
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			if length > 0 {
				break
			}
			continue
		}
		if length == 0 && strings.HasPrefix(trimmed, "{") {
			return []byte(trimmed), nil
		}
		if name, value, ok := strings.Cut(trimmed, ":"); ok && strings.EqualFold(strings.TrimSpace(name), "content-length") {
			n, parseErr := strconv.Atoi(strings.TrimSpace(value))
			if parseErr != nil {
				return nil, fmt.Errorf("bad Content-Length: %w", parseErr)
			}
			length = n
		}
	}
	if length <= 0 {
		return nil, fmt.Errorf("missing Content-Length")
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *Server) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Server) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Server) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
