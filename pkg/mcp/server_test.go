package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cagefs/cagefs/pkg/sandbox"
	"github.com/cagefs/cagefs/pkg/tool"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	policy, err := sandbox.NewPolicy(filepath.Join(t.TempDir(), "box"), 1024, []string{".txt"}, false)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	return NewServer(tool.NewRegistry(policy), ServerInfo{Name: "cagefs", Version: "test", Description: "sandboxed filesystem"})
}

// run feeds raw JSON lines to Serve and decodes the framed responses.
func run(t *testing.T, s *Server, requests ...string) []rpcResponse {
	t.Helper()
	input := strings.Join(requests, "\n") + "\n"
	var output bytes.Buffer
	if err := s.Serve(strings.NewReader(input), &output); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	var responses []rpcResponse
	reader := bufio.NewReader(&output)
	for {
		payload, err := readMessage(reader)
		if err == io.EOF {
			return responses
		}
		if err != nil {
			t.Fatalf("read response: %v", err)
		}
		var resp rpcResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		responses = append(responses, resp)
	}
}

func resultMap(t *testing.T, resp rpcResponse) map[string]any {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", resp.Error)
	}
	m, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("expected object result, got %T", resp.Result)
	}
	return m
}

func resultText(t *testing.T, resp rpcResponse) (string, bool) {
	t.Helper()
	m := resultMap(t, resp)
	content, _ := m["content"].([]any)
	if len(content) == 0 {
		t.Fatalf("expected content segments, got %v", m)
	}
	segment, _ := content[0].(map[string]any)
	text, _ := segment["text"].(string)
	isError, _ := m["isError"].(bool)
	return text, isError
}

func TestInitialize(t *testing.T) {
	s := newTestServer(t)
	responses := run(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	m := resultMap(t, responses[0])
	if m["protocolVersion"] != protocolVersion {
		t.Fatalf("unexpected protocol version %v", m["protocolVersion"])
	}
	info, _ := m["serverInfo"].(map[string]any)
	if info["name"] != "cagefs" || info["version"] != "test" {
		t.Fatalf("unexpected serverInfo %v", info)
	}
}

func TestToolsListOrder(t *testing.T) {
	s := newTestServer(t)
	responses := run(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	m := resultMap(t, responses[0])
	tools, _ := m["tools"].([]any)
	want := []string{"list", "read", "write", "mkdir", "delete"}
	if len(tools) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(tools))
	}
	for i, raw := range tools {
		entry, _ := raw.(map[string]any)
		if entry["name"] != want[i] {
			t.Fatalf("expected %s at position %d, got %v", want[i], i, entry["name"])
		}
		if entry["inputSchema"] == nil {
			t.Fatalf("expected input schema for %s", want[i])
		}
	}
}

func TestToolsCallRoundTrip(t *testing.T) {
	s := newTestServer(t)
	responses := run(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"write","arguments":{"path":"a/b.txt","content":"hello"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"read","arguments":{"path":"a/b.txt"}}}`,
	)
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if text, isError := resultText(t, responses[0]); isError || !strings.Contains(text, "a/b.txt") {
		t.Fatalf("unexpected write result %q %v", text, isError)
	}
	if text, isError := resultText(t, responses[1]); isError || text != "hello" {
		t.Fatalf("unexpected read result %q %v", text, isError)
	}
}

func TestToolsCallUnknownToolIsNotAFault(t *testing.T) {
	s := newTestServer(t)
	responses := run(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"chmod","arguments":{"path":"x"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"list","arguments":{"path":"."}}}`,
	)
	text, isError := resultText(t, responses[0])
	if !isError || !strings.Contains(text, "Unknown tool: chmod") {
		t.Fatalf("expected unknown-tool result, got %q", text)
	}
	// The server keeps answering after the miss.
	if _, isError := resultText(t, responses[1]); isError {
		t.Fatal("expected follow-up call to succeed")
	}
}

func TestToolsCallMissingArgumentIsInvalidParams(t *testing.T) {
	s := newTestServer(t)
	responses := run(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"write","arguments":{"path":"a.txt"}}}`,
	)
	if responses[0].Error == nil || responses[0].Error.Code != -32602 {
		t.Fatalf("expected -32602, got %+v", responses[0].Error)
	}
}

func TestEscapeReportedAsResult(t *testing.T) {
	s := newTestServer(t)
	responses := run(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"read","arguments":{"path":"../../etc/passwd"}}}`,
	)
	text, isError := resultText(t, responses[0])
	if !isError || !strings.Contains(text, "outside the sandbox") {
		t.Fatalf("expected escape rejection, got %q", text)
	}
}

func TestUnknownMethodAndNotifications(t *testing.T) {
	s := newTestServer(t)
	responses := run(t, s,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":1,"method":"bogus/method"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	)
	// The notification gets no response.
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if responses[0].Error == nil || responses[0].Error.Code != -32601 {
		t.Fatalf("expected method-not-found, got %+v", responses[0].Error)
	}
	if responses[1].Error != nil {
		t.Fatalf("expected ping to succeed, got %+v", responses[1].Error)
	}
}

func TestFramedRequest(t *testing.T) {
	s := newTestServer(t)
	body := `{"jsonrpc":"2.0","id":1,"method":"ping"}`
	var input bytes.Buffer
	fmt.Fprintf(&input, "Content-Length: %d\r\n\r\n%s", len(body), body)

	var output bytes.Buffer
	if err := s.Serve(&input, &output); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if !strings.Contains(output.String(), `"id":1`) {
		t.Fatalf("expected framed response, got %q", output.String())
	}
}
