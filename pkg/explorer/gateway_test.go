package explorer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/metrics"
)

// gatewayCall is one request the fake gateway received.
type gatewayCall struct {
	Path       string
	ConnID     string
	ToolName   string
	Payload    map[string]any
	AuthHeader string
}

// fakeGateway emulates the remote session API for tests: it hands out
// sequential connection ids, acknowledges tool calls, and serves
// configured collect/aggregate/group responses while recording every
// request it sees.
type fakeGateway struct {
	mu sync.Mutex

	calls       []gatewayCall
	nextSession int

	// collectResponses are popped one per collect call; when exhausted,
	// collects return an empty array.
	collectResponses [][]any
	aggregateResult  any
	groupResult      any

	// initBody overrides the init response verbatim when non-empty.
	initBody string

	// failStatus makes every request fail; failAfter makes requests
	// fail once that many have succeeded.
	failStatus int
	failBody   string
	failAfter  int

	// fastPaths maps saved query names to compiled-endpoint responses.
	fastPaths map[string]any
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	var payload map[string]any
	if len(body) > 0 {
		_ = json.Unmarshal(body, &payload)
	}

	call := gatewayCall{
		Path:       r.URL.Path,
		Payload:    payload,
		AuthHeader: r.Header.Get("Authorization"),
	}
	if id, ok := payload["connection_id"].(string); ok {
		call.ConnID = id
	}
	if tool, ok := payload["tool"].(map[string]any); ok {
		call.ToolName, _ = tool["tool_name"].(string)
	}
	g.calls = append(g.calls, call)

	if g.failStatus != 0 || (g.failAfter > 0 && len(g.calls) > g.failAfter) {
		status := g.failStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		w.WriteHeader(status)
		fmt.Fprint(w, g.failBody)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/mcp/init":
		if g.initBody != "" {
			fmt.Fprint(w, g.initBody)
			return
		}
		g.nextSession++
		json.NewEncoder(w).Encode(fmt.Sprintf("sess-%d", g.nextSession))

	case "/mcp/tool_call", "/mcp/search_keyword", "/mcp/search_vector", "/mcp/search_vector_text":
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})

	case "/mcp/collect":
		items := []any{}
		if len(g.collectResponses) > 0 {
			items = g.collectResponses[0]
			g.collectResponses = g.collectResponses[1:]
		}
		json.NewEncoder(w).Encode(items)

	case "/mcp/aggregate_by":
		json.NewEncoder(w).Encode(g.aggregateResult)

	case "/mcp/group_by":
		json.NewEncoder(w).Encode(g.groupResult)

	default:
		name := strings.TrimPrefix(r.URL.Path, "/")
		if result, ok := g.fastPaths[name]; ok {
			json.NewEncoder(w).Encode(result)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"unknown endpoint"}`)
	}
}

func (g *fakeGateway) recorded() []gatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]gatewayCall, len(g.calls))
	copy(out, g.calls)
	return out
}

func (g *fakeGateway) paths() []string {
	calls := g.recorded()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Path
	}
	return out
}

func (g *fakeGateway) toolNames() []string {
	var out []string
	for _, c := range g.recorded() {
		if c.ToolName != "" {
			out = append(out, c.ToolName)
		}
	}
	return out
}

func (g *fakeGateway) initCount() int {
	n := 0
	for _, c := range g.recorded() {
		if c.Path == "/mcp/init" {
			n++
		}
	}
	return n
}

func (g *fakeGateway) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = nil
}

func newTestGateway(t *testing.T) (*fakeGateway, *Config) {
	t.Helper()
	gateway := &fakeGateway{}
	server := httptest.NewServer(gateway)
	t.Cleanup(server.Close)
	return gateway, &Config{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}
}

func newTestClient(t *testing.T) (*fakeGateway, *Client) {
	t.Helper()
	gateway, cfg := newTestGateway(t)
	return gateway, NewClient(cfg, logging.NewNopLogger(), metrics.NewRegistry())
}

func newTestExecutor(t *testing.T) (*fakeGateway, *Executor) {
	t.Helper()
	gateway, client := newTestClient(t)
	return gateway, NewExecutor(client, logging.NewNopLogger(), metrics.NewRegistry())
}

func newTestEngine(t *testing.T) (*fakeGateway, *Engine) {
	t.Helper()
	gateway, cfg := newTestGateway(t)
	engine, err := NewEngine(cfg, logging.NewNopLogger(), metrics.NewRegistry())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return gateway, engine
}
