package explorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-explorer/pkg/logging"
	"github.com/dd0wney/cluso-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-explorer/pkg/wire"
)

const (
	// initPath opens a session and returns its connection id.
	initPath = "/mcp/init"

	// toolCallPath applies one generic tool to a session's pipeline.
	toolCallPath = "/mcp/tool_call"

	// Search tools dispatch to dedicated endpoints, never through the
	// generic tool call.
	searchKeywordPath    = "/mcp/search_keyword"
	searchVectorPath     = "/mcp/search_vector"
	searchVectorTextPath = "/mcp/search_vector_text"

	// collectPath drains a session's accumulated items.
	collectPath = "/mcp/collect"

	// aggregatePath and groupByPath are the alternative terminal
	// reducers. A count is an aggregate with no properties.
	aggregatePath = "/mcp/aggregate_by"
	groupByPath   = "/mcp/group_by"
)

// Client speaks the gateway's session-oriented HTTP JSON protocol.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     logging.Logger
	metrics    *metrics.Registry
}

// NewClient builds a gateway client from the given config. A nil logger
// discards logs; a nil registry falls back to the process default.
func NewClient(cfg *Config, logger logging.Logger, reg *metrics.Registry) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}

	transport := http.DefaultTransport
	if !cfg.AllowProxy {
		transport = &http.Transport{Proxy: nil}
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		authToken: cfg.AuthToken,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		logger: logger.With(
			logging.Component("gateway-client"),
			logging.InstanceID(uuid.New().String())),
		metrics: reg,
	}
}

// InitSession opens a remote session and returns its connection id.
func (c *Client) InitSession(ctx context.Context) (string, error) {
	body, err := c.post(ctx, initPath, nil)
	if err != nil {
		c.metrics.RecordSession("error")
		return "", err
	}

	var id string
	if err := json.Unmarshal(body, &id); err != nil {
		c.metrics.RecordSession("error")
		return "", &SessionProtocolError{
			Reason: fmt.Sprintf("failed to parse connection_id from %q: %v", string(body), err),
			Body:   string(body),
			Err:    err,
		}
	}
	if id == "" {
		c.metrics.RecordSession("error")
		return "", &SessionProtocolError{
			Reason: "gateway returned an empty connection_id",
			Body:   string(body),
		}
	}

	c.metrics.RecordSession("ok")
	return id, nil
}

// CallTool applies one generic tool to the session's pipeline state and
// returns the raw response payload.
func (c *Client) CallTool(ctx context.Context, connID string, tool wire.Tool) (json.RawMessage, error) {
	start := time.Now()
	body, err := c.post(ctx, toolCallPath, toolCallRequest{
		ConnectionID: connID,
		Tool:         wire.Tag(tool),
	})
	if err != nil {
		c.metrics.RecordToolCall(tool.ToolName(), "error", time.Since(start))
		return nil, err
	}
	c.metrics.RecordToolCall(tool.ToolName(), "ok", time.Since(start))
	return json.RawMessage(body), nil
}

// Search dispatches a search tool to its dedicated endpoint and returns
// the raw response payload.
func (c *Client) Search(ctx context.Context, connID string, tool wire.Tool) (json.RawMessage, error) {
	path, err := searchPath(tool)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.post(ctx, path, searchRequest{
		ConnectionID: connID,
		Data:         tool,
	})
	if err != nil {
		c.metrics.RecordToolCall(tool.ToolName(), "error", time.Since(start))
		return nil, err
	}
	c.metrics.RecordToolCall(tool.ToolName(), "ok", time.Since(start))
	return json.RawMessage(body), nil
}

// Collect drains the session and returns its accumulated items,
// optionally sliced by rng. A nil range collects everything.
func (c *Client) Collect(ctx context.Context, connID string, rng *wire.Range) ([]any, error) {
	var items []any
	err := c.postJSON(ctx, collectPath, collectRequest{
		ConnectionID: connID,
		Range:        rng,
		Drop:         true,
	}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AggregateBy drains the session through the aggregate reducer. An
// empty property list yields the item count.
func (c *Client) AggregateBy(ctx context.Context, connID string, properties []string) (any, error) {
	if properties == nil {
		properties = []string{}
	}
	var out any
	err := c.postJSON(ctx, aggregatePath, propertiesRequest{
		ConnectionID: connID,
		Properties:   properties,
		Drop:         true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GroupBy drains the session through the group reducer.
func (c *Client) GroupBy(ctx context.Context, connID string, properties []string) (any, error) {
	if properties == nil {
		properties = []string{}
	}
	var out any
	err := c.postJSON(ctx, groupByPath, propertiesRequest{
		ConnectionID: connID,
		Properties:   properties,
		Drop:         true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RunNamedQuery calls the compiled-query endpoint for a saved query,
// posting the raw parameter object to {base}/{name}.
func (c *Client) RunNamedQuery(ctx context.Context, name string, params map[string]any) (any, error) {
	if params == nil {
		params = map[string]any{}
	}
	var out any
	if err := c.postJSON(ctx, "/"+name, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// post sends one JSON request and returns the raw response body. A nil
// payload sends no body. Non-success statuses and network failures
// surface as TransportError.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request for %s: %w", path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordHTTPRequest(path, "error", time.Since(start))
		return nil, &TransportError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordHTTPRequest(path, "error", time.Since(start))
		return nil, &TransportError{Endpoint: path, Err: err}
	}

	elapsed := time.Since(start)
	c.metrics.RecordHTTPRequest(path, strconv.Itoa(resp.StatusCode), elapsed)
	c.logger.Debug("gateway request",
		logging.Endpoint(path),
		logging.Status(resp.StatusCode),
		logging.Latency(elapsed))

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &TransportError{
			Endpoint: path,
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

// postJSON sends one JSON request and decodes the JSON response into
// out.
func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := c.post(ctx, path, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &SessionProtocolError{
			Reason: fmt.Sprintf("invalid JSON from %s: %v", path, err),
			Body:   string(body),
			Err:    err,
		}
	}
	return nil
}

// searchPath maps a search tool to its dedicated endpoint.
func searchPath(tool wire.Tool) (string, error) {
	switch tool.(type) {
	case wire.SearchKeyword:
		return searchKeywordPath, nil
	case wire.SearchVec:
		return searchVectorPath, nil
	case wire.SearchVecText:
		return searchVectorTextPath, nil
	}
	return "", fmt.Errorf("tool %s has no search endpoint", tool.ToolName())
}

type toolCallRequest struct {
	ConnectionID string      `json:"connection_id"`
	Tool         wire.Tagged `json:"tool"`
}

type searchRequest struct {
	ConnectionID string    `json:"connection_id"`
	Data         wire.Tool `json:"data"`
}

type collectRequest struct {
	ConnectionID string      `json:"connection_id"`
	Range        *wire.Range `json:"range"`
	Drop         bool        `json:"drop"`
}

type propertiesRequest struct {
	ConnectionID string   `json:"connection_id"`
	Properties   []string `json:"properties"`
	Drop         bool     `json:"drop"`
}
