package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kmorand/attache/internal/errors"
)

// Client talks to the external temporal-graph service. The graph is
// authoritative upstream; this client only moves its wire shapes into the
// local Node/Link model.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a graph service client. A zero timeout disables
// transport timeouts.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// wireNode is the service's native node shape. The id may arrive as either
// an entity name or a uuid depending on what the upstream resolved.
type wireNode struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	UUID    string `json:"uuid"`
	Group   string `json:"group"`
	Summary string `json:"summary"`
}

// wireLink is the service's native edge shape.
type wireLink struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Value     string `json:"value"`
	CreatedAt string `json:"created_at"`
	ValidAt   string `json:"valid_at"`
}

type graphDataResponse struct {
	Success bool       `json:"success"`
	Error   string     `json:"error"`
	Nodes   []wireNode `json:"nodes"`
	Links   []wireLink `json:"links"`
}

type episodeResponse struct {
	Success       bool   `json:"success"`
	EntitiesCount int    `json:"entities_count"`
	EdgesCount    int    `json:"edges_count"`
	Error         string `json:"error"`
}

type writeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type healthResponse struct {
	Status      string `json:"status"`
	Initialized bool   `json:"initialized"`
}

// FetchGraph reads the full graph and maps it into the local shape.
// Layout coordinates are NOT populated here; the cache merges them in.
func (c *Client) FetchGraph(ctx context.Context) (*GraphData, error) {
	var resp graphDataResponse
	if err := c.getJSON(ctx, "/graph-data", &resp); err != nil {
		return nil, errors.NewGraphReadFailed(err)
	}
	if !resp.Success {
		return nil, errors.NewGraphReadFailed(fmt.Errorf("graph service: %s", orUnknown(resp.Error)))
	}

	data := &GraphData{
		Nodes: make([]Node, 0, len(resp.Nodes)),
		Links: make([]Link, 0, len(resp.Links)),
	}
	for _, n := range resp.Nodes {
		id := n.ID
		if id == "" {
			id = n.Name
		}
		if id == "" {
			id = n.UUID
		}
		if id == "" {
			continue
		}
		group := n.Group
		if group == "" {
			group = "entity"
		}
		data.Nodes = append(data.Nodes, Node{
			ID:      id,
			UUID:    n.UUID,
			Group:   group,
			Summary: n.Summary,
		})
	}
	for _, l := range resp.Links {
		if l.Source == "" || l.Target == "" {
			continue
		}
		value := l.Value
		if value == "" {
			value = "relates to"
		}
		data.Links = append(data.Links, Link{
			Source:    l.Source,
			Target:    l.Target,
			Value:     value,
			CreatedAt: l.CreatedAt,
			ValidAt:   l.ValidAt,
		})
	}

	return data, nil
}

// AddEpisode submits one unit of content for entity/relationship extraction.
func (c *Client) AddEpisode(ctx context.Context, content, source, episodeType string) (*episodeResponse, error) {
	body := map[string]string{
		"content":      content,
		"source":       source,
		"episode_type": episodeType,
	}
	var resp episodeResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/episode", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddConversation submits a full conversation for ingestion.
func (c *Client) AddConversation(ctx context.Context, messages []Message, sessionID string) (*writeResponse, error) {
	body := map[string]any{
		"messages":   messages,
		"session_id": sessionID,
	}
	var resp writeResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/conversation", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearGraph issues the destructive clear.
func (c *Client) ClearGraph(ctx context.Context) error {
	var resp writeResponse
	if err := c.sendJSON(ctx, http.MethodDelete, "/graph-clear", nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("graph service: %s", orUnknown(resp.Error))
	}
	return nil
}

// Health reads the service's health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var resp healthResponse
	if err := c.getJSON(ctx, "/graph-health", &resp); err != nil {
		return nil, err
	}
	return &HealthStatus{Status: resp.Status, Initialized: resp.Initialized}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.sendJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func orUnknown(msg string) string {
	if msg == "" {
		return "unknown error"
	}
	return msg
}
