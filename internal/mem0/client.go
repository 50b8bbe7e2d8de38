// Package mem0 is the HTTP client for the upstream Mem0 memory API.
package mem0

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/quinnmay/mem0hook/internal/model"
)

// Store is the collaborator contract the webhook service forwards to.
// It accepts one canonical request at a time.
type Store interface {
	Add(ctx context.Context, req *model.MemoryRequest) (*AddResult, error)
	Ping(ctx context.Context) error
}

// AddResult reports the outcome of storing one memory.
type AddResult struct {
	MemoryID string `json:"memory_id,omitempty"`
	UserID   string `json:"user_id"`
}

// Client talks to the Mem0 v1 REST API.
type Client struct {
	http *resty.Client
	now  func() time.Time
}

// Option tweaks client construction; used by tests to freeze the clock.
type Option func(*Client)

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Client for the given base URL and API key. timeout bounds
// every upstream call; a timeout surfaces as a forwarding failure.
func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	hc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Token "+apiKey).
		SetTimeout(timeout)

	c := &Client{http: hc, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type addRequest struct {
	Messages     []message              `json:"messages"`
	UserID       string                 `json:"user_id"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	OutputFormat string                 `json:"output_format"`
}

type searchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

// Add stores one canonical request upstream. The request metadata is merged
// over the standard enrichment fields, so caller keys always win.
func (c *Client) Add(ctx context.Context, req *model.MemoryRequest) (*AddResult, error) {
	body := addRequest{
		Messages:     []message{{Role: "user", Content: req.Content}},
		UserID:       req.UserID,
		Metadata:     c.enrich(req),
		OutputFormat: "v1.1",
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&body).
		Post("/v1/memories/")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstream, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: mem0 status %d: %s", model.ErrUpstream, resp.StatusCode(), resp.String())
	}

	return &AddResult{MemoryID: extractMemoryID(resp.Body()), UserID: req.UserID}, nil
}

// Ping verifies the upstream connection with a minimal search, mirroring
// what the service health probe needs.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&searchRequest{Query: "ping", UserID: "health", Limit: 1}).
		Post("/v1/memories/search/")
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrUpstream, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("%w: mem0 status %d", model.ErrUpstream, resp.StatusCode())
	}
	return nil
}

// originDefaults is the provenance block each inbound shape stamps on its
// upstream metadata, including the category used when the payload has none.
type originDefaults struct {
	client      string
	projectType string
	source      string
	category    string
}

var originMeta = map[string]originDefaults{
	model.OriginWebhook: {client: "webhook", projectType: "webhook_post", source: "webhook", category: "webhook"},
	model.OriginZapier:  {client: "zapier", projectType: "automation", source: "zapier_webhook", category: "zapier"},
	model.OriginGeneric: {client: "generic", projectType: "webhook", source: "generic_webhook", category: "generic_webhook"},
}

// enrich builds the full metadata object sent upstream: per-origin
// provenance and timestamps first, then the caller's own metadata on top so
// caller keys always win.
func (c *Client) enrich(req *model.MemoryRequest) map[string]interface{} {
	now := c.now()
	prov, ok := originMeta[req.Origin]
	if !ok {
		prov = originMeta[model.OriginWebhook]
	}
	category := req.Category
	if category == "" {
		category = prov.category
	}
	md := map[string]interface{}{
		"category":         category,
		"day":              now.Format("2006-01-02"),
		"month":            now.Format("2006-01"),
		"year":             now.Format("2006"),
		"client":           prov.client,
		"project_type":     prov.projectType,
		"device":           "webhook_api",
		"source":           prov.source,
		"timestamp":        now.Format(time.RFC3339),
		"webhook_received": now.Format(time.RFC3339),
	}
	for k, v := range req.Metadata {
		md[k] = v
	}
	return md
}

// extractMemoryID pulls the stored memory id out of the Mem0 response, which
// varies between a single object, an object with a results array, and a bare
// array depending on output format.
func extractMemoryID(body []byte) string {
	var obj struct {
		ID      string `json:"id"`
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		if obj.ID != "" {
			return obj.ID
		}
		if len(obj.Results) > 0 {
			return obj.Results[0].ID
		}
	}
	var arr []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &arr); err == nil && len(arr) > 0 {
		return arr[0].ID
	}
	return ""
}

