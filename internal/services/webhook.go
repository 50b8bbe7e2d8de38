// Package services orchestrates webhook use cases: normalize the inbound
// body, forward canonical requests to the memory store, aggregate outcomes.
package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/quinnmay/mem0hook/internal/mem0"
	"github.com/quinnmay/mem0hook/internal/model"
	"github.com/quinnmay/mem0hook/internal/normalize"
)

// ForwardOutcome is the per-request result of a forward attempt.
type ForwardOutcome struct {
	Success  bool                   `json:"success"`
	MemoryID string                 `json:"memory_id,omitempty"`
	UserID   string                 `json:"user_id"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// BatchOutcome aggregates a batch: Results in input order for the elements
// that were forwarded, Errors for every index that failed normalization or
// forwarding. Success/failure indices always partition the input.
type BatchOutcome struct {
	Created int
	Results []ForwardOutcome
	Errors  []model.ItemFailure
}

// WebhookService glues the normalizer to the memory store.
type WebhookService struct {
	norm  *normalize.Normalizer
	store mem0.Store
	log   zerolog.Logger
}

func NewWebhookService(norm *normalize.Normalizer, store mem0.Store, log zerolog.Logger) *WebhookService {
	return &WebhookService{norm: norm, store: store, log: log}
}

// Single normalizes one strict-shape body and forwards it.
func (s *WebhookService) Single(ctx context.Context, body map[string]interface{}) (*ForwardOutcome, error) {
	req, err := s.norm.Single(body)
	if err != nil {
		return nil, err
	}
	return s.forward(ctx, req)
}

// Zapier normalizes a Zapier-convention body and forwards it.
func (s *WebhookService) Zapier(ctx context.Context, body map[string]interface{}) (*ForwardOutcome, error) {
	req, err := s.norm.Zapier(body)
	if err != nil {
		return nil, err
	}
	return s.forward(ctx, req)
}

// Generic normalizes any JSON value and forwards it. Normalization cannot
// fail on this path; only the upstream call can.
func (s *WebhookService) Generic(ctx context.Context, body interface{}) (*ForwardOutcome, error) {
	return s.forward(ctx, s.norm.Generic(body))
}

// Batch normalizes each element, forwards the well-formed ones in input
// order, and correlates every failure back to its input index. A failure on
// one element never aborts its siblings.
func (s *WebhookService) Batch(ctx context.Context, items []map[string]interface{}) BatchOutcome {
	res := s.norm.Batch(items)

	out := BatchOutcome{Errors: res.Failures}
	for i, req := range res.Requests {
		idx := res.Indices[i]
		fo, err := s.forward(ctx, req)
		if err != nil {
			s.log.Warn().Err(err).Int("index", idx).Msg("batch element forward failed")
			out.Errors = append(out.Errors, model.ItemFailure{Index: idx, Reason: err.Error()})
			continue
		}
		out.Created++
		out.Results = append(out.Results, *fo)
	}
	return out
}

func (s *WebhookService) forward(ctx context.Context, req *model.MemoryRequest) (*ForwardOutcome, error) {
	res, err := s.store.Add(ctx, req)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", req.UserID).Msg("memory store call failed")
		return nil, err
	}
	s.log.Info().
		Str("user_id", req.UserID).
		Str("memory_id", res.MemoryID).
		Msg("memory created")
	return &ForwardOutcome{
		Success:  true,
		MemoryID: res.MemoryID,
		UserID:   req.UserID,
		Content:  req.Content,
		Metadata: req.Metadata,
	}, nil
}
