package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quinnmay/mem0hook/internal/api/respond"
	"github.com/quinnmay/mem0hook/internal/model"
	"github.com/quinnmay/mem0hook/internal/services"
)

// WebhookHandler exposes the four inbound webhook shapes over HTTP.
type WebhookHandler struct {
	svc *services.WebhookService
	log zerolog.Logger
}

func NewWebhookHandler(svc *services.WebhookService, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, log: log}
}

// memoryResponse is the reply for the three single-request routes.
type memoryResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MemoryID  string `json:"memory_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// batchResponse aggregates per-index outcomes for the batch route.
type batchResponse struct {
	Success   bool                      `json:"success"`
	Created   int                       `json:"created"`
	Failed    int                       `json:"failed"`
	Results   []services.ForwardOutcome `json:"results"`
	Errors    []model.ItemFailure       `json:"errors,omitempty"`
	RequestID string                    `json:"request_id"`
	Timestamp string                    `json:"timestamp"`
}

// CreateMemory POST /webhook/memory
func (h *WebhookHandler) CreateMemory(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		h.writeFailure(w, reqID, fmt.Errorf("%w: body must be a JSON object", model.ErrMalformedPayload))
		return
	}

	out, err := h.svc.Single(r.Context(), body)
	if err != nil {
		h.writeFailure(w, reqID, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, memoryResponse{
		Success:   true,
		Message:   "Memory created successfully",
		MemoryID:  out.MemoryID,
		UserID:    out.UserID,
		RequestID: reqID,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// CreateMemoriesBatch POST /webhook/memories/batch
func (h *WebhookHandler) CreateMemoriesBatch(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	var body struct {
		Memories *[]map[string]interface{} `json:"memories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Memories == nil {
		h.writeFailure(w, reqID, fmt.Errorf("%w: body must be a JSON object with a memories array", model.ErrMalformedPayload))
		return
	}

	out := h.svc.Batch(r.Context(), *body.Memories)

	resp := batchResponse{
		Success:   len(out.Errors) == 0,
		Created:   out.Created,
		Failed:    len(out.Errors),
		Results:   out.Results,
		Errors:    out.Errors,
		RequestID: reqID,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if resp.Results == nil {
		resp.Results = []services.ForwardOutcome{}
	}
	respond.WriteJSON(w, http.StatusOK, resp)
}

// CreateZapierMemory POST /webhook/zapier
func (h *WebhookHandler) CreateZapierMemory(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		h.writeFailure(w, reqID, fmt.Errorf("%w: body must be a JSON object", model.ErrMalformedPayload))
		return
	}

	out, err := h.svc.Zapier(r.Context(), body)
	if err != nil {
		h.writeFailure(w, reqID, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, memoryResponse{
		Success:   true,
		Message:   "Memory created via Zapier",
		MemoryID:  out.MemoryID,
		UserID:    out.UserID,
		RequestID: reqID,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// CreateGenericMemory POST /webhook/generic
func (h *WebhookHandler) CreateGenericMemory(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	var body interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeFailure(w, reqID, fmt.Errorf("%w: body must be valid JSON", model.ErrMalformedPayload))
		return
	}

	out, err := h.svc.Generic(r.Context(), body)
	if err != nil {
		h.writeFailure(w, reqID, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, memoryResponse{
		Success:   true,
		Message:   "Data stored as memory",
		MemoryID:  out.MemoryID,
		UserID:    out.UserID,
		RequestID: reqID,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// writeFailure maps service errors onto HTTP status codes: rejected payloads
// are client errors, upstream failures surface as 502.
func (h *WebhookHandler) writeFailure(w http.ResponseWriter, reqID string, err error) {
	h.log.Warn().Err(err).Str("request_id", reqID).Msg("webhook request failed")
	switch {
	case errors.Is(err, model.ErrMissingContent), errors.Is(err, model.ErrMalformedPayload):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrUpstream):
		respond.WriteBadGateway(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
