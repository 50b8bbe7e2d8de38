package model

// Origin values identify which inbound shape produced a request. They drive
// the client/project_type/source provenance metadata sent upstream.
const (
	OriginWebhook = "webhook"
	OriginZapier  = "zapier"
	OriginGeneric = "generic"
)

// MemoryRequest is the canonical memory-creation shape every inbound webhook
// variant converges to. It is exactly the input contract of the Mem0 store.
type MemoryRequest struct {
	Content  string                 `json:"content"`
	UserID   string                 `json:"user_id"`
	Category string                 `json:"category,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Origin   string                 `json:"-"`
}

// ItemFailure records why one element of a batch payload was rejected.
type ItemFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// BatchResult is the outcome of normalizing a batch payload. Requests holds
// the well-formed elements in input order; Failures lists rejected input
// indices with reasons. Indices carries the original array position of each
// element in Requests so forwarding outcomes can be correlated back to the
// input regardless of how many siblings were rejected.
type BatchResult struct {
	Requests []*MemoryRequest
	Indices  []int
	Failures []ItemFailure
}
