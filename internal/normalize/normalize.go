// Package normalize maps the four accepted inbound webhook shapes onto the
// canonical memory-creation request. Normalization is pure: no I/O, no
// shared state, safe under arbitrary parallel invocation.
package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/quinnmay/mem0hook/internal/model"
)

// Candidate key lists per canonical field, tried in order; the first present
// non-empty string wins. Kept as data so every alias an integration may send
// is visible in one place.
var (
	contentKeys  = []string{"content", "message", "text"}
	userKeys     = []string{"user_id", "userId", "user", "name", "email"}
	categoryKeys = []string{"category"}
)

// Normalizer converts decoded JSON bodies into model.MemoryRequest values.
// The default user id is threaded in at construction, never read from the
// environment during extraction.
type Normalizer struct {
	defaultUserID string
}

func New(defaultUserID string) *Normalizer {
	return &Normalizer{defaultUserID: defaultUserID}
}

// Single extracts the strict webhook shape: content required, user_id and
// category optional. Every key beyond the three recognized ones is carried
// into Metadata so nothing the sender included is dropped.
func (n *Normalizer) Single(body map[string]interface{}) (*model.MemoryRequest, error) {
	content, _ := stringField(body, "content")
	if content == "" {
		return nil, errors.WithStack(model.ErrMissingContent)
	}

	req := &model.MemoryRequest{
		Content:  content,
		UserID:   n.defaultUserID,
		Metadata: map[string]interface{}{},
		Origin:   model.OriginWebhook,
	}
	// Recognized keys holding non-string values cannot feed a canonical
	// field, so they survive in Metadata instead of being dropped.
	if v, ok := body["user_id"]; ok {
		if s, isStr := v.(string); isStr {
			if s != "" {
				req.UserID = s
			}
		} else {
			req.Metadata["user_id"] = v
		}
	}
	if v, ok := body["category"]; ok {
		if s, isStr := v.(string); isStr {
			req.Category = s
		} else {
			req.Metadata["category"] = v
		}
	}
	for k, v := range body {
		switch k {
		case "content", "user_id", "category":
			continue
		}
		// Sender-supplied metadata objects merge rather than nest.
		if k == "metadata" {
			if m, ok := v.(map[string]interface{}); ok {
				for mk, mv := range m {
					req.Metadata[mk] = mv
				}
				continue
			}
		}
		req.Metadata[k] = v
	}
	return req, nil
}

// Batch applies Single extraction to each element. Malformed elements are
// recorded against their index and never abort their siblings; an empty
// input yields an empty result. The success and failure index sets always
// partition {0..N-1}.
func (n *Normalizer) Batch(items []map[string]interface{}) model.BatchResult {
	var out model.BatchResult
	for i, item := range items {
		req, err := n.Single(item)
		if err != nil {
			out.Failures = append(out.Failures, model.ItemFailure{Index: i, Reason: err.Error()})
			continue
		}
		out.Requests = append(out.Requests, req)
		out.Indices = append(out.Indices, i)
	}
	return out
}

// Zapier extracts Zapier's flattened webhook convention, where canonical
// fields may arrive under alternate names. Candidate keys are tried in
// order; required/optional rules are the same as Single.
func (n *Normalizer) Zapier(body map[string]interface{}) (*model.MemoryRequest, error) {
	content, contentKey := firstMatch(body, contentKeys)
	if content == "" {
		return nil, errors.WithStack(model.ErrMissingContent)
	}

	req := &model.MemoryRequest{
		Content:  content,
		UserID:   n.defaultUserID,
		Metadata: map[string]interface{}{},
		Origin:   model.OriginZapier,
	}
	consumed := map[string]bool{contentKey: true}
	if v, k := firstMatch(body, userKeys); v != "" {
		req.UserID = v
		consumed[k] = true
	}
	if v, k := firstMatch(body, categoryKeys); v != "" {
		req.Category = v
		consumed[k] = true
	}

	// Unconsumed aliases stay visible in metadata; only the keys that fed a
	// canonical field are dropped.
	for k, v := range body {
		if !consumed[k] {
			req.Metadata[k] = v
		}
	}
	return req, nil
}

// Generic accepts any decoded JSON value and always produces exactly one
// request. When the body is an object with a content-resembling field that
// field is used; otherwise content is synthesized from a compact rendering
// of the whole body. The raw body is preserved under Metadata so no
// information is lost.
func (n *Normalizer) Generic(body interface{}) *model.MemoryRequest {
	req := &model.MemoryRequest{
		UserID:   n.defaultUserID,
		Metadata: map[string]interface{}{"raw_payload": body},
		Origin:   model.OriginGeneric,
	}

	if obj, ok := body.(map[string]interface{}); ok {
		req.Content, _ = firstMatch(obj, contentKeys)
		if v, _ := firstMatch(obj, userKeys); v != "" {
			req.UserID = v
		}
	}
	if req.Content == "" {
		req.Content = fmt.Sprintf("Webhook data received: %s", renderBody(body))
	}
	return req
}

// renderBody produces a stable textual form of an arbitrary decoded value.
func renderBody(body interface{}) string {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Sprintf("%v", body)
	}
	return string(b)
}

// firstMatch returns the first candidate key present with a non-empty string
// value, along with the key that matched.
func firstMatch(body map[string]interface{}, keys []string) (string, string) {
	for _, k := range keys {
		if v, ok := stringField(body, k); ok && v != "" {
			return v, k
		}
	}
	return "", ""
}

// stringField reports whether key holds a string and returns it.
func stringField(body map[string]interface{}, key string) (string, bool) {
	v, ok := body[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
