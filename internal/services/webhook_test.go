package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quinnmay/mem0hook/internal/mem0"
	"github.com/quinnmay/mem0hook/internal/model"
	"github.com/quinnmay/mem0hook/internal/normalize"
)

type fakeStore struct {
	calls   []*model.MemoryRequest
	failOn  map[string]bool // content values that should fail
	pingErr error
}

func (f *fakeStore) Add(ctx context.Context, req *model.MemoryRequest) (*mem0.AddResult, error) {
	f.calls = append(f.calls, req)
	if f.failOn[req.Content] {
		return nil, model.ErrUpstream
	}
	return &mem0.AddResult{MemoryID: "mem-" + req.Content, UserID: req.UserID}, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func newTestService(st *fakeStore) *WebhookService {
	return NewWebhookService(normalize.New("quinn_may"), st, zerolog.Nop())
}

func TestSingle_ForwardsOnce(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st)

	out, err := svc.Single(context.Background(), map[string]interface{}{"content": "hello"})
	if err != nil {
		t.Fatalf("single: %v", err)
	}
	if len(st.calls) != 1 {
		t.Fatalf("expected 1 upstream call, got %d", len(st.calls))
	}
	if out.MemoryID != "mem-hello" || out.UserID != "quinn_may" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestSingle_RejectedBeforeForward(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st)

	_, err := svc.Single(context.Background(), map[string]interface{}{})
	if !errors.Is(err, model.ErrMissingContent) {
		t.Fatalf("expected ErrMissingContent, got %v", err)
	}
	if len(st.calls) != 0 {
		t.Fatalf("rejected request must never reach upstream, got %d calls", len(st.calls))
	}
}

func TestBatch_PartialFailureCorrelation(t *testing.T) {
	st := &fakeStore{failOn: map[string]bool{"b": true}}
	svc := newTestService(st)

	items := []map[string]interface{}{
		{"content": "a"},
		{"content": "b"}, // upstream failure
		{},               // normalization failure
		{"content": "d"},
	}
	out := svc.Batch(context.Background(), items)

	if out.Created != 2 || len(out.Results) != 2 {
		t.Fatalf("expected 2 created, got %d", out.Created)
	}
	if len(out.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %+v", out.Errors)
	}
	failed := map[int]bool{}
	for _, e := range out.Errors {
		failed[e.Index] = true
	}
	if !failed[1] || !failed[2] {
		t.Fatalf("failures not correlated to input indices: %+v", out.Errors)
	}
	// Normalization failures never reach upstream; upstream saw a, b, d.
	if len(st.calls) != 3 {
		t.Fatalf("expected 3 upstream calls, got %d", len(st.calls))
	}
	if out.Results[0].Content != "a" || out.Results[1].Content != "d" {
		t.Fatalf("result order not preserved: %+v", out.Results)
	}
}

func TestBatch_Empty(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st)

	out := svc.Batch(context.Background(), nil)
	if out.Created != 0 || len(out.Results) != 0 || len(out.Errors) != 0 {
		t.Fatalf("empty batch should be a no-op: %+v", out)
	}
	if len(st.calls) != 0 {
		t.Fatalf("empty batch must not call upstream")
	}
}

func TestGeneric_AlwaysForwards(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st)

	for _, body := range []interface{}{map[string]interface{}{}, []interface{}{}, "bare", nil} {
		if _, err := svc.Generic(context.Background(), body); err != nil {
			t.Fatalf("generic must not fail normalization: %v", err)
		}
	}
	if len(st.calls) != 4 {
		t.Fatalf("expected 4 upstream calls, got %d", len(st.calls))
	}
}

func TestZapier_ForwardsNormalized(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(st)

	out, err := svc.Zapier(context.Background(), map[string]interface{}{"message": "hi", "email": "a@b.com"})
	if err != nil {
		t.Fatalf("zapier: %v", err)
	}
	if out.UserID != "a@b.com" || out.Content != "hi" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}
