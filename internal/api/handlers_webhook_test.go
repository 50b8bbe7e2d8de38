package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quinnmay/mem0hook/internal/health"
	"github.com/quinnmay/mem0hook/internal/mem0"
	"github.com/quinnmay/mem0hook/internal/model"
	"github.com/quinnmay/mem0hook/internal/normalize"
	"github.com/quinnmay/mem0hook/internal/services"
)

type fakeStore struct {
	added   []*model.MemoryRequest
	failAll bool
}

func (f *fakeStore) Add(ctx context.Context, req *model.MemoryRequest) (*mem0.AddResult, error) {
	if f.failAll {
		return nil, model.ErrUpstream
	}
	f.added = append(f.added, req)
	return &mem0.AddResult{MemoryID: "mem-1", UserID: req.UserID}, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func newTestServer(t *testing.T, st *fakeStore, secret string) *httptest.Server {
	t.Helper()
	log := zerolog.Nop()
	svc := services.NewWebhookService(normalize.New("quinn_may"), st, log)
	checker := health.NewStoreHealthChecker(st, log, time.Second)
	srv := httptest.NewServer(NewRouter(svc, checker, secret, log))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestWebhookMemory_Success(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(t, st, "")

	resp, out := postJSON(t, srv.URL+"/webhook/memory",
		`{"content":"Testing webhook deployment","user_id":"quinn_may","category":"test"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "mem-1", out["memory_id"])
	assert.Equal(t, "quinn_may", out["user_id"])
	assert.NotEmpty(t, out["request_id"])

	require.Len(t, st.added, 1)
	assert.Equal(t, "Testing webhook deployment", st.added[0].Content)
	assert.Equal(t, "test", st.added[0].Category)
	assert.Empty(t, st.added[0].Metadata)
}

func TestWebhookMemory_MissingContent(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(t, st, "")

	resp, _ := postJSON(t, srv.URL+"/webhook/memory", `{"user_id":"quinn_may"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, st.added, "rejected payload must not be forwarded")
}

func TestWebhookMemory_MalformedJSON(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, "")

	resp, out := postJSON(t, srv.URL+"/webhook/memory", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["message"], "malformed payload")
}

func TestWebhookMemory_UpstreamFailure(t *testing.T) {
	srv := newTestServer(t, &fakeStore{failAll: true}, "")

	resp, _ := postJSON(t, srv.URL+"/webhook/memory", `{"content":"x"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestWebhookBatch_PartialFailure(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(t, st, "")

	resp, out := postJSON(t, srv.URL+"/webhook/memories/batch",
		`{"memories":[{"content":"a"},{},{"content":"c"}]}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, out["success"])
	assert.EqualValues(t, 2, out["created"])
	assert.EqualValues(t, 1, out["failed"])

	errs, ok := out["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, errs, 1)
	first := errs[0].(map[string]interface{})
	assert.EqualValues(t, 1, first["index"])
}

func TestWebhookBatch_Empty(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, "")

	resp, out := postJSON(t, srv.URL+"/webhook/memories/batch", `{"memories":[]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"])
	assert.EqualValues(t, 0, out["created"])
	assert.EqualValues(t, 0, out["failed"])
}

func TestWebhookBatch_MissingMemoriesField(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, "")

	resp, _ := postJSON(t, srv.URL+"/webhook/memories/batch", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhookBatch_NonArrayMemories(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, "")

	resp, out := postJSON(t, srv.URL+"/webhook/memories/batch", `{"memories":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["message"], "malformed payload")
}

func TestWebhookZapier_AlternateKeys(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(t, st, "")

	resp, out := postJSON(t, srv.URL+"/webhook/zapier", `{"message":"hello","email":"a@b.com"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Memory created via Zapier", out["message"])

	require.Len(t, st.added, 1)
	assert.Equal(t, "hello", st.added[0].Content)
	assert.Equal(t, "a@b.com", st.added[0].UserID)
}

func TestWebhookGeneric_AcceptsAnything(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(t, st, "")

	for _, body := range []string{`{}`, `[]`, `"bare string"`, `{"foo":{"bar":1}}`} {
		resp, out := postJSON(t, srv.URL+"/webhook/generic", body)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "body %s", body)
		assert.Equal(t, true, out["success"], "body %s", body)
	}
	assert.Len(t, st.added, 4)
}

func TestWebhookSignature_Enforced(t *testing.T) {
	st := &fakeStore{}
	srv := newTestServer(t, st, "topsecret")
	body := `{"content":"signed"}`

	// Unsigned request is rejected.
	resp, _ := postJSON(t, srv.URL+"/webhook/memory", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, st.added)

	// Correctly signed request passes.
	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write([]byte(body))
	sig := hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequest("POST", srv.URL+"/webhook/memory", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", sig)

	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	require.Len(t, st.added, 1)
}

func TestWebhookSignature_HealthExempt(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, "topsecret")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServiceInfoPage(t *testing.T) {
	srv := newTestServer(t, &fakeStore{}, "")

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}
