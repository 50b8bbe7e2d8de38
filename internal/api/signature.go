package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/quinnmay/mem0hook/internal/api/respond"
)

const signatureHeader = "X-Webhook-Signature"

// SignatureMiddleware verifies the HMAC-SHA256 hex signature of the raw
// request body when a webhook secret is configured. With an empty secret the
// middleware is a pass-through, matching integrations that cannot sign.
func SignatureMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				respond.WriteBadRequest(w, "unreadable body")
				return
			}
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !verifySignature(body, r.Header.Get(signatureHeader), secret) {
				respond.WriteUnauthorized(w, "invalid webhook signature")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func verifySignature(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
