package security

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// VerifySignature validates the X-Hub-Signature-256 header on a webhook
// request against the shared app secret and returns the request body. The
// body is restored on the request so handlers can decode it afterwards.
// With an empty secret the check is skipped.
func VerifySignature(r *http.Request, secret string) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	if secret == "" {
		return body, nil
	}

	signatureHeader := r.Header.Get("X-Hub-Signature-256")
	if signatureHeader == "" {
		return nil, fmt.Errorf("missing X-Hub-Signature-256 header")
	}

	scheme, expected, ok := strings.Cut(signatureHeader, "=")
	if !ok || !strings.EqualFold(scheme, "sha256") {
		return nil, fmt.Errorf("invalid signature format")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computed), []byte(expected)) {
		return nil, fmt.Errorf("signature mismatch")
	}

	return body, nil
}
