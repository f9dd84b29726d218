// Package ingest implements Event Ingestion & Reconciliation (C3): turning
// provider-originated events (webhooks) and sync-pulled records into
// idempotent mutations of internal entities.
package ingest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	goslack "github.com/slack-go/slack"
)

// Verifier authenticates an inbound webhook request before its payload is
// trusted. Each integration registers its own implementation.
type Verifier interface {
	Verify(headers http.Header, rawBody []byte) error
}

// ReplayWindow is the maximum tolerance between a webhook's signed
// timestamp and server time (spec §4.3: ≤5 minutes).
const ReplayWindow = 5 * time.Minute

// HMACVerifier implements the generic `v0:{timestamp}:{raw_body}` canonical
// base-string HMAC-SHA256 scheme most non-Slack integrations use.
type HMACVerifier struct {
	Secret          string
	SignatureHeader string // e.g. "X-Signature"
	TimestampHeader string // e.g. "X-Request-Timestamp"
	AllowInsecure   bool   // bypasses verification when true (explicit escape hatch)
}

func (v HMACVerifier) Verify(headers http.Header, rawBody []byte) error {
	if v.AllowInsecure {
		return nil
	}

	tsHeader := headers.Get(v.TimestampHeader)
	if tsHeader == "" {
		return fmt.Errorf("missing %s header", v.TimestampHeader)
	}
	ts, err := strconv.ParseInt(tsHeader, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed %s header: %w", v.TimestampHeader, err)
	}
	signedAt := time.Unix(ts, 0)
	if skew := time.Since(signedAt); skew > ReplayWindow || skew < -ReplayWindow {
		return fmt.Errorf("timestamp outside replay window: skew=%s", skew)
	}

	sig := headers.Get(v.SignatureHeader)
	if sig == "" {
		return fmt.Errorf("missing %s header", v.SignatureHeader)
	}
	sig = strings.TrimPrefix(sig, "v0=")

	base := fmt.Sprintf("v0:%d:%s", ts, rawBody)
	mac := hmac.New(sha256.New, []byte(v.Secret))
	mac.Write([]byte(base))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// SlackVerifier reuses slack-go's own OAuth v2 signed-secret verifier
// rather than reimplementing Slack's signing scheme, grounded on
// pkg/slack/verify.go.
type SlackVerifier struct {
	SigningSecret string
	AllowInsecure bool
}

func (v SlackVerifier) Verify(headers http.Header, rawBody []byte) error {
	if v.AllowInsecure {
		return nil
	}
	sv, err := goslack.NewSecretsVerifier(headers, v.SigningSecret)
	if err != nil {
		return fmt.Errorf("constructing slack secrets verifier: %w", err)
	}
	if _, err := sv.Write(rawBody); err != nil {
		return fmt.Errorf("writing body to slack verifier: %w", err)
	}
	if err := sv.Ensure(); err != nil {
		return fmt.Errorf("slack signature invalid: %w", err)
	}
	return nil
}

// Registry maps integration kinds to their Verifier, with a policy switch
// that disables verification only when ALLOW_INSECURE_SIGNATURES is set.
type Registry struct {
	verifiers map[string]Verifier
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{verifiers: map[string]Verifier{}}
}

// Register associates a Verifier with an integration kind.
func (r *Registry) Register(kind string, v Verifier) {
	r.verifiers[kind] = v
}

// Verify looks up and runs the Verifier registered for kind.
func (r *Registry) Verify(kind string, headers http.Header, rawBody []byte) error {
	v, ok := r.verifiers[kind]
	if !ok {
		return fmt.Errorf("no signature verifier registered for %s", kind)
	}
	return v.Verify(headers, rawBody)
}
