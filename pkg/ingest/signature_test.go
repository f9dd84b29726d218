package ingest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"testing"
	"time"
)

func sign(secret string, ts int64, body []byte) string {
	base := "v0:" + strconv.FormatInt(ts, 10) + ":" + string(body)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(base))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func TestHMACVerifier_Verify(t *testing.T) {
	secret := "shh"
	body := []byte(`{"hello":"world"}`)
	now := time.Now().Unix()

	headers := http.Header{}
	headers.Set("X-Signature", sign(secret, now, body))
	headers.Set("X-Request-Timestamp", strconv.FormatInt(now, 10))

	v := HMACVerifier{Secret: secret, SignatureHeader: "X-Signature", TimestampHeader: "X-Request-Timestamp"}
	if err := v.Verify(headers, body); err != nil {
		t.Fatalf("Verify() = %v, want nil", err)
	}
}

func TestHMACVerifier_RejectsBadSignature(t *testing.T) {
	now := time.Now().Unix()
	headers := http.Header{}
	headers.Set("X-Signature", "v0=deadbeef")
	headers.Set("X-Request-Timestamp", strconv.FormatInt(now, 10))

	v := HMACVerifier{Secret: "shh", SignatureHeader: "X-Signature", TimestampHeader: "X-Request-Timestamp"}
	if err := v.Verify(headers, []byte("body")); err == nil {
		t.Fatal("Verify() = nil, want error for mismatched signature")
	}
}

func TestHMACVerifier_RejectsReplay(t *testing.T) {
	secret := "shh"
	body := []byte("payload")
	old := time.Now().Add(-10 * time.Minute).Unix()

	headers := http.Header{}
	headers.Set("X-Signature", sign(secret, old, body))
	headers.Set("X-Request-Timestamp", strconv.FormatInt(old, 10))

	v := HMACVerifier{Secret: secret, SignatureHeader: "X-Signature", TimestampHeader: "X-Request-Timestamp"}
	if err := v.Verify(headers, body); err == nil {
		t.Fatal("Verify() = nil, want replay-window error")
	}
}

func TestHMACVerifier_MissingHeaders(t *testing.T) {
	v := HMACVerifier{Secret: "shh", SignatureHeader: "X-Signature", TimestampHeader: "X-Request-Timestamp"}
	if err := v.Verify(http.Header{}, []byte("body")); err == nil {
		t.Fatal("Verify() = nil, want error for missing headers")
	}
}

func TestHMACVerifier_AllowInsecureBypasses(t *testing.T) {
	v := HMACVerifier{AllowInsecure: true}
	if err := v.Verify(http.Header{}, []byte("anything")); err != nil {
		t.Fatalf("Verify() = %v, want nil under AllowInsecure", err)
	}
}

func TestRegistry_Verify(t *testing.T) {
	r := NewRegistry()
	r.Register("widget", HMACVerifier{AllowInsecure: true})

	if err := r.Verify("widget", http.Header{}, nil); err != nil {
		t.Fatalf("Verify() = %v, want nil", err)
	}
	if err := r.Verify("unregistered", http.Header{}, nil); err == nil {
		t.Fatal("Verify() = nil, want error for unregistered kind")
	}
}

func TestHashPayload_Deterministic(t *testing.T) {
	a := HashPayload([]byte("hello"))
	b := HashPayload([]byte("hello"))
	if a != b {
		t.Errorf("HashPayload() not deterministic: %q != %q", a, b)
	}
	if c := HashPayload([]byte("world")); c == a {
		t.Error("HashPayload() collided for distinct inputs")
	}
}
