package tsqr

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func samplePayload() Payload {
	return Payload{
		"tenant_id":      "demo",
		"transaction_id": "tx_123",
		"timestamp":      int64(1700000000),
		"nonce":          "nonce_abc",
		"merchant_id":    "merchant_001",
		"plan_id":        "plan_basic_12m",
		"amount_cents":   1299,
		"currency":       "USD",
	}
}

func TestCanonicalize(t *testing.T) {
	got, err := Canonicalize(Payload{"b": 1, "a": "x<y>&z", "c": []any{true, nil}})
	if err != nil {
		t.Fatalf("Canonicalize() error = %v", err)
	}
	want := `{"a":"x<y>&z","b":1,"c":[true,null]}`
	if string(got) != want {
		t.Errorf("Canonicalize() = %s, want %s", got, want)
	}
}

func TestCanonicalize_OrderIndependent(t *testing.T) {
	p1 := Payload{}
	p1["nonce"] = "n"
	p1["tenant_id"] = "t"
	p1["timestamp"] = 10

	p2 := Payload{}
	p2["timestamp"] = 10
	p2["tenant_id"] = "t"
	p2["nonce"] = "n"

	c1, _ := Canonicalize(p1)
	c2, _ := Canonicalize(p2)
	if !bytes.Equal(c1, c2) {
		t.Errorf("canonical forms differ: %s vs %s", c1, c2)
	}

	t1, _ := Encode(p1, "secret")
	t2, _ := Encode(p2, "secret")
	if t1 != t2 {
		t.Errorf("tokens differ for equal payloads")
	}
}

func TestCanonicalize_NonASCII(t *testing.T) {
	tests := []struct {
		name string
		in   Payload
		want string
	}{
		{
			name: "latin-1 values and keys",
			in:   Payload{"name": "café", "é": 1, "z": 2},
			want: `{"name":"caf\u00e9","z":2,"\u00e9":1}`,
		},
		{
			name: "astral rune as surrogate pair",
			in:   Payload{"emoji": "\U0001F600"},
			want: `{"emoji":"\ud83d\ude00"}`,
		},
		{
			name: "DEL and control characters",
			in:   Payload{"del": "\x7f", "ctl": "\b\f\n\x01"},
			want: `{"ctl":"\b\f\n\u0001","del":"\u007f"}`,
		},
		{
			name: "line separators",
			in:   Payload{"s": "a\u2028b\u2029c"},
			want: `{"s":"a\u2028b\u2029c"}`,
		},
		{
			name: "mixed",
			in:   Payload{"name": "café", "é": 1, "z": 2, "emoji": "\U0001F600", "del": "\x7f", "html": "<&>", "ctl": "\b\f\n\x01"},
			want: `{"ctl":"\b\f\n\u0001","del":"\u007f","emoji":"\ud83d\ude00","html":"<&>","name":"caf\u00e9","z":2,"\u00e9":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.in)
			if err != nil {
				t.Fatalf("Canonicalize() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Canonicalize() = %s, want %s", got, tt.want)
			}
			for _, c := range got {
				if c >= 0x7f {
					t.Fatalf("Canonicalize() emitted byte %#x", c)
				}
			}
		})
	}
}

// interopToken was issued by the Python kiosk backend for a merchant name
// with accented characters, signed with dev-secret.
const interopToken = "TSQR1.eyJhbW91bnRfY2VudHMiOjEyOTksImN1cnJlbmN5IjoiRVVSIiwibWVyY2hhbnRfaWQiOiJDYWZcdTAwZTkgWlx1MDBmY3JpY2giLCJub25jZSI6Im5vbmNlXzEiLCJ0ZW5hbnRfaWQiOiJkZW1vIiwidGltZXN0YW1wIjoxNzAwMDAwMDAwLCJ0cmFuc2FjdGlvbl9pZCI6InR4XzEifQ.RwI5lIwGIHkq8jdhN9I3QikuJMN3FDbFoZg5PYcIq50"

func TestInteropToken(t *testing.T) {
	payload, sig, err := Decode(interopToken)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := payload["merchant_id"]; got != "Café Zürich" {
		t.Errorf("merchant_id = %q", got)
	}

	canonical, err := Canonicalize(payload)
	if err != nil {
		t.Fatalf("Canonicalize() error = %v", err)
	}
	want := `{"amount_cents":1299,"currency":"EUR","merchant_id":"Caf\u00e9 Z\u00fcrich","nonce":"nonce_1","tenant_id":"demo","timestamp":1700000000,"transaction_id":"tx_1"}`
	if string(canonical) != want {
		t.Errorf("Canonicalize() = %s, want %s", canonical, want)
	}
	if !Verify(canonical, []byte("dev-secret"), sig) {
		t.Error("signature from the Python issuer did not verify")
	}

	// Minting the same payload here reproduces the issuer's token byte for byte.
	reminted, err := Encode(Payload{
		"tenant_id":      "demo",
		"merchant_id":    "Café Zürich",
		"transaction_id": "tx_1",
		"timestamp":      1_700_000_000,
		"nonce":          "nonce_1",
		"amount_cents":   1299,
		"currency":       "EUR",
	}, "dev-secret")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if reminted != interopToken {
		t.Errorf("Encode() = %s\nwant %s", reminted, interopToken)
	}
}

func TestEncode_Format(t *testing.T) {
	token, err := Encode(samplePayload(), "dev-secret")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}
	if parts[0] != Version {
		t.Errorf("prefix = %q, want %q", parts[0], Version)
	}
	if strings.Contains(token, "=") {
		t.Error("token should not contain base64 padding")
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("signature segment not base64url: %v", err)
	}
	if len(sig) != SignatureSize {
		t.Errorf("signature length = %d, want %d", len(sig), SignatureSize)
	}

	canonical, _ := Canonicalize(samplePayload())
	if parts[1] != base64.RawURLEncoding.EncodeToString(canonical) {
		t.Error("payload segment is not the canonical payload")
	}
	if !Verify(canonical, []byte("dev-secret"), sig) {
		t.Error("signature does not verify over canonical bytes")
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	token, err := Encode(samplePayload(), "dev-secret")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	payload, sig, err := Decode("  " + token + "\n")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if payload.TenantID() != "demo" || payload.Nonce() != "nonce_abc" {
		t.Errorf("Decode() payload = %v", payload)
	}
	ts, ok := payload.Timestamp()
	if !ok || ts != 1700000000 {
		t.Errorf("Timestamp() = (%d, %v), want (1700000000, true)", ts, ok)
	}

	canonical, _ := Canonicalize(payload)
	if !Verify(canonical, []byte("dev-secret"), sig) {
		t.Error("recomputed canonical bytes do not verify")
	}
}

func TestDecode_PreservesNumberLiterals(t *testing.T) {
	raw := []byte(`{"amount":12.50,"big":123456789012345678901,"nonce":"n","tenant_id":"t","timestamp":5}`)
	token := Version + "." + base64.RawURLEncoding.EncodeToString(raw) + "." +
		base64.RawURLEncoding.EncodeToString(Sign(raw, []byte("s")))

	payload, sig, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	canonical, err := Canonicalize(payload)
	if err != nil {
		t.Fatalf("Canonicalize() error = %v", err)
	}
	if !bytes.Equal(canonical, raw) {
		t.Errorf("canonical = %s, want %s", canonical, raw)
	}
	if !Verify(canonical, []byte("s"), sig) {
		t.Error("signature should verify")
	}
}

func TestDecode_PaddedSegments(t *testing.T) {
	raw := []byte(`{"a":1}`)
	padded := base64.URLEncoding.EncodeToString(raw)
	if !strings.HasSuffix(padded, "=") {
		t.Fatalf("test fixture should need padding: %s", padded)
	}
	token := Version + "." + padded + "." + base64.URLEncoding.EncodeToString(Sign(raw, []byte("s")))
	if _, _, err := Decode(token); err != nil {
		t.Errorf("Decode() with padding error = %v", err)
	}
}

func TestDecode_Errors(t *testing.T) {
	obj := base64.RawURLEncoding.EncodeToString([]byte(`{"a":1}`))
	sig := base64.RawURLEncoding.EncodeToString([]byte("sig"))
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrInvalidFormat},
		{"two segments", Version + "." + obj, ErrInvalidFormat},
		{"four segments", Version + "." + obj + "." + sig + ".x", ErrInvalidFormat},
		{"wrong version", "TSQR2." + obj + "." + sig, ErrInvalidFormat},
		{"lowercase version", "tsqr1." + obj + "." + sig, ErrInvalidFormat},
		{"bad payload base64", Version + ".!!!." + sig, ErrInvalidFormat},
		{"bad signature base64", Version + "." + obj + ".@@", ErrInvalidFormat},
		{"payload array", Version + "." + enc(`[1,2]`) + "." + sig, ErrInvalidPayload},
		{"payload string", Version + "." + enc(`"x"`) + "." + sig, ErrInvalidPayload},
		{"payload null", Version + "." + enc(`null`) + "." + sig, ErrInvalidPayload},
		{"payload not json", Version + "." + enc(`{a:1}`) + "." + sig, ErrInvalidPayload},
		{"payload trailing", Version + "." + enc(`{"a":1}{}`) + "." + sig, ErrInvalidPayload},
		{"payload not utf8", Version + "." + enc("{\"a\":\"\xff\"}") + "." + sig, ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.token)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPayload_Int(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want int64
		ok   bool
	}{
		{"json int", json.Number("42"), 42, true},
		{"json negative", json.Number("-7"), -7, true},
		{"json float", json.Number("42.0"), 0, false},
		{"json exponent", json.Number("4e1"), 0, false},
		{"go int", 42, 42, true},
		{"go int64", int64(42), 42, true},
		{"float64", float64(42), 0, false},
		{"string", "42", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Payload{"n": tt.v}.Int("n")
			if got != tt.want || ok != tt.ok {
				t.Errorf("Int() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPayload_Claims(t *testing.T) {
	token, _ := Encode(samplePayload(), "k")
	payload, _, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	c := payload.Claims()
	if c.TenantID != "demo" || c.TransactionID != "tx_123" || c.PlanID != "plan_basic_12m" {
		t.Errorf("Claims() = %+v", c)
	}
	if c.AmountCents == nil || *c.AmountCents != 1299 {
		t.Errorf("AmountCents = %v, want 1299", c.AmountCents)
	}
	if c.ProfileID != "" {
		t.Errorf("ProfileID = %q, want empty", c.ProfileID)
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	canonical := []byte(`{"a":1}`)
	sig := Sign(canonical, []byte("secret"))

	for i := range sig {
		tampered := append([]byte(nil), sig...)
		tampered[i] ^= 0x01
		if Verify(canonical, []byte("secret"), tampered) {
			t.Fatalf("Verify() accepted signature tampered at byte %d", i)
		}
	}

	if Verify(canonical, []byte("secret"), sig[:len(sig)-1]) {
		t.Error("Verify() accepted truncated signature")
	}
	if Verify(canonical, []byte("other"), sig) {
		t.Error("Verify() accepted wrong secret")
	}
	if !(HMACSigner{}).Verify(canonical, []byte("secret"), sig) {
		t.Error("HMACSigner.Verify() rejected valid signature")
	}
}

func BenchmarkEncode(b *testing.B) {
	p := samplePayload()
	for i := 0; i < b.N; i++ {
		Encode(p, "bench-secret")
	}
}

func BenchmarkDecode(b *testing.B) {
	token, _ := Encode(samplePayload(), "bench-secret")
	for i := 0; i < b.N; i++ {
		Decode(token)
	}
}
