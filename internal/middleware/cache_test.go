package middleware

import (
	"net/http"
	"testing"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	hdr.Set("X-Request-Id", "abc-123")
	body := []byte(`{"items":[],"count":0}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(payload)
	if !ok {
		t.Fatal("decode failed")
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	if gotHdr.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", gotHdr.Get("Content-Type"))
	}
	if string(gotBody) != string(body) {
		t.Errorf("body = %q, want %q", gotBody, body)
	}
}

func TestDecodePayloadRejectsTruncated(t *testing.T) {
	for _, bs := range [][]byte{nil, {1, 2, 3}, {0, 0, 0, 200, 0, 0, 1, 0}} {
		if _, _, _, ok := decodePayload(bs); ok {
			t.Errorf("decodePayload(%v) accepted malformed input", bs)
		}
	}
}

func TestCaptureWriterRespectsLimit(t *testing.T) {
	cw := &captureWriter{ResponseWriter: nopResponseWriter{}, limit: 5}
	if _, err := cw.Write([]byte("hello world")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := cw.buf.String(); got != "hello" {
		t.Errorf("buffered %q, want %q", got, "hello")
	}
	if cw.size != int64(len("hello world")) {
		t.Errorf("size = %d, want %d", cw.size, len("hello world"))
	}
}

type nopResponseWriter struct{}

func (nopResponseWriter) Header() http.Header       { return http.Header{} }
func (nopResponseWriter) Write(b []byte) (int, error) { return len(b), nil }
func (nopResponseWriter) WriteHeader(int)           {}
