package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBuf() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestKeysAreRedacted(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{})

	h.Miss("user_42")
	h.StoreError("get", "user_42", errors.New("conn refused"))
	h.ClearedPrefix("user_")

	out := buf.String()
	if strings.Contains(out, "user_42") {
		t.Fatalf("raw key leaked: %q", out)
	}
	if !strings.Contains(out, "key="+h.redact("user_42")) {
		t.Fatalf("redacted key missing: %q", out)
	}
	if !strings.Contains(out, "prefix=user_") || !strings.Contains(out, "op=get") {
		t.Fatalf("missing attrs: %q", out)
	}
}

func TestCustomRedactAndSampling(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{HitEvery: 3, Redact: func(string) string { return "x" }})

	for i := 0; i < 9; i++ {
		h.Hit("k")
	}
	if n := strings.Count(buf.String(), "cacheproxy.hit"); n != 3 {
		t.Fatalf("logged %d hits, want 3", n)
	}
	if !strings.Contains(buf.String(), "key=x") {
		t.Fatalf("custom redactor not used: %q", buf.String())
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	h := New(nil, Options{})
	h.Hit("k")
	h.LoadFailed("k", errors.New("x"))
	h.ClearedPrefix("p_")
}
